// Package local is a sandbox engine backed by the host: each instance is a
// private directory, processes run under a pseudo-terminal, and a port
// prober raises server-ready notifications when a dev server starts
// listening.
package local
