// Package autorun issues the project's install-and-start command into a
// freshly attached shell once per session, and re-issues it on request.
package autorun
