// Package server assembles the sandbox daemon: engine, playground session,
// template catalog, assistant client, middleware and routes.
package server
