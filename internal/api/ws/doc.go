/*
Package ws streams the playground terminal over a WebSocket.

Connecting attaches a terminal surface: the scrollback is replayed as one
binary frame and live output follows as binary frames. Closing the socket
detaches; the shell keeps running.

Client frames are JSON text frames:

	{"type":"input","data":"ls\r"}
	{"type":"resize","cols":120,"rows":40}
	{"type":"rerun"}
	{"type":"clear"}
	{"type":"ping"}

Binary client frames are forwarded to the shell as raw input.

Server text frames carry {"type":"status"|"exit"|"pong"|"error", ...}.
*/
package ws
