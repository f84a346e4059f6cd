// Package terminal runs the sandbox's interactive shell and keeps the
// terminal view every attached surface renders.
//
// A Shell moves through four states:
//
//	uninitialized → terminal-ready → shell-attached → exited
//
// Attach creates the View (terminal-ready) and hands back an Attachment, a
// subscriber that receives the scrollback followed by live output. Connect
// spawns the shell once a View and an engine instance both exist. Closing
// an Attachment only releases that subscriber: the shell and the engine
// keep running, and the next Attach replays the scrollback and continues
// the same shell.
//
// The View also backs the terminal affordances: copying a screen
// selection, searching the scrollback, downloading it as plain text and
// clearing it. None of these touch the shell process.
package terminal
