/*
Package playground ties the sandbox pieces into the session the UI talks
to.

A Session is created once per daemon and outlives every terminal
attachment. Open boots the shared engine instance in the background,
subscribes to server-ready notifications and mounts the project tree. The
shell is spawned once both a terminal view and a mounted instance exist;
its first spawn starts the activity transcript and schedules the
automatic install-and-start command.

Guards (mount once, spawn once, issue once) live on the Session and its
collaborators, never on an attachment, so closing and reopening a
terminal keeps the same shell and the same ready URL.
*/
package playground
