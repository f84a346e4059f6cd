// Package filetree models a project's source tree as the editor holds it
// and converts it into the engine's mount format.
//
// A tree is a Folder whose Items are Folders or Files. A file's on-disk
// name is its base name joined with its extension. Names are unique within
// a folder; Validate enforces that before a tree reaches the sandbox.
package filetree
