// Package preview decides what the preview pane shows: the live server,
// a loading indicator while the sandbox boots, or a static placeholder
// document for the project kind.
package preview
