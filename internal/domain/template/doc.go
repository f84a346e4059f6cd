/*
Package template describes the starter projects a playground can be
created from.

The catalog is read from a manifest (templates.yaml or templates.toml) in
the starters directory, falling back to the built-in list. Load turns a
starter folder on disk into a filetree.Folder, skipping dependency folders
and binary files and decoding legacy text encodings to UTF-8.
*/
package template
