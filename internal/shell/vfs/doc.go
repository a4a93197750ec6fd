// Package vfs is the in-memory filesystem a shell session navigates.
//
// A tree is built from a YAML descriptor (an embedded default, or a file named
// in configuration). Directories own their children; the parent pointer is only
// a back reference used by ".." and Path. No two entries in one directory share
// a name, whether file or directory.
//
// Paths are resolved lexically by Resolve and then walked by Walk or Lookup.
// A missing segment is reported through the ok result, never as a panic.
//
// Nothing here is safe for concurrent use. A tree belongs to exactly one shell
// session and is only touched from that session's event loop.
package vfs
