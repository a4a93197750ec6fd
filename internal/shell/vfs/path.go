package vfs

import "strings"

// Resolve turns target into an absolute path relative to base.
//
//   - an empty target is the root
//   - a leading "/" starts from the root
//   - a leading "~" is the home directory, which is the root
//   - ".." pops one segment and never climbs above the root
//   - "." is dropped
//   - anything else is appended
//
// The rules apply segment by segment, so "../../x" pops twice before appending.
func Resolve(base, target string) string {
	if target == "" {
		return "/"
	}

	var segments []string
	switch {
	case strings.HasPrefix(target, "/"):
	case target == "~" || strings.HasPrefix(target, "~/"):
		target = strings.TrimPrefix(target, "~")
	default:
		segments = Split(base)
	}

	for _, seg := range strings.Split(target, "/") {
		switch seg {
		case "", ".":
		case "..":
			if len(segments) > 0 {
				segments = segments[:len(segments)-1]
			}
		default:
			segments = append(segments, seg)
		}
	}
	return "/" + strings.Join(segments, "/")
}

// Split breaks an absolute path into its non-empty segments.
func Split(abs string) []string {
	var segments []string
	for _, seg := range strings.Split(abs, "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	return segments
}

// Dir splits an absolute path into its parent path and final name.
func Dir(abs string) (parent, name string) {
	segments := Split(abs)
	if len(segments) == 0 {
		return "/", ""
	}
	return "/" + strings.Join(segments[:len(segments)-1], "/"), segments[len(segments)-1]
}

// Walk follows abs from root by exact child names. ok is false when any
// segment is missing.
func Walk(root *Directory, abs string) (*Directory, bool) {
	node := root
	for _, seg := range Split(abs) {
		next, found := node.Child(seg)
		if !found {
			return nil, false
		}
		node = next
	}
	return node, true
}

// Lookup resolves abs to either a directory or a file. Exactly one of dir and
// file is set when ok is true.
func Lookup(root *Directory, abs string) (dir *Directory, file *File, ok bool) {
	if d, found := Walk(root, abs); found {
		return d, nil, true
	}
	parentPath, name := Dir(abs)
	parent, found := Walk(root, parentPath)
	if !found {
		return nil, nil, false
	}
	if f, found := parent.File(name); found {
		return nil, f, true
	}
	return nil, nil, false
}
