package vfs

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	ErrNotFound    = errors.New("no such file or directory")
	ErrExists      = errors.New("file exists")
	ErrInvalidName = errors.New("invalid name")
	ErrNotFile     = errors.New("not a regular file")
	ErrPermissions = errors.New("invalid permissions")
)

const (
	DefaultDirPermissions  = "755"
	DefaultFilePermissions = "644"
)

// File is a leaf of the tree. Content is opaque text.
type File struct {
	Name              string
	Content           string
	RequiresElevation bool
	Permissions       string
}

// Executable reports whether any of the owner, group or other digits carries the x bit.
func (f *File) Executable() bool {
	for _, c := range f.Permissions {
		if c >= '0' && c <= '7' && (c-'0')&1 == 1 {
			return true
		}
	}
	return false
}

// Directory is a node of the tree. The parent pointer is a back reference only;
// a directory is owned by the children slice of its parent.
type Directory struct {
	Name              string
	RequiresElevation bool
	Permissions       string

	parent   *Directory
	children []*Directory
	files    []*File
}

// Entry is one line of a directory listing.
type Entry struct {
	Name  string `json:"name"`
	IsDir bool   `json:"is_dir"`
}

// NewRoot creates an empty root directory.
func NewRoot() *Directory {
	return &Directory{Name: "root", Permissions: DefaultDirPermissions}
}

// Parent returns the containing directory, or nil for the root.
func (d *Directory) Parent() *Directory { return d.parent }

// IsRoot reports whether d has no parent.
func (d *Directory) IsRoot() bool { return d.parent == nil }

// Root walks up to the top of the tree.
func (d *Directory) Root() *Directory {
	for d.parent != nil {
		d = d.parent
	}
	return d
}

// Path renders the absolute path of d. The root renders as "/".
func (d *Directory) Path() string {
	var segments []string
	for n := d; n.parent != nil; n = n.parent {
		segments = append(segments, n.Name)
	}
	if len(segments) == 0 {
		return "/"
	}
	slices.Reverse(segments)
	return "/" + strings.Join(segments, "/")
}

// List returns files first, then directories, each in insertion order.
func (d *Directory) List() []Entry {
	entries := make([]Entry, 0, len(d.files)+len(d.children))
	for _, f := range d.files {
		entries = append(entries, Entry{Name: f.Name})
	}
	for _, c := range d.children {
		entries = append(entries, Entry{Name: c.Name, IsDir: true})
	}
	return entries
}

// Len is the number of entries in d.
func (d *Directory) Len() int {
	return len(d.files) + len(d.children)
}

// Children returns a copy of the subdirectory list.
func (d *Directory) Children() []*Directory {
	return slices.Clone(d.children)
}

// Files returns a copy of the file list.
func (d *Directory) Files() []*File {
	return slices.Clone(d.files)
}

// Child finds a subdirectory by exact name.
func (d *Directory) Child(name string) (*Directory, bool) {
	for _, c := range d.children {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// File finds a file by exact name.
func (d *Directory) File(name string) (*File, bool) {
	for _, f := range d.files {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// Has reports whether any entry, file or directory, is called name.
func (d *Directory) Has(name string) bool {
	_, isDir := d.Child(name)
	_, isFile := d.File(name)
	return isDir || isFile
}

// Mkdir creates a subdirectory that inherits elevation and permissions from d.
func (d *Directory) Mkdir(name string) (*Directory, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	if d.Has(name) {
		return nil, fmt.Errorf("mkdir %s: %w", name, ErrExists)
	}

	child := &Directory{
		Name:              name,
		RequiresElevation: d.RequiresElevation,
		Permissions:       d.Permissions,
		parent:            d,
	}
	d.children = append(d.children, child)
	return child, nil
}

// Touch creates a file, or replaces the content of an existing one. created is
// false when an existing file was updated. An empty perm means 644.
func (d *Directory) Touch(name, content, perm string) (file *File, created bool, err error) {
	if err := validName(name); err != nil {
		return nil, false, err
	}
	if perm == "" {
		perm = DefaultFilePermissions
	}
	if !ValidPermissions(perm) {
		return nil, false, fmt.Errorf("touch %s: %w: %q", name, ErrPermissions, perm)
	}
	if _, isDir := d.Child(name); isDir {
		return nil, false, fmt.Errorf("touch %s: %w", name, ErrExists)
	}

	if f, ok := d.File(name); ok {
		f.Content = content
		return f, false, nil
	}

	f := &File{
		Name:              name,
		Content:           content,
		RequiresElevation: d.RequiresElevation,
		Permissions:       perm,
	}
	d.files = append(d.files, f)
	return f, true, nil
}

// Remove deletes the file or directory called name. Removing a directory drops
// its whole subtree.
func (d *Directory) Remove(name string) error {
	if i := slices.IndexFunc(d.files, func(f *File) bool { return f.Name == name }); i >= 0 {
		d.files = slices.Delete(d.files, i, i+1)
		return nil
	}
	if i := slices.IndexFunc(d.children, func(c *Directory) bool { return c.Name == name }); i >= 0 {
		d.children[i].parent = nil
		d.children = slices.Delete(d.children, i, i+1)
		return nil
	}
	return fmt.Errorf("rm %s: %w", name, ErrNotFound)
}

// Read returns the content of the file called name.
func (d *Directory) Read(name string) (string, error) {
	f, ok := d.File(name)
	if !ok {
		return "", fmt.Errorf("cat %s: %w", name, ErrNotFound)
	}
	return f.Content, nil
}

// Rename changes the name of a file or directory in place.
func (d *Directory) Rename(name, newName string) error {
	if err := validName(newName); err != nil {
		return err
	}
	if name == newName {
		return nil
	}
	if d.Has(newName) {
		return fmt.Errorf("mv %s: %w", newName, ErrExists)
	}
	if f, ok := d.File(name); ok {
		f.Name = newName
		return nil
	}
	if c, ok := d.Child(name); ok {
		c.Name = newName
		return nil
	}
	return fmt.Errorf("mv %s: %w", name, ErrNotFound)
}

// Copy duplicates a file, content and metadata, under a new name. Directories
// cannot be copied.
func (d *Directory) Copy(name, newName string) error {
	if err := validName(newName); err != nil {
		return err
	}
	f, ok := d.File(name)
	if !ok {
		if _, isDir := d.Child(name); isDir {
			return fmt.Errorf("cp %s: %w", name, ErrNotFile)
		}
		return fmt.Errorf("cp %s: %w", name, ErrNotFound)
	}
	if d.Has(newName) {
		return fmt.Errorf("cp %s: %w", newName, ErrExists)
	}

	dup := *f
	dup.Name = newName
	d.files = append(d.files, &dup)
	return nil
}

// Chmod sets the permission bits of a file or directory.
func (d *Directory) Chmod(name, perm string) error {
	if !ValidPermissions(perm) {
		return fmt.Errorf("chmod %s: %w: %q", name, ErrPermissions, perm)
	}
	if f, ok := d.File(name); ok {
		f.Permissions = perm
		return nil
	}
	if c, ok := d.Child(name); ok {
		c.Permissions = perm
		return nil
	}
	return fmt.Errorf("chmod %s: %w", name, ErrNotFound)
}

// ValidPermissions accepts exactly three octal digits.
func ValidPermissions(perm string) bool {
	if len(perm) != 3 {
		return false
	}
	for _, c := range perm {
		if c < '0' || c > '7' {
			return false
		}
	}
	return true
}

func validName(name string) error {
	switch {
	case name == "", name == ".", name == "..", name == "~":
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	case strings.ContainsAny(name, "/\x00"):
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
