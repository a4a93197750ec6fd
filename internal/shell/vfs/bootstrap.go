package vfs

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

//go:embed default_tree.yaml
var defaultTree []byte

// Descriptor is the declarative form of a tree, as stored in YAML.
type Descriptor struct {
	Name              string           `yaml:"name"`
	RequiresElevation bool             `yaml:"sudo,omitempty"`
	Permissions       string           `yaml:"permissions,omitempty"`
	Files             []FileDescriptor `yaml:"files,omitempty"`
	Directories       []Descriptor     `yaml:"directories,omitempty"`
}

// FileDescriptor is the declarative form of a file.
type FileDescriptor struct {
	Name              string `yaml:"name"`
	Content           string `yaml:"content,omitempty"`
	RequiresElevation bool   `yaml:"sudo,omitempty"`
	Permissions       string `yaml:"permissions,omitempty"`
}

// ParseDescriptor decodes a YAML tree descriptor.
func ParseDescriptor(data []byte) (*Descriptor, error) {
	var desc Descriptor
	if err := yaml.Unmarshal(data, &desc); err != nil {
		return nil, fmt.Errorf("parse tree descriptor: %w", err)
	}
	return &desc, nil
}

// DefaultDescriptor returns the built-in bootstrap tree.
func DefaultDescriptor() *Descriptor {
	desc, err := ParseDescriptor(defaultTree)
	if err != nil {
		panic(fmt.Sprintf("embedded tree descriptor is invalid: %v", err))
	}
	return desc
}

// LoadDescriptor reads a descriptor from path, or returns the built-in one
// when path is empty.
func LoadDescriptor(path string) (*Descriptor, error) {
	if path == "" {
		return DefaultDescriptor(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tree descriptor: %w", err)
	}
	return ParseDescriptor(data)
}

// Build materializes a fresh tree from desc. Each call returns an independent
// tree; sessions never share nodes.
func (desc *Descriptor) Build() (*Directory, error) {
	root := NewRoot()
	if desc.Name != "" {
		root.Name = desc.Name
	}
	root.RequiresElevation = desc.RequiresElevation
	if desc.Permissions != "" {
		root.Permissions = desc.Permissions
	}
	if err := populate(root, desc); err != nil {
		return nil, err
	}
	return root, nil
}

func populate(dir *Directory, desc *Descriptor) error {
	for _, fd := range desc.Files {
		f, _, err := dir.Touch(fd.Name, fd.Content, fd.Permissions)
		if err != nil {
			return fmt.Errorf("bootstrap %s: %w", dir.Path(), err)
		}
		f.RequiresElevation = fd.RequiresElevation
	}
	for i := range desc.Directories {
		sub := &desc.Directories[i]
		child, err := dir.Mkdir(sub.Name)
		if err != nil {
			return fmt.Errorf("bootstrap %s: %w", dir.Path(), err)
		}
		child.RequiresElevation = sub.RequiresElevation
		if sub.Permissions != "" {
			if !ValidPermissions(sub.Permissions) {
				return fmt.Errorf("bootstrap %s: %w: %q", child.Path(), ErrPermissions, sub.Permissions)
			}
			child.Permissions = sub.Permissions
		}
		if err := populate(child, sub); err != nil {
			return err
		}
	}
	return nil
}
