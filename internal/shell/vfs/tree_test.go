package vfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bootTree(t *testing.T) *Directory {
	t.Helper()
	root, err := DefaultDescriptor().Build()
	require.NoError(t, err)
	return root
}

func names(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

func TestDefaultTreeListsFilesBeforeDirectories(t *testing.T) {
	root := bootTree(t)

	entries := root.List()
	assert.Equal(t, []string{"About", "Contact", "Developers", "home", "etc"}, names(entries))
	assert.False(t, entries[0].IsDir)
	assert.False(t, entries[1].IsDir)
	assert.True(t, entries[2].IsDir)
}

func TestDefaultTreeShape(t *testing.T) {
	root := bootTree(t)

	nginx, ok := Walk(root, "/etc/nginx")
	require.True(t, ok)
	assert.True(t, nginx.RequiresElevation)
	assert.Equal(t, "/etc/nginx", nginx.Path())

	content, err := mustChild(t, root, "home").Read("file1.txt")
	require.NoError(t, err)
	assert.Equal(t, "User's text file", content)

	devs := mustChild(t, root, "Developers")
	assert.Equal(t, []string{"Koushik_Roy", "Gaurav_Gandhi", "Dinesh_Kumar"}, names(devs.List()))
}

func TestBuildReturnsIndependentTrees(t *testing.T) {
	desc := DefaultDescriptor()
	a, err := desc.Build()
	require.NoError(t, err)
	b, err := desc.Build()
	require.NoError(t, err)

	require.NoError(t, a.Remove("About"))
	assert.False(t, a.Has("About"))
	assert.True(t, b.Has("About"))
}

func TestMkdirInheritsFromParent(t *testing.T) {
	root := bootTree(t)
	etc := mustChild(t, root, "etc")
	nginx := mustChild(t, etc, "nginx")
	nginx.Permissions = "700"

	sites, err := nginx.Mkdir("sites")
	require.NoError(t, err)
	assert.True(t, sites.RequiresElevation)
	assert.Equal(t, "700", sites.Permissions)
	assert.Same(t, nginx, sites.Parent())
}

func TestNameCollisionsRejected(t *testing.T) {
	root := bootTree(t)

	_, err := root.Mkdir("About")
	assert.ErrorIs(t, err, ErrExists)

	_, _, err = root.Touch("home", "", "")
	assert.ErrorIs(t, err, ErrExists)

	_, err = root.Mkdir("home")
	assert.ErrorIs(t, err, ErrExists)
}

func TestInvalidNames(t *testing.T) {
	root := NewRoot()
	for _, name := range []string{"", ".", "..", "~", "a/b"} {
		_, err := root.Mkdir(name)
		assert.ErrorIs(t, err, ErrInvalidName, name)
	}
}

func TestTouchCreatesThenUpdates(t *testing.T) {
	root := NewRoot()

	f, created, err := root.Touch("notes", "one", "")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, DefaultFilePermissions, f.Permissions)

	_, created, err = root.Touch("notes", "two", "")
	require.NoError(t, err)
	assert.False(t, created)

	content, err := root.Read("notes")
	require.NoError(t, err)
	assert.Equal(t, "two", content)
	assert.Equal(t, 1, root.Len())

	_, _, err = root.Touch("bad", "", "9999")
	assert.ErrorIs(t, err, ErrPermissions)
}

func TestRemoveDropsEntryAndCount(t *testing.T) {
	tests := []struct {
		name   string
		create func(d *Directory) error
	}{
		{"directory", func(d *Directory) error { _, err := d.Mkdir("scratch"); return err }},
		{"file", func(d *Directory) error { _, _, err := d.Touch("scratch", "x", ""); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := bootTree(t)
			require.NoError(t, tt.create(root))
			before := root.Len()

			require.NoError(t, root.Remove("scratch"))

			assert.Equal(t, before-1, root.Len())
			assert.NotContains(t, names(root.List()), "scratch")
		})
	}
}

func TestRemoveMissing(t *testing.T) {
	root := NewRoot()
	assert.ErrorIs(t, root.Remove("ghost"), ErrNotFound)
}

func TestReadMissing(t *testing.T) {
	root := bootTree(t)
	_, err := root.Read("ghost")
	assert.ErrorIs(t, err, ErrNotFound)

	// directories are not readable
	_, err = root.Read("home")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRenameAndCopy(t *testing.T) {
	root := bootTree(t)
	home := mustChild(t, root, "home")

	require.NoError(t, home.Copy("file1.txt", "file2.txt"))
	require.NoError(t, home.Rename("file1.txt", "renamed.txt"))

	assert.Equal(t, []string{"renamed.txt", "file2.txt"}, names(home.List()))
	content, err := home.Read("file2.txt")
	require.NoError(t, err)
	assert.Equal(t, "User's text file", content)

	assert.ErrorIs(t, root.Copy("home", "home2"), ErrNotFile)
	assert.ErrorIs(t, home.Copy("file2.txt", "renamed.txt"), ErrExists)
	assert.ErrorIs(t, home.Rename("ghost", "x"), ErrNotFound)

	require.NoError(t, root.Rename("home", "house"))
	_, ok := Walk(root, "/house/renamed.txt")
	assert.False(t, ok)
	_, file, ok := Lookup(root, "/house/renamed.txt")
	require.True(t, ok)
	assert.Equal(t, "renamed.txt", file.Name)
}

func TestChmod(t *testing.T) {
	root := bootTree(t)

	require.NoError(t, root.Chmod("About", "755"))
	f, _ := root.File("About")
	assert.True(t, f.Executable())

	assert.ErrorIs(t, root.Chmod("About", "rwx"), ErrPermissions)
	assert.ErrorIs(t, root.Chmod("ghost", "644"), ErrNotFound)
}

func TestExecutable(t *testing.T) {
	tests := map[string]bool{
		"644": false,
		"755": true,
		"600": false,
		"001": true,
		"610": true,
	}
	for perm, want := range tests {
		f := &File{Permissions: perm}
		assert.Equal(t, want, f.Executable(), perm)
	}
}

func TestParseDescriptorErrors(t *testing.T) {
	_, err := ParseDescriptor([]byte("name: [unterminated"))
	assert.Error(t, err)

	desc, err := ParseDescriptor([]byte("name: r\ndirectories:\n  - name: a\n  - name: a\n"))
	require.NoError(t, err)
	_, err = desc.Build()
	assert.ErrorIs(t, err, ErrExists)
}

func mustChild(t *testing.T, d *Directory, name string) *Directory {
	t.Helper()
	c, ok := d.Child(name)
	require.True(t, ok, "missing child %s", name)
	return c
}
