package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tdewolff/test"
)

func TestIsDir(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	test.Error(t, os.Mkdir(sub, 0755))
	file := filepath.Join(dir, "a.xml")
	test.Error(t, os.WriteFile(file, []byte("<a/>"), 0644))
	sep := string(os.PathSeparator)

	cases := []struct {
		name     string
		dir      string
		expected bool
	}{
		{"Directory", sub, true},
		{"DirectoryTrailingSeparator", sub + sep, true},
		{"MissingTrailingSeparator", filepath.Join(dir, "missing") + sep, true},
		{"File", file, false},
		{"Missing", filepath.Join(dir, "missing"), false},
		{"RelativeFile", "file", false},
		{"ParentFile", filepath.Join("..", "file"), false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			test.T(t, IsDir(c.dir), c.expected)
		})
	}
}

func TestIsDirSymlink(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	test.Error(t, os.Mkdir(sub, 0755))
	link := filepath.Join(dir, "link")
	if err := os.Symlink(sub, link); err != nil {
		t.Skip("symlinks unsupported:", err)
	}

	// symlinked directories are not followed, unless named with a trailing separator
	test.T(t, IsDir(link), false)
	test.T(t, IsDir(link+string(os.PathSeparator)), true)
}

func TestWatchedFileVersusDirectory(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	test.Error(t, os.Mkdir(sub, 0755))
	file := filepath.Join(dir, "a.xml")
	test.Error(t, os.WriteFile(file, []byte("<a/>"), 0644))

	w, err := NewWatcher(false)
	test.Error(t, err)
	defer w.Close()

	// a watched file only matches itself
	test.Error(t, w.AddPath(file))
	test.T(t, w.watched(file), true)
	test.T(t, w.watched(filepath.Join(file, "b.xml")), false)

	// a watched directory matches what lies inside it
	test.Error(t, w.AddPath(sub+string(os.PathSeparator)))
	test.T(t, w.watched(filepath.Join(sub, "c.xml")), true)
	test.T(t, w.watched(sub+"2"), false)
}
