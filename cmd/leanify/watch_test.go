package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tdewolff/test"
)

func TestWatcherWatched(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	test.Error(t, os.Mkdir(sub, 0755))
	file := filepath.Join(dir, "a.svg")
	test.Error(t, os.WriteFile(file, []byte("<svg/>"), 0644))

	w, err := NewWatcher(true)
	test.Error(t, err)
	defer w.Close()

	test.Error(t, w.AddPath(file))
	test.T(t, w.watched(file), true)
	test.T(t, w.watched(filepath.Join(dir, "b.svg")), false)

	test.Error(t, w.AddPath(sub))
	test.T(t, w.watched(filepath.Join(sub, "c.svg")), true)
	test.T(t, w.watched(filepath.Join(sub, "deeper", "d.svg")), true)
	test.T(t, w.watched(filepath.Join(dir, "other", "e.svg")), false)
}

func TestHasParentPrefix(t *testing.T) {
	test.T(t, hasParentPrefix(".."+string(filepath.Separator)+"a"), true)
	test.T(t, hasParentPrefix("..a"), false)
	test.T(t, hasParentPrefix("a"), false)
}
