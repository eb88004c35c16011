package main

import (
	"fmt"
	"io"
	"os"

	"github.com/matryer/try"
)

// IsDir returns true if the passed string looks like it specifies a directory, false otherwise.
func IsDir(dir string) bool {
	if 0 < len(dir) && dir[len(dir)-1] == os.PathSeparator {
		return true
	}
	info, err := os.Lstat(dir)
	return err == nil && info.Mode().IsDir() && info.Mode()&os.ModeSymlink == 0
}

func openInputFile(input string) (io.ReadCloser, error) {
	var r *os.File
	if input == "" {
		r = os.Stdin
	} else {
		err := try.Do(func(attempt int) (bool, error) {
			var ferr error
			r, ferr = os.Open(input)
			return attempt < 5, ferr
		})

		if err != nil {
			return nil, fmt.Errorf("open input file %q: %w", input, err)
		}
	}
	return r, nil
}

func openOutputFile(output string) (*os.File, error) {
	var w *os.File
	err := try.Do(func(attempt int) (bool, error) {
		var ferr error
		w, ferr = os.OpenFile(output, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0666)
		return attempt < 5, ferr
	})

	if err != nil {
		return nil, fmt.Errorf("open output file %q: %w", output, err)
	}
	return w, nil
}

// replaceFile writes b to a temporary file next to filename and renames it over filename, so that filename is never
// left partially written.
func replaceFile(filename string, b []byte) error {
	tmp := filename + ".leanify"
	w, err := openOutputFile(tmp)
	if err != nil {
		return err
	}
	if _, err := w.Write(b); err != nil {
		w.Close()
		os.Remove(tmp)
		return fmt.Errorf("write %q: %w", tmp, err)
	} else if err := w.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write %q: %w", tmp, err)
	}

	err = try.Do(func(attempt int) (bool, error) {
		ferr := os.Rename(tmp, filename)
		return attempt < 5, ferr
	})
	if err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename %q: %w", tmp, err)
	}
	return nil
}
