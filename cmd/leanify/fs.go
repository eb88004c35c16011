package main

import (
	"io/fs"
	"os"
)

// NewFS returns a file system rooted at the working directory that accepts any path the operating system accepts,
// including absolute and parent paths.
func NewFS() fs.FS {
	return osFS{}
}

type osFS struct{}

func (osFS) Open(name string) (fs.File, error) {
	return os.Open(name)
}

func (osFS) Stat(name string) (fs.FileInfo, error) {
	return os.Stat(name)
}
