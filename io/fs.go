package io

import (
	"errors"
	"io"
	"io/fs"
	"os"
)

// Open loads a ROM image from a file system.
func Open(fsys fs.FS, name string) (rom *Rom, err error) {
	return load(func() (io.ReadCloser, error) { return fsys.Open(name) })
}

// OpenFile loads a ROM image from a host file path.
func OpenFile(path string) (rom *Rom, err error) {
	return load(func() (io.ReadCloser, error) { return os.Open(path) })
}

func load(open func() (io.ReadCloser, error)) (rom *Rom, err error) {
	inf, err := open()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = errors.Join(ErrFileNotFound, err)
		}
		return
	}
	defer inf.Close()

	rom = &Rom{}
	err = rom.Parse(inf)
	if err != nil {
		rom = nil
	}

	return
}
