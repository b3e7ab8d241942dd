// Package mmap provides a read-only io.ReaderAt over a region of a file,
// backed by a memory mapping where the platform supports it.
package mmap

import (
	"io"
	"os"

	"github.com/pkg/errors"
)

// View is a read-only window onto a region of a file.
type View struct {
	file *os.File
	off  int64
	size int64

	// mapping is the page aligned region returned by mmap; data is the
	// part of it starting at off. Both are nil if nothing is mapped.
	mapping []byte
	data    []byte
}

var _ io.ReaderAt = (*View)(nil)

// Open maps size bytes of the file at path, starting at off.
// A negative size maps everything from off to the end of the file.
func Open(path string, off, size int64) (*View, error) {
	if off < 0 {
		return nil, errors.Errorf("negative offset %d", off)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open image")
	}

	fi, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, errors.Wrap(err, "stat image")
	}
	if size < 0 {
		size = fi.Size() - off
	}
	if off+size > fi.Size() || size < 0 {
		file.Close()
		return nil, errors.Errorf("region %d+%d exceeds file size %d", off, size, fi.Size())
	}

	v := &View{file: file, off: off, size: size}
	if size > 0 {
		if err := v.mmap(); err != nil {
			file.Close()
			return nil, err
		}
	}
	return v, nil
}

// Size returns the length of the view.
func (v *View) Size() int64 {
	return v.size
}

// Mapped reports whether the view is served from memory.
func (v *View) Mapped() bool {
	return v.data != nil
}

// ReadAt implements io.ReaderAt relative to the start of the view.
func (v *View) ReadAt(p []byte, off int64) (int, error) {
	if v.file == nil {
		return 0, os.ErrClosed
	}
	if off < 0 {
		return 0, errors.Errorf("negative offset %d", off)
	}
	if len(p) == 0 {
		return 0, nil
	}
	if off >= v.size {
		return 0, io.EOF
	}

	short := false
	if int64(len(p)) > v.size-off {
		p = p[:v.size-off]
		short = true
	}

	var n int
	var err error
	if v.data != nil {
		n = copy(p, v.data[off:])
	} else {
		n, err = v.file.ReadAt(p, v.off+off)
	}
	if err == nil && short {
		err = io.EOF
	}
	return n, err
}

// Close unmaps the region and closes the file.
func (v *View) Close() error {
	if v.file == nil {
		return nil
	}

	var err error
	if v.mapping != nil {
		err = v.munmap()
		v.mapping, v.data = nil, nil
	}
	if cerr := v.file.Close(); err == nil {
		err = cerr
	}
	v.file = nil
	return err
}
