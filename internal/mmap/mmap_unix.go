//go:build linux || darwin || freebsd || netbsd || openbsd

package mmap

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

func (v *View) mmap() error {
	pageSize := int64(unix.Getpagesize())
	start := v.off &^ (pageSize - 1)
	delta := v.off - start

	mapping, err := unix.Mmap(int(v.file.Fd()), start, int(delta+v.size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return errors.Wrap(err, "mmap image")
	}

	v.mapping = mapping
	v.data = mapping[delta:]
	return nil
}

func (v *View) munmap() error {
	return errors.Wrap(unix.Munmap(v.mapping), "munmap image")
}
