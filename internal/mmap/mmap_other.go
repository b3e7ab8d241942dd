//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package mmap

// mmap leaves the view unmapped; reads go through the file.
func (v *View) mmap() error {
	return nil
}

func (v *View) munmap() error {
	return nil
}
