package vfat

import (
	"os"
	"time"
)

// FileInfo returns the entry as os.FileInfo. Sys returns the Entry itself.
func (e Entry) FileInfo() os.FileInfo {
	return entryFileInfo{e}
}

type entryFileInfo struct {
	entry Entry
}

func (e entryFileInfo) Name() string {
	return e.entry.Name
}

func (e entryFileInfo) Size() int64 {
	return e.entry.Size
}

func (e entryFileInfo) Mode() os.FileMode {
	return e.entry.Mode()
}

func (e entryFileInfo) ModTime() time.Time {
	return e.entry.ModTime
}

func (e entryFileInfo) IsDir() bool {
	return e.entry.IsDir
}

func (e entryFileInfo) Sys() interface{} {
	return e.entry
}
