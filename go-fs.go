package vfat

import (
	"io"
	"io/fs"
	"sort"
)

// GoFs exposes a Fs as fs.FS, fs.ReadDirFS and fs.StatFS.
// afero.IOFS{Fs: fat} works too, GoFs additionally returns directory listings as fs.DirEntry
// without going through afero.
type GoFs struct {
	fat *Fs
}

var (
	_ fs.FS        = GoFs{}
	_ fs.ReadDirFS = GoFs{}
	_ fs.StatFS    = GoFs{}
)

// NewGoFS opens a FAT32 volume from the given device as fs.FS compatible filesystem.
func NewGoFS(dev io.ReaderAt, opts ...Option) (GoFs, error) {
	fat, err := New(dev, opts...)
	if err != nil {
		return GoFs{}, err
	}
	return GoFs{fat: fat}, nil
}

// NewGoFSSkipChecks opens a FAT32 volume just like NewGoFS but skips the FAT32 validations.
// Use with caution!
func NewGoFSSkipChecks(dev io.ReaderAt, opts ...Option) (GoFs, error) {
	return NewGoFS(dev, append(opts, WithSkipChecks())...)
}

// GoFS returns fat as fs.FS.
func (fs *Fs) GoFS() GoFs {
	return GoFs{fat: fs}
}

func (g GoFs) resolve(op, name string) (Entry, error) {
	if !fs.ValidPath(name) {
		return Entry{}, &fs.PathError{Op: op, Path: name, Err: fs.ErrInvalid}
	}

	entry, err := g.fat.Resolve(cleanPath(name))
	if err != nil {
		return Entry{}, &fs.PathError{Op: op, Path: name, Err: err}
	}

	if entry.IsRoot() {
		entry.Name = "."
	}
	return entry, nil
}

func (g GoFs) Open(name string) (fs.File, error) {
	entry, err := g.resolve("open", name)
	if err != nil {
		return nil, err
	}
	return GoFile{newFile(g.fat, name, entry)}, nil
}

func (g GoFs) Stat(name string) (fs.FileInfo, error) {
	entry, err := g.resolve("stat", name)
	if err != nil {
		return nil, err
	}
	return entry.FileInfo(), nil
}

// ReadDir returns the entries of the named directory sorted by name.
func (g GoFs) ReadDir(name string) ([]fs.DirEntry, error) {
	entry, err := g.resolve("readdir", name)
	if err != nil {
		return nil, err
	}

	if !entry.IsDir {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: ErrReadDir}
	}

	entries, err := g.fat.readDir(entry.Cluster)
	if err != nil {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: err}
	}

	result := make([]fs.DirEntry, len(entries))
	for i, e := range entries {
		result[i] = fs.FileInfoToDirEntry(e.FileInfo())
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name() < result[j].Name()
	})

	return result, nil
}

// GoFile is a File implementing fs.File and fs.ReadDirFile.
type GoFile struct {
	*File
}

func (g GoFile) Stat() (fs.FileInfo, error) {
	return g.File.Stat()
}

func (g GoFile) ReadDir(n int) ([]fs.DirEntry, error) {
	infos, err := g.File.Readdir(n)

	entries := make([]fs.DirEntry, len(infos))
	for i, info := range infos {
		entries[i] = fs.FileInfoToDirEntry(info)
	}

	return entries, err
}
