package vfat

import (
	"os"
	"time"
)

// Entry is the resolved form of a directory entry.
type Entry struct {
	// Name is the long name if one is present and its checksum matches, the short name otherwise.
	Name string
	// ShortName is the cleaned 8.3 name. It is empty for the root directory.
	ShortName string

	IsDir     bool
	Size      int64
	Cluster   ClusterID
	Attribute byte

	ModTime    time.Time
	AccessTime time.Time
	ChangeTime time.Time

	Uid int
	Gid int
}

// IsRoot reports whether the entry is the synthetic root directory.
func (e Entry) IsRoot() bool {
	return e.IsDir && e.ShortName == "" && e.Name == rootName
}

// Mode returns POSIX style permission and type bits.
// Every entry is accessible by everyone, the read-only attribute only removes the write bits.
func (e Entry) Mode() os.FileMode {
	mode := os.FileMode(0777)
	if e.Attribute&AttrReadOnly != 0 {
		mode &^= 0222
	}
	if e.IsDir {
		mode |= os.ModeDir
	}
	return mode
}

const rootName = "/"

func (fs *Fs) rootEntry() Entry {
	return Entry{
		Name:       rootName,
		IsDir:      true,
		Cluster:    fs.geometry.RootCluster,
		Attribute:  AttrDirectory,
		ModTime:    fs.mountTime,
		AccessTime: fs.mountTime,
		ChangeTime: fs.mountTime,
		Uid:        fs.uid,
		Gid:        fs.gid,
	}
}

func (fs *Fs) newEntry(h EntryHeader, name string) Entry {
	return Entry{
		Name:       name,
		ShortName:  ShortName(h.Name),
		IsDir:      h.Attribute&AttrDirectory != 0,
		Size:       int64(h.FileSize),
		Cluster:    h.FirstCluster().Value(),
		Attribute:  h.Attribute,
		ModTime:    ParseTimestamp(h.WriteDate, h.WriteTime, 0),
		AccessTime: ParseDate(h.LastAccessDate),
		ChangeTime: ParseTimestamp(h.CreateDate, h.CreateTime, h.CreateTimeTenth),
		Uid:        fs.uid,
		Gid:        fs.gid,
	}
}
