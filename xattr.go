package vfat

import (
	"strconv"

	"github.com/SonicFrog/vfat/checkpoint"
)

// XattrCluster is the extended attribute holding the decimal starting cluster of an entry.
const XattrCluster = "debug.cluster"

// Xattr returns the extended attribute name of the entry at path.
// XattrCluster is the only attribute, every other name fails with ErrNoData.
func (fs *Fs) Xattr(path, name string) ([]byte, error) {
	entry, err := fs.Resolve(path)
	if err != nil {
		return nil, err
	}

	if name != XattrCluster {
		return nil, checkpoint.From(ErrNoData)
	}

	return []byte(strconv.FormatUint(uint64(entry.Cluster), 10)), nil
}

// Xattrs lists the extended attribute names of the entry at path.
func (fs *Fs) Xattrs(path string) ([]string, error) {
	if _, err := fs.Resolve(path); err != nil {
		return nil, err
	}
	return []string{XattrCluster}, nil
}
