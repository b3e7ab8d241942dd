// Package partition finds the byte range of a FAT volume inside a disk image.
package partition

import (
	"os"

	"github.com/diskfs/go-diskfs"
	"github.com/diskfs/go-diskfs/partition"
	"github.com/diskfs/go-diskfs/partition/gpt"
	"github.com/diskfs/go-diskfs/partition/mbr"
	"github.com/pkg/errors"
)

// ErrNoPartition is returned if the requested partition index does not exist.
var ErrNoPartition = errors.New("no such partition")

// Section is a byte range of an image file.
type Section struct {
	Offset int64
	Size   int64
}

// Locate returns the section of the image at path which holds partition
// index. Partitions are counted from 1 in table order, skipping unused
// slots. Index 0 selects the whole file, which is the usual case for a bare
// volume image.
func Locate(path string, index int) (Section, error) {
	if index < 0 {
		return Section{}, errors.Errorf("invalid partition index %d", index)
	}

	if index == 0 {
		fi, err := os.Stat(path)
		if err != nil {
			return Section{}, errors.Wrap(err, "stat image")
		}
		return Section{Offset: 0, Size: fi.Size()}, nil
	}

	disk, err := diskfs.Open(path)
	if err != nil {
		return Section{}, errors.Wrap(err, "open disk image")
	}
	defer disk.Close()

	pt, err := disk.GetPartitionTable()
	if err != nil {
		return Section{}, errors.Wrap(err, "get partition table")
	}

	return find(pt, disk.LogicalBlocksize, index)
}

// find picks the index'th used partition of pt.
func find(pt partition.Table, logicalBlockSize int64, index int) (Section, error) {
	if logicalBlockSize <= 0 {
		return Section{}, errors.Errorf("invalid logical block size %d", logicalBlockSize)
	}

	var sections []Section
	switch t := pt.(type) {
	case *gpt.Table:
		for _, p := range t.Partitions {
			if p.Start == 0 && p.End == 0 {
				continue
			}
			sections = append(sections, Section{
				Offset: int64(p.Start) * logicalBlockSize,
				Size:   int64(p.End-p.Start+1) * logicalBlockSize,
			})
		}
	case *mbr.Table:
		for _, p := range t.Partitions {
			if p.Type == mbr.Empty || p.Size == 0 {
				continue
			}
			sections = append(sections, Section{
				Offset: int64(p.Start) * logicalBlockSize,
				Size:   int64(p.Size) * logicalBlockSize,
			})
		}
	default:
		return Section{}, errors.Errorf("unsupported partition table type: %T", t)
	}

	if index > len(sections) {
		return Section{}, errors.Wrapf(ErrNoPartition, "partition %d of %d", index, len(sections))
	}
	return sections[index-1], nil
}
