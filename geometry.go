package vfat

import (
	"fmt"
	"strings"

	"github.com/SonicFrog/vfat/checkpoint"
)

// MinClusters is the smallest data cluster count of a volume formatted as FAT32.
// Smaller volumes are accepted with a warning so that small test images can be used.
const MinClusters = 65525

// Geometry contains every layout constant derived from the boot sector.
// It is computed once in New and never changes afterwards.
type Geometry struct {
	BytesPerSector    uint32
	SectorsPerCluster uint32
	ReservedSectors   uint32
	FATCount          uint32
	SectorsPerFAT     uint32
	TotalSectors      uint32

	// FATSize is the size of a single FAT copy in bytes.
	FATSize int64
	// FATEntries is the number of cluster entries a single FAT copy holds.
	FATEntries uint32
	// ClusterCount is the number of data clusters, starting at cluster 2.
	ClusterCount uint32

	ClusterSize          int64
	FATBeginOffset       int64
	ClusterBeginOffset   int64
	DirEntriesPerCluster int

	RootCluster ClusterID

	OEMName      string
	VolumeLabel  string
	FSTypeName   string
	SerialNumber uint32
}

// ClusterOffset returns the byte offset of cluster c on the device.
// c must be a data cluster, so at least 2.
func (g Geometry) ClusterOffset(c ClusterID) int64 {
	return int64(c-firstDataCluster)*g.ClusterSize + g.ClusterBeginOffset
}

// Undersized reports whether the volume has fewer clusters than FAT32 requires.
func (g Geometry) Undersized() bool {
	return g.ClusterCount < MinClusters
}

// Validate checks the boot sector in b and derives the volume geometry.
// It is a pure function: the same bytes always produce the same Geometry.
func Validate(b []byte) (Geometry, error) {
	return validate(b, false)
}

func validate(b []byte, skipChecks bool) (Geometry, error) {
	if len(b) < bootSectorSize {
		return Geometry{}, checkpoint.Wrap(fmt.Errorf("boot sector has %d bytes, need %d", len(b), bootSectorSize), ErrNotFAT32)
	}

	bs := decodeBootSector(b)

	// Sector and cluster sizes are used for every offset calculation, so they are always checked.
	switch bs.BytesPerSector {
	case 512, 1024, 2048, 4096:
	default:
		return Geometry{}, checkpoint.Wrap(fmt.Errorf("invalid bytes per sector %d", bs.BytesPerSector), ErrUnsupportedGeometry)
	}

	switch bs.SectorsPerCluster {
	case 1, 2, 4, 8, 16, 32, 64, 128:
	default:
		return Geometry{}, checkpoint.Wrap(fmt.Errorf("invalid sectors per cluster %d", bs.SectorsPerCluster), ErrUnsupportedGeometry)
	}

	bps := uint32(bs.BytesPerSector)

	if !skipChecks {
		rootDirSectors := (uint32(bs.RootEntryCount)*entrySize + bps - 1) / bps
		if rootDirSectors != 0 {
			return Geometry{}, checkpoint.Wrap(fmt.Errorf("root directory occupies %d sectors", rootDirSectors), ErrNotFAT32)
		}

		if bs.FATSize16 != 0 || bs.TotalSectors16 != 0 {
			return Geometry{}, checkpoint.Wrap(fmt.Errorf("legacy sector counts are set (fat size %d, total %d)", bs.FATSize16, bs.TotalSectors16), ErrNotFAT32)
		}

		if bs.Signature != bootSignature {
			return Geometry{}, checkpoint.Wrap(fmt.Errorf("bad signature 0x%04X", bs.Signature), ErrNotFAT32)
		}
	}

	if bs.NumFATs == 0 || bs.FATSize32 == 0 || bs.ReservedSectorCount == 0 {
		return Geometry{}, checkpoint.Wrap(fmt.Errorf("fats %d, sectors per fat %d, reserved sectors %d", bs.NumFATs, bs.FATSize32, bs.ReservedSectorCount), ErrUnsupportedGeometry)
	}

	totalSectors := bs.TotalSectors32
	if totalSectors == 0 {
		totalSectors = uint32(bs.TotalSectors16)
	}

	metaSectors := uint64(bs.ReservedSectorCount) + uint64(bs.NumFATs)*uint64(bs.FATSize32)
	if uint64(totalSectors) <= metaSectors {
		return Geometry{}, checkpoint.Wrap(fmt.Errorf("%d total sectors leave no room for data after %d metadata sectors", totalSectors, metaSectors), ErrUnsupportedGeometry)
	}

	g := Geometry{
		BytesPerSector:    bps,
		SectorsPerCluster: uint32(bs.SectorsPerCluster),
		ReservedSectors:   uint32(bs.ReservedSectorCount),
		FATCount:          uint32(bs.NumFATs),
		SectorsPerFAT:     bs.FATSize32,
		TotalSectors:      totalSectors,

		RootCluster: ClusterID(bs.RootCluster).Value(),

		OEMName:      strings.TrimRight(string(bs.OEMName[:]), " \x00"),
		VolumeLabel:  strings.TrimRight(string(bs.VolumeLabel[:]), " \x00"),
		FSTypeName:   strings.TrimRight(string(bs.FileSystemType[:]), " \x00"),
		SerialNumber: bs.VolumeID,
	}

	if g.RootCluster < firstDataCluster {
		g.RootCluster = firstDataCluster
	}

	g.ClusterCount = uint32((uint64(totalSectors) - metaSectors) / uint64(g.SectorsPerCluster))
	g.ClusterSize = int64(g.SectorsPerCluster) * int64(bps)
	g.FATSize = int64(g.SectorsPerFAT) * int64(bps)
	if g.FATSize/fatEntrySize > int64(clusterMask)+1 {
		return Geometry{}, checkpoint.Wrap(fmt.Errorf("fat of %d bytes exceeds the 28 bit cluster space", g.FATSize), ErrUnsupportedGeometry)
	}
	g.FATEntries = uint32(g.FATSize / fatEntrySize)
	g.FATBeginOffset = int64(g.ReservedSectors) * int64(bps)
	g.ClusterBeginOffset = g.FATBeginOffset + g.FATSize*int64(g.FATCount)
	g.DirEntriesPerCluster = int(g.ClusterSize / entrySize)

	return g, nil
}
