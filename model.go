// File model contains the structures of the FAT32 on-disk format and the decoders
// that read them from raw little-endian bytes at fixed offsets.

package vfat

import "encoding/binary"

const (
	bootSectorSize = 512
	entrySize      = 32
	fatEntrySize   = 4

	bootSignature = 0xAA55
)

// Attribute bits of a directory entry.
const (
	AttrReadOnly  = 0x01
	AttrHidden    = 0x02
	AttrSystem    = 0x04
	AttrVolumeID  = 0x08
	AttrDirectory = 0x10
	AttrArchive   = 0x20
	AttrLongName  = AttrReadOnly | AttrHidden | AttrSystem | AttrVolumeID

	// attrInvalid are the bits which disqualify a slot from naming a file or directory.
	attrInvalid = 0x80 | 0x40 | AttrVolumeID
)

// BootSector is the FAT32 boot record including the extended FAT32 BPB.
type BootSector struct {
	JumpBoot            [3]byte
	OEMName             [8]byte
	BytesPerSector      uint16
	SectorsPerCluster   byte
	ReservedSectorCount uint16
	NumFATs             byte
	RootEntryCount      uint16
	TotalSectors16      uint16
	Media               byte
	FATSize16           uint16
	SectorsPerTrack     uint16
	NumberOfHeads       uint16
	HiddenSectors       uint32
	TotalSectors32      uint32

	FATSize32      uint32
	ExtFlags       uint16
	FSVersion      uint16
	RootCluster    uint32
	FSInfo         uint16
	BkBootSector   uint16
	DriveNumber    byte
	BootSignature  byte
	VolumeID       uint32
	VolumeLabel    [11]byte
	FileSystemType [8]byte

	Signature uint16
}

// decodeBootSector reads the boot record from b, which must hold at least 512 bytes.
func decodeBootSector(b []byte) BootSector {
	le := binary.LittleEndian

	var bs BootSector
	copy(bs.JumpBoot[:], b[0:3])
	copy(bs.OEMName[:], b[3:11])
	bs.BytesPerSector = le.Uint16(b[11:13])
	bs.SectorsPerCluster = b[13]
	bs.ReservedSectorCount = le.Uint16(b[14:16])
	bs.NumFATs = b[16]
	bs.RootEntryCount = le.Uint16(b[17:19])
	bs.TotalSectors16 = le.Uint16(b[19:21])
	bs.Media = b[21]
	bs.FATSize16 = le.Uint16(b[22:24])
	bs.SectorsPerTrack = le.Uint16(b[24:26])
	bs.NumberOfHeads = le.Uint16(b[26:28])
	bs.HiddenSectors = le.Uint32(b[28:32])
	bs.TotalSectors32 = le.Uint32(b[32:36])

	bs.FATSize32 = le.Uint32(b[36:40])
	bs.ExtFlags = le.Uint16(b[40:42])
	bs.FSVersion = le.Uint16(b[42:44])
	bs.RootCluster = le.Uint32(b[44:48])
	bs.FSInfo = le.Uint16(b[48:50])
	bs.BkBootSector = le.Uint16(b[50:52])
	bs.DriveNumber = b[64]
	bs.BootSignature = b[66]
	bs.VolumeID = le.Uint32(b[67:71])
	copy(bs.VolumeLabel[:], b[71:82])
	copy(bs.FileSystemType[:], b[82:90])

	bs.Signature = le.Uint16(b[510:512])
	return bs
}

// EntryHeader is a short (8.3) directory entry.
type EntryHeader struct {
	Name            [11]byte
	Attribute       byte
	NTReserved      byte
	CreateTimeTenth byte
	CreateTime      uint16
	CreateDate      uint16
	LastAccessDate  uint16
	FirstClusterHI  uint16
	WriteTime       uint16
	WriteDate       uint16
	FirstClusterLO  uint16
	FileSize        uint32
}

func decodeEntryHeader(b []byte) EntryHeader {
	le := binary.LittleEndian

	var h EntryHeader
	copy(h.Name[:], b[0:11])
	h.Attribute = b[11]
	h.NTReserved = b[12]
	h.CreateTimeTenth = b[13]
	h.CreateTime = le.Uint16(b[14:16])
	h.CreateDate = le.Uint16(b[16:18])
	h.LastAccessDate = le.Uint16(b[18:20])
	h.FirstClusterHI = le.Uint16(b[20:22])
	h.WriteTime = le.Uint16(b[22:24])
	h.WriteDate = le.Uint16(b[24:26])
	h.FirstClusterLO = le.Uint16(b[26:28])
	h.FileSize = le.Uint32(b[28:32])
	return h
}

// FirstCluster joins the high and low halves of the starting cluster.
func (h EntryHeader) FirstCluster() ClusterID {
	return ClusterID(uint32(h.FirstClusterHI)<<16 | uint32(h.FirstClusterLO))
}

// LongFilenameEntry is one fragment of a long file name.
// It holds up to 13 UTF-16 code units split 5+6+2 over three fields.
type LongFilenameEntry struct {
	Sequence  byte
	First     [5]uint16
	Attribute byte
	EntryType byte
	Checksum  byte
	Second    [6]uint16
	Zero      uint16
	Third     [2]uint16
}

func decodeLongFilenameEntry(b []byte) LongFilenameEntry {
	le := binary.LittleEndian

	var e LongFilenameEntry
	e.Sequence = b[0]
	for i := range e.First {
		e.First[i] = le.Uint16(b[1+2*i:])
	}
	e.Attribute = b[11]
	e.EntryType = b[12]
	e.Checksum = b[13]
	for i := range e.Second {
		e.Second[i] = le.Uint16(b[14+2*i:])
	}
	e.Zero = le.Uint16(b[26:28])
	for i := range e.Third {
		e.Third[i] = le.Uint16(b[28+2*i:])
	}
	return e
}

// Units returns the 13 code units of the fragment in reading order.
func (e LongFilenameEntry) Units() []uint16 {
	units := make([]uint16, 0, lfnUnitsPerEntry)
	units = append(units, e.First[:]...)
	units = append(units, e.Second[:]...)
	units = append(units, e.Third[:]...)
	return units
}

// Ordinal is the position of the fragment in the name, starting at 1.
func (e LongFilenameEntry) Ordinal() int {
	return int(e.Sequence & lfnOrdinalMask)
}

// IsLast reports whether this fragment carries the end of the name.
// It is stored first on disk.
func (e LongFilenameEntry) IsLast() bool {
	return e.Sequence&lfnLastFlag != 0
}
