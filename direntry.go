package vfat

import (
	"fmt"
	"io"

	"github.com/SonicFrog/vfat/checkpoint"
	"go.uber.org/zap"
)

const (
	slotEndMarker     = 0x00
	slotDeletedMarker = 0xE5
)

// slotKind classifies a raw 32 byte directory slot.
type slotKind uint8

const (
	// slotEnd marks the end of the directory. No live slot follows it.
	slotEnd slotKind = iota
	// slotDeleted is a tombstone of a removed entry.
	slotDeleted
	// slotLFN is a long name fragment.
	slotLFN
	// slotInvalid is a short entry which does not name a file or directory,
	// for example the volume label or the dot entries.
	slotInvalid
	// slotEntry is a valid short entry.
	slotEntry
)

func (k slotKind) String() string {
	switch k {
	case slotEnd:
		return "end"
	case slotDeleted:
		return "deleted"
	case slotLFN:
		return "lfn"
	case slotInvalid:
		return "invalid"
	case slotEntry:
		return "entry"
	}
	return fmt.Sprintf("slotKind(%d)", uint8(k))
}

// classifySlot decodes the kind of a slot once, so that callers never test the raw bits themselves.
func classifySlot(b []byte) slotKind {
	switch b[0] {
	case slotEndMarker:
		return slotEnd
	case slotDeletedMarker:
		return slotDeleted
	}

	attr := b[11]
	if attr&AttrLongName == AttrLongName {
		return slotLFN
	}

	if attr&attrInvalid != 0 || !validFirstByte(b[0]) {
		return slotInvalid
	}
	return slotEntry
}

// validFirstByte reports whether c may start a short name.
func validFirstByte(c byte) bool {
	if c <= 0x20 {
		return false
	}

	switch c {
	case 0x22, 0x2A, 0x2B, 0x2C, 0x2E, 0x2F,
		0x3A, 0x3B, 0x3C, 0x3D, 0x3E, 0x3F,
		0x5B, 0x5C, 0x5D, 0x7C, slotDeletedMarker:
		return false
	}
	return true
}

// dirReader iterates over the live slots of a directory in on-disk order.
// Deleted slots are skipped and the iteration stops at the end marker or the end of the chain.
//
//	r := fs.newDirReader(cluster)
//	for r.Next() {
//		switch r.Kind() { ... }
//	}
//	if err := r.Err(); err != nil { ... }
type dirReader struct {
	fs    *Fs
	chain *Chain

	buf  []byte
	pos  int
	kind slotKind
	done bool
	err  error
}

func (fs *Fs) newDirReader(cluster ClusterID) *dirReader {
	return &dirReader{
		fs:    fs,
		chain: fs.table.Chain(cluster),
		// Start with an exhausted buffer so the first Next loads the first cluster.
		pos: fs.geometry.DirEntriesPerCluster,
	}
}

func (r *dirReader) Next() bool {
	for !r.done {
		if r.pos >= r.fs.geometry.DirEntriesPerCluster && !r.loadNextCluster() {
			return false
		}

		r.pos++
		r.kind = classifySlot(r.Slot())

		switch r.kind {
		case slotEnd:
			r.done = true
		case slotDeleted:
			continue
		default:
			return true
		}
	}
	return false
}

func (r *dirReader) loadNextCluster() bool {
	if !r.chain.Next() {
		r.done = true
		r.err = r.chain.Err()
		return false
	}

	cluster := r.chain.Cluster()
	if r.buf == nil {
		r.buf = make([]byte, r.fs.geometry.ClusterSize)
	}

	if err := r.fs.readCluster(cluster, r.buf); err != nil {
		r.done = true
		r.err = err
		return false
	}

	r.fs.logger.Debug("reading directory cluster",
		zapCluster(cluster),
		zap.Int("visited", r.chain.Visited()))

	r.pos = 0
	return true
}

// Slot returns the raw bytes of the current slot.
// They are only valid until the next call to Next.
func (r *dirReader) Slot() []byte {
	off := (r.pos - 1) * entrySize
	return r.buf[off : off+entrySize]
}

func (r *dirReader) Kind() slotKind {
	return r.kind
}

func (r *dirReader) Err() error {
	return r.err
}

// readCluster fills buf with the content of cluster c.
func (fs *Fs) readCluster(c ClusterID, buf []byte) error {
	n, err := fs.dev.ReadAt(buf, fs.geometry.ClusterOffset(c))
	if n == len(buf) {
		return nil
	}
	if err == nil || err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return checkpoint.Wrap(fmt.Errorf("cluster 0x%08X: %w", uint32(c), err), ErrReadCluster)
}
