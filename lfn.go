package vfat

import (
	"encoding/binary"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

const (
	lfnUnitsPerEntry = 13
	lfnOrdinalMask   = 0x3F
	lfnLastFlag      = 0x40
	// A name holds at most 255 code units which fit into 20 fragments.
	lfnMaxEntries = 20

	lfnPadding    = 0xFFFF
	lfnTerminator = 0x0000
)

// Checksum computes the checksum stored in every long name fragment
// from the 11 raw bytes of the associated short name.
func Checksum(name [11]byte) byte {
	var sum byte
	for _, b := range name {
		sum = ((sum & 0x01) << 7) + (sum >> 1) + b
	}
	return sum
}

// ShortName returns the display form of an 8.3 name: trailing spaces are removed
// from both parts and they are joined by a dot if the extension is not empty.
func ShortName(name [11]byte) string {
	base := strings.TrimRight(string(name[:8]), " ")
	ext := strings.TrimRight(string(name[8:11]), " ")

	if ext == "" {
		return base
	}
	return base + "." + ext
}

type lfnState uint8

const (
	// lfnIdle means no long name is in progress.
	lfnIdle lfnState = iota
	// lfnAccumulating means fragments are being collected.
	lfnAccumulating
	// lfnArmed means the fragment with ordinal 1 was seen and the name waits for its short entry.
	lfnArmed
)

// lfnReassembler collects the long name fragments preceding a short entry.
// The zero value is ready to use. It belongs to a single directory traversal
// and must not be shared between traversals.
type lfnReassembler struct {
	state    lfnState
	checksum byte
	// ordinal is the ordinal of the last accepted fragment.
	ordinal int
	broken  bool
	units   []uint16
}

// feed adds the next fragment in on-disk order.
func (r *lfnReassembler) feed(e LongFilenameEntry) {
	if e.IsLast() {
		// A new name always starts with the last fragment, even if another one was in progress.
		r.reset()
		r.state = lfnAccumulating
		r.checksum = e.Checksum
		r.ordinal = e.Ordinal()
		r.broken = r.ordinal == 0 || r.ordinal > lfnMaxEntries
		r.units = fragmentUnits(e)
		r.arm()
		return
	}

	switch r.state {
	case lfnIdle:
		// An orphaned fragment without its start carries no usable name.
		return
	case lfnArmed:
		r.broken = true
		return
	}

	if e.Checksum != r.checksum || e.Ordinal() != r.ordinal-1 {
		r.broken = true
	}
	r.ordinal = e.Ordinal()
	r.units = append(fragmentUnits(e), r.units...)
	r.arm()
}

func (r *lfnReassembler) arm() {
	if r.ordinal == 1 {
		r.state = lfnArmed
	}
}

// claim hands the collected name to the short entry named shortName and resets
// the reassembler. ok is false if there was no name or it does not belong to this entry.
func (r *lfnReassembler) claim(shortName [11]byte) (name string, ok bool) {
	defer r.reset()

	if r.state != lfnArmed || r.broken || len(r.units) == 0 {
		return "", false
	}

	if Checksum(shortName) != r.checksum {
		return "", false
	}

	return decodeUnits(r.units)
}

func (r *lfnReassembler) reset() {
	*r = lfnReassembler{}
}

// fragmentUnits returns the name part of a fragment without padding.
// A terminator ends the fragment early.
func fragmentUnits(e LongFilenameEntry) []uint16 {
	units := make([]uint16, 0, lfnUnitsPerEntry)
	for _, u := range e.Units() {
		if u == lfnTerminator {
			break
		}
		if u == lfnPadding {
			continue
		}
		units = append(units, u)
	}
	return units
}

// decodeUnits converts UTF-16 code units to UTF-8.
func decodeUnits(units []uint16) (string, bool) {
	raw := make([]byte, 2*len(units))
	for i, u := range units {
		binary.LittleEndian.PutUint16(raw[2*i:], u)
	}

	decoded, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Bytes(raw)
	if err != nil {
		return "", false
	}
	return string(decoded), true
}
