// Package fattest builds small FAT32 images in memory.
//
//	b := fattest.New(fattest.Options{Label: "TESTVOL"})
//	b.AddDir("/docs")
//	b.AddFile("/docs/this_is_a_very_long_filename.txt", []byte("hello"))
//	img, err := b.Build()
//
// The builder writes its own encoding of every on-disk structure,
// so images can be used to check a decoder without sharing code with it.
package fattest

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"golang.org/x/text/encoding/unicode"
)

// EndOfChain is written after the last cluster of every chain.
const EndOfChain uint32 = 0x0FFFFFFF

const (
	entrySize     = 32
	lfnUnits      = 13
	attrLongName  = 0x0F
	attrDirectory = 0x10
	attrArchive   = 0x20
	attrVolumeID  = 0x08
)

// Options describe the geometry of the image. Zero fields use the defaults.
type Options struct {
	// BytesPerSector defaults to 512.
	BytesPerSector uint16
	// SectorsPerCluster defaults to 1.
	SectorsPerCluster uint8
	// ReservedSectors defaults to 32.
	ReservedSectors uint16
	// FATCount defaults to 2.
	FATCount uint8
	// Clusters is the number of data clusters and defaults to 256.
	Clusters uint32

	OEMName string
	// Label is written to the boot sector and, if set, as volume label entry of the root directory.
	Label  string
	Serial uint32

	// Stride is the distance between two clusters handed out by the allocator.
	// Values above 1 leave gaps, so no chain is contiguous. Defaults to 1.
	Stride uint32

	// Time stamps every entry without its own time. Defaults to 2020-05-17 13:45:30 UTC.
	Time time.Time
}

// DefaultTime is the time stamp of entries if Options.Time is not set.
var DefaultTime = time.Date(2020, 5, 17, 13, 45, 30, 0, time.UTC)

// Builder collects directories and files and lays them out in Build.
// The first error of any Add call is kept and returned by Build.
type Builder struct {
	opts Options
	root *node
	fat  map[uint32]uint32
	err  error
}

type node struct {
	name    string
	short   [11]byte
	lfn     bool
	attr    byte
	data    []byte
	size    *uint32
	mtime   time.Time
	ctime   time.Time
	sum     *byte
	deleted bool
	isDir   bool

	// raw holds the slot of a raw entry, it is nil for all other nodes.
	raw      []byte
	children []*node
	shorts   map[string]int

	clusters []uint32
}

// EntryOption changes how a single entry is written.
type EntryOption func(n *node)

// ShortName sets the 11 byte short name, padded with spaces.
// Without it a short name is derived from the name.
func ShortName(short string) EntryOption {
	return func(n *node) {
		copy(n.short[:], fmt.Sprintf("%-11s", short))
		n.lfn = n.name != displayShort(n.short)
	}
}

// Attributes replaces the attribute byte.
func Attributes(attr byte) EntryOption {
	return func(n *node) {
		n.attr = attr
	}
}

// LFNChecksum writes sum into the long name fragments instead of the correct checksum.
func LFNChecksum(sum byte) EntryOption {
	return func(n *node) {
		n.sum = &sum
	}
}

// FileSize writes size into the entry instead of the length of the data.
func FileSize(size uint32) EntryOption {
	return func(n *node) {
		n.size = &size
	}
}

// Modified sets the write time stamp.
func Modified(t time.Time) EntryOption {
	return func(n *node) {
		n.mtime = t
	}
}

// Created sets the creation time stamp including its 10 millisecond part.
func Created(t time.Time) EntryOption {
	return func(n *node) {
		n.ctime = t
	}
}

// Deleted marks the entry and its long name fragments with 0xE5.
func Deleted() EntryOption {
	return func(n *node) {
		n.deleted = true
	}
}

// New returns a Builder for an empty volume.
func New(opts Options) *Builder {
	if opts.BytesPerSector == 0 {
		opts.BytesPerSector = 512
	}
	if opts.SectorsPerCluster == 0 {
		opts.SectorsPerCluster = 1
	}
	if opts.ReservedSectors == 0 {
		opts.ReservedSectors = 32
	}
	if opts.FATCount == 0 {
		opts.FATCount = 2
	}
	if opts.Clusters == 0 {
		opts.Clusters = 256
	}
	if opts.Stride == 0 {
		opts.Stride = 1
	}
	if opts.OEMName == "" {
		opts.OEMName = "MSWIN4.1"
	}
	if opts.Time.IsZero() {
		opts.Time = DefaultTime
	}

	b := &Builder{
		opts: opts,
		root: &node{name: "/", isDir: true, attr: attrDirectory, mtime: opts.Time, ctime: opts.Time, shorts: map[string]int{}},
		fat:  map[uint32]uint32{},
	}

	if opts.Label != "" {
		var slot [entrySize]byte
		copy(slot[:11], fmt.Sprintf("%-11s", strings.ToUpper(opts.Label)))
		slot[11] = attrVolumeID
		b.root.children = append(b.root.children, &node{raw: slot[:]})
	}

	return b
}

// AddDir adds an empty directory. Its parent must exist.
func (b *Builder) AddDir(p string, opts ...EntryOption) *Builder {
	b.add(p, nil, true, opts)
	return b
}

// AddFile adds a file with the given content. Its parent must exist.
// Empty files get no cluster.
func (b *Builder) AddFile(p string, data []byte, opts ...EntryOption) *Builder {
	b.add(p, data, false, opts)
	return b
}

// AddRaw appends a raw 32 byte slot to the directory dir.
// Together with AddDir and AddFile it allows any slot order.
func (b *Builder) AddRaw(dir string, slot []byte) *Builder {
	if b.err != nil {
		return b
	}
	if len(slot) != entrySize {
		b.err = fmt.Errorf("raw slot has %d bytes", len(slot))
		return b
	}

	parent, err := b.find(dir)
	if err != nil {
		b.err = err
		return b
	}

	parent.children = append(parent.children, &node{raw: append([]byte(nil), slot...)})
	return b
}

// SetFAT overrides the FAT entry of cluster after the layout is done.
// This allows loops or invalid successors.
func (b *Builder) SetFAT(cluster, value uint32) *Builder {
	b.fat[cluster] = value
	return b
}

func (b *Builder) add(p string, data []byte, isDir bool, opts []EntryOption) {
	if b.err != nil {
		return
	}

	p = path.Clean("/" + p)
	dir, name := path.Split(p)
	if name == "" {
		b.err = errors.New("cannot add the root directory")
		return
	}

	parent, err := b.find(dir)
	if err != nil {
		b.err = err
		return
	}

	n := &node{
		name:  name,
		isDir: isDir,
		data:  data,
		attr:  attrArchive,
		mtime: b.opts.Time,
		ctime: b.opts.Time,
	}
	if isDir {
		n.attr = attrDirectory
		n.shorts = map[string]int{}
	}

	n.short, n.lfn = parent.shortNameFor(name)
	for _, opt := range opts {
		opt(n)
	}

	parent.children = append(parent.children, n)
}

func (b *Builder) find(p string) (*node, error) {
	current := b.root
	for _, token := range strings.Split(p, "/") {
		if token == "" {
			continue
		}

		var next *node
		for _, c := range current.children {
			if c.raw == nil && c.name == token {
				next = c
				break
			}
		}
		if next == nil || !next.isDir {
			return nil, fmt.Errorf("directory %q does not exist", p)
		}
		current = next
	}
	return current, nil
}

// Image is a built volume.
type Image struct {
	Bytes []byte

	ClusterSize        int64
	FATBeginOffset     int64
	ClusterBeginOffset int64
	FATSize            int64

	clusters map[string][]uint32
}

// ReaderAt returns a reader over the image.
func (i *Image) ReaderAt() *bytes.Reader {
	return bytes.NewReader(i.Bytes)
}

// Clusters returns the clusters allocated for the entry at p, the root directory is "/".
func (i *Image) Clusters(p string) []uint32 {
	return i.clusters[path.Clean("/"+p)]
}

// ClusterOffset returns the byte offset of cluster c.
func (i *Image) ClusterOffset(c uint32) int64 {
	return int64(c-2)*i.ClusterSize + i.ClusterBeginOffset
}

// Build lays out all entries and returns the image.
func (b *Builder) Build() (*Image, error) {
	if b.err != nil {
		return nil, b.err
	}

	o := b.opts
	bps := int64(o.BytesPerSector)
	clusterSize := bps * int64(o.SectorsPerCluster)

	fatSectors := ((int64(o.Clusters)+2)*4 + bps - 1) / bps
	totalSectors := int64(o.ReservedSectors) + int64(o.FATCount)*fatSectors + int64(o.Clusters)*int64(o.SectorsPerCluster)

	img := &Image{
		Bytes:          make([]byte, totalSectors*bps),
		ClusterSize:    clusterSize,
		FATBeginOffset: int64(o.ReservedSectors) * bps,
		FATSize:        fatSectors * bps,
		clusters:       map[string][]uint32{},
	}
	img.ClusterBeginOffset = img.FATBeginOffset + int64(o.FATCount)*img.FATSize

	l := &layout{
		img:   img,
		fat:   make([]uint32, img.FATSize/4),
		next:  2,
		limit: o.Clusters + 2,
		step:  o.Stride,
	}
	l.fat[0] = 0x0FFFFFF8
	l.fat[1] = EndOfChain

	if err := l.allocate(b.root, "/"); err != nil {
		return nil, err
	}
	if err := l.write(b.root, nil); err != nil {
		return nil, err
	}

	for cluster, value := range b.fat {
		if int(cluster) >= len(l.fat) {
			return nil, fmt.Errorf("cluster %d is outside of the fat", cluster)
		}
		l.fat[cluster] = value
	}

	for i := int64(0); i < int64(o.FATCount); i++ {
		off := img.FATBeginOffset + i*img.FATSize
		for c, v := range l.fat {
			binary.LittleEndian.PutUint32(img.Bytes[off+int64(c)*4:], v)
		}
	}

	b.writeBootSector(img.Bytes, totalSectors, fatSectors)
	return img, nil
}

func (b *Builder) writeBootSector(out []byte, totalSectors, fatSectors int64) {
	o := b.opts
	le := binary.LittleEndian

	copy(out[0:3], []byte{0xEB, 0x58, 0x90})
	copy(out[3:11], fmt.Sprintf("%-8s", o.OEMName))
	le.PutUint16(out[11:], o.BytesPerSector)
	out[13] = o.SectorsPerCluster
	le.PutUint16(out[14:], o.ReservedSectors)
	out[16] = o.FATCount
	out[21] = 0xF8
	le.PutUint16(out[24:], 32)
	le.PutUint16(out[26:], 64)
	le.PutUint32(out[32:], uint32(totalSectors))
	le.PutUint32(out[36:], uint32(fatSectors))
	le.PutUint32(out[44:], 2)
	le.PutUint16(out[48:], 1)
	le.PutUint16(out[50:], 6)
	out[64] = 0x80
	out[66] = 0x29
	le.PutUint32(out[67:], o.Serial)

	label := o.Label
	if label == "" {
		label = "NO NAME"
	}
	copy(out[71:82], fmt.Sprintf("%-11s", strings.ToUpper(label)))
	copy(out[82:90], "FAT32   ")

	out[510] = 0x55
	out[511] = 0xAA
}

type layout struct {
	img   *Image
	fat   []uint32
	next  uint32
	limit uint32
	step  uint32
}

func (l *layout) allocate(n *node, p string) error {
	if n.raw != nil {
		return nil
	}

	var size int64
	if n.isDir {
		slots := 0
		if p != "/" {
			slots = 2
		}
		for _, c := range n.children {
			slots += c.slots()
		}
		// A directory always has a cluster, even if it is empty.
		size = max(int64(slots)*entrySize, 1)
	} else {
		size = int64(len(n.data))
	}

	count := (size + l.img.ClusterSize - 1) / l.img.ClusterSize
	for i := int64(0); i < count; i++ {
		if l.next >= l.limit {
			return fmt.Errorf("image is full while allocating %q", p)
		}
		n.clusters = append(n.clusters, l.next)
		l.next += l.step
	}

	for i, c := range n.clusters {
		if i+1 < len(n.clusters) {
			l.fat[c] = n.clusters[i+1]
		} else {
			l.fat[c] = EndOfChain
		}
	}
	l.img.clusters[p] = n.clusters

	for _, c := range n.children {
		if err := l.allocate(c, path.Join(p, c.name)); err != nil {
			return err
		}
	}
	return nil
}

func (l *layout) write(n *node, parent *node) error {
	if !n.isDir {
		l.writeData(n.clusters, n.data)
		return nil
	}

	var slots []byte
	if parent != nil {
		dot := n.shortEntry()
		copy(dot[:11], ".          ")
		dotdot := parent.shortEntry()
		copy(dotdot[:11], "..         ")
		if parent.name == "/" {
			// The root is referenced with cluster 0.
			putCluster(dotdot, 0)
		}
		slots = append(slots, dot...)
		slots = append(slots, dotdot...)
	}

	for _, c := range n.children {
		if c.raw != nil {
			slots = append(slots, c.raw...)
			continue
		}

		slots = append(slots, c.longEntries()...)
		slots = append(slots, c.shortEntry()...)

		if err := l.write(c, n); err != nil {
			return err
		}
	}

	l.writeData(n.clusters, slots)
	return nil
}

func (l *layout) writeData(clusters []uint32, data []byte) {
	for _, c := range clusters {
		if len(data) == 0 {
			return
		}
		n := copy(l.img.Bytes[l.img.ClusterOffset(c):l.img.ClusterOffset(c)+l.img.ClusterSize], data)
		data = data[n:]
	}
}

func (n *node) slots() int {
	if n.raw != nil {
		return 1
	}
	if !n.lfn {
		return 1
	}
	return 1 + (len(encodeUTF16(n.name))+lfnUnits-1)/lfnUnits
}

func (n *node) shortEntry() []byte {
	le := binary.LittleEndian
	slot := make([]byte, entrySize)

	copy(slot[:11], n.short[:])
	if n.deleted {
		slot[0] = 0xE5
	}
	slot[11] = n.attr
	slot[13] = byte(n.ctime.Second()%2*100 + n.ctime.Nanosecond()/int(10*time.Millisecond))
	le.PutUint16(slot[14:], packTime(n.ctime))
	le.PutUint16(slot[16:], packDate(n.ctime))
	le.PutUint16(slot[18:], packDate(n.mtime))
	le.PutUint16(slot[22:], packTime(n.mtime))
	le.PutUint16(slot[24:], packDate(n.mtime))

	if len(n.clusters) > 0 {
		putCluster(slot, n.clusters[0])
	}

	if !n.isDir {
		size := uint32(len(n.data))
		if n.size != nil {
			size = *n.size
		}
		le.PutUint32(slot[28:], size)
	}
	return slot
}

func (n *node) longEntries() []byte {
	if !n.lfn {
		return nil
	}

	units := encodeUTF16(n.name)
	if len(units)%lfnUnits != 0 {
		units = append(units, 0x0000)
	}
	for len(units)%lfnUnits != 0 {
		units = append(units, 0xFFFF)
	}

	sum := Checksum(n.short)
	if n.sum != nil {
		sum = *n.sum
	}

	count := len(units) / lfnUnits
	out := make([]byte, 0, count*entrySize)
	for ordinal := count; ordinal >= 1; ordinal-- {
		part := units[(ordinal-1)*lfnUnits : ordinal*lfnUnits]
		out = append(out, LongEntry(ordinal, ordinal == count, sum, part)...)
		if n.deleted {
			out[len(out)-entrySize] = 0xE5
		}
	}
	return out
}

// LongEntry encodes a single long name fragment holding 13 code units.
func LongEntry(ordinal int, last bool, sum byte, units []uint16) []byte {
	le := binary.LittleEndian
	slot := make([]byte, entrySize)

	slot[0] = byte(ordinal)
	if last {
		slot[0] |= 0x40
	}
	slot[11] = attrLongName
	slot[13] = sum

	for i, u := range units {
		switch {
		case i < 5:
			le.PutUint16(slot[1+2*i:], u)
		case i < 11:
			le.PutUint16(slot[14+2*(i-5):], u)
		case i < 13:
			le.PutUint16(slot[28+2*(i-11):], u)
		}
	}
	return slot
}

// ShortEntry encodes a plain short entry, for use with Builder.AddRaw.
func ShortEntry(short string, attr byte, cluster, size uint32) []byte {
	slot := make([]byte, entrySize)
	copy(slot[:11], fmt.Sprintf("%-11s", short))
	slot[11] = attr
	putCluster(slot, cluster)
	binary.LittleEndian.PutUint32(slot[28:], size)
	return slot
}

// Checksum is the checksum of a short name stored in its long name fragments.
func Checksum(short [11]byte) byte {
	var sum byte
	for _, c := range short {
		if sum&1 != 0 {
			sum = 0x80 + sum>>1 + c
		} else {
			sum = sum>>1 + c
		}
	}
	return sum
}

func putCluster(slot []byte, cluster uint32) {
	binary.LittleEndian.PutUint16(slot[20:], uint16(cluster>>16))
	binary.LittleEndian.PutUint16(slot[26:], uint16(cluster))
}

func encodeUTF16(s string) []uint16 {
	raw, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder().Bytes([]byte(s))
	if err != nil {
		panic(err)
	}

	units := make([]uint16, len(raw)/2)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(raw[2*i:])
	}
	return units
}

func packDate(t time.Time) uint16 {
	return uint16(t.Year()-1980)<<9 | uint16(t.Month())<<5 | uint16(t.Day())
}

func packTime(t time.Time) uint16 {
	return uint16(t.Hour())<<11 | uint16(t.Minute())<<5 | uint16(t.Second()/2)
}

const shortChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789$%'-_@~`!(){}^#&"

// shortNameFor derives the short name of name inside directory n.
// lfn reports whether name does not fit into the short name and needs long name fragments.
func (n *node) shortNameFor(name string) (short [11]byte, lfn bool) {
	base, ext := name, ""
	if i := strings.LastIndex(name, "."); i > 0 {
		base, ext = name[:i], name[i+1:]
	}

	if len(base) <= 8 && len(ext) <= 3 && onlyShortChars(base) && onlyShortChars(ext) && base != "" {
		copy(short[:], fmt.Sprintf("%-8s%-3s", base, ext))
		return short, false
	}

	base = sanitize(base)
	ext = sanitize(ext)
	if len(base) > 6 {
		base = base[:6]
	}
	if len(ext) > 3 {
		ext = ext[:3]
	}
	if base == "" {
		base = "_"
	}

	n.shorts[base]++
	base = fmt.Sprintf("%s~%d", base, n.shorts[base])

	copy(short[:], fmt.Sprintf("%-8s%-3s", base, ext))
	return short, true
}

func onlyShortChars(s string) bool {
	for _, r := range s {
		if !strings.ContainsRune(shortChars, r) {
			return false
		}
	}
	return true
}

func sanitize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(s) {
		if strings.ContainsRune(shortChars, r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func displayShort(short [11]byte) string {
	base := strings.TrimRight(string(short[:8]), " ")
	ext := strings.TrimRight(string(short[8:]), " ")
	if ext == "" {
		return base
	}
	return base + "." + ext
}
