package vfat

import (
	"fmt"
	"io"
	"os"
	"path"
	"time"

	"github.com/SonicFrog/vfat/checkpoint"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Fs is a read-only FAT32 volume.
// All of its state is set up in New and never modified afterwards,
// so its methods may be called concurrently as long as the device supports concurrent ReadAt.
type Fs struct {
	dev      io.ReaderAt
	geometry Geometry
	table    *Table
	logger   *zap.Logger

	uid       int
	gid       int
	mountTime time.Time
}

var _ afero.Fs = (*Fs)(nil)

// Option configures New.
type Option func(*options)

type options struct {
	logger     *zap.Logger
	uid        int
	gid        int
	mountTime  time.Time
	skipChecks bool
}

// WithLogger sets the logger. By default nothing is logged.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithOwner sets the owner reported for every entry.
// It defaults to the user and group of the current process.
func WithOwner(uid, gid int) Option {
	return func(o *options) {
		o.uid = uid
		o.gid = gid
	}
}

// WithMountTime sets the timestamps of the root directory, which has no directory entry of its own.
// It defaults to the time New is called.
func WithMountTime(t time.Time) Option {
	return func(o *options) {
		o.mountTime = t
	}
}

// WithSkipChecks skips the validations proving that the volume is FAT32
// which may allow you to open volumes that are not perfectly standard.
// Sector and cluster sizes are checked anyway.
// Use with caution!
func WithSkipChecks() Option {
	return func(o *options) {
		o.skipChecks = true
	}
}

// New opens the FAT32 volume on dev.
// The boot sector and the first FAT are read eagerly, everything else on demand.
func New(dev io.ReaderAt, opts ...Option) (*Fs, error) {
	o := options{
		logger:    zap.NewNop(),
		uid:       os.Getuid(),
		gid:       os.Getgid(),
		mountTime: time.Now(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	boot := make([]byte, bootSectorSize)
	if n, err := dev.ReadAt(boot, 0); n != len(boot) {
		if err == nil || err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, checkpoint.Wrap(err, ErrNotFAT32)
	}

	geometry, err := validate(boot, o.skipChecks)
	if err != nil {
		return nil, checkpoint.From(err)
	}

	if geometry.Undersized() {
		o.logger.Warn("cluster count is below the FAT32 minimum",
			zap.Uint32("clusters", geometry.ClusterCount),
			zap.Int("minimum", MinClusters))
	}

	rawFAT := make([]byte, geometry.FATSize)
	if n, err := dev.ReadAt(rawFAT, geometry.FATBeginOffset); n != len(rawFAT) {
		if err == nil || err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, checkpoint.Wrap(err, ErrReadFAT)
	}

	fs := &Fs{
		dev:       dev,
		geometry:  geometry,
		table:     NewTable(rawFAT),
		logger:    o.logger,
		uid:       o.uid,
		gid:       o.gid,
		mountTime: o.mountTime,
	}

	fs.logger.Debug("mounted volume",
		zap.String("label", geometry.VolumeLabel),
		zap.String("oem", geometry.OEMName),
		zap.Int64("clusterSize", geometry.ClusterSize),
		zap.Uint32("fatEntries", geometry.FATEntries),
		zap.Int64("fatBegin", geometry.FATBeginOffset),
		zap.Int64("clusterBegin", geometry.ClusterBeginOffset),
		zapCluster(geometry.RootCluster))

	return fs, nil
}

// NewSkipChecks opens the volume just like New but with WithSkipChecks applied.
func NewSkipChecks(dev io.ReaderAt, opts ...Option) (*Fs, error) {
	return New(dev, append(opts, WithSkipChecks())...)
}

// Info returns the geometry of the volume.
func (fs *Fs) Info() Geometry {
	return fs.geometry
}

// Table returns the allocation table of the volume.
func (fs *Fs) Table() *Table {
	return fs.table
}

// Label returns the volume label of the boot sector.
func (fs *Fs) Label() string {
	return fs.geometry.VolumeLabel
}

// FSType returns the file system type string of the boot sector, usually "FAT32".
func (fs *Fs) FSType() string {
	return fs.geometry.FSTypeName
}

// Name implements afero.Fs.
func (fs *Fs) Name() string {
	return "vfat"
}

// Open opens the named file for reading.
func (fs *Fs) Open(name string) (afero.File, error) {
	return fs.OpenFile(name, os.O_RDONLY, 0)
}

// OpenFile opens the named file. Any flag which would allow writing fails with ErrReadOnly.
func (fs *Fs) OpenFile(name string, flag int, _ os.FileMode) (afero.File, error) {
	if flag&(os.O_WRONLY|os.O_RDWR|os.O_APPEND|os.O_CREATE|os.O_TRUNC) != 0 {
		return nil, &os.PathError{Op: "open", Path: name, Err: ErrReadOnly}
	}

	entry, err := fs.Resolve(cleanPath(name))
	if err != nil {
		return nil, &os.PathError{Op: "open", Path: name, Err: err}
	}

	return newFile(fs, name, entry), nil
}

// Stat returns the file info of the named file.
func (fs *Fs) Stat(name string) (os.FileInfo, error) {
	entry, err := fs.Resolve(cleanPath(name))
	if err != nil {
		return nil, &os.PathError{Op: "stat", Path: name, Err: err}
	}
	return entry.FileInfo(), nil
}

func (fs *Fs) Create(name string) (afero.File, error) {
	return nil, &os.PathError{Op: "create", Path: name, Err: ErrReadOnly}
}

func (fs *Fs) Mkdir(name string, _ os.FileMode) error {
	return &os.PathError{Op: "mkdir", Path: name, Err: ErrReadOnly}
}

func (fs *Fs) MkdirAll(name string, _ os.FileMode) error {
	return &os.PathError{Op: "mkdir", Path: name, Err: ErrReadOnly}
}

func (fs *Fs) Remove(name string) error {
	return &os.PathError{Op: "remove", Path: name, Err: ErrReadOnly}
}

func (fs *Fs) RemoveAll(name string) error {
	return &os.PathError{Op: "remove", Path: name, Err: ErrReadOnly}
}

func (fs *Fs) Rename(oldname, newname string) error {
	return &os.LinkError{Op: "rename", Old: oldname, New: newname, Err: ErrReadOnly}
}

func (fs *Fs) Chmod(name string, _ os.FileMode) error {
	return &os.PathError{Op: "chmod", Path: name, Err: ErrReadOnly}
}

func (fs *Fs) Chown(name string, _, _ int) error {
	return &os.PathError{Op: "chown", Path: name, Err: ErrReadOnly}
}

func (fs *Fs) Chtimes(name string, _ time.Time, _ time.Time) error {
	return &os.PathError{Op: "chtimes", Path: name, Err: ErrReadOnly}
}

// cleanPath turns relative names and dot elements used by afero and io/fs into an absolute path.
func cleanPath(name string) string {
	return path.Clean("/" + name)
}

func zapCluster(c ClusterID) zap.Field {
	return zap.String("cluster", fmt.Sprintf("0x%08X", uint32(c)))
}
