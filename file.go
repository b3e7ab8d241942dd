package vfat

import (
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/SonicFrog/vfat/checkpoint"
	"github.com/spf13/afero"
)

// fatFileFs provides all methods needed from a fat filesystem for File.
// It mainly exists to be able to mock the Fs in tests.
// Generated mock using mockgen:
//
//	mockgen -source=file.go -destination=file_mock.go -package vfat
type fatFileFs interface {
	readFileAt(cluster ClusterID, fileSize int64, offset int64, readSize int64) ([]byte, error)
	readDir(cluster ClusterID) ([]Entry, error)
}

// File is an open file or directory of a Fs. It is read-only.
// Like os.File a single File must not be used concurrently.
type File struct {
	fs   fatFileFs
	path string

	isDirectory bool
	closed      bool

	firstCluster ClusterID
	stat         os.FileInfo
	// offset is the byte offset for files and the entry index for directories.
	offset int64
}

var _ afero.File = (*File)(nil)

func newFile(fs fatFileFs, name string, entry Entry) *File {
	return &File{
		fs:           fs,
		path:         name,
		isDirectory:  entry.IsDir,
		firstCluster: entry.Cluster,
		stat:         entry.FileInfo(),
	}
}

// Close releases the handle. Every later call except Name fails with os.ErrClosed.
func (f *File) Close() error {
	if err := f.checkClosed("close"); err != nil {
		return err
	}
	*f = File{path: f.path, closed: true}
	return nil
}

func (f *File) checkClosed(op string) error {
	if f.closed {
		return &os.PathError{Op: op, Path: f.path, Err: os.ErrClosed}
	}
	return nil
}

func (f *File) Read(p []byte) (n int, err error) {
	if err := f.checkClosed("read"); err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, nil
	}

	if f.isDirectory {
		return 0, checkpoint.Wrap(&os.PathError{Op: "read", Path: f.path, Err: syscall.EISDIR}, ErrReadFile)
	}

	// Reading a file if the size has been already reached, makes no sense.
	if f.stat.Size() <= f.offset {
		return 0, io.EOF
	}

	data, err := f.fs.readFileAt(f.firstCluster, f.stat.Size(), f.offset, int64(len(p)))
	n = copy(p, data)

	// Seek even if an error occurred, errors from reading are used even if seek also errors.
	_, seekErr := f.Seek(int64(n), io.SeekCurrent)

	if err != nil {
		return n, checkpoint.Wrap(err, ErrReadFile)
	}

	if seekErr != nil {
		return n, checkpoint.Wrap(seekErr, ErrReadFile)
	}

	return n, nil
}

func (f *File) ReadAt(p []byte, off int64) (n int, err error) {
	if err := f.checkClosed("readat"); err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, nil
	}

	if f.isDirectory {
		return 0, checkpoint.Wrap(&os.PathError{Op: "read", Path: f.path, Err: syscall.EISDIR}, ErrReadFile)
	}

	if off < 0 {
		return 0, checkpoint.Wrap(&os.PathError{Op: "readat", Path: f.path, Err: syscall.EINVAL}, ErrReadFile)
	}

	// Reading over the end makes no sense.
	if f.stat.Size() <= off {
		return 0, io.EOF
	}

	data, err := f.fs.readFileAt(f.firstCluster, f.stat.Size(), off, int64(len(p)))
	n = copy(p, data)

	if err != nil {
		return n, checkpoint.Wrap(err, ErrReadFile)
	}

	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Seek jumps to a specific offset in the file. This affects all Read operation except ReadAt.
// For directories only a seek to the start is allowed, it restarts Readdir.
// May return a syscall.EINVAL error if the whence value is invalid.
// May return an afero.ErrOutOfRange error if the offset is out of range.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	if err := f.checkClosed("seek"); err != nil {
		return 0, err
	}
	if f.isDirectory {
		if offset != 0 || whence != io.SeekStart {
			return 0, checkpoint.Wrap(fmt.Errorf("%w, directories can only be rewound", syscall.EINVAL), ErrSeekFile)
		}
		f.offset = 0
		return 0, nil
	}

	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		offset = f.offset + offset
	case io.SeekEnd:
		offset = f.stat.Size() + offset
	default:
		return 0, checkpoint.Wrap(fmt.Errorf("%w, offset: %v, whence: %v", syscall.EINVAL, offset, whence), ErrSeekFile)
	}

	if offset < 0 || offset > f.stat.Size() {
		return 0, checkpoint.Wrap(fmt.Errorf("%w, offset: %v, whence: %v", afero.ErrOutOfRange, offset, whence), ErrSeekFile)
	}

	f.offset = offset
	return offset, nil
}

func (f *File) Write(p []byte) (n int, err error) {
	return 0, &os.PathError{Op: "write", Path: f.path, Err: ErrReadOnly}
}

func (f *File) WriteAt(p []byte, off int64) (n int, err error) {
	return 0, &os.PathError{Op: "write", Path: f.path, Err: ErrReadOnly}
}

func (f *File) WriteString(s string) (ret int, err error) {
	return f.Write([]byte(s))
}

func (f *File) Name() string {
	return f.path
}

// Readdir reads the contents of a directory.
// With count > 0 at most count entries are returned and io.EOF once the directory is exhausted.
// With count <= 0 all remaining entries are returned at once.
// May return syscall.ENOTDIR if the current File is no directory.
func (f *File) Readdir(count int) ([]os.FileInfo, error) {
	if err := f.checkClosed("readdir"); err != nil {
		return nil, err
	}
	if !f.isDirectory {
		return nil, checkpoint.Wrap(&os.PathError{Op: "readdir", Path: f.path, Err: syscall.ENOTDIR}, ErrReadDir)
	}

	content, err := f.fs.readDir(f.firstCluster)
	if err != nil {
		return nil, checkpoint.Wrap(err, ErrReadDir)
	}

	if f.offset >= int64(len(content)) {
		if count > 0 {
			return nil, io.EOF
		}
		return []os.FileInfo{}, nil
	}

	content = content[f.offset:]
	if count > 0 && len(content) > count {
		content = content[:count]
	}
	f.offset += int64(len(content))

	result := make([]os.FileInfo, len(content))
	for i := range content {
		result[i] = content[i].FileInfo()
	}

	return result, nil
}

func (f *File) Readdirnames(count int) ([]string, error) {
	content, err := f.Readdir(count)

	names := make([]string, len(content))
	for i, entry := range content {
		names[i] = entry.Name()
	}

	return names, err
}

func (f *File) Stat() (os.FileInfo, error) {
	if err := f.checkClosed("stat"); err != nil {
		return nil, err
	}
	return f.stat, nil
}

// Sync does nothing as nothing can be written.
func (f *File) Sync() error {
	return nil
}

func (f *File) Truncate(size int64) error {
	return &os.PathError{Op: "truncate", Path: f.path, Err: ErrReadOnly}
}

