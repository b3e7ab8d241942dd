package vfat

import (
	"errors"
	"os"
	"strings"
	"syscall"

	"github.com/SonicFrog/vfat/checkpoint"
	"go.uber.org/zap"
)

// ListFunc is called by List once per live entry.
// Returning ErrStop ends the listing, any other error aborts it and is returned by List.
type ListFunc func(entry Entry) error

// List calls fn for every live entry of the directory starting at cluster, in on-disk order.
// Cluster 0 stands for the root directory, like in the ".." entries of its subdirectories.
//
// Long names are reassembled from their fragments and checked against the short name.
// A name whose checksum does not match is dropped and the short name is used instead.
func (fs *Fs) List(cluster ClusterID, fn ListFunc) error {
	if cluster.Value() == 0 {
		cluster = fs.geometry.RootCluster
	}

	r := fs.newDirReader(cluster)
	// Fresh for every listing so no partial name leaks into another directory.
	var names lfnReassembler

	for r.Next() {
		raw := r.Slot()

		switch r.Kind() {
		case slotLFN:
			names.feed(decodeLongFilenameEntry(raw))

		case slotInvalid:
			// The slot may still own preceding fragments, they must not be applied to the next entry.
			names.reset()

		case slotEntry:
			header := decodeEntryHeader(raw)

			name, ok := names.claim(header.Name)
			if !ok {
				name = ShortName(header.Name)
			}

			if err := fn(fs.newEntry(header, name)); err != nil {
				if errors.Is(err, ErrStop) {
					return nil
				}
				return err
			}
		}
	}

	return checkpoint.Wrap(r.Err(), ErrReadDir)
}

// Resolve looks up the entry at path.
// The path is split at slashes, empty elements are ignored and every element has to match
// the display name of an entry exactly. "/" resolves to the root directory.
// Resolve fails with ErrNotFound if an element does not exist, wrapped together with
// syscall.ENOTDIR if an element other than the last one is a file.
// A directory entry without a valid first cluster fails with ErrCorruptChain.
func (fs *Fs) Resolve(path string) (Entry, error) {
	current := fs.rootEntry()

	for _, token := range strings.Split(path, "/") {
		if token == "" {
			continue
		}

		if !current.IsDir {
			return Entry{}, checkpoint.Wrap(&os.PathError{Op: "resolve", Path: path, Err: syscall.ENOTDIR}, ErrNotFound)
		}

		next, found, err := fs.lookup(current.Cluster, token)
		if err != nil {
			return Entry{}, err
		}

		if !found {
			fs.logger.Debug("path element not found",
				zap.String("path", path),
				zap.String("element", token))
			return Entry{}, checkpoint.Wrap(&os.PathError{Op: "resolve", Path: path, Err: os.ErrNotExist}, ErrNotFound)
		}

		// Cluster 0 only means the root in dot entries, which are never listed.
		if next.IsDir && next.Cluster.Value() < 2 {
			return Entry{}, checkpoint.Wrap(&os.PathError{Op: "resolve", Path: path, Err: syscall.EIO}, ErrCorruptChain)
		}

		current = next
	}

	return current, nil
}

// lookup returns the first entry of the directory at cluster named name.
func (fs *Fs) lookup(cluster ClusterID, name string) (Entry, bool, error) {
	var (
		result Entry
		found  bool
	)

	err := fs.List(cluster, func(entry Entry) error {
		if entry.Name != name {
			return nil
		}
		result = entry
		found = true
		return ErrStop
	})

	return result, found, err
}

// readDir returns all live entries of the directory at cluster.
func (fs *Fs) readDir(cluster ClusterID) ([]Entry, error) {
	var entries []Entry
	err := fs.List(cluster, func(entry Entry) error {
		entries = append(entries, entry)
		return nil
	})
	return entries, err
}
