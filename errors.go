package vfat

import (
	"errors"
	"fmt"
	"os"
	"syscall"
)

// Format errors are fatal to New and never retried.
var (
	ErrFormat              = errors.New("malformed boot sector")
	ErrNotFAT32            = fmt.Errorf("%w: not a FAT32 volume", ErrFormat)
	ErrUnsupportedGeometry = fmt.Errorf("%w: unsupported volume geometry", ErrFormat)
)

// ErrIO marks a corrupt volume or a failed device read.
// Chain errors wrap it so that callers can map them to EIO.
var (
	ErrIO           = errors.New("volume i/o error")
	ErrChainOverrun = fmt.Errorf("%w: cluster chain longer than the volume", ErrIO)
	ErrCorruptChain = fmt.Errorf("%w: cluster chain points to an unusable cluster", ErrIO)
	ErrReadCluster  = fmt.Errorf("%w: could not read cluster", ErrIO)
	ErrReadFAT      = fmt.Errorf("%w: could not read the allocation table", ErrIO)
)

// These errors are expected results of lookups and are not logged as anomalies.
var (
	ErrNotFound = fmt.Errorf("entry not found: %w", os.ErrNotExist)
	ErrNoData   = fmt.Errorf("no such attribute: %w", syscall.ENODATA)
	ErrReadOnly = fmt.Errorf("volume is read-only: %w", syscall.EROFS)
)

// ErrStop can be returned by a ListFunc to end a listing early.
// List itself then returns nil.
var ErrStop = errors.New("stop listing")

// These errors may occur while processing a file.
var (
	ErrReadFile = errors.New("could not read file completely")
	ErrSeekFile = errors.New("could not seek inside of the file")
	ErrReadDir  = errors.New("could not read the directory")
)
