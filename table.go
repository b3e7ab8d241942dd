package vfat

import (
	"encoding/binary"
	"fmt"

	"github.com/SonicFrog/vfat/checkpoint"
)

// ClusterID is a cluster number as stored in the FAT and in directory entries.
// Only the low 28 bits are significant, the high 4 bits are reserved.
type ClusterID uint32

const (
	clusterMask ClusterID = 0x0FFFFFFF

	firstDataCluster ClusterID = 2

	reservedRangeStart ClusterID = 0x0FFFFFF0
	badCluster         ClusterID = 0x0FFFFFF7
	endOfChainStart    ClusterID = 0x0FFFFFF8

	// EndOfChain is the canonical end-of-chain value returned by Table.Next.
	EndOfChain ClusterID = 0x0FFFFFFF
)

// Value masks off the reserved high bits.
func (c ClusterID) Value() ClusterID {
	return c & clusterMask
}

// IsFree reports whether the entry marks an unallocated cluster.
func (c ClusterID) IsFree() bool {
	return c.Value() == 0
}

// IsReserved reports whether the value is 1 or in the reserved range below the bad marker.
func (c ClusterID) IsReserved() bool {
	v := c.Value()
	return v == 1 || (v >= reservedRangeStart && v < badCluster)
}

// IsBad reports whether the entry marks a defective cluster.
func (c ClusterID) IsBad() bool {
	return c.Value() == badCluster
}

// IsEOF reports whether the entry ends a chain.
// Every masked value from 0x0FFFFFF8 up is accepted, so 0xFFFFFFFF is an end of chain as well.
func (c ClusterID) IsEOF() bool {
	return c.Value() >= endOfChainStart
}

// IsNextCluster reports whether the entry points to another data cluster.
func (c ClusterID) IsNextCluster() bool {
	v := c.Value()
	return v >= firstDataCluster && v < reservedRangeStart
}

// Table is the in-memory copy of the first FAT.
// It is loaded once and only read afterwards, so it is safe for concurrent use.
type Table struct {
	entries []uint32
}

// NewTable decodes a raw FAT region.
func NewTable(b []byte) *Table {
	t := &Table{entries: make([]uint32, len(b)/fatEntrySize)}
	for i := range t.entries {
		t.entries[i] = binary.LittleEndian.Uint32(b[i*fatEntrySize:])
	}
	return t
}

// Len is the number of entries in the table.
func (t *Table) Len() int {
	return len(t.entries)
}

// Next returns the successor of cluster c.
// Clusters outside of the table end the chain instead of failing,
// which guards against a truncated or corrupt FAT.
func (t *Table) Next(c ClusterID) ClusterID {
	if int64(c) >= int64(len(t.entries)) {
		return EndOfChain
	}
	return ClusterID(t.entries[c]).Value()
}

// Chain returns an iterator over the chain starting at start.
// It can be created any number of times for the same start and yields the same clusters.
func (t *Table) Chain(start ClusterID) *Chain {
	return &Chain{
		table: t,
		next:  start.Value(),
		limit: len(t.entries),
	}
}

// Chain walks a cluster chain:
//
//	chain := table.Chain(start)
//	for chain.Next() {
//		use(chain.Cluster())
//	}
//	if err := chain.Err(); err != nil { ... }
//
// A chain never visits more clusters than the table has entries,
// so a FAT containing a cycle yields ErrChainOverrun instead of looping forever.
type Chain struct {
	table   *Table
	current ClusterID
	next    ClusterID
	visited int
	limit   int
	done    bool
	err     error
}

// Next advances to the next cluster and reports whether there is one.
func (c *Chain) Next() bool {
	if c.done {
		return false
	}

	cluster := c.next
	switch {
	case cluster.IsEOF():
		c.done = true
		return false
	case !cluster.IsNextCluster() || int64(cluster) >= int64(c.table.Len()):
		c.fail(checkpoint.Wrap(fmt.Errorf("cluster 0x%08X follows 0x%08X", uint32(cluster), uint32(c.current)), ErrCorruptChain))
		return false
	case c.visited >= c.limit:
		c.fail(checkpoint.Wrap(fmt.Errorf("more than %d clusters after 0x%08X", c.limit, uint32(c.current)), ErrChainOverrun))
		return false
	}

	c.visited++
	c.current = cluster
	c.next = c.table.Next(cluster)
	return true
}

// Cluster is the cluster the last successful Next moved to.
func (c *Chain) Cluster() ClusterID {
	return c.current
}

// Visited is the number of clusters yielded so far.
func (c *Chain) Visited() int {
	return c.visited
}

// Err returns the error which ended the chain, if any.
// A chain ending in an end-of-chain marker has no error.
func (c *Chain) Err() error {
	return c.err
}

func (c *Chain) fail(err error) {
	c.done = true
	c.err = err
}
