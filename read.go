package vfat

import (
	"fmt"
	"io"

	"github.com/SonicFrog/vfat/checkpoint"
	"go.uber.org/zap"
)

// Read returns the content of the file starting at cluster with size fileSize,
// beginning at offset and at most length bytes long.
//
// A single call never crosses a cluster boundary, so it returns at most one cluster worth of bytes.
// Callers needing more have to call Read again with an advanced offset.
// Reading at or behind the end of the file, or behind the end of its cluster chain,
// returns no bytes and no error. A broken chain returns an error wrapping ErrIO.
func (fs *Fs) Read(cluster ClusterID, fileSize, offset, length int64) ([]byte, error) {
	if offset < 0 || length <= 0 || offset >= fileSize {
		return []byte{}, nil
	}

	clusterSize := fs.geometry.ClusterSize
	inCluster := offset % clusterSize

	n := min(length, fileSize-offset, clusterSize-inCluster)

	chain, ok, err := fs.seekCluster(cluster, offset/clusterSize)
	if err != nil || !ok {
		return []byte{}, err
	}

	buf := make([]byte, n)
	read, err := fs.dev.ReadAt(buf, fs.geometry.ClusterOffset(chain.Cluster())+inCluster)
	if int64(read) < n {
		if err == nil || err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return buf[:read], checkpoint.Wrap(fmt.Errorf("cluster 0x%08X: %w", uint32(chain.Cluster()), err), ErrReadCluster)
	}

	return buf, nil
}

// seekCluster walks hops clusters along the chain starting at cluster.
// The returned chain is positioned on the target cluster. ok is false if the chain ended before.
func (fs *Fs) seekCluster(cluster ClusterID, hops int64) (*Chain, bool, error) {
	chain := fs.table.Chain(cluster)

	for i := int64(0); i <= hops; i++ {
		if !chain.Next() {
			if err := chain.Err(); err != nil {
				return nil, false, err
			}

			fs.logger.Debug("offset behind the end of the cluster chain",
				zapCluster(cluster),
				zap.Int64("hops", hops),
				zap.Int("visited", chain.Visited()))
			return nil, false, nil
		}
	}

	return chain, true, nil
}

// readFileAt reads up to readSize bytes at offset, walking the chain only once.
// It returns io.EOF together with the available bytes if the file ends before readSize bytes are read.
func (fs *Fs) readFileAt(cluster ClusterID, fileSize int64, offset int64, readSize int64) ([]byte, error) {
	if offset >= fileSize {
		return nil, io.EOF
	}
	if readSize <= 0 {
		return []byte{}, nil
	}

	clusterSize := fs.geometry.ClusterSize
	want := min(readSize, fileSize-offset)
	data := make([]byte, 0, want)

	chain, ok, err := fs.seekCluster(cluster, offset/clusterSize)
	if err != nil {
		return nil, err
	}

	inCluster := offset % clusterSize
	for ok && int64(len(data)) < want {
		n := min(want-int64(len(data)), clusterSize-inCluster)
		buf := make([]byte, n)

		read, err := fs.dev.ReadAt(buf, fs.geometry.ClusterOffset(chain.Cluster())+inCluster)
		data = append(data, buf[:read]...)
		if int64(read) < n {
			if err == nil || err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return data, checkpoint.Wrap(fmt.Errorf("cluster 0x%08X: %w", uint32(chain.Cluster()), err), ErrReadCluster)
		}

		inCluster = 0
		if int64(len(data)) < want {
			ok = chain.Next()
			if err := chain.Err(); err != nil {
				return data, err
			}
		}
	}

	if int64(len(data)) < readSize {
		return data, io.EOF
	}
	return data, nil
}
