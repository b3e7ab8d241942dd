package partition

import (
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/SonicFrog/vfat"
	"github.com/SonicFrog/vfat/internal/fattest"
	"github.com/diskfs/go-diskfs/partition"
	"github.com/diskfs/go-diskfs/partition/gpt"
	"github.com/diskfs/go-diskfs/partition/mbr"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeMBRImage writes img behind a single-entry MBR starting at startLBA.
func writeMBRImage(t *testing.T, img []byte, startLBA uint32) string {
	t.Helper()

	buf := make([]byte, int(startLBA)*512+len(img))
	entry := buf[446 : 446+16]
	entry[4] = byte(mbr.Fat32LBA)
	binary.LittleEndian.PutUint32(entry[8:], startLBA)
	binary.LittleEndian.PutUint32(entry[12:], uint32(len(img)/512))
	buf[510], buf[511] = 0x55, 0xAA
	copy(buf[int(startLBA)*512:], img)

	path := filepath.Join(t.TempDir(), "disk.img")
	require.NoError(t, os.WriteFile(path, buf, 0o644))
	return path
}

func TestLocate(t *testing.T) {
	img, err := fattest.New(fattest.Options{Label: "PARTED"}).
		AddFile("/HELLO.TXT", []byte("hello")).
		Build()
	require.NoError(t, err)

	path := writeMBRImage(t, img.Bytes, 64)

	section, err := Locate(path, 1)
	require.NoError(t, err)
	assert.Equal(t, Section{Offset: 64 * 512, Size: int64(len(img.Bytes))}, section)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	fat, err := vfat.New(io.NewSectionReader(f, section.Offset, section.Size))
	require.NoError(t, err)
	assert.Equal(t, "PARTED", fat.Label())

	entry, err := fat.Resolve("/HELLO.TXT")
	require.NoError(t, err)
	assert.EqualValues(t, 5, entry.Size)

	_, err = Locate(path, 2)
	assert.True(t, errors.Is(err, ErrNoPartition), "got %v", err)
}

func TestLocate_wholeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "volume.img")
	require.NoError(t, os.WriteFile(path, make([]byte, 4096), 0o644))

	section, err := Locate(path, 0)
	require.NoError(t, err)
	assert.Equal(t, Section{Offset: 0, Size: 4096}, section)
}

func TestLocate_errors(t *testing.T) {
	_, err := Locate(filepath.Join(t.TempDir(), "missing.img"), 0)
	assert.Error(t, err)

	_, err = Locate(filepath.Join(t.TempDir(), "missing.img"), 1)
	assert.Error(t, err)

	_, err = Locate("whatever.img", -1)
	assert.Error(t, err)
}

func Test_find(t *testing.T) {
	gptTable := &gpt.Table{
		LogicalSectorSize:  512,
		PhysicalSectorSize: 4096,
		ProtectiveMBR:      true,
		Partitions: []*gpt.Partition{
			{Start: 0, End: 0},
			{Start: 2048, End: 4095, Name: "ESP"},
			{Start: 4096, End: 8191, Name: "data"},
		},
	}
	mbrTable := &mbr.Table{
		LogicalSectorSize:  512,
		PhysicalSectorSize: 512,
		Partitions: []*mbr.Partition{
			{Type: mbr.Empty},
			{Type: mbr.Fat32LBA, Start: 2048, Size: 2048},
		},
	}

	tests := []struct {
		name      string
		table     partition.Table
		blockSize int64
		index     int
		want      Section
		wantErr   bool
	}{
		{
			name:      "gpt first used partition",
			table:     gptTable,
			blockSize: 512,
			index:     1,
			want:      Section{Offset: 2048 * 512, Size: 2048 * 512},
		},
		{
			name:      "gpt second partition",
			table:     gptTable,
			blockSize: 512,
			index:     2,
			want:      Section{Offset: 4096 * 512, Size: 4096 * 512},
		},
		{
			name:      "gpt index out of range",
			table:     gptTable,
			blockSize: 512,
			index:     3,
			wantErr:   true,
		},
		{
			name:      "mbr skips empty slots",
			table:     mbrTable,
			blockSize: 512,
			index:     1,
			want:      Section{Offset: 2048 * 512, Size: 2048 * 512},
		},
		{
			name:      "mbr with 4k sectors",
			table:     mbrTable,
			blockSize: 4096,
			index:     1,
			want:      Section{Offset: 2048 * 4096, Size: 2048 * 4096},
		},
		{
			name:      "invalid block size",
			table:     mbrTable,
			blockSize: 0,
			index:     1,
			wantErr:   true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := find(tt.table, tt.blockSize, tt.index)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
