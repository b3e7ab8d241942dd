// Command generate writes a small FAT32 sample image for manual testing.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/SonicFrog/vfat/internal/fattest"
	"github.com/spf13/pflag"
)

func main() {
	out := pflag.StringP("output", "o", "testdata/sample.img", "path of the image to write")
	label := pflag.String("label", "SAMPLE", "volume label")
	clusters := pflag.Uint32("clusters", 1024, "number of data clusters")
	sectorsPerCluster := pflag.Uint8("sectors-per-cluster", 1, "sectors per cluster")
	pflag.Parse()

	img, err := fattest.New(fattest.Options{
		Label:             *label,
		Clusters:          *clusters,
		SectorsPerCluster: *sectorsPerCluster,
		Serial:            0x5EED0001,
	}).
		AddFile("/README.TXT", []byte("This volume was written by cmd/generate.\n")).
		AddDir("/docs").
		AddFile("/docs/A file with a long name.txt", []byte(strings.Repeat("long name content\n", 200))).
		AddFile("/docs/EMPTY.DAT", nil).
		AddDir("/nested").
		AddDir("/nested/deeper").
		AddFile("/nested/deeper/Ünïcödé.txt", []byte("utf-16 names\n")).
		Build()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, img.Bytes, 0o644); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("wrote %s (%d bytes)\n", *out, len(img.Bytes))
}
