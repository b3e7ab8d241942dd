// Command example walks a FAT32 image through the afero and io/fs surfaces.
//
//	example IMAGE [FILE]
package main

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/SonicFrog/vfat"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

func main() {
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()
	log := logger.Sugar()

	if len(os.Args) < 2 {
		log.Fatal("usage: example IMAGE [FILE]")
	}

	img, err := os.Open(os.Args[1])
	if err != nil {
		log.Fatal(err)
	}
	defer img.Close()

	fat, err := vfat.New(img, vfat.WithLogger(logger))
	if err != nil {
		log.Fatalw("not a FAT32 volume", "image", os.Args[1], "error", err)
	}
	log.Infow("opened volume", "label", fat.Label(), "type", fat.FSType())

	// afero paths are rooted.
	walkErr := afero.Walk(fat, "/", func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		fmt.Printf("%v %8d %v %v\n", info.Mode(), info.Size(), info.ModTime().Format("2006-01-02 15:04"), path)
		return nil
	})
	if walkErr != nil {
		log.Fatalw("walk failed", "error", walkErr)
	}

	if len(os.Args) < 3 {
		return
	}

	// io/fs paths are not.
	gofs := fat.GoFS()
	name := strings.TrimLeft(os.Args[2], "/")

	info, err := fs.Stat(gofs, name)
	if err != nil {
		log.Fatalw("stat failed", "file", name, "error", err)
	}

	file, err := gofs.Open(name)
	if err != nil {
		log.Fatalw("open failed", "file", name, "error", err)
	}
	defer file.Close()

	fmt.Printf("\n%v, %v bytes:\n\n", info.Name(), info.Size())
	if _, err := io.Copy(os.Stdout, file); err != nil {
		log.Errorw("read failed", "file", name, "error", err)
	}
}
