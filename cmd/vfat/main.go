// Command vfat inspects FAT32 volume images without mounting them.
package main

import (
	"os"
)

func main() {
	if err := createRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
