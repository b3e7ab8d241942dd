package main

import (
	"fmt"
	"io"
	"syscall"

	"github.com/SonicFrog/vfat"
	"github.com/SonicFrog/vfat/internal/server"
	"github.com/spf13/cobra"
)

func createLsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ls [PATH]",
		Short: "lists a directory in on-disk order",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/"
			if len(args) == 1 {
				path = args[0]
			}

			fat, err := a.openVolume()
			if err != nil {
				return err
			}

			dir, err := fat.Resolve(path)
			if err != nil {
				return err
			}
			if !dir.IsDir {
				return fmt.Errorf("%s: %w", path, syscall.ENOTDIR)
			}

			entries := []server.Entry{}
			err = fat.List(dir.Cluster, func(entry vfat.Entry) error {
				entries = append(entries, server.NewEntry(entry))
				return nil
			})
			if err != nil {
				return err
			}

			return a.writeResult(cmd, entries, func(w io.Writer) {
				printListing(w, entries)
			})
		},
	}
}
