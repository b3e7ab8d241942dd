package main

import (
	"io"

	"github.com/SonicFrog/vfat/internal/server"
	"github.com/spf13/cobra"
)

func createStatCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stat PATH",
		Short: "prints the metadata of the entry at PATH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fat, err := a.openVolume()
			if err != nil {
				return err
			}

			entry, err := fat.Resolve(args[0])
			if err != nil {
				return err
			}

			result := server.NewEntry(entry)
			return a.writeResult(cmd, result, func(w io.Writer) {
				printEntry(w, result)
			})
		},
	}
}
