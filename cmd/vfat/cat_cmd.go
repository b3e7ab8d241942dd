package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func createCatCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cat PATH",
		Short: "writes the content of the file at PATH to stdout",
		Long:  "Cat writes the raw file content, --format is ignored.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fat, err := a.openVolume()
			if err != nil {
				return err
			}

			file, err := fat.Open(args[0])
			if err != nil {
				return err
			}
			defer file.Close()

			stat, err := file.Stat()
			if err != nil {
				return err
			}
			if stat.IsDir() {
				return fmt.Errorf("%s is a directory", args[0])
			}

			n, err := io.Copy(cmd.OutOrStdout(), file)
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			a.logger.Sugar().Debugf("copied %d of %d bytes", n, stat.Size())
			return nil
		},
	}
}
