package main

import (
	"fmt"
	"io"

	"github.com/SonicFrog/vfat/internal/server"
	"github.com/spf13/cobra"
)

func createXattrCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "xattr PATH [NAME]",
		Short: "prints an extended attribute, or lists them without NAME",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fat, err := a.openVolume()
			if err != nil {
				return err
			}

			path := args[0]
			if len(args) == 1 {
				names, err := fat.Xattrs(path)
				if err != nil {
					return err
				}
				return a.writeResult(cmd, names, func(w io.Writer) {
					for _, name := range names {
						fmt.Fprintln(w, name)
					}
				})
			}

			value, err := fat.Xattr(path, args[1])
			if err != nil {
				return err
			}

			result := server.XattrResponse{Path: path, Name: args[1], Value: string(value)}
			return a.writeResult(cmd, result, func(w io.Writer) {
				fmt.Fprintln(w, result.Value)
			})
		},
	}
}
