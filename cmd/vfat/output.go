package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/SonicFrog/vfat/internal/server"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const timeLayout = "2006-01-02 15:04:05"

// writeResult prints v in the configured format, using text for the text format.
func (a *app) writeResult(cmd *cobra.Command, v any, text func(w io.Writer)) error {
	out := cmd.OutOrStdout()

	switch a.cfg.Format {
	case "text":
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		text(tw)
		return tw.Flush()

	case "json":
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal json: %w", err)
		}
		_, _ = fmt.Fprintln(out, string(b))
		return nil

	case "yaml":
		b, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal yaml: %w", err)
		}
		_, _ = fmt.Fprint(out, string(b))
		return nil

	default:
		return fmt.Errorf("unsupported output format: %s", a.cfg.Format)
	}
}

func printEntry(w io.Writer, e server.Entry) {
	fmt.Fprintf(w, "Name:\t%s\n", e.Name)
	if e.ShortName != "" && e.ShortName != e.Name {
		fmt.Fprintf(w, "Short name:\t%s\n", e.ShortName)
	}
	fmt.Fprintf(w, "Size:\t%d\n", e.Size)
	fmt.Fprintf(w, "Cluster:\t%d\n", e.Cluster)
	fmt.Fprintf(w, "Mode:\t%s\n", e.Mode)
	fmt.Fprintf(w, "Attributes:\t0x%02X\n", e.Attribute)
	fmt.Fprintf(w, "Owner:\t%d:%d\n", e.Uid, e.Gid)
	fmt.Fprintf(w, "Modified:\t%s\n", e.ModTime.Format(timeLayout))
	fmt.Fprintf(w, "Accessed:\t%s\n", e.AccessTime.Format(timeLayout))
	fmt.Fprintf(w, "Changed:\t%s\n", e.ChangeTime.Format(timeLayout))
}

func printListing(w io.Writer, entries []server.Entry) {
	for _, e := range entries {
		name := e.Name
		if e.IsDir {
			name += "/"
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%d\t%s\n", e.Mode, e.Size, e.ModTime.Format(timeLayout), e.Cluster, name)
	}
}
