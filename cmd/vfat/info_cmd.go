package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// volumeInfo is the output of the info command.
type volumeInfo struct {
	Label        string `json:"label" yaml:"label"`
	FSType       string `json:"fs_type" yaml:"fs_type"`
	OEMName      string `json:"oem_name" yaml:"oem_name"`
	SerialNumber string `json:"serial_number" yaml:"serial_number"`

	BytesPerSector     uint32 `json:"bytes_per_sector" yaml:"bytes_per_sector"`
	SectorsPerCluster  uint32 `json:"sectors_per_cluster" yaml:"sectors_per_cluster"`
	ReservedSectors    uint32 `json:"reserved_sectors" yaml:"reserved_sectors"`
	FATCount           uint32 `json:"fat_count" yaml:"fat_count"`
	SectorsPerFAT      uint32 `json:"sectors_per_fat" yaml:"sectors_per_fat"`
	TotalSectors       uint32 `json:"total_sectors" yaml:"total_sectors"`
	ClusterSize        int64  `json:"cluster_size" yaml:"cluster_size"`
	ClusterCount       uint32 `json:"cluster_count" yaml:"cluster_count"`
	RootCluster        uint32 `json:"root_cluster" yaml:"root_cluster"`
	FATBeginOffset     int64  `json:"fat_begin_offset" yaml:"fat_begin_offset"`
	ClusterBeginOffset int64  `json:"cluster_begin_offset" yaml:"cluster_begin_offset"`
}

func createInfoCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "prints the geometry of the volume",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fat, err := a.openVolume()
			if err != nil {
				return err
			}

			g := fat.Info()
			info := volumeInfo{
				Label:              fat.Label(),
				FSType:             fat.FSType(),
				OEMName:            g.OEMName,
				SerialNumber:       fmt.Sprintf("%04X-%04X", g.SerialNumber>>16, g.SerialNumber&0xFFFF),
				BytesPerSector:     g.BytesPerSector,
				SectorsPerCluster:  g.SectorsPerCluster,
				ReservedSectors:    g.ReservedSectors,
				FATCount:           g.FATCount,
				SectorsPerFAT:      g.SectorsPerFAT,
				TotalSectors:       g.TotalSectors,
				ClusterSize:        g.ClusterSize,
				ClusterCount:       g.ClusterCount,
				RootCluster:        uint32(g.RootCluster),
				FATBeginOffset:     g.FATBeginOffset,
				ClusterBeginOffset: g.ClusterBeginOffset,
			}

			return a.writeResult(cmd, info, func(w io.Writer) {
				fmt.Fprintf(w, "Label:\t%s\n", info.Label)
				fmt.Fprintf(w, "Type:\t%s\n", info.FSType)
				fmt.Fprintf(w, "OEM name:\t%s\n", info.OEMName)
				fmt.Fprintf(w, "Serial:\t%s\n", info.SerialNumber)
				fmt.Fprintf(w, "Sector size:\t%d\n", info.BytesPerSector)
				fmt.Fprintf(w, "Cluster size:\t%d\n", info.ClusterSize)
				fmt.Fprintf(w, "Clusters:\t%d\n", info.ClusterCount)
				fmt.Fprintf(w, "FATs:\t%d x %d sectors\n", info.FATCount, info.SectorsPerFAT)
				fmt.Fprintf(w, "Root cluster:\t%d\n", info.RootCluster)
			})
		},
	}
}
