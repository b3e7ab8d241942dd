package main

import (
	"fmt"
	"io"
	"os"

	"github.com/SonicFrog/vfat"
	"github.com/SonicFrog/vfat/internal/config"
	"github.com/SonicFrog/vfat/internal/mmap"
	"github.com/SonicFrog/vfat/internal/partition"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// app holds the state shared by all subcommands of one invocation.
type app struct {
	configPath string
	// flags receives the command line values, cfg the merged result.
	flags config.Config
	cfg   config.Config

	logger *zap.Logger
	closer io.Closer
}

// createRootCommand creates the vfat command with all subcommands.
func createRootCommand() *cobra.Command {
	a := &app{flags: config.Default(), cfg: config.Default()}

	rootCmd := &cobra.Command{
		Use:   "vfat",
		Short: "inspects FAT32 volume images",
		Long: `vfat reads FAT32 volume images, bare or inside a partitioned
disk image, and answers what is at a path, what a directory contains
and what bytes back a file. The image is never modified.`,
		SilenceUsage:       true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
	}

	defaults := config.Default()
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "YAML configuration file, flags take precedence")
	flags.StringVarP(&a.flags.Image, "image", "i", "", "path of the volume or disk image")
	flags.IntVarP(&a.flags.Partition, "partition", "p", 0, "partition number inside the disk image, 0 uses the whole file")
	flags.BoolVar(&a.flags.Mmap, "mmap", false, "map the volume into memory")
	flags.StringVar(&a.flags.LogLevel, "log-level", defaults.LogLevel, "log level (debug, info, warn, error)")
	flags.StringVar(&a.flags.Format, "format", defaults.Format, "output format (text, json, yaml)")
	flags.IntVar(&a.flags.Uid, "uid", defaults.Uid, "owner uid reported for every entry, -1 uses the current user")
	flags.IntVar(&a.flags.Gid, "gid", defaults.Gid, "owner gid reported for every entry, -1 uses the current group")

	rootCmd.AddCommand(
		createInfoCommand(a),
		createStatCommand(a),
		createLsCommand(a),
		createCatCommand(a),
		createXattrCommand(a),
		createServeCommand(a),
	)

	return rootCmd
}

// setup merges the config file and the flags and builds the logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg := config.Default()
	if a.configPath != "" {
		loaded, err := config.Load(a.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	cmd.Flags().Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "image":
			cfg.Image = a.flags.Image
		case "partition":
			cfg.Partition = a.flags.Partition
		case "mmap":
			cfg.Mmap = a.flags.Mmap
		case "log-level":
			cfg.LogLevel = a.flags.LogLevel
		case "format":
			cfg.Format = a.flags.Format
		case "listen":
			cfg.Listen = a.flags.Listen
		case "uid":
			cfg.Uid = a.flags.Uid
		case "gid":
			cfg.Gid = a.flags.Gid
		}
	})
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	a.logger = logger
	zap.ReplaceGlobals(logger)
	return nil
}

func (a *app) teardown(*cobra.Command, []string) error {
	var err error
	if a.closer != nil {
		err = a.closer.Close()
		a.closer = nil
	}
	if a.logger != nil {
		// Sync of stderr fails with EINVAL on Linux.
		_ = a.logger.Sync()
	}
	return err
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}

	zc := zap.NewProductionConfig()
	if level == zapcore.DebugLevel {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.Encoding = "console"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return zc.Build()
}

// openVolume opens the configured image and mounts the FAT32 volume on it.
// The image is closed by teardown.
func (a *app) openVolume() (*vfat.Fs, error) {
	log := a.logger.Sugar()

	if a.cfg.Image == "" {
		return nil, fmt.Errorf("no image given, use --image or set image in the config file")
	}

	section, err := partition.Locate(a.cfg.Image, a.cfg.Partition)
	if err != nil {
		return nil, fmt.Errorf("locate volume: %w", err)
	}
	log.Debugf("volume of %s at offset %d, %d bytes", a.cfg.Image, section.Offset, section.Size)

	var dev io.ReaderAt
	if a.cfg.Mmap {
		view, err := mmap.Open(a.cfg.Image, section.Offset, section.Size)
		if err != nil {
			return nil, err
		}
		log.Debugf("mapped volume into memory: %v", view.Mapped())
		dev, a.closer = view, view
	} else {
		f, err := os.Open(a.cfg.Image)
		if err != nil {
			return nil, fmt.Errorf("open image: %w", err)
		}
		dev, a.closer = io.NewSectionReader(f, section.Offset, section.Size), f
	}

	opts := []vfat.Option{vfat.WithLogger(a.logger)}
	if a.cfg.Uid >= 0 || a.cfg.Gid >= 0 {
		uid, gid := a.cfg.Uid, a.cfg.Gid
		if uid < 0 {
			uid = os.Getuid()
		}
		if gid < 0 {
			gid = os.Getgid()
		}
		opts = append(opts, vfat.WithOwner(uid, gid))
	}

	fat, err := vfat.New(dev, opts...)
	if err != nil {
		return nil, fmt.Errorf("open volume %s: %w", a.cfg.Image, err)
	}
	log.Infof("opened volume %q (%s)", fat.Label(), fat.FSType())
	return fat, nil
}
