package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SonicFrog/vfat/internal/server"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

func createServeCommand(a *app) *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "serves the volume over HTTP",
		Long: `Serve exposes the volume read-only over HTTP:

  GET /stat/PATH                      entry metadata as JSON
  GET /ls/PATH                        directory listing as JSON
  GET /read/PATH?offset=N&length=N    raw file content
  GET /xattr/PATH?name=NAME           extended attribute as JSON`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fat, err := a.openVolume()
			if err != nil {
				return err
			}

			if a.cfg.LogLevel != "debug" {
				gin.SetMode(gin.ReleaseMode)
			}

			srv := &http.Server{
				Addr:              a.cfg.Listen,
				Handler:           server.New(fat, a.logger),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errc := make(chan error, 1)
			go func() {
				errc <- srv.ListenAndServe()
			}()
			a.logger.Sugar().Infof("serving %s on %s", a.cfg.Image, a.cfg.Listen)

			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}
			if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	serveCmd.Flags().StringVar(&a.flags.Listen, "listen", a.flags.Listen, "address to listen on")

	return serveCmd
}
