package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dotmeta-dev/dotmeta/internal/cli/config"
	"github.com/dotmeta-dev/dotmeta/internal/cli/ui"
	"github.com/dotmeta-dev/dotmeta/internal/web"
	"github.com/dotmeta-dev/dotmeta/metadata"
)

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve <file>",
		Short: "Serve a metadata file's resolved graph over HTTP",
		Long: `Load the file once at startup and expose its resolved tables and
entities as a read-only JSON API. Host, port, worker count, and strict
mode come from dotmeta.yml unless overridden by flags.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if host != "" {
				cfg.Serve.Host = host
			}
			if port != 0 {
				cfg.Serve.Port = port
			}

			log, err := config.NewLogger(cfg.Log.Level)
			if err != nil {
				return err
			}
			defer log.Sync()

			opts := []metadata.Option{
				metadata.WithWorkers(cfg.Workers),
				metadata.WithLogger(log),
			}
			if cfg.Strict {
				opts = append(opts, metadata.WithStrict())
			}

			f, err := metadata.LoadFile(args[0], opts...)
			if err != nil {
				fmt.Fprint(cmd.ErrOrStderr(), ui.FormatLoadError(err, false))
				return err
			}

			addr := fmt.Sprintf("%s:%d", cfg.Serve.Host, cfg.Serve.Port)
			serverCfg := web.DefaultConfig(addr, web.NewRouter(f, log))
			serverCfg.Logger = log

			srv, err := web.New(serverCfg)
			if err != nil {
				return err
			}
			return srv.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Listen host (overrides config)")
	cmd.Flags().IntVar(&port, "port", 0, "Listen port (overrides config)")

	return cmd
}
