package cli

import (
	"context"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/bulkmail/internal/api"
	"github.com/dmitrymomot/bulkmail/internal/config"
	"github.com/dmitrymomot/bulkmail/internal/dispatchlog"
	"github.com/dmitrymomot/bulkmail/internal/server"
	"github.com/dmitrymomot/bulkmail/middlewares"
	"github.com/dmitrymomot/bulkmail/pkg/logger"
)

const sentryFlushTimeout = 2 * time.Second

func newServeCmd(g *globalFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr()
			}

			log := serverLogger(cfg, g, cmd)
			c, err := build(cfg, log)
			if err != nil {
				return err
			}
			reportPartials(cmd.Context(), log, c.logs)

			srv := newServer(cfg, c, log)
			return srv.Run(addr,
				server.WithContext(cmd.Context()),
				server.ReadTimeout(cfg.Server.ReadTimeout),
				server.ShutdownTimeout(cfg.Server.ShutdownTimeout),
				server.ShutdownHook(func(context.Context) error {
					if cfg.Log.SentryDSN != "" {
						sentry.Flush(sentryFlushTimeout)
					}
					return nil
				}),
			)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, e.g. 0.0.0.0:5000)")
	return cmd
}

func newServer(cfg *config.Config, c *components, log *slog.Logger) *server.Server {
	return server.New(
		server.WithLogger(log),
		server.WithMiddleware(
			middlewares.RequestID(),
			middlewares.AccessLog(),
			middlewares.Recover(),
			middlewares.CORS(middlewares.WithAllowOrigins(cfg.Server.CORSOrigins...)),
		),
		server.WithHealthChecks(
			server.WithReadinessCheck("storage", c.logs.Ping),
		),
		server.WithHandlers(
			api.New(c.dispatcher, c.logs, api.Config{MaxUploadBytes: cfg.Limits.MaxUploadBytes}),
		),
	)
}

func serverLogger(cfg *config.Config, g *globalFlags, cmd *cobra.Command) *slog.Logger {
	level := cfg.Log.Level
	if g.debug {
		level = "debug"
	}
	return logger.New(logger.Config{
		Output:      cmd.OutOrStdout(),
		Level:       level,
		Format:      cfg.Log.Format,
		SentryDSN:   cfg.Log.SentryDSN,
		Environment: cfg.Env,
	}, middlewares.RequestIDExtractor(), logger.BatchIDExtractor())
}

// reportPartials warns about journals left behind by an interrupted batch.
func reportPartials(ctx context.Context, log *slog.Logger, logs *dispatchlog.Store) {
	partials, err := logs.Partials()
	if err != nil {
		log.WarnContext(ctx, "list partial dispatch logs", slog.String("error", err.Error()))
		return
	}
	for _, p := range partials {
		log.WarnContext(ctx, "partial dispatch log found", slog.String("path", p))
	}
}
