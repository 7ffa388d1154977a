package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/snipzip/pkg/cli/config"
	controller "github.com/m-mizutani/snipzip/pkg/controller/http"
	"github.com/m-mizutani/snipzip/pkg/infra/janitor"
	"github.com/m-mizutani/snipzip/pkg/usecase"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

func cmdServe() *cli.Command {
	var (
		serverCfg    config.Server
		sessionCfg   config.Session
		firestoreCfg config.Firestore
		sentryCfg    config.Sentry
	)

	var flags []cli.Flag
	flags = append(flags, serverCfg.Flags()...)
	flags = append(flags, sessionCfg.Flags()...)
	flags = append(flags, firestoreCfg.Flags()...)
	flags = append(flags, sentryCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			if err := sessionCfg.Validate(); err != nil {
				return err
			}

			logger.Info("Starting snipzip server",
				slog.Any("server", serverCfg),
				slog.Any("sentry", sentryCfg),
				slog.String("session_backend", sessionCfg.Backend),
				slog.Duration("session_ttl", sessionCfg.TTL),
			)

			flush, err := sentryCfg.Configure()
			if err != nil {
				return err
			}
			defer flush()

			repo, closeRepo, err := sessionCfg.NewRepository(ctx, &firestoreCfg)
			if err != nil {
				return goerr.Wrap(err, "failed to create session repository")
			}
			defer closeRepo()

			// Create use cases
			sessionUC := usecase.NewSession(repo,
				usecase.WithSessionTTL(sessionCfg.TTL),
				usecase.WithInitialSlots(sessionCfg.InitialSlots),
			)
			archiveUC := usecase.NewArchive()

			// Create HTTP server with options
			opts := []controller.Option{
				controller.WithAddr(serverCfg.Addr),
				controller.WithMaxBodySize(serverCfg.MaxBodySize),
				controller.WithCookieTTL(sessionCfg.TTL),
				controller.WithSecureCookie(serverCfg.SecureCookie),
				controller.WithSentry(sentryCfg.Enabled()),
			}
			if serverCfg.CookieSecret != "" {
				opts = append(opts, controller.WithCookieSecret([]byte(serverCfg.CookieSecret)))
			}

			server, err := controller.NewServer(ctx, sessionUC, archiveUC, opts...)
			if err != nil {
				return goerr.Wrap(err, "failed to create HTTP server")
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			eg, ctx := errgroup.WithContext(ctx)

			eg.Go(func() error {
				logger.Info("HTTP server starting", slog.String("addr", serverCfg.Addr))
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return goerr.Wrap(err, "HTTP server error")
				}
				return nil
			})

			eg.Go(func() error {
				return janitor.New(repo, sessionCfg.CleanupSpec).Run(ctx)
			})

			eg.Go(func() error {
				<-ctx.Done()
				logger.Info("Shutting down...")

				// Graceful shutdown
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}
				return nil
			})

			if err := eg.Wait(); err != nil {
				return err
			}

			logger.Info("Server shutdown complete")
			return nil
		},
	}
}
