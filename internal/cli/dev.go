package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/goliatone/go-cms-forms/internal/fakeapi"
)

func (a *app) cmdDev() *cli.Command {
	return &cli.Command{
		Name:  "dev",
		Usage: "Serve the in-memory API for local development",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Usage:   "HTTP listen address",
				Value:   "127.0.0.1:8080",
				Sources: cli.EnvVars("CMS_DEV_ADDR"),
			},
			&cli.DurationFlag{
				Name:  "latency",
				Usage: "artificial delay added to every request",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			api := fakeapi.New(
				fakeapi.WithLatency(cmd.Duration("latency")),
				fakeapi.WithLogger(a.logger),
			)
			server := &http.Server{
				Addr:              cmd.String("addr"),
				Handler:           api,
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("fake api listening", "addr", server.Addr)
				errCh <- server.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return goerr.Wrap(err, "serve fake api", goerr.V("addr", server.Addr))
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			}
		},
	}
}
