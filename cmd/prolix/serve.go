package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/i5heu/prolix/apiServer"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

type pinger interface {
	Ping(ctx context.Context) error
}

// serveSubcommand returns the serve [cobra.Command].
func serveSubcommand(g *globalOptions) *cobra.Command {
	var (
		listen string
		token  string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API, the HTML form and Prometheus metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, fc, logger, err := g.open()
			if err != nil {
				return err
			}
			defer p.Close()

			if listen == "" {
				listen = fc.Listen
			}

			opts := []apiServer.Option{apiServer.WithLogger(logger)}
			if token != "" {
				opts = append(opts, apiServer.WithAuth(apiServer.TokenAuth(token)))
			}
			if ps, ok := p.Store().(pinger); ok {
				opts = append(opts, apiServer.WithHealthCheck(ps.Ping))
			}

			ln, err := net.Listen("tcp", listen)
			if err != nil {
				return fmt.Errorf("error listening on %s: %w", listen, err)
			}
			return serve(cmd.Context(), ln, apiServer.New(p, opts...), logger)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&listen, "listen", "", "address to listen on (default from config)")
	flags.StringVar(&token, "token", "", "require this X-Auth-Token on API and form requests")
	return cmd
}

// serve runs handler on ln until ctx is done, then shuts down gracefully.
func serve(ctx context.Context, ln net.Listener, handler http.Handler, logger *logrus.Logger) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("address", ln.Addr().String()).Info("serving prolix")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error shutting down: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("server stopped")
	return nil
}
