// Command prolix obscures text from the command line and serves the HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/i5heu/prolix"
	"github.com/i5heu/prolix/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logrus.WithField("signal", sig.String()).Info("received shutdown signal")
		cancel()
	}()

	if err := newRootCommand(os.Stdin, os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

// globalOptions holds the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	debug      bool

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func newRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	g := &globalOptions{stdin: stdin, stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:           "prolix",
		Short:         "Hide text among filler characters, recoverable with a short key",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&g.configPath, "config", "", "path to a prolix_conf.yaml (default: search package dir, ~/.prolix, $PROLIX_CONF_DIR)")
	flags.BoolVar(&g.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		obscureSubcommand(g),
		clarifySubcommand(g),
		forgetSubcommand(g),
		serveSubcommand(g),
		genkeySubcommand(g),
	)

	return root
}

func printError(w io.Writer, err error) {
	var perr *prolix.Error
	if errors.As(err, &perr) {
		for _, msg := range perr.Messages() {
			fmt.Fprintf(w, "error: %s (%s)\n", msg, perr.Kind)
		}
		return
	}
	fmt.Fprintf(w, "error: %v\n", err)
}

// loadConfig reads --config or searches the default locations.
func (g *globalOptions) loadConfig() (config.Config, error) {
	loader := config.NewLoader()
	if g.configPath != "" {
		return loader.LoadFile(g.configPath)
	}
	return loader.Load()
}

func (g *globalOptions) logger(fc config.Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(g.stderr)
	logger.SetLevel(fc.Level())
	if g.debug {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}

// open loads the configuration and opens the service on top of the
// configured store.
func (g *globalOptions) open() (*prolix.Prolix, config.Config, *logrus.Logger, error) {
	fc, err := g.loadConfig()
	if err != nil {
		return nil, config.Config{}, nil, err
	}
	logger := g.logger(fc)
	logger.WithFields(logrus.Fields{
		"source": fc.Source,
		"store":  fc.Store,
	}).Debug("configuration loaded")

	p, err := prolix.Open(fc, logger)
	if err != nil {
		return nil, config.Config{}, nil, err
	}
	return p, fc, logger, nil
}
