package serve_lsp

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/creachadair/jrpc2"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"

	"github.com/walteh/ngtmpls/pkg/config"
	"github.com/walteh/ngtmpls/pkg/lsp"
	"github.com/walteh/ngtmpls/pkg/lsp/protocol"
)

type Handler struct {
	version    string
	configFile string
	flags      *pflag.FlagSet
}

func NewServeLSPCommand(version string) *cobra.Command {
	me := &Handler{version: version}

	cmd := &cobra.Command{
		Use:   "serve-lsp",
		Short: "start the language server on stdin and stdout",
	}

	cmd.Flags().StringVar(&me.configFile, "config", "", "config file (default .ngtmpls.yaml in the working directory)")
	config.RegisterFlags(cmd.Flags())
	me.flags = cmd.Flags()

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return me.Run(cmd.Context())
	}

	return cmd
}

func (me *Handler) Run(ctx context.Context) error {
	cwd, err := os.Getwd()
	if err != nil {
		return errors.Errorf("getting working directory: %w", err)
	}

	cfg, err := config.Load(me.flags, me.configFile, cwd)
	if err != nil {
		return errors.Errorf("loading config: %w", err)
	}

	logger, console, closer, err := cfg.NewLogger(os.Stderr)
	if err != nil {
		return errors.Errorf("creating logger: %w", err)
	}
	defer closer.Close()

	_, forward, err := cfg.Levels()
	if err != nil {
		return err
	}

	ctx = logger.WithContext(ctx)
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	server, err := lsp.NewServer(ctx, lsp.Options{
		Fs:         afero.NewOsFs(),
		Scan:       cfg.ScanOptions(),
		Version:    me.version,
		Watch:      cfg.Watch,
		WatchDelay: cfg.WatchDelay,
	})
	if err != nil {
		return errors.Errorf("creating language server: %w", err)
	}

	instance := server.NewInstance(ctx, &jrpc2.ServerOptions{RPCLog: protocol.RPCLogger{}}, console, forward)

	logger.Info().Str("server_id", server.ID()).Str("version", me.version).Msg("language server starting")

	ctx, cancel := context.WithCancel(ctx)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		if err := instance.StartAndWait(os.Stdin, os.Stdout); err != nil {
			return errors.Errorf("running language server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		instance.Stop()
		return nil
	})

	return g.Wait()
}
