package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/meigma/assetblob"
	"github.com/meigma/assetblob/internal/config"
	"github.com/meigma/assetblob/internal/metrics"
	"github.com/meigma/assetblob/objects"
	"github.com/meigma/assetblob/server"
)

const shutdownTimeout = 5 * time.Second

type cli struct {
	v        *viper.Viper
	fs       afero.Fs
	envFiles []string
	serve    bool
}

func newRootCommand(fs afero.Fs) *cobra.Command {
	c := &cli{v: config.New(), fs: fs}

	cmd := &cobra.Command{
		Use:   "blobload [locator...]",
		Short: "Load assets over HTTP and print blob references",
		Long: `blobload retrieves each locator (or the default asset when none is given),
registers the bytes and content type as an in-memory object, and prints a
blob:<origin>/<uuid> reference for it.

Settings may also come from BLOBLOAD_* environment variables or a .env file.
With --serve, references are served at --listen until interrupted; point
--origin at the same address so the references resolve.`,
		Args:         cobra.ArbitraryArgs,
		SilenceUsage: true,
		RunE:         c.run,
	}

	flags := cmd.Flags()
	flags.String(config.KeyBaseURL, config.DefaultBaseURL, "URL relative locators are resolved against")
	flags.String(config.KeyLocator, assetblob.DefaultLocator, "locator loaded when no arguments are given")
	flags.String(config.KeyOrigin, objects.DefaultOrigin, "origin embedded in issued references")
	flags.Duration(config.KeyTimeout, 0, "per-retrieval timeout (0 disables)")
	flags.Int64(config.KeyMaxBytes, 0, "maximum body size per retrieval (0 disables)")
	flags.Bool(config.KeyDecode, false, "request and decode zstd/gzip content encoding")
	flags.String(config.KeyLogLevel, config.DefaultLogLevel, "log level (debug, info, warn, error)")
	flags.String(config.KeyListenAddr, config.DefaultListenAddr, "address to serve references on with --serve")
	flags.StringP(config.KeyOutput, "o", "", "write the loaded object to this file (single locator only)")
	flags.BoolVar(&c.serve, "serve", false, "serve loaded references until interrupted")
	flags.StringSliceVar(&c.envFiles, "env-file", []string{".env"}, "env files to read before resolving settings")

	// Explicitly set flags win over the environment.
	_ = c.v.BindPFlags(flags)

	return cmd
}

func (c *cli) run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(c.v, c.envFiles...)
	if err != nil {
		return err
	}
	logger := cfg.Logger(cmd.ErrOrStderr())
	reg := cfg.Registry(logger)

	l, err := assetblob.New(append(cfg.LoaderOptions(),
		assetblob.WithRegistry(reg),
		assetblob.WithLogger(logger),
	)...)
	if err != nil {
		return err
	}

	locators := args
	if len(locators) == 0 {
		locators = []string{l.Locator()}
	}
	if cfg.Output != "" && len(locators) != 1 {
		return fmt.Errorf("--%s needs exactly one locator, got %d", config.KeyOutput, len(locators))
	}

	ctx := cmd.Context()
	refs := make([]objects.Reference, 0, len(locators))
	defer func() {
		for _, ref := range refs {
			l.Release(ref)
		}
	}()

	for _, locator := range locators {
		ref, err := l.Load(ctx, locator)
		if err != nil {
			return fmt.Errorf("load %s: %w", locator, err)
		}
		refs = append(refs, ref)
		fmt.Fprintln(cmd.OutOrStdout(), ref)

		if cfg.Output != "" {
			obj, err := reg.Resolve(ref)
			if err != nil {
				return err
			}
			if err := objects.Export(c.fs, cfg.Output, obj); err != nil {
				return err
			}
			logger.Info("object exported", "ref", ref, "path", cfg.Output, "size", obj.Size())
		}
	}

	if !c.serve {
		return nil
	}
	return serve(ctx, cfg.ListenAddr, newMux(reg, logger), logger)
}

// newMux routes /metrics to Prometheus and everything else to the object
// handler.
func newMux(reg *objects.Registry, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/", server.NewHandler(reg, server.WithLogger(logger)))
	return mux
}

func serve(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving references", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("server stopped")
	return nil
}
