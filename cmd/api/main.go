package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"example.com/friendship-notes/internal/config"
	"example.com/friendship-notes/internal/logging"
	"example.com/friendship-notes/internal/notes"
	"example.com/friendship-notes/internal/notestore"
	"example.com/friendship-notes/internal/service"
	"example.com/friendship-notes/internal/stringsx"
	"example.com/friendship-notes/internal/textgen"
	"example.com/friendship-notes/internal/wizard"
)

const (
	shutdownTimeout = 10 * time.Second
	sessionSweep    = time.Minute
	sessionMaxIdle  = 2 * time.Hour
)

var (
	configPath string
	addr       string
	backend    string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "friendship-notes",
	Short: "Write, personalize and share AI friendship notes",
	Long: `friendship-notes serves the note wizard, the JSON note actions and the
shared note viewer. Settings come from the environment, optionally layered
over a YAML file given with --config.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadFile(configPath)
		if err != nil {
			return err
		}
		if addr != "" {
			cfg.HTTPAddr = addr
		}
		if backend != "" {
			cfg.StoreBackend = stringsx.Normalize(backend)
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, verbose)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return run(ctx, cfg, logger)
	},
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	store, err := notestore.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	gen, err := newGenerator(ctx, cfg, logger)
	if err != nil {
		return err
	}
	svc := service.New(gen, logger.Named("service"))

	sessions := wizard.NewManager(func() *wizard.Wizard { return wizard.New(svc, store) })
	h := notes.NewHandlers(svc, store, sessions, notes.Options{
		BaseURL:      cfg.PublicBaseURL,
		TrustProxy:   cfg.TrustProxy,
		SecureCookie: strings.HasPrefix(cfg.PublicBaseURL, "https://"),
		Logger:       logger.Named("http"),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Friendship notes listening",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("store", cfg.StoreBackend),
			zap.String("llm", cfg.LLMProvider))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return sessions.Run(ctx, sessionSweep, sessionMaxIdle)
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newGenerator(ctx context.Context, cfg config.Config, logger *zap.Logger) (textgen.Generator, error) {
	switch cfg.LLMProvider {
	case config.ProviderCanned:
		logger.Warn("Using offline note generator; notes are not written by a model")
		return service.Offline(), nil
	case config.ProviderGemini:
		return textgen.NewGemini(ctx, textgen.GeminiConfig{
			APIKey: cfg.GeminiAPIKey,
			Model:  cfg.GeminiModel,
		}, logger.Named("gemini"))
	}
	return nil, fmt.Errorf("unknown llm provider %q", cfg.LLMProvider)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("CONFIG_FILE"), "YAML config file")
	rootCmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides HTTP_ADDR)")
	rootCmd.Flags().StringVar(&backend, "store", "", "note store: memory, file, mongo, postgres or sqlite")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
