package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fpang/retouch-studio/internal/auth"
	"github.com/fpang/retouch-studio/internal/config"
	"github.com/fpang/retouch-studio/internal/gemini"
	"github.com/fpang/retouch-studio/internal/i18n"
	"github.com/fpang/retouch-studio/internal/logging"
	"github.com/fpang/retouch-studio/internal/metrics"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var cfg = config.Load()

var rootCmd = &cobra.Command{
	Use:   "retouch-web",
	Short: "HTTP API for the dodge & burn retouch wizard",
	Long: `Retouch Web serves the three-step retouch wizard over a JSON API:
upload a photo, apply an AI dodge & burn retouch, then harmonize its colors
with a palette extracted from a reference image.

Requires GEMINI_API_KEY in the environment or a .env file.

Examples:
  retouch-web
  retouch-web --port 9090
  retouch-web --image-model gemini-2.5-flash-image --locale en`,
	SilenceUsage: true,
	RunE:         runMain,
}

func init() {
	cfg.BindFlags(rootCmd)
	cfg.BindServerFlags(rootCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMain(cmd *cobra.Command, args []string) error {
	initStart := time.Now()
	logging.Init()
	metrics.SetService("retouch-web")
	metrics.SetEnabled(cfg.MetricsEnabled)

	apiKey, err := auth.GetAPIKey()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get API key")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := gemini.NewGenAIClient(ctx, apiKey)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Gemini client")
	}
	if cfg.ValidateKey {
		if err := auth.ValidateAPIKey(ctx, client.Models, cfg.JSONModel); err != nil {
			log.Fatal().Err(err).Msg("Invalid API key")
		}
	}

	remote := gemini.NewClient(client.Models, gemini.Options{
		ImageModel:        cfg.ImageModel,
		JSONModel:         cfg.JSONModel,
		PaletteLanguage:   cfg.PaletteLanguage,
		RequestsPerMinute: cfg.RequestsPerMinute,
		Timeout:           cfg.OperationTimeout,
	})

	fallback, ok := i18n.Parse(cfg.DefaultLocale)
	if !ok {
		log.Warn().Str("locale", cfg.DefaultLocale).Msg("Unsupported default locale, using Italian")
		fallback = i18n.Supported[0]
	}

	app := newServer(ctx, remote, cfg, fallback)
	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	startup := logging.NewStartupLogger("retouch-web").
		Version(commitHash+" "+buildTime).
		Model("image", cfg.ImageModel).
		Model("json", cfg.JSONModel).
		Feature("keyValidation", cfg.ValidateKey).
		Feature("metrics", cfg.MetricsEnabled)
	for k, v := range cfg.Fields() {
		startup.Config(k, v)
	}
	startup.InitDuration(time.Since(initStart)).Log()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Msg("Starting web server")
		fmt.Printf("\n  Retouch API: http://localhost:%s/api\n\n", cfg.Port)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := httpSrv.Shutdown(shutdownCtx)
		app.Close()
		return err
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server stopped with error")
		return err
	}
	log.Info().Msg("Server stopped")
	return nil
}
