package main

import (
	"context"
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
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var cfg = config.Load()

var rootCmd = &cobra.Command{
	Use:   "retouch-mcp",
	Short: "MCP stdio server exposing the retouch operations as tools",
	Long: `Retouch MCP speaks the Model Context Protocol on stdin/stdout and offers
four tools that work on local image files:

  enhance_photo       dodge & burn retouch
  extract_palette     dominant colors of a reference image
  transfer_colors     recolor a photo with a palette
  suggest_dodge_burn  recommended intensities

Results are written next to the input unless an output path is given, or
into RETOUCH_OUTPUT_DIR when set. Logs and metrics go to stderr.`,
	SilenceUsage: true,
	RunE:         runMain,
}

func init() {
	cfg.BindFlags(rootCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMain(cmd *cobra.Command, args []string) error {
	initStart := time.Now()
	logging.Init()
	metrics.SetOutput(os.Stderr)
	metrics.SetService("retouch-mcp")
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

	locale, ok := i18n.Parse(cfg.DefaultLocale)
	if !ok {
		locale = i18n.Supported[0]
	}

	tools := &toolset{
		remote: gemini.NewClient(client.Models, gemini.Options{
			ImageModel:        cfg.ImageModel,
			JSONModel:         cfg.JSONModel,
			PaletteLanguage:   cfg.PaletteLanguage,
			RequestsPerMinute: cfg.RequestsPerMinute,
			Timeout:           cfg.OperationTimeout,
		}),
		outputDir: logging.EnvOrDefault("RETOUCH_OUTPUT_DIR", ""),
		locale:    locale,
	}

	server := mcp.NewServer(&mcp.Implementation{Name: "retouch-mcp", Version: commitHash}, nil)
	tools.register(server)

	logging.NewStartupLogger("retouch-mcp").
		Version(commitHash+" "+buildTime).
		Model("image", cfg.ImageModel).
		Model("json", cfg.JSONModel).
		Feature("keyValidation", cfg.ValidateKey).
		Feature("metrics", cfg.MetricsEnabled).
		Config("outputDir", tools.outputDir).
		Config("locale", locale.String()).
		InitDuration(time.Since(initStart)).
		Log()

	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("MCP server stopped with error")
		return err
	}
	log.Info().Msg("MCP server stopped")
	return nil
}
