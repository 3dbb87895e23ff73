package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kenyap/quotabot/internal/bot"
	"github.com/kenyap/quotabot/internal/config"
	"github.com/kenyap/quotabot/internal/dispatch"
	"github.com/kenyap/quotabot/internal/ledger"
	"github.com/kenyap/quotabot/internal/monitoring"
	"github.com/kenyap/quotabot/internal/tokens"
	"github.com/kenyap/quotabot/internal/utils"
)

func main() {
	var (
		configFlag string
		debugFlag  bool
	)
	flag.StringVar(&configFlag, "config", "config.yaml", "path to the YAML config file")
	flag.BoolVar(&debugFlag, "debug", false, "enable debug logging")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if debugFlag {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	// Optional: secrets can live in a local .env during development.
	_ = godotenv.Load()

	cfg, err := config.Load(configFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("loading config")
	}
	log.Info().Str("token", utils.MaskKey(cfg.Telegram.Token)).
		Int("providers", len(cfg.Providers)).Msg("config loaded")

	ldg, err := ledger.Open(cfg.Storage.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Storage.DBPath).Msg("opening ledger")
	}
	defer ldg.Close()

	registry, err := dispatch.FromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("building dispatch registry")
	}

	api := bot.NewAPI(cfg.Telegram.Token, cfg.Telegram.PollTimeout)
	b := bot.New(cfg, api, ldg, registry, tokens.ForConfig(cfg), monitoring.NewMetricsCollector())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := b.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("bot stopped")
	}
	log.Info().Msg("shutdown complete")
}
