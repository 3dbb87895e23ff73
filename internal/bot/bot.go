// Package bot is the Telegram front-end: long polling, menu and admin UI,
// and the per-message billing pipeline over the ledger.
package bot

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"github.com/kenyap/quotabot/internal/access"
	"github.com/kenyap/quotabot/internal/config"
	"github.com/kenyap/quotabot/internal/dispatch"
	"github.com/kenyap/quotabot/internal/ledger"
	"github.com/kenyap/quotabot/internal/monitoring"
	"github.com/kenyap/quotabot/internal/pricing"
	"github.com/kenyap/quotabot/internal/tokens"
)

// pollRetryDelay is the backoff after a failed getUpdates call.
const pollRetryDelay = 3 * time.Second

// Client is the full Telegram API surface the bot needs.
type Client interface {
	Sender
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]gjson.Result, error)
}

// Bot wires the ledger, policy, dispatch registry, and transport together.
type Bot struct {
	cfg       *config.Config
	api       Client
	ledger    *ledger.Ledger
	policy    *access.Policy
	registry  *dispatch.Registry
	pricing   pricing.Table
	estimator tokens.Estimator
	metrics   *monitoring.MetricsCollector

	selections *SelectionStore
	adminConvs *adminStateStore
}

// New creates the bot.
func New(cfg *config.Config, api Client, l *ledger.Ledger, registry *dispatch.Registry,
	estimator tokens.Estimator, metrics *monitoring.MetricsCollector) *Bot {
	return &Bot{
		cfg:        cfg,
		api:        api,
		ledger:     l,
		policy:     access.NewPolicy(l),
		registry:   registry,
		pricing:    cfg.Pricing,
		estimator:  estimator,
		metrics:    metrics,
		selections: NewSelectionStore(),
		adminConvs: newAdminStateStore(),
	}
}

// Run long-polls for updates until ctx is cancelled. Each update is handled
// on its own goroutine; the ledger serializes concurrent writers internally.
func (b *Bot) Run(ctx context.Context) error {
	log.Info().Msg("bot: polling for updates")

	var offset int64
	for {
		updates, err := b.api.GetUpdates(ctx, offset, b.cfg.Telegram.PollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Error().Err(err).Msg("bot: getUpdates failed")
			select {
			case <-time.After(pollRetryDelay):
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		for _, update := range updates {
			if id := update.Get("update_id").Int(); id >= offset {
				offset = id + 1
			}
			go b.handleUpdate(ctx, update)
		}
	}
}
