// Package tokens estimates token counts for billing.
//
// DESIGN: Two estimators behind one interface. The heuristic one is the
// default: whitespace word count times 1.3, truncated. It is an
// approximation, good enough for quota accounting but not for exact vendor
// invoices. The tiktoken one does a real BPE count and can be enabled from
// the config when accuracy matters more than the encoding download.
package tokens

import (
	"strings"

	"github.com/pkoukk/tiktoken-go"
	"github.com/rs/zerolog/log"

	"github.com/kenyap/quotabot/internal/config"
)

// Estimator estimates the token count of a piece of text.
// Empty text always counts as zero; callers bill nothing for it.
type Estimator interface {
	Estimate(text string) int
}

// Heuristic estimates tokens as word count × ratio.
type Heuristic struct {
	Ratio float64 // defaults to config.TokenWordRatio if zero
}

func (h Heuristic) Estimate(text string) int {
	if text == "" {
		return 0
	}
	ratio := h.Ratio
	if ratio <= 0 {
		ratio = config.TokenWordRatio
	}
	return int(float64(len(strings.Fields(text))) * ratio)
}

// Tiktoken counts tokens with a real BPE encoding.
type Tiktoken struct {
	enc *tiktoken.Tiktoken
}

// NewTiktoken loads the configured encoding.
func NewTiktoken() (*Tiktoken, error) {
	enc, err := tiktoken.GetEncoding(config.TiktokenEncoding)
	if err != nil {
		return nil, err
	}
	return &Tiktoken{enc: enc}, nil
}

func (t *Tiktoken) Estimate(text string) int {
	if text == "" {
		return 0
	}
	return len(t.enc.Encode(text, nil, nil))
}

// ForConfig returns the estimator selected by cfg.Tokenizer, falling back to
// the heuristic if the tiktoken encoding cannot be loaded.
func ForConfig(cfg *config.Config) Estimator {
	if cfg.Tokenizer == config.TokenizerTiktoken {
		tk, err := NewTiktoken()
		if err != nil {
			log.Warn().Err(err).Msg("tiktoken encoding unavailable, using heuristic estimator")
			return Heuristic{}
		}
		return tk
	}
	return Heuristic{}
}
