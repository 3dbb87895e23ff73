package ledger

import (
	"context"

	"github.com/rs/zerolog/log"
)

// RecordMessage persists one billed query in a single transaction:
//
//  1. re-reads the account; an unknown account fails with no mutation;
//  2. debits one free query when the account is free tier with quota left
//     (the quota > 0 condition is the floor — the event below is still
//     recorded when the quota is already exhausted);
//  3. bumps total_queries and refreshes last_active_at;
//  4. appends the immutable message event;
//  5. folds the token counts and cost into the provider rollup.
//
// All five steps commit together or roll back together. Returns false, with
// no state change, on any failure.
func (l *Ledger) RecordMessage(ctx context.Context, userID int64, provider, modelID string, inputTokens, outputTokens int, cost float64) bool {
	tx, err := l.begin(ctx)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("ledger: record begin failed")
		return false
	}

	var tier Tier
	var remaining int
	err = tx.QueryRowContext(ctx,
		`SELECT access_level, remaining_free_queries FROM users WHERE user_id = ?`,
		userID).Scan(&tier, &remaining)
	if err != nil {
		rollback(tx)
		log.Error().Err(err).Int64("user_id", userID).Msg("ledger: record for unknown account")
		return false
	}

	if tier == TierFree && remaining > 0 {
		log.Debug().Int64("user_id", userID).Int("remaining", remaining).Msg("ledger: debiting free query")
		_, err = tx.ExecContext(ctx, `
			UPDATE users SET remaining_free_queries = remaining_free_queries - 1
			WHERE user_id = ? AND remaining_free_queries > 0`, userID)
	}

	if err == nil {
		_, err = tx.ExecContext(ctx, `
			UPDATE users SET
				total_queries  = total_queries + 1,
				last_active_at = CURRENT_TIMESTAMP
			WHERE user_id = ?`, userID)
	}

	if err == nil {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO messages (user_id, provider, model_id, input_tokens, output_tokens, query_cost)
			VALUES (?, ?, ?, ?, ?, ?)`,
			userID, provider, modelID, inputTokens, outputTokens, cost)
	}

	if err == nil {
		totalTokens := inputTokens + outputTokens
		_, err = tx.ExecContext(ctx, `
			INSERT INTO provider_stats
				(provider, total_messages, total_input_tokens, total_output_tokens, total_tokens, total_cost)
			VALUES (?, 1, ?, ?, ?, ?)
			ON CONFLICT(provider) DO UPDATE SET
				total_messages      = total_messages + 1,
				total_input_tokens  = total_input_tokens + excluded.total_input_tokens,
				total_output_tokens = total_output_tokens + excluded.total_output_tokens,
				total_tokens        = total_tokens + excluded.total_tokens,
				total_cost          = total_cost + excluded.total_cost`,
			provider, inputTokens, outputTokens, totalTokens, cost)
	}

	if err == nil {
		err = tx.Commit()
	}
	if err != nil {
		rollback(tx)
		log.Error().Err(err).Int64("user_id", userID).Str("provider", provider).Msg("ledger: record failed")
		return false
	}

	return true
}
