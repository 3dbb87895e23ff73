package ledger

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/kenyap/quotabot/internal/config"
)

const accountColumns = `user_id, COALESCE(username, ''), COALESCE(first_name, ''),
	COALESCE(last_name, ''), access_level, remaining_free_queries, total_queries,
	registered_at, last_active_at`

func scanAccount(row interface{ Scan(...any) error }) (Account, error) {
	var a Account
	var registered, lastActive string
	err := row.Scan(&a.UserID, &a.Username, &a.FirstName, &a.LastName,
		&a.Tier, &a.RemainingFreeQueries, &a.TotalQueries, &registered, &lastActive)
	if err != nil {
		return Account{}, err
	}
	a.RegisteredAt = parseTime(registered)
	a.LastActiveAt = parseTime(lastActive)
	return a, nil
}

// fallbackSnapshot is returned when the upsert could not be persisted.
func fallbackSnapshot(userID int64) Snapshot {
	return Snapshot{
		Account: Account{
			UserID:               userID,
			Tier:                 TierFree,
			RemainingFreeQueries: config.DefaultStartingQuota,
		},
		Fallback: true,
	}
}

// RegisterOrTouch creates the account on first sight (free tier, starting
// quota) or refreshes it: each provided display field overwrites the stored
// value, an empty one leaves it unchanged, and last_active_at advances.
// The whole upsert commits atomically.
//
// On storage failure it returns the built-in default snapshot with Fallback
// set, so the caller can keep handling the message optimistically.
func (l *Ledger) RegisterOrTouch(ctx context.Context, userID int64, username, firstName, lastName string) Snapshot {
	tx, err := l.begin(ctx)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("ledger: register begin failed")
		return fallbackSnapshot(userID)
	}

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE user_id = ?`, userID).Scan(&exists)
	if err == nil {
		if exists > 0 {
			_, err = tx.ExecContext(ctx, `
				UPDATE users SET
					username       = COALESCE(NULLIF(?, ''), username),
					first_name     = COALESCE(NULLIF(?, ''), first_name),
					last_name      = COALESCE(NULLIF(?, ''), last_name),
					last_active_at = CURRENT_TIMESTAMP
				WHERE user_id = ?`,
				username, firstName, lastName, userID)
		} else {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO users (user_id, username, first_name, last_name, access_level, remaining_free_queries)
				VALUES (?, NULLIF(?, ''), NULLIF(?, ''), NULLIF(?, ''), ?, ?)`,
				userID, username, firstName, lastName, TierFree, config.DefaultStartingQuota)
		}
	}

	var account Account
	if err == nil {
		account, err = scanAccount(tx.QueryRowContext(ctx,
			`SELECT `+accountColumns+` FROM users WHERE user_id = ?`, userID))
	}
	if err == nil {
		err = tx.Commit()
	}
	if err != nil {
		rollback(tx)
		log.Error().Err(err).Int64("user_id", userID).Msg("ledger: register failed")
		return fallbackSnapshot(userID)
	}

	return Snapshot{Account: account}
}

// CheckAccess decides whether the user may issue a new query.
// Admin and premium are always allowed; free is allowed while quota remains.
// An unknown user is denied with an error reason (callers are expected to
// RegisterOrTouch first).
func (l *Ledger) CheckAccess(ctx context.Context, userID int64) AccessDecision {
	var tier Tier
	var remaining int
	err := l.db.QueryRowContext(ctx,
		`SELECT access_level, remaining_free_queries FROM users WHERE user_id = ?`,
		userID).Scan(&tier, &remaining)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Error().Err(err).Int64("user_id", userID).Msg("ledger: access check failed")
		}
		return AccessDecision{Reason: "Error: account not found"}
	}

	switch tier {
	case TierAdmin, TierPremium:
		return AccessDecision{Allowed: true, Tier: tier}
	}

	if remaining > 0 {
		return AccessDecision{Allowed: true, Tier: TierFree, Remaining: remaining}
	}
	return AccessDecision{Tier: TierFree, Reason: "No queries remaining"}
}

// GetUser returns the account for userID. The second result is false when
// the account does not exist or the lookup failed.
func (l *Ledger) GetUser(ctx context.Context, userID int64) (Account, bool) {
	account, err := scanAccount(l.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM users WHERE user_id = ?`, userID))
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Error().Err(err).Int64("user_id", userID).Msg("ledger: user lookup failed")
		}
		return Account{}, false
	}
	return account, true
}

// SetTier atomically overwrites the account's tier. A value outside the
// closed enum is rejected before any write.
func (l *Ledger) SetTier(ctx context.Context, userID int64, tier Tier) bool {
	if !tier.Valid() {
		log.Warn().Int64("user_id", userID).Str("tier", string(tier)).Msg("ledger: invalid tier rejected")
		return false
	}

	res, err := l.db.ExecContext(ctx,
		`UPDATE users SET access_level = ? WHERE user_id = ?`, tier, userID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("ledger: tier update failed")
		return false
	}
	n, _ := res.RowsAffected()
	return n > 0
}

// SetQuota atomically overwrites remaining_free_queries. Negative values are
// rejected.
func (l *Ledger) SetQuota(ctx context.Context, userID int64, quota int) bool {
	if quota < 0 {
		log.Warn().Int64("user_id", userID).Int("quota", quota).Msg("ledger: negative quota rejected")
		return false
	}

	res, err := l.db.ExecContext(ctx,
		`UPDATE users SET remaining_free_queries = ? WHERE user_id = ?`, quota, userID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("ledger: quota update failed")
		return false
	}
	n, _ := res.RowsAffected()
	return n > 0
}

// IncrementQuota adds delta to remaining_free_queries in one statement, so a
// concurrent debit between a read and a write cannot be lost. The result is
// floored at zero. Returns the new value.
func (l *Ledger) IncrementQuota(ctx context.Context, userID int64, delta int) (int, bool) {
	tx, err := l.begin(ctx)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("ledger: quota increment begin failed")
		return 0, false
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE users SET remaining_free_queries = MAX(0, remaining_free_queries + ?) WHERE user_id = ?`,
		delta, userID)

	var remaining int
	if err == nil {
		var n int64
		if n, err = res.RowsAffected(); err == nil && n == 0 {
			rollback(tx)
			return 0, false
		}
	}
	if err == nil {
		err = tx.QueryRowContext(ctx,
			`SELECT remaining_free_queries FROM users WHERE user_id = ?`, userID).Scan(&remaining)
	}
	if err == nil {
		err = tx.Commit()
	}
	if err != nil {
		rollback(tx)
		log.Error().Err(err).Int64("user_id", userID).Msg("ledger: quota increment failed")
		return 0, false
	}

	return remaining, true
}
