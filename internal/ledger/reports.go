package ledger

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Reporting queries. All read-only: each reflects the committed state at its
// own read time and fails soft to a zero value or empty slice.

// UserCounts returns the account breakdown by tier.
func (l *Ledger) UserCounts(ctx context.Context) TierCounts {
	var c TierCounts
	err := l.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN access_level = 'free'    THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN access_level = 'premium' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN access_level = 'admin'   THEN 1 ELSE 0 END), 0)
		FROM users`).Scan(&c.Total, &c.Free, &c.Premium, &c.Admin)
	if err != nil {
		log.Error().Err(err).Msg("ledger: user count query failed")
		return TierCounts{}
	}
	return c
}

// ActiveUsers counts users active within the last days days.
func (l *Ledger) ActiveUsers(ctx context.Context, days int) int {
	var n int
	err := l.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE last_active_at >= datetime('now', ?)`,
		fmt.Sprintf("-%d days", days)).Scan(&n)
	if err != nil {
		log.Error().Err(err).Msg("ledger: active user query failed")
		return 0
	}
	return n
}

// TotalCost sums every recorded query cost.
func (l *Ledger) TotalCost(ctx context.Context) float64 {
	var total float64
	err := l.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(query_cost), 0) FROM messages`).Scan(&total)
	if err != nil {
		log.Error().Err(err).Msg("ledger: total cost query failed")
		return 0
	}
	return total
}

// ProviderStats returns the rollups ordered by message count descending.
func (l *Ledger) ProviderStats(ctx context.Context) []ProviderRollup {
	rows, err := l.db.QueryContext(ctx, `
		SELECT provider, total_messages, total_input_tokens, total_output_tokens, total_tokens, total_cost
		FROM provider_stats
		ORDER BY total_messages DESC`)
	if err != nil {
		log.Error().Err(err).Msg("ledger: provider stats query failed")
		return nil
	}
	defer rows.Close()

	var stats []ProviderRollup
	for rows.Next() {
		var r ProviderRollup
		if err := rows.Scan(&r.Provider, &r.TotalMessages, &r.TotalInputTokens,
			&r.TotalOutputTokens, &r.TotalTokens, &r.TotalCost); err != nil {
			log.Error().Err(err).Msg("ledger: provider stats scan failed")
			return nil
		}
		stats = append(stats, r)
	}
	if err := rows.Err(); err != nil {
		log.Error().Err(err).Msg("ledger: provider stats iteration failed")
		return nil
	}
	return stats
}

// DailyStats returns per-day message aggregates for the last days days,
// newest first, with a per-tier message split.
func (l *Ledger) DailyStats(ctx context.Context, days int) []DailyStat {
	rows, err := l.db.QueryContext(ctx, `
		SELECT m.date,
		       COUNT(*),
		       SUM(CASE WHEN u.access_level = 'free'    THEN 1 ELSE 0 END),
		       SUM(CASE WHEN u.access_level = 'premium' THEN 1 ELSE 0 END),
		       SUM(CASE WHEN u.access_level = 'admin'   THEN 1 ELSE 0 END),
		       COALESCE(SUM(m.query_cost), 0)
		FROM messages m
		JOIN users u ON u.user_id = m.user_id
		WHERE m.date >= date('now', ?)
		GROUP BY m.date
		ORDER BY m.date DESC`,
		fmt.Sprintf("-%d days", days))
	if err != nil {
		log.Error().Err(err).Msg("ledger: daily stats query failed")
		return nil
	}
	defer rows.Close()

	var stats []DailyStat
	for rows.Next() {
		var d DailyStat
		if err := rows.Scan(&d.Date, &d.TotalMessages, &d.FreeMessages,
			&d.PremiumMessages, &d.AdminMessages, &d.TotalCost); err != nil {
			log.Error().Err(err).Msg("ledger: daily stats scan failed")
			return nil
		}
		stats = append(stats, d)
	}
	if err := rows.Err(); err != nil {
		log.Error().Err(err).Msg("ledger: daily stats iteration failed")
		return nil
	}
	return stats
}

// RecentUsers returns the most recently active accounts, bounded by limit.
func (l *Ledger) RecentUsers(ctx context.Context, limit int) []Account {
	return l.listUsers(ctx, `
		SELECT `+accountColumns+` FROM users
		ORDER BY last_active_at DESC LIMIT ?`, limit)
}

// RecentFreeUsers returns the most recently active free-tier accounts,
// bounded by limit.
func (l *Ledger) RecentFreeUsers(ctx context.Context, limit int) []Account {
	return l.listUsers(ctx, `
		SELECT `+accountColumns+` FROM users
		WHERE access_level = 'free'
		ORDER BY last_active_at DESC LIMIT ?`, limit)
}

func (l *Ledger) listUsers(ctx context.Context, query string, args ...any) []Account {
	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error().Err(err).Msg("ledger: user list query failed")
		return nil
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			log.Error().Err(err).Msg("ledger: user list scan failed")
			return nil
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		log.Error().Err(err).Msg("ledger: user list iteration failed")
		return nil
	}
	return accounts
}
