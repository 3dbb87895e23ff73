// Package config - defaults.go centralizes magic numbers and default values.
//
// DESIGN: All default values that appear in multiple places should be defined
// here. This makes configuration more maintainable and auditable.
package config

import "time"

// =============================================================================
// QUOTA AND BILLING
// =============================================================================

// DefaultStartingQuota is the free-query allowance granted to a newly
// registered account.
const DefaultStartingQuota = 30

// DefaultActiveWindowDays is the lookback window for "active users" on the
// admin dashboard.
const DefaultActiveWindowDays = 7

// DefaultRecentUserLimit bounds the recent-user listings in the admin UI.
const DefaultRecentUserLimit = 10

// =============================================================================
// TOKEN ESTIMATION
// =============================================================================

// TokenWordRatio is the approximate number of tokens per whitespace-delimited
// word, used by the heuristic estimator when exact counting is disabled.
const TokenWordRatio = 1.3

// TiktokenEncoding is the BPE encoding used when exact counting is enabled.
const TiktokenEncoding = "cl100k_base"

// =============================================================================
// MODEL DISPATCH
// =============================================================================

// DefaultMaxTokens is the completion token cap sent to every vendor.
const DefaultMaxTokens = 2048

// DefaultDispatchTimeout bounds a single vendor API call. Ledger transactions
// never span this wait.
const DefaultDispatchTimeout = 90 * time.Second

// =============================================================================
// TELEGRAM TRANSPORT
// =============================================================================

// ReplyChunkSize is the Telegram message length limit; longer replies are
// split into consecutive messages.
const ReplyChunkSize = 4096

// DefaultPollTimeout is the long-poll timeout for getUpdates.
const DefaultPollTimeout = 30 * time.Second

// SelectionTTL is how long an idle user's model selection is retained.
const SelectionTTL = 24 * time.Hour

// SelectionCleanupInterval is the frequency of the selection-store sweep.
const SelectionCleanupInterval = 10 * time.Minute

// =============================================================================
// STORAGE
// =============================================================================

// DefaultDBPath is the ledger database location when none is configured.
const DefaultDBPath = "quotabot.db"

// DBBusyTimeout is the SQLite busy_timeout applied to every connection.
const DBBusyTimeout = 5 * time.Second
