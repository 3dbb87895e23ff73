package ledger

import "time"

// Tier is an account access class. Closed enum: a value outside the three
// constants is rejected before any mutation.
type Tier string

const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
	TierAdmin   Tier = "admin"
)

// Valid reports whether t is one of the three known tiers.
func (t Tier) Valid() bool {
	switch t {
	case TierFree, TierPremium, TierAdmin:
		return true
	}
	return false
}

// Account is one row of the users table.
type Account struct {
	UserID               int64
	Username             string
	FirstName            string
	LastName             string
	Tier                 Tier
	RemainingFreeQueries int
	TotalQueries         int
	RegisteredAt         time.Time
	LastActiveAt         time.Time
}

// Snapshot is the result of RegisterOrTouch. Fallback marks the soft-fail
// path: the ledger could not persist the upsert and returned the built-in
// default (free tier, starting quota) so message handling can proceed.
// A Fallback snapshot is a plausible guess, not confirmed durable state.
type Snapshot struct {
	Account
	Fallback bool
}

// AccessDecision is the result of CheckAccess.
type AccessDecision struct {
	Allowed   bool
	Tier      Tier
	Remaining int    // remaining free queries; meaningful when Tier is free
	Reason    string // human-readable denial reason; empty when allowed
}

// ProviderRollup is the denormalized per-provider aggregate, kept in the same
// transaction as every message insert.
type ProviderRollup struct {
	Provider          string
	TotalMessages     int64
	TotalInputTokens  int64
	TotalOutputTokens int64
	TotalTokens       int64
	TotalCost         float64
}

// DailyStat is one day-bucket of message aggregates.
type DailyStat struct {
	Date            string // YYYY-MM-DD
	TotalMessages   int64
	FreeMessages    int64
	PremiumMessages int64
	AdminMessages   int64
	TotalCost       float64
}

// TierCounts is the account breakdown by tier.
type TierCounts struct {
	Total   int
	Free    int
	Premium int
	Admin   int
}
