// Package access is the decision layer between the front-end and the ledger:
// whether a given user may issue a new query.
package access

import (
	"context"

	"github.com/kenyap/quotabot/internal/ledger"
)

// Checker is the slice of the ledger the policy needs.
type Checker interface {
	CheckAccess(ctx context.Context, userID int64) ledger.AccessDecision
}

// Policy decides query authorization. It holds no state of its own.
type Policy struct {
	ledger Checker
}

// NewPolicy creates a policy over the given ledger.
func NewPolicy(l Checker) *Policy {
	return &Policy{ledger: l}
}

// Authorize returns the ledger's access decision for userID. When denied,
// Reason must be shown to the user verbatim and no model query may be
// dispatched.
func (p *Policy) Authorize(ctx context.Context, userID int64) ledger.AccessDecision {
	return p.ledger.CheckAccess(ctx, userID)
}
