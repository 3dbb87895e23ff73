package ledger

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func TestRegisterOrTouch_NewUser(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	snap := l.RegisterOrTouch(ctx, 1001, "ken", "Ken", "Yap")
	require.False(t, snap.Fallback)

	assert.Equal(t, int64(1001), snap.UserID)
	assert.Equal(t, TierFree, snap.Tier)
	assert.Equal(t, 30, snap.RemainingFreeQueries)
	assert.Equal(t, 0, snap.TotalQueries)
	assert.Equal(t, "ken", snap.Username)
	assert.False(t, snap.RegisteredAt.IsZero())
}

func TestRegisterOrTouch_SecondCallKeepsRegisteredAt(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	first := l.RegisterOrTouch(ctx, 1001, "ken", "Ken", "")
	require.False(t, first.Fallback)

	// Backdate last_active_at so the touch is observable.
	_, err := l.db.Exec(
		`UPDATE users SET last_active_at = datetime('now', '-1 day') WHERE user_id = 1001`)
	require.NoError(t, err)

	second := l.RegisterOrTouch(ctx, 1001, "", "Kenneth", "")
	require.False(t, second.Fallback)

	// Provided fields overwrite, absent fields stay.
	assert.Equal(t, "ken", second.Username)
	assert.Equal(t, "Kenneth", second.FirstName)

	assert.Equal(t, first.RegisteredAt, second.RegisteredAt)
	assert.True(t, second.LastActiveAt.After(first.LastActiveAt.AddDate(0, 0, -1)))
	assert.Equal(t, 30, second.RemainingFreeQueries)
}

func TestRegisterOrTouch_StorageFailureFallsBack(t *testing.T) {
	l := openTestLedger(t)
	require.NoError(t, l.Close())

	snap := l.RegisterOrTouch(context.Background(), 1001, "ken", "Ken", "")

	// The caller gets the built-in default so handling can proceed, marked
	// as non-durable.
	assert.True(t, snap.Fallback)
	assert.Equal(t, int64(1001), snap.UserID)
	assert.Equal(t, TierFree, snap.Tier)
	assert.Equal(t, 30, snap.RemainingFreeQueries)
}

func TestCheckAccess_FreeWithQuota(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	l.RegisterOrTouch(ctx, 1, "u", "", "")
	dec := l.CheckAccess(ctx, 1)

	assert.True(t, dec.Allowed)
	assert.Equal(t, TierFree, dec.Tier)
	assert.Equal(t, 30, dec.Remaining)
	assert.Empty(t, dec.Reason)
}

func TestCheckAccess_FreeExhausted(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	l.RegisterOrTouch(ctx, 1, "u", "", "")
	require.True(t, l.SetQuota(ctx, 1, 0))

	dec := l.CheckAccess(ctx, 1)
	assert.False(t, dec.Allowed)
	assert.Equal(t, "No queries remaining", dec.Reason)
}

func TestCheckAccess_PremiumAndAdminIgnoreQuota(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	for i, tier := range []Tier{TierPremium, TierAdmin} {
		id := int64(100 + i)
		l.RegisterOrTouch(ctx, id, "u", "", "")
		require.True(t, l.SetTier(ctx, id, tier))
		require.True(t, l.SetQuota(ctx, id, 0))

		dec := l.CheckAccess(ctx, id)
		assert.True(t, dec.Allowed, "tier %s", tier)
		assert.Equal(t, tier, dec.Tier)
	}
}

func TestCheckAccess_UnknownUser(t *testing.T) {
	l := openTestLedger(t)

	dec := l.CheckAccess(context.Background(), 9999)
	assert.False(t, dec.Allowed)
	assert.Contains(t, dec.Reason, "Error")
}

func TestSetTier_InvalidRejectedWithoutMutation(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	l.RegisterOrTouch(ctx, 1, "u", "", "")
	assert.False(t, l.SetTier(ctx, 1, Tier("superadmin")))

	account, ok := l.GetUser(ctx, 1)
	require.True(t, ok)
	assert.Equal(t, TierFree, account.Tier)
}

func TestSetTier_UnknownUser(t *testing.T) {
	l := openTestLedger(t)
	assert.False(t, l.SetTier(context.Background(), 404, TierPremium))
}

func TestSetQuota(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	l.RegisterOrTouch(ctx, 1, "u", "", "")
	assert.True(t, l.SetQuota(ctx, 1, 100))
	assert.False(t, l.SetQuota(ctx, 1, -5))
	assert.False(t, l.SetQuota(ctx, 404, 10))

	dec := l.CheckAccess(ctx, 1)
	assert.Equal(t, 100, dec.Remaining)
}

func TestIncrementQuota(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	l.RegisterOrTouch(ctx, 1, "u", "", "")

	remaining, ok := l.IncrementQuota(ctx, 1, 20)
	require.True(t, ok)
	assert.Equal(t, 50, remaining)

	// Immediately visible to an access check.
	assert.Equal(t, 50, l.CheckAccess(ctx, 1).Remaining)

	// Floored at zero.
	remaining, ok = l.IncrementQuota(ctx, 1, -80)
	require.True(t, ok)
	assert.Equal(t, 0, remaining)

	_, ok = l.IncrementQuota(ctx, 404, 5)
	assert.False(t, ok)
}

func TestGetUser_Unknown(t *testing.T) {
	l := openTestLedger(t)
	_, ok := l.GetUser(context.Background(), 404)
	assert.False(t, ok)
}
