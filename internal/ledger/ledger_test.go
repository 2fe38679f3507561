package ledger

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ahmedtohamy-16/footygateway/internal/config"
	"github.com/ahmedtohamy-16/footygateway/internal/models"
	"github.com/ahmedtohamy-16/footygateway/internal/testutil"
)

func testPoints() config.PointsConfig {
	return config.PointsConfig{
		DailyFreeAllotment: 3,
		ReferrerBonus:      3,
		ReferredBonus:      1,
	}
}

func setupLedger(t *testing.T) (*Ledger, func()) {
	t.Helper()

	ctx := context.Background()
	db, cleanup, err := testutil.SetupTestDB(ctx)
	require.NoError(t, err)

	logger, _ := zap.NewDevelopment()
	return New(db, testPoints(), logger), cleanup
}

func TestRegister_NewUser(t *testing.T) {
	ledger, cleanup := setupLedger(t)
	defer cleanup()
	ctx := context.Background()

	user, created, referral, err := ledger.Register(ctx, 12345, "lionel", "")
	require.NoError(t, err)

	assert.True(t, created)
	assert.Nil(t, referral)
	assert.Equal(t, 3, user.FreePoints)
	assert.Len(t, user.ReferralCode, referralCodeLength)
}

func TestRegister_Idempotent(t *testing.T) {
	ledger, cleanup := setupLedger(t)
	defer cleanup()
	ctx := context.Background()

	first, created, _, err := ledger.Register(ctx, 12345, "lionel", "")
	require.NoError(t, err)
	require.True(t, created)

	second, created, referral, err := ledger.Register(ctx, 12345, "lionel", "")
	require.NoError(t, err)

	assert.False(t, created)
	assert.Nil(t, referral)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.ReferralCode, second.ReferralCode)
}

func TestRegister_WithReferralCode(t *testing.T) {
	ledger, cleanup := setupLedger(t)
	defer cleanup()
	ctx := context.Background()

	referrer, _, _, err := ledger.Register(ctx, 111, "referrer", "")
	require.NoError(t, err)

	referred, created, referral, err := ledger.Register(ctx, 222, "referred", referrer.ReferralCode)
	require.NoError(t, err)

	assert.True(t, created)
	require.NotNil(t, referral)
	assert.True(t, referral.Accepted)
	assert.Equal(t, 3, referral.ReferrerBonus)
	assert.Equal(t, 1, referral.ReferredBonus)

	// Returned user reflects the credited premium point.
	assert.Equal(t, 1, referred.PremiumPoints)
	require.True(t, referred.ReferredBy.Valid)
	assert.Equal(t, referrer.ID, referred.ReferredBy.Int64)

	fresh, err := ledger.GetUser(ctx, 111)
	require.NoError(t, err)
	assert.Equal(t, 3, fresh.PremiumPoints)
}

func TestRegister_BadReferralCodeDoesNotBlockRegistration(t *testing.T) {
	ledger, cleanup := setupLedger(t)
	defer cleanup()
	ctx := context.Background()

	user, created, referral, err := ledger.Register(ctx, 222, "referred", "BOGUS999")
	require.NoError(t, err)

	assert.True(t, created)
	assert.NotNil(t, user)
	require.NotNil(t, referral)
	assert.False(t, referral.Accepted)
	assert.Equal(t, models.RejectInvalidCode, referral.RejectReason)
}

func TestRegister_ReferralIgnoredOnRepeatRegistration(t *testing.T) {
	ledger, cleanup := setupLedger(t)
	defer cleanup()
	ctx := context.Background()

	referrer, _, _, err := ledger.Register(ctx, 111, "referrer", "")
	require.NoError(t, err)

	_, _, _, err = ledger.Register(ctx, 222, "referred", "")
	require.NoError(t, err)

	// The code only counts at first registration.
	_, created, referral, err := ledger.Register(ctx, 222, "referred", referrer.ReferralCode)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Nil(t, referral)

	fresh, err := ledger.GetUser(ctx, 111)
	require.NoError(t, err)
	assert.Equal(t, 0, fresh.PremiumPoints)
}

func TestApplyReferral_RejectReasons(t *testing.T) {
	ledger, cleanup := setupLedger(t)
	defer cleanup()
	ctx := context.Background()

	referrer, _, _, err := ledger.Register(ctx, 111, "referrer", "")
	require.NoError(t, err)
	referred, _, _, err := ledger.Register(ctx, 222, "referred", "")
	require.NoError(t, err)

	result := ledger.ApplyReferral(ctx, referred.ID, "BOGUS999")
	assert.False(t, result.Accepted)
	assert.Equal(t, models.RejectInvalidCode, result.RejectReason)

	result = ledger.ApplyReferral(ctx, referrer.ID, referrer.ReferralCode)
	assert.False(t, result.Accepted)
	assert.Equal(t, models.RejectSelfReferral, result.RejectReason)

	result = ledger.ApplyReferral(ctx, referred.ID, referrer.ReferralCode)
	require.True(t, result.Accepted)

	result = ledger.ApplyReferral(ctx, referred.ID, referrer.ReferralCode)
	assert.False(t, result.Accepted)
	assert.Equal(t, models.RejectDuplicate, result.RejectReason)
}

func TestDeductPoint_ThroughService(t *testing.T) {
	ledger, cleanup := setupLedger(t)
	defer cleanup()
	ctx := context.Background()

	user, _, _, err := ledger.Register(ctx, 12345, "lionel", "")
	require.NoError(t, err)

	result, err := ledger.DeductPoint(ctx, user.ID, "live scores")
	require.NoError(t, err)
	assert.Equal(t, models.PoolFree, result.PoolUsed)
	assert.Equal(t, 2, result.RemainingFree)

	transactions, err := ledger.Transactions(ctx, user.ID, 10)
	require.NoError(t, err)
	require.Len(t, transactions, 2)
	assert.Equal(t, "live scores", transactions[0].Description)
	assert.Equal(t, models.TxRegistration, transactions[1].Type)
}

func TestReferralStats(t *testing.T) {
	ledger, cleanup := setupLedger(t)
	defer cleanup()
	ctx := context.Background()

	referrer, _, _, err := ledger.Register(ctx, 111, "referrer", "")
	require.NoError(t, err)

	for i, telegramID := range []int64{222, 333} {
		_, _, referral, err := ledger.Register(ctx, telegramID, "referred", referrer.ReferralCode)
		require.NoError(t, err)
		require.True(t, referral.Accepted, "referral %d", i)
	}

	stats, err := ledger.ReferralStats(ctx, referrer.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalReferrals)
	assert.Equal(t, 2, stats.CompletedReferrals)
	assert.Equal(t, 6, stats.PointsEarned)
}

func TestIsCodeCollision(t *testing.T) {
	ledger, cleanup := setupLedger(t)
	defer cleanup()
	ctx := context.Background()

	_, _, err := ledger.db.CreateUser(ctx, 111, "first", 3, "SAMECODE")
	require.NoError(t, err)

	// A second account with the same code trips the unique constraint.
	_, _, err = ledger.db.CreateUser(ctx, 222, "second", 3, "SAMECODE")
	require.Error(t, err)
	assert.True(t, isCodeCollision(err))

	// Anything else is not retryable with a fresh code.
	assert.False(t, isCodeCollision(context.Canceled))
}

func TestNewReferralCode_Format(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code := newReferralCode()
		assert.Len(t, code, referralCodeLength)
		assert.Equal(t, strings.ToUpper(code), code)
		seen[code] = true
	}
	assert.Greater(t, len(seen), 90, "codes should be effectively unique")
}
