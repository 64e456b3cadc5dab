package verifytoken

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testClock is a settable time source.
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func setupService(t *testing.T) (*TokenService, *testClock) {
	tempDir := filepath.Join(os.TempDir(), "verifytoken-test-"+uuid.New().String())
	require.NoError(t, os.MkdirAll(tempDir, 0755))
	t.Cleanup(func() {
		os.RemoveAll(tempDir)
	})

	repo, err := NewFileTokenRepository(tempDir)
	require.NoError(t, err)

	clock := &testClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	service := NewTokenService(repo,
		WithClock(clock.Now),
		WithEmailVerificationTTL(24*time.Hour),
		WithPasswordResetTTL(15*time.Minute),
	)

	return service, clock
}

func TestTokenService_IssueAndRedeem(t *testing.T) {
	service, _ := setupService(t)
	ctx := context.Background()

	raw, err := service.Issue(ctx, "a@x.edu", KindEmailVerification)
	require.NoError(t, err)
	assert.NotEmpty(t, raw)

	email, err := service.Redeem(ctx, raw, KindEmailVerification)
	require.NoError(t, err)
	assert.Equal(t, "a@x.edu", email)
}

func TestTokenService_RedeemIsSingleUse(t *testing.T) {
	service, _ := setupService(t)
	ctx := context.Background()

	raw, err := service.Issue(ctx, "a@x.edu", KindEmailVerification)
	require.NoError(t, err)

	_, err = service.Redeem(ctx, raw, KindEmailVerification)
	require.NoError(t, err)

	_, err = service.Redeem(ctx, raw, KindEmailVerification)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenService_ReissueSupersedesPriorToken(t *testing.T) {
	service, _ := setupService(t)
	ctx := context.Background()

	first, err := service.Issue(ctx, "a@x.edu", KindEmailVerification)
	require.NoError(t, err)

	second, err := service.Issue(ctx, "a@x.edu", KindEmailVerification)
	require.NoError(t, err)

	// The older token is dead the moment the newer one exists.
	_, err = service.Redeem(ctx, first, KindEmailVerification)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	email, err := service.Redeem(ctx, second, KindEmailVerification)
	require.NoError(t, err)
	assert.Equal(t, "a@x.edu", email)
}

func TestTokenService_KindsAreIsolated(t *testing.T) {
	service, _ := setupService(t)
	ctx := context.Background()

	verify, err := service.Issue(ctx, "a@x.edu", KindEmailVerification)
	require.NoError(t, err)

	reset, err := service.Issue(ctx, "a@x.edu", KindPasswordReset)
	require.NoError(t, err)

	// A reset issuance does not supersede the verification token, and a
	// token cannot be redeemed as the other kind.
	_, err = service.Redeem(ctx, verify, KindPasswordReset)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = service.Redeem(ctx, verify, KindEmailVerification)
	assert.NoError(t, err)

	_, err = service.Redeem(ctx, reset, KindPasswordReset)
	assert.NoError(t, err)
}

func TestTokenService_ExpiredTokenDeniedLikeForged(t *testing.T) {
	service, clock := setupService(t)
	ctx := context.Background()

	raw, err := service.Issue(ctx, "a@x.edu", KindPasswordReset)
	require.NoError(t, err)

	clock.Advance(16 * time.Minute)

	_, expiredErr := service.Redeem(ctx, raw, KindPasswordReset)
	_, forgedErr := service.Redeem(ctx, "not-a-real-token", KindPasswordReset)

	assert.ErrorIs(t, expiredErr, ErrTokenInvalid)
	assert.Equal(t, forgedErr, expiredErr)
}

func TestTokenService_RedeemJustBeforeExpiry(t *testing.T) {
	service, clock := setupService(t)
	ctx := context.Background()

	raw, err := service.Issue(ctx, "a@x.edu", KindPasswordReset)
	require.NoError(t, err)

	clock.Advance(15*time.Minute - time.Second)

	email, err := service.Redeem(ctx, raw, KindPasswordReset)
	require.NoError(t, err)
	assert.Equal(t, "a@x.edu", email)
}

func TestTokenService_InvalidateAll(t *testing.T) {
	service, _ := setupService(t)
	ctx := context.Background()

	raw, err := service.Issue(ctx, "a@x.edu", KindPasswordReset)
	require.NoError(t, err)

	require.NoError(t, service.InvalidateAll(ctx, "a@x.edu", KindPasswordReset))

	_, err = service.Redeem(ctx, raw, KindPasswordReset)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenService_PurgeExpired(t *testing.T) {
	service, clock := setupService(t)
	ctx := context.Background()

	// One redeemed, one expired, one still live.
	redeemed, err := service.Issue(ctx, "used@x.edu", KindEmailVerification)
	require.NoError(t, err)
	_, err = service.Redeem(ctx, redeemed, KindEmailVerification)
	require.NoError(t, err)

	stale, err := service.Issue(ctx, "stale@x.edu", KindPasswordReset)
	require.NoError(t, err)
	_ = stale

	clock.Advance(time.Hour)

	live, err := service.Issue(ctx, "live@x.edu", KindEmailVerification)
	require.NoError(t, err)

	count, err := service.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// The live token survives the sweep.
	email, err := service.Redeem(ctx, live, KindEmailVerification)
	require.NoError(t, err)
	assert.Equal(t, "live@x.edu", email)
}

func TestTokenService_CountRecent(t *testing.T) {
	service, clock := setupService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := service.Issue(ctx, "a@x.edu", KindEmailVerification)
		require.NoError(t, err)
	}

	count, err := service.CountRecent(ctx, "a@x.edu", KindEmailVerification, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	clock.Advance(2 * time.Hour)

	count, err = service.CountRecent(ctx, "a@x.edu", KindEmailVerification, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestTokenService_UnknownKind(t *testing.T) {
	service, _ := setupService(t)
	ctx := context.Background()

	_, err := service.Issue(ctx, "a@x.edu", TokenKind("session"))
	assert.ErrorIs(t, err, ErrUnknownKind)

	_, err = service.Redeem(ctx, "whatever", TokenKind("session"))
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestTokenService_EmptyValueDenied(t *testing.T) {
	service, _ := setupService(t)

	_, err := service.Redeem(context.Background(), "", KindEmailVerification)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestHashToken(t *testing.T) {
	// Deterministic, and never the identity.
	assert.Equal(t, HashToken("abc"), HashToken("abc"))
	assert.NotEqual(t, "abc", HashToken("abc"))
	assert.NotEqual(t, HashToken("abc"), HashToken("abd"))
	assert.Len(t, HashToken("abc"), 64)
}
