package token

import (
	"testing"
	"time"

	"github.com/frontdesk/platform/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, accessTTL time.Duration) *Service {
	t.Helper()
	svc, err := NewService(config.Config{
		AuthJWTSecret:   "test-secret",
		AuthIssuer:      "frontdesk-test",
		AccessTokenTTL:  accessTTL,
		RefreshTokenTTL: time.Hour,
	})
	require.NoError(t, err)
	return svc
}

func TestVerifyRoundTrip(t *testing.T) {
	svc := newTestService(t, time.Minute)

	pair, err := svc.IssuePair(IssueInput{
		Subject:  "user-1",
		TenantID: "42",
		Role:     RoleMember,
		Tier:     "professional",
	})
	require.NoError(t, err)

	claims, err := svc.Verify(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.TenantID)
	assert.Equal(t, RoleMember, claims.Role)
	assert.Equal(t, PurposeAccess, claims.Purpose)
	assert.False(t, claims.IsOwner())
}

func TestVerifyRejectsRefreshToken(t *testing.T) {
	svc := newTestService(t, time.Minute)

	pair, err := svc.IssuePair(IssueInput{Subject: "user-1", TenantID: "42", Role: RoleMember})
	require.NoError(t, err)

	_, err = svc.Verify(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrWrongPurpose)
}

func TestVerifyExpired(t *testing.T) {
	svc := newTestService(t, -time.Minute)

	pair, err := svc.IssuePair(IssueInput{Subject: "user-1", TenantID: "42", Role: RoleMember})
	require.NoError(t, err)

	_, err = svc.Verify(pair.AccessToken)
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestVerifyTampered(t *testing.T) {
	svc := newTestService(t, time.Minute)
	other := newTestService(t, time.Minute)
	other.secret = []byte("different-secret")

	pair, err := other.IssuePair(IssueInput{Subject: "user-1", TenantID: "42", Role: RoleMember})
	require.NoError(t, err)

	_, err = svc.Verify(pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = svc.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestDecodeIsUnverified(t *testing.T) {
	svc := newTestService(t, time.Minute)
	other := newTestService(t, time.Minute)
	other.secret = []byte("different-secret")

	pair, err := other.IssuePair(IssueInput{Subject: "user-1", TenantID: "77", Role: RoleOwner})
	require.NoError(t, err)

	// Decode reads claims even when the signature would not verify.
	claims := svc.Decode(pair.AccessToken)
	require.NotNil(t, claims)
	assert.Equal(t, "77", claims.TenantID)
	assert.True(t, claims.IsOwner())

	assert.Nil(t, svc.Decode("garbage"))
}

func TestRefreshExchange(t *testing.T) {
	svc := newTestService(t, time.Minute)

	pair, err := svc.IssuePair(IssueInput{Subject: "user-1", TenantID: "42", Role: RoleMember})
	require.NoError(t, err)

	next, err := svc.Refresh(pair.RefreshToken)
	require.NoError(t, err)

	claims, err := svc.Verify(next.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.TenantID)

	_, err = svc.Refresh(pair.AccessToken)
	assert.ErrorIs(t, err, ErrWrongPurpose)
}
