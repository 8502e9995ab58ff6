package tier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupKnownTiers(t *testing.T) {
	catalog := NewCatalog()

	professional, err := catalog.Lookup("professional")
	require.NoError(t, err)
	assert.Equal(t, int64(399), professional.BasePrice)
	assert.Equal(t, int64(1500), professional.AllowanceMinutes)
	assert.False(t, professional.Unlimited())

	enterprise, err := catalog.Lookup("enterprise")
	require.NoError(t, err)
	assert.True(t, enterprise.Unlimited())
	assert.True(t, enterprise.HasFeature(FeatureCommissionBilling))
	assert.False(t, professional.HasFeature(FeatureCommissionBilling))
}

func TestLookupNormalizesName(t *testing.T) {
	catalog := NewCatalog()

	tier, err := catalog.Lookup("  Professional ")
	require.NoError(t, err)
	assert.Equal(t, "professional", tier.Name)
}

func TestLookupUnknownFailsClosed(t *testing.T) {
	catalog := NewCatalog()

	_, err := catalog.Lookup("platinum")
	assert.ErrorIs(t, err, ErrUnknownTier)

	_, err = catalog.Lookup("")
	assert.ErrorIs(t, err, ErrUnknownTier)
}

func TestListOrdering(t *testing.T) {
	catalog := NewCatalog()

	tiers := catalog.List()
	require.Len(t, tiers, 5)
	assert.Equal(t, "trial", tiers[0].Name)
	assert.Equal(t, "enterprise", tiers[4].Name)
}
