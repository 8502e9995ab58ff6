package pricing

import (
	"testing"

	"github.com/frontdesk/platform/internal/config"
	"github.com/frontdesk/platform/internal/tier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine() *Engine {
	return NewEngine(Params{
		Catalog: tier.NewCatalog(),
		Pricing: config.NewStaticPricingHolder(config.DefaultPricingConfig()),
	})
}

func TestLocalPriceTable(t *testing.T) {
	engine := newTestEngine()

	cases := []struct {
		name   string
		tier   string
		region string
		want   int64
	}{
		{"professional latam", "professional", "latam", 259}, // round(399*0.65)
		{"professional us", "professional", "us", 399},
		{"professional unknown region", "professional", "atlantis", 399},
		{"professional empty region", "professional", "", 399},
		{"starter ca", "starter", "ca", 142},   // round(149*0.95) = round(141.55)
		{"growth apac", "growth", "apac", 559}, // round(699*0.80) = round(559.2)
		{"enterprise uk", "enterprise", "uk", 2099},
		{"trial anywhere", "trial", "latam", 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := engine.LocalPrice(tc.tier, tc.region)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestLocalPriceDeterministic(t *testing.T) {
	engine := newTestEngine()

	first, err := engine.LocalPrice("professional", "latam")
	require.NoError(t, err)
	second, err := engine.LocalPrice("professional", "latam")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestLocalPriceRoundsHalfUp(t *testing.T) {
	engine := NewEngine(Params{
		Catalog: tier.NewCatalog(),
		Pricing: config.NewStaticPricingHolder(config.PricingConfig{
			// 399 * 0.5 = 199.5, ties round half up
			RegionMultipliers: map[string]float64{"half": 0.5},
		}),
	})

	got, err := engine.LocalPrice("professional", "half")
	require.NoError(t, err)
	assert.Equal(t, int64(200), got)
}

func TestLocalPriceUnknownTierFailsClosed(t *testing.T) {
	engine := newTestEngine()

	_, err := engine.LocalPrice("platinum", "us")
	assert.ErrorIs(t, err, tier.ErrUnknownTier)
}

func TestUnknownRegionMatchesUnitMultiplier(t *testing.T) {
	engine := newTestEngine()

	unknown, err := engine.LocalPrice("growth", "nowhere")
	require.NoError(t, err)
	us, err := engine.LocalPrice("growth", "us")
	require.NoError(t, err)
	assert.Equal(t, us, unknown)
}
