// Package pricing computes market-local tier prices from the static
// catalog and the configured region multipliers.
package pricing

import (
	"strings"

	"github.com/frontdesk/platform/internal/config"
	"github.com/frontdesk/platform/internal/tier"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
)

type Params struct {
	fx.In

	Catalog *tier.Catalog
	Pricing *config.PricingConfigHolder
}

// Engine derives local prices. LocalPrice is pure: identical inputs always
// produce identical outputs for a given config snapshot.
type Engine struct {
	catalog *tier.Catalog
	pricing *config.PricingConfigHolder
}

func NewEngine(p Params) *Engine {
	return &Engine{
		catalog: p.Catalog,
		pricing: p.Pricing,
	}
}

// Multiplier returns the configured factor for a region. Unknown regions
// fall open to 1.0: an unrecognized region must never block checkout.
func (e *Engine) Multiplier(region string) decimal.Decimal {
	cfg := e.pricing.Get()
	if factor, ok := cfg.RegionMultipliers[strings.ToLower(strings.TrimSpace(region))]; ok {
		return decimal.NewFromFloat(factor)
	}
	return decimal.NewFromInt(1)
}

// LocalPrice returns the tier's base price adjusted by the region
// multiplier, rounded half-up to whole units of the reference currency.
// Unknown tiers fail closed with tier.ErrUnknownTier.
func (e *Engine) LocalPrice(tierName, region string) (int64, error) {
	definition, err := e.catalog.Lookup(tierName)
	if err != nil {
		return 0, err
	}

	price := decimal.NewFromInt(definition.BasePrice).Mul(e.Multiplier(region))
	return price.Round(0).IntPart(), nil
}
