// Package tier defines the static subscription tier catalog. Tier lookups
// fail closed: an unknown tier has no safe default price.
package tier

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// AllowanceUnlimited marks a tier without a minute cap.
const AllowanceUnlimited int64 = -1

// Feature flags carried by a tier.
const (
	FeatureAfterHours        = "after_hours"
	FeatureOverflow          = "overflow"
	FeatureCRMBooking        = "crm_booking"
	FeatureCommissionBilling = "commission_billing"
)

var ErrUnknownTier = errors.New("unknown_tier")

// Tier is an immutable catalog entry. BasePrice is in whole units of the
// reference currency per month.
type Tier struct {
	Name                 string
	DisplayName          string
	BasePrice            int64
	AllowanceMinutes     int64
	OverageRatePerMinute decimal.Decimal
	Features             []string
}

func (t Tier) Unlimited() bool {
	return t.AllowanceMinutes == AllowanceUnlimited
}

func (t Tier) HasFeature(name string) bool {
	for _, feature := range t.Features {
		if feature == name {
			return true
		}
	}
	return false
}

// Catalog resolves tier names to definitions.
type Catalog struct {
	tiers map[string]Tier
	order []string
}

func NewCatalog() *Catalog {
	entries := []Tier{
		{
			Name:                 "trial",
			DisplayName:          "Trial",
			BasePrice:            0,
			AllowanceMinutes:     60,
			OverageRatePerMinute: decimal.Zero,
			Features:             nil,
		},
		{
			Name:                 "starter",
			DisplayName:          "Starter",
			BasePrice:            149,
			AllowanceMinutes:     300,
			OverageRatePerMinute: decimal.NewFromFloat(0.45),
			Features:             []string{FeatureAfterHours},
		},
		{
			Name:                 "professional",
			DisplayName:          "Professional",
			BasePrice:            399,
			AllowanceMinutes:     1500,
			OverageRatePerMinute: decimal.NewFromFloat(0.40),
			Features:             []string{FeatureAfterHours, FeatureOverflow},
		},
		{
			Name:                 "growth",
			DisplayName:          "Growth",
			BasePrice:            699,
			AllowanceMinutes:     3000,
			OverageRatePerMinute: decimal.NewFromFloat(0.35),
			Features:             []string{FeatureAfterHours, FeatureOverflow, FeatureCRMBooking},
		},
		{
			Name:                 "enterprise",
			DisplayName:          "Enterprise",
			BasePrice:            1999,
			AllowanceMinutes:     AllowanceUnlimited,
			OverageRatePerMinute: decimal.NewFromFloat(0.30),
			Features: []string{
				FeatureAfterHours,
				FeatureOverflow,
				FeatureCRMBooking,
				FeatureCommissionBilling,
			},
		},
	}

	tiers := make(map[string]Tier, len(entries))
	order := make([]string, 0, len(entries))
	for _, entry := range entries {
		tiers[entry.Name] = entry
		order = append(order, entry.Name)
	}
	return &Catalog{tiers: tiers, order: order}
}

// Lookup resolves a tier by name. Unknown tiers return ErrUnknownTier;
// there is deliberately no fallback tier.
func (c *Catalog) Lookup(name string) (Tier, error) {
	entry, ok := c.tiers[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Tier{}, ErrUnknownTier
	}
	return entry, nil
}

// List returns all tiers in display order.
func (c *Catalog) List() []Tier {
	out := make([]Tier, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.tiers[name])
	}
	return out
}
