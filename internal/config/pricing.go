package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// PricingConfig carries market-local pricing figures: region multipliers
// applied to tier base prices and the success-fee commission constants.
type PricingConfig struct {
	RegionMultipliers map[string]float64 `mapstructure:"regionMultipliers"`
	PerBookingFee     float64            `mapstructure:"perBookingFee"`
	CommissionRate    float64            `mapstructure:"commissionRate"`
}

func DefaultPricingConfig() PricingConfig {
	return PricingConfig{
		RegionMultipliers: map[string]float64{
			"us":    1.0,
			"ca":    0.95,
			"uk":    1.05,
			"eu":    1.0,
			"latam": 0.65,
			"apac":  0.80,
			"mena":  0.90,
		},
		PerBookingFee:  5.0,
		CommissionRate: 0.05,
	}
}

// PricingConfigHolder serves the current pricing figures and hot-reloads
// them when the config file changes on disk.
type PricingConfigHolder struct {
	current atomic.Value // holds PricingConfig
}

func NewPricingConfigHolder() (*PricingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("pricing")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/frontdesk/config")
	v.AddConfigPath("/etc/frontdesk")
	v.AddConfigPath(".")

	v.SetEnvPrefix("FRONTDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultPricingConfig()
	v.SetDefault("pricing.regionMultipliers", defaults.RegionMultipliers)
	v.SetDefault("pricing.perBookingFee", defaults.PerBookingFee)
	v.SetDefault("pricing.commissionRate", defaults.CommissionRate)

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileFound = false
	}

	var cfg PricingConfig
	if err := v.UnmarshalKey("pricing", &cfg); err != nil {
		return nil, err
	}
	if err := validatePricingConfig(cfg); err != nil {
		return nil, err
	}

	holder := &PricingConfigHolder{}
	holder.current.Store(cfg)

	if fileFound {
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			var updated PricingConfig
			if err := v.UnmarshalKey("pricing", &updated); err != nil {
				log.Printf("[pricing-config] reload failed: %v", err)
				return
			}
			if err := validatePricingConfig(updated); err != nil {
				log.Printf("[pricing-config] invalid config ignored: %v", err)
				return
			}
			holder.current.Store(updated)
			log.Printf("[pricing-config] reloaded from %s", e.Name)
		})
	}

	return holder, nil
}

// NewStaticPricingHolder returns a holder pinned to the given config.
// Used by tests and by callers that do not want file watching.
func NewStaticPricingHolder(cfg PricingConfig) *PricingConfigHolder {
	holder := &PricingConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *PricingConfigHolder) Get() PricingConfig {
	return h.current.Load().(PricingConfig)
}

func validatePricingConfig(cfg PricingConfig) error {
	if cfg.PerBookingFee < 0 {
		return errors.New("pricing.perBookingFee cannot be negative")
	}
	if cfg.CommissionRate < 0 || cfg.CommissionRate > 1 {
		return errors.New("pricing.commissionRate must be within [0, 1]")
	}
	for region, multiplier := range cfg.RegionMultipliers {
		if multiplier <= 0 {
			return errors.New("pricing.regionMultipliers." + region + " must be positive")
		}
	}
	return nil
}
