package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if err := c.Database.validate("database"); err != nil {
		return err
	}

	if !c.Sources.Ebay.Enabled && !c.Sources.Retail.Enabled {
		return errors.New("at least one source must be enabled")
	}

	if c.Sources.Ebay.Enabled {
		if c.Sources.Ebay.ClientID == "" {
			return errors.New("sources.ebay.client_id is required when ebay is enabled")
		}
		if c.Sources.Ebay.ClientSecret == "" {
			return errors.New("sources.ebay.client_secret is required when ebay is enabled")
		}
		if c.Sources.Ebay.CampaignID == "" {
			return errors.New("sources.ebay.campaign_id is required when ebay is enabled")
		}
	}

	if c.Sources.Retail.Enabled && c.Sources.Retail.BaseURL == "" {
		return errors.New("sources.retail.base_url is required when retail is enabled")
	}

	if c.FX.FallbackUSDJPY <= 0 {
		return fmt.Errorf("fx.fallback_usd_jpy must be > 0, got %v", c.FX.FallbackUSDJPY)
	}

	if c.Reconcile.FloorRatio < 0 || c.Reconcile.FloorRatio >= 1 {
		return fmt.Errorf("reconcile.floor_ratio must be in [0, 1), got %v", c.Reconcile.FloorRatio)
	}

	if c.Runner.BatchSize < 1 {
		return errors.New("runner.batch_size must be >= 1")
	}
	if c.Runner.CooldownEvery < 1 {
		return errors.New("runner.cooldown_every must be >= 1")
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
