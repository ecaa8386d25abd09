package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultEbayBaseURL       = "https://api.ebay.com/buy/browse/v1"
	DefaultEbayTokenURL      = "https://api.ebay.com/identity/v1/oauth2/token"
	DefaultEbayMarketplaceID = "EBAY_US"
	DefaultSourceTimeout     = 20 * time.Second
	DefaultRetailUserAgent   = "opcg-pricewatch/1.0"
	DefaultDBPort            = 5432
	DefaultDBSSLMode         = "prefer"
	DefaultMaxConns          = 10
	DefaultMinConns          = 2
	DefaultFallbackUSDJPY    = 150.0
	DefaultFloorRatio        = 0.5
	DefaultBatchSize         = 50
	DefaultPairInterval      = 2 * time.Second
	DefaultCooldownEvery     = 20
	DefaultCooldownFor       = 30 * time.Second
	DefaultTimeBudget        = 10 * time.Minute
	DefaultListenAddr        = ":8090"
)

func (c *Config) applyDefaults() {
	// Database defaults
	if c.Database.Port == 0 {
		c.Database.Port = DefaultDBPort
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = DefaultDBSSLMode
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = DefaultMaxConns
	}
	if c.Database.MinConns == 0 {
		c.Database.MinConns = DefaultMinConns
	}

	// Source defaults
	if c.Sources.Ebay.BaseURL == "" {
		c.Sources.Ebay.BaseURL = DefaultEbayBaseURL
	}
	if c.Sources.Ebay.TokenURL == "" {
		c.Sources.Ebay.TokenURL = DefaultEbayTokenURL
	}
	if c.Sources.Ebay.MarketplaceID == "" {
		c.Sources.Ebay.MarketplaceID = DefaultEbayMarketplaceID
	}
	if c.Sources.Ebay.Timeout == 0 {
		c.Sources.Ebay.Timeout = DefaultSourceTimeout
	}
	if c.Sources.Retail.UserAgent == "" {
		c.Sources.Retail.UserAgent = DefaultRetailUserAgent
	}
	if c.Sources.Retail.Timeout == 0 {
		c.Sources.Retail.Timeout = DefaultSourceTimeout
	}

	// FX defaults
	if c.FX.FallbackUSDJPY == 0 {
		c.FX.FallbackUSDJPY = DefaultFallbackUSDJPY
	}

	// Reconcile defaults
	if c.Reconcile.FloorRatio == 0 {
		c.Reconcile.FloorRatio = DefaultFloorRatio
	}

	// Runner defaults
	if c.Runner.BatchSize == 0 {
		c.Runner.BatchSize = DefaultBatchSize
	}
	if c.Runner.PairInterval == 0 {
		c.Runner.PairInterval = DefaultPairInterval
	}
	if c.Runner.CooldownEvery == 0 {
		c.Runner.CooldownEvery = DefaultCooldownEvery
	}
	if c.Runner.CooldownFor == 0 {
		c.Runner.CooldownFor = DefaultCooldownFor
	}
	if c.Runner.TimeBudget == 0 {
		c.Runner.TimeBudget = DefaultTimeBudget
	}

	// Server defaults
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = DefaultListenAddr
	}
}
