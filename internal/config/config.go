package config

import "time"

// Config is the root configuration for a pricewatch instance.
type Config struct {
	Database  DBConfig        `yaml:"database"`
	Sources   SourcesConfig   `yaml:"sources"`
	FX        FXConfig        `yaml:"fx"`
	Reconcile ReconcileConfig `yaml:"reconcile"`
	Runner    RunnerConfig    `yaml:"runner"`
	Server    ServerConfig    `yaml:"server"`
}

// DBConfig holds the PostgreSQL connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// SourcesConfig selects and configures the external price sources.
type SourcesConfig struct {
	Ebay   EbayConfig   `yaml:"ebay"`
	Retail RetailConfig `yaml:"retail"`
}

// EbayConfig holds eBay Browse API settings.
type EbayConfig struct {
	Enabled       bool          `yaml:"enabled"`
	BaseURL       string        `yaml:"base_url"`
	TokenURL      string        `yaml:"token_url"`
	ClientID      string        `yaml:"client_id"`
	ClientSecret  string        `yaml:"client_secret"`
	MarketplaceID string        `yaml:"marketplace_id"`
	CampaignID    string        `yaml:"campaign_id"` // Partner network campaign for affiliate tagging
	CustomID      string        `yaml:"custom_id"`
	Timeout       time.Duration `yaml:"timeout"`
}

// RetailConfig holds Japanese retail storefront settings.
type RetailConfig struct {
	Enabled   bool          `yaml:"enabled"`
	BaseURL   string        `yaml:"base_url"`
	UserAgent string        `yaml:"user_agent"`
	Timeout   time.Duration `yaml:"timeout"`
}

// FXConfig holds exchange-rate settings.
type FXConfig struct {
	// FallbackUSDJPY is used when the store has no recorded rate.
	FallbackUSDJPY float64 `yaml:"fallback_usd_jpy"`
}

// ReconcileConfig holds outlier-filter settings.
type ReconcileConfig struct {
	// FloorRatio rejects candidates below reference*ratio. Default 0.5.
	FloorRatio float64 `yaml:"floor_ratio"`
}

// RunnerConfig holds batch driver settings.
type RunnerConfig struct {
	BatchSize     int           `yaml:"batch_size"`     // Cards per invocation
	PairInterval  time.Duration `yaml:"pair_interval"`  // Token-bucket refill per (card, condition) pair
	CooldownEvery int           `yaml:"cooldown_every"` // Pairs between cooldowns
	CooldownFor   time.Duration `yaml:"cooldown_for"`
	TimeBudget    time.Duration `yaml:"time_budget"` // Soft limit; runner stops and reports next_offset
}

// ServerConfig holds the scheduler trigger endpoint settings.
type ServerConfig struct {
	ListenAddr    string `yaml:"listen_addr"`
	TriggerSecret string `yaml:"trigger_secret"`
}
