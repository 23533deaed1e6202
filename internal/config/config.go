package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// VenueOptions carries the per-venue connection settings. Which fields
// matter depends on the venue type.
type VenueOptions struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	RestURL   string `yaml:"rest_url"`
	WsURL     string `yaml:"ws_url"`

	// Paper venue only.
	MarketsFile  string             `yaml:"markets_file"`
	TicksFile    string             `yaml:"ticks_file"`
	Feed         string             `yaml:"feed"` // "file" | "redis"
	InitialFunds map[string]float64 `yaml:"initial_funds"`
	FeeRate      float64            `yaml:"fee_rate"`
}

type VenueConfig struct {
	Name    string       `yaml:"name"`
	Type    string       `yaml:"type"`
	Options VenueOptions `yaml:"options"`
}

// StrategyOptions are the knobs the arbitrage strategy consumes.
type StrategyOptions struct {
	TradeUnit         float64  `yaml:"trade_unit"`
	InitCurrency      string   `yaml:"init_currency"`
	MinRate           float64  `yaml:"min_rate"`
	FeeRate           float64  `yaml:"fee_rate"`
	CooldownSec       int      `yaml:"cooldown_sec"`
	ScanIntervalMs    int      `yaml:"scan_interval_ms"`
	BootstrapSec      int      `yaml:"bootstrap_sec"`
	MaxTickAgeMs      int      `yaml:"max_tick_age_ms"`
	ExcludeCurrencies []string `yaml:"exclude_currencies"`
	DryRun            bool     `yaml:"dry_run"`
}

type StrategyConfig struct {
	Name    string          `yaml:"name"`
	Type    string          `yaml:"type"`
	Venue   string          `yaml:"venue"`
	Options StrategyOptions `yaml:"options"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Stream   string `yaml:"stream"`
}

type Config struct {
	Venues     []VenueConfig    `yaml:"venues"`
	Strategies []StrategyConfig `yaml:"strategies"`
	Redis      RedisConfig      `yaml:"redis"`

	Metrics struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"metrics"`
}

// Load reads, schema-checks and decodes the settings file, then applies
// defaults. Validation happens on the raw document so a malformed file
// fails before any object is constructed.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

func Parse(b []byte) (*Config, error) {
	var raw interface{}
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("settings yaml: %w", err)
	}
	if err := validate(raw); err != nil {
		return nil, fmt.Errorf("settings schema: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	if c.Redis.Stream == "" {
		c.Redis.Stream = "book:stream"
	}
	for i := range c.Strategies {
		opt := &c.Strategies[i].Options
		if opt.CooldownSec == 0 {
			opt.CooldownSec = 10
		}
		if opt.ScanIntervalMs == 0 {
			opt.ScanIntervalMs = 1000
		}
		if opt.BootstrapSec == 0 {
			opt.BootstrapSec = 5
		}
		if opt.FeeRate == 0 {
			opt.FeeRate = 0.001
		}
		if opt.ExcludeCurrencies == nil {
			opt.ExcludeCurrencies = []string{"USDT", "USDC", "TUSD"}
		}
	}
	return &c, nil
}

func (o StrategyOptions) Cooldown() time.Duration {
	return time.Duration(o.CooldownSec) * time.Second
}

func (o StrategyOptions) ScanInterval() time.Duration {
	return time.Duration(o.ScanIntervalMs) * time.Millisecond
}

func (o StrategyOptions) Bootstrap() time.Duration {
	return time.Duration(o.BootstrapSec) * time.Second
}

// MaxTickAge is the staleness cutoff for book snapshots; zero keeps
// every snapshot usable regardless of age.
func (o StrategyOptions) MaxTickAge() time.Duration {
	return time.Duration(o.MaxTickAgeMs) * time.Millisecond
}
