package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/stocksim/game"
	"github.com/rustyeddy/stocksim/market"
	"github.com/rustyeddy/stocksim/pkg/logger"
	"github.com/rustyeddy/stocksim/quotes"
	"github.com/rustyeddy/stocksim/sim"
)

// Config represents the complete server and simulator configuration
type Config struct {
	Game     GameConfig     `json:"game" yaml:"game"`
	Events   sim.Tuning     `json:"events" yaml:"events"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`
	Quotes   QuotesConfig   `json:"quotes" yaml:"quotes"`
	Server   ServerConfig   `json:"server" yaml:"server"`
	Sessions SessionsConfig `json:"sessions" yaml:"sessions"`
	Log      logger.Config  `json:"log" yaml:"log"`
}

// GameConfig contains the difficulty tiers and the tradable universe
type GameConfig struct {
	DefaultDifficulty string            `json:"default_difficulty" yaml:"default_difficulty"`
	Difficulties      []game.Difficulty `json:"difficulties" yaml:"difficulties"`
	Symbols           []string          `json:"symbols,omitempty" yaml:"symbols,omitempty"` // empty means the full universe
	Seed              int64             `json:"seed,omitempty" yaml:"seed,omitempty"`       // 0 seeds from entropy
	LoadWorkers       int               `json:"load_workers" yaml:"load_workers"`
}

// JournalConfig contains game-result persistence parameters
type JournalConfig struct {
	Type   string `json:"type" yaml:"type"` // "csv" or "sqlite"
	DBPath string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	File   string `json:"file,omitempty" yaml:"file,omitempty"`
}

// QuotesConfig contains the history provider and its cache
type QuotesConfig struct {
	BaseURL   string             `json:"base_url" yaml:"base_url"`
	Timeout   string             `json:"timeout" yaml:"timeout"` // e.g. "30s"
	Cache     string             `json:"cache" yaml:"cache"`     // "file", "memory" or "redis"
	CacheFile string             `json:"cache_file,omitempty" yaml:"cache_file,omitempty"`
	Redis     quotes.RedisConfig `json:"redis" yaml:"redis"`
}

// ServerConfig contains HTTP server parameters
type ServerConfig struct {
	Addr         string `json:"addr" yaml:"addr"`
	ReadTimeout  string `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout string `json:"write_timeout" yaml:"write_timeout"`
	MetricsPath  string `json:"metrics_path" yaml:"metrics_path"`
}

// SessionsConfig bounds how long games stay in server memory
type SessionsConfig struct {
	FinishedGrace string `json:"finished_grace" yaml:"finished_grace"` // kept after the game ends
	IdleTTL       string `json:"idle_ttl" yaml:"idle_ttl"`             // unfinished and untouched
	SweepInterval string `json:"sweep_interval" yaml:"sweep_interval"`
}

// Retention converts the durations for the session registry
func (s SessionsConfig) Retention() (r game.Retention, every time.Duration, err error) {
	if r.FinishedGrace, err = parseDuration(s.FinishedGrace); err != nil {
		return r, 0, err
	}
	if r.IdleTTL, err = parseDuration(s.IdleTTL); err != nil {
		return r, 0, err
	}
	if every, err = parseDuration(s.SweepInterval); err != nil {
		return r, 0, err
	}
	return r, every, nil
}

// Universe returns the configured symbols, normalized.
func (g GameConfig) Universe() []string {
	if len(g.Symbols) == 0 {
		return market.Tickers()
	}
	out := make([]string, 0, len(g.Symbols))
	for _, s := range g.Symbols {
		out = append(out, market.NormalizeSymbol(s))
	}
	return out
}

// Source returns the random source described by Seed.
func (g GameConfig) Source() sim.Source {
	if g.Seed == 0 {
		return sim.NewEntropySource()
	}
	return sim.NewSource(g.Seed)
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

// TimeoutDuration converts Timeout to a time.Duration
func (q QuotesConfig) TimeoutDuration() (time.Duration, error) {
	return parseDuration(q.Timeout)
}

// Timeouts converts the read and write timeouts
func (s ServerConfig) Timeouts() (read, write time.Duration, err error) {
	if read, err = parseDuration(s.ReadTimeout); err != nil {
		return 0, 0, err
	}
	if write, err = parseDuration(s.WriteTimeout); err != nil {
		return 0, 0, err
	}
	return read, write, nil
}

// LoadFromFile loads configuration from a file. Missing keys keep their
// default values.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		cfg = Default()
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var (
		data []byte
		err  error
	)

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if len(c.Game.Difficulties) == 0 {
		return fmt.Errorf("game.difficulties is required")
	}
	seen := map[string]bool{}
	for _, d := range c.Game.Difficulties {
		if d.ID == "" {
			return fmt.Errorf("game.difficulties: id is required")
		}
		if seen[d.ID] {
			return fmt.Errorf("game.difficulties: duplicate id %q", d.ID)
		}
		seen[d.ID] = true
		if d.StartCapital <= 0 {
			return fmt.Errorf("game.difficulties[%s].start_capital must be positive", d.ID)
		}
		if d.TargetMultiplier <= 1 {
			return fmt.Errorf("game.difficulties[%s].target_multiplier must be greater than 1", d.ID)
		}
	}
	if !seen[c.Game.DefaultDifficulty] {
		return fmt.Errorf("game.default_difficulty %q is not a configured difficulty", c.Game.DefaultDifficulty)
	}
	for _, s := range c.Game.Symbols {
		if market.NormalizeSymbol(s) == "" {
			return fmt.Errorf("game.symbols must not contain empty entries")
		}
	}
	if c.Game.LoadWorkers < 0 {
		return fmt.Errorf("game.load_workers must not be negative")
	}
	if err := c.Events.Validate(); err != nil {
		return err
	}

	switch c.Journal.Type {
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	case "csv":
		if c.Journal.File == "" {
			return fmt.Errorf("journal file required for CSV type")
		}
	default:
		return fmt.Errorf("journal.type must be 'csv' or 'sqlite'")
	}

	if _, err := c.Quotes.TimeoutDuration(); err != nil {
		return fmt.Errorf("quotes.timeout: %w", err)
	}
	switch c.Quotes.Cache {
	case "memory":
	case "file":
		if c.Quotes.CacheFile == "" {
			return fmt.Errorf("quotes cache_file required for file cache")
		}
	case "redis":
		if c.Quotes.Redis.Addr == "" {
			return fmt.Errorf("quotes redis.addr required for redis cache")
		}
	default:
		return fmt.Errorf("quotes.cache must be 'file', 'memory' or 'redis'")
	}

	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if _, _, err := c.Server.Timeouts(); err != nil {
		return fmt.Errorf("server timeouts: %w", err)
	}
	r, every, err := c.Sessions.Retention()
	if err != nil {
		return fmt.Errorf("sessions: %w", err)
	}
	if r.FinishedGrace < 0 || r.IdleTTL < 0 || every < 0 {
		return fmt.Errorf("sessions durations must not be negative")
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Game: GameConfig{
			DefaultDifficulty: game.DefaultDifficulty,
			Difficulties:      game.DefaultDifficulties(),
			LoadWorkers:       game.DefaultLoadWorkers,
		},
		Events: sim.DefaultTuning(),
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "./stocksim.db",
		},
		Quotes: QuotesConfig{
			BaseURL:   quotes.DefaultBaseURL,
			Timeout:   "30s",
			Cache:     "file",
			CacheFile: "./history-cache.json",
			Redis:     quotes.RedisConfig{Addr: "localhost:6379", Prefix: "stocksim"},
		},
		Server: ServerConfig{
			Addr:         ":4000",
			ReadTimeout:  "15s",
			WriteTimeout: "60s",
			MetricsPath:  "/metrics",
		},
		Sessions: SessionsConfig{
			FinishedGrace: "15m",
			IdleTTL:       "2h",
			SweepInterval: "1m",
		},
		Log: logger.Config{
			Level:  "info",
			Format: "console",
			Output: "stderr",
		},
	}
}
