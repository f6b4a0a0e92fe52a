// Package config holds router configuration.
//
// A Config starts from Default, is optionally overlaid by a YAML, TOML or JSON
// file (Load) and then by TASKROUTE_* environment variables (LoadFromEnv).
// Validate checks the result before a router is built from it.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"

	"github.com/randalmurphal/taskroute/cost"
	"github.com/randalmurphal/taskroute/model"
	"github.com/randalmurphal/taskroute/rules"
	"github.com/randalmurphal/taskroute/signal"
	"github.com/randalmurphal/taskroute/tokens"
)

// ErrInvalidConfig indicates a configuration value failed validation.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds configuration for building a router.
type Config struct {
	// PriceTablePath is the YAML, TOML or JSON price table to load.
	// Empty uses the built-in catalog.
	PriceTablePath string `json:"price_table" yaml:"price_table" toml:"price_table" mapstructure:"price_table"`

	// Keywords overrides the curated keyword lists. Nil uses the defaults.
	Keywords *signal.Keywords `json:"keywords,omitempty" yaml:"keywords,omitempty" toml:"keywords,omitempty" mapstructure:"keywords"`

	// ContextDefaults maps a context name to its no-signal tier.
	// Contexts not listed keep their default.
	ContextDefaults map[string]string `json:"context_defaults,omitempty" yaml:"context_defaults,omitempty" toml:"context_defaults,omitempty" mapstructure:"context_defaults"`

	// Split is the tier mix used for projections, keyed by tier name.
	Split map[string]float64 `json:"split,omitempty" yaml:"split,omitempty" toml:"split,omitempty" mapstructure:"split"`

	// OutputRatio is the assumed output tokens per input token when a
	// task carries no token counts.
	OutputRatio float64 `json:"output_ratio" yaml:"output_ratio" toml:"output_ratio" mapstructure:"output_ratio"`

	// CharsPerToken tunes token estimation.
	CharsPerToken float64 `json:"chars_per_token" yaml:"chars_per_token" toml:"chars_per_token" mapstructure:"chars_per_token"`

	// ClassifierCacheBytes sizes the classifier result cache by description
	// bytes. 0 disables caching.
	ClassifierCacheBytes int64 `json:"classifier_cache_bytes" yaml:"classifier_cache_bytes" toml:"classifier_cache_bytes" mapstructure:"classifier_cache_bytes"`

	// MaxParallel bounds batch routing concurrency. 0 means unbounded.
	MaxParallel int `json:"max_parallel" yaml:"max_parallel" toml:"max_parallel" mapstructure:"max_parallel"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level" yaml:"log_level" toml:"log_level" mapstructure:"log_level"`
}

// Default returns a Config with the built-in catalog and defaults.
func Default() Config {
	return Config{
		ContextDefaults: map[string]string{
			string(signal.ContextMainSession): model.Tier2.String(),
			string(signal.ContextSubAgent):    model.Tier1.String(),
			string(signal.ContextAutomated):   model.Tier1.String(),
		},
		Split: map[string]float64{
			model.Tier1.String(): 0.80,
			model.Tier2.String(): 0.15,
			model.Tier3.String(): 0.05,
		},
		OutputRatio:   tokens.DefaultOutputRatio,
		CharsPerToken: tokens.DefaultCharsPerToken,
		MaxParallel:   8,
		LogLevel:      "info",

		ClassifierCacheBytes: 1 << 20,
	}
}

// Load reads a YAML, TOML or JSON config file over the defaults.
// Unknown keys are rejected.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	format, err := model.FormatForPath(path)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}

	// Decoding merges into existing maps. Context defaults are overrides,
	// but a split must be given whole.
	cfg := Default()
	cfg.Split = nil
	if err := cfg.decode(data, format); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	if cfg.Split == nil {
		cfg.Split = Default().Split
	}
	return cfg, nil
}

func (c *Config) decode(data []byte, format model.Format) error {
	switch format {
	case model.FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: decode yaml: %v", ErrInvalidConfig, err)
		}
	case model.FormatTOML:
		md, err := toml.Decode(string(data), c)
		if err != nil {
			return fmt.Errorf("%w: decode toml: %v", ErrInvalidConfig, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return fmt.Errorf("%w: unknown keys %v", ErrInvalidConfig, undecoded)
		}
	case model.FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(c); err != nil {
			return fmt.Errorf("%w: decode json: %v", ErrInvalidConfig, err)
		}
	default:
		return fmt.Errorf("%w: unsupported format %q", ErrInvalidConfig, format)
	}
	return nil
}

// LoadFromEnv populates config fields from environment variables.
// Environment variables use the TASKROUTE_ prefix and take precedence over
// existing values. Unparseable numbers are ignored.
//
// Supported variables:
//   - TASKROUTE_PRICE_TABLE: price table path
//   - TASKROUTE_OUTPUT_RATIO: output tokens per input token
//   - TASKROUTE_CHARS_PER_TOKEN: token estimation ratio
//   - TASKROUTE_MAX_PARALLEL: batch routing concurrency
//   - TASKROUTE_CLASSIFIER_CACHE_BYTES: classifier cache size, 0 disables
//   - TASKROUTE_LOG_LEVEL: debug, info, warn or error
//   - TASKROUTE_DEFAULT_MAIN_SESSION, TASKROUTE_DEFAULT_SUB_AGENT,
//     TASKROUTE_DEFAULT_AUTOMATED: no-signal tier per context
func (c *Config) LoadFromEnv() {
	if v := os.Getenv("TASKROUTE_PRICE_TABLE"); v != "" {
		c.PriceTablePath = v
	}
	if v := os.Getenv("TASKROUTE_OUTPUT_RATIO"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.OutputRatio = f
		}
	}
	if v := os.Getenv("TASKROUTE_CHARS_PER_TOKEN"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.CharsPerToken = f
		}
	}
	if v := os.Getenv("TASKROUTE_MAX_PARALLEL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxParallel = n
		}
	}
	if v := os.Getenv("TASKROUTE_CLASSIFIER_CACHE_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.ClassifierCacheBytes = n
		}
	}
	if v := os.Getenv("TASKROUTE_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	for _, ctx := range []signal.Context{signal.ContextMainSession, signal.ContextSubAgent, signal.ContextAutomated} {
		key := "TASKROUTE_DEFAULT_" + strings.ToUpper(strings.ReplaceAll(string(ctx), "-", "_"))
		if v := os.Getenv(key); v != "" {
			if c.ContextDefaults == nil {
				c.ContextDefaults = make(map[string]string)
			}
			c.ContextDefaults[string(ctx)] = v
		}
	}
}

// FromEnv creates a Config from environment variables with defaults.
func FromEnv() Config {
	cfg := Default()
	cfg.LoadFromEnv()
	return cfg
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if !(c.OutputRatio > 0) {
		return fmt.Errorf("%w: output_ratio must be > 0, got %v", ErrInvalidConfig, c.OutputRatio)
	}
	if !(c.CharsPerToken > 0) {
		return fmt.Errorf("%w: chars_per_token must be > 0, got %v", ErrInvalidConfig, c.CharsPerToken)
	}
	if c.MaxParallel < 0 {
		return fmt.Errorf("%w: max_parallel must be >= 0, got %d", ErrInvalidConfig, c.MaxParallel)
	}
	if c.ClassifierCacheBytes < 0 {
		return fmt.Errorf("%w: classifier_cache_bytes must be >= 0, got %d", ErrInvalidConfig, c.ClassifierCacheBytes)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if _, err := c.ContextTiers(); err != nil {
		return err
	}
	if _, err := c.TierSplit(); err != nil {
		return err
	}
	if c.Keywords != nil {
		if err := c.Keywords.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	return nil
}

// Level parses LogLevel. Empty means info.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	return level, nil
}

// Logger returns a JSON logger writing to w at the configured level.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, err := c.Level()
	if err != nil {
		level = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String("component", "taskroute"))
}

// ContextTiers returns the context defaults, starting from the built-in
// ones and applying the configured overrides.
func (c *Config) ContextTiers() (rules.ContextDefaults, error) {
	out := rules.DefaultContextDefaults()
	for name, tierName := range c.ContextDefaults {
		ctx, err := signal.ParseContext(name)
		if err != nil {
			return nil, fmt.Errorf("%w: context_defaults: %v", ErrInvalidConfig, err)
		}
		tier, err := model.ParseTier(tierName)
		if err != nil {
			return nil, fmt.Errorf("%w: context_defaults[%s]: %v", ErrInvalidConfig, name, err)
		}
		out[ctx] = tier
	}
	return out, nil
}

// TierSplit returns the projection split. An empty Split uses cost.DefaultSplit.
func (c *Config) TierSplit() (cost.Split, error) {
	if len(c.Split) == 0 {
		return cost.DefaultSplit(), nil
	}
	out := make(cost.Split, len(c.Split))
	for name, f := range c.Split {
		tier, err := model.ParseTier(name)
		if err != nil {
			return nil, fmt.Errorf("%w: split: %v", ErrInvalidConfig, err)
		}
		out[tier] += f
	}
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return out, nil
}

// KeywordLists returns the configured keyword lists or the defaults.
func (c *Config) KeywordLists() signal.Keywords {
	if c.Keywords == nil {
		return signal.DefaultKeywords()
	}
	return *c.Keywords
}

// Catalog loads the configured price table, or returns the built-in catalog
// when no path is set.
func (c *Config) Catalog() (*model.Catalog, error) {
	if c.PriceTablePath == "" {
		return model.DefaultCatalog(), nil
	}
	return model.LoadFile(c.PriceTablePath)
}

// Schema returns the JSON schema of the config file format.
func Schema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		DoNotReference: true,
		FieldNameTag:   "json",
	}
	s := r.Reflect(&Config{})
	s.Title = "taskroute config"
	return s
}
