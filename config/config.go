package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration with yaml string parsing ("2m", "90s").
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// PhaseWeights describe how a multi-phase network operation's progress is
// composed into a single monotonic value. The fractions are empirical
// relative-cost estimates, not measurements; behavior compatibility matters
// more than progress-bar precision, so they are configurable rather than
// re-derived.
type PhaseWeights struct {
	Operation float64 `yaml:"operation"`
	Fetch     float64 `yaml:"fetch"`
	Refresh   float64 `yaml:"refresh"`
}

// Config is the typed runtime configuration, loaded once at startup and
// passed explicitly rather than read ad hoc from global storage.
type Config struct {
	// LogLevel is the minimum log level ("debug", "info", "warn", "error").
	LogLevel string `yaml:"log_level"`

	// HistoryBatchSize is the number of commits fetched per history load.
	HistoryBatchSize int `yaml:"history_batch_size"`

	// FastForwardSkipThreshold bounds the fast-forward scan: when more local
	// branches than this are eligible, only the default branch is advanced.
	FastForwardSkipThreshold int `yaml:"fast_forward_skip_threshold"`

	// BackgroundFetchInterval is the background polling period per repository.
	BackgroundFetchInterval Duration `yaml:"background_fetch_interval"`

	// FetchMinimumSpacing skips a background fetch when the repository was
	// already fetched this recently, bounding git process spawns under idle
	// polling.
	FetchMinimumSpacing Duration `yaml:"fetch_minimum_spacing"`

	// PushWeights, PullWeights, and FetchWeights compose per-phase progress.
	PushWeights  PhaseWeights `yaml:"push_weights"`
	PullWeights  PhaseWeights `yaml:"pull_weights"`
	FetchWeights PhaseWeights `yaml:"fetch_weights"`
}

// Default returns the configuration defaults.
func Default() *Config {
	return &Config{
		LogLevel:                 "info",
		HistoryBatchSize:         100,
		FastForwardSkipThreshold: 20,
		BackgroundFetchInterval:  Duration(10 * time.Minute),
		FetchMinimumSpacing:      Duration(2 * time.Minute),
		PushWeights:              PhaseWeights{Operation: 0.54, Fetch: 0.21, Refresh: 0.25},
		PullWeights:              PhaseWeights{Operation: 0.60, Fetch: 0.15, Refresh: 0.25},
		FetchWeights:             PhaseWeights{Operation: 0.90, Refresh: 0.10},
	}
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.HistoryBatchSize <= 0 {
		return fmt.Errorf("history_batch_size must be positive, got %d", c.HistoryBatchSize)
	}
	if c.FastForwardSkipThreshold < 0 {
		return fmt.Errorf("fast_forward_skip_threshold cannot be negative, got %d", c.FastForwardSkipThreshold)
	}
	for name, w := range map[string]PhaseWeights{
		"push_weights":  c.PushWeights,
		"pull_weights":  c.PullWeights,
		"fetch_weights": c.FetchWeights,
	} {
		total := w.Operation + w.Fetch + w.Refresh
		if total < 0.99 || total > 1.01 {
			return fmt.Errorf("%s must sum to 1.0, got %.2f", name, total)
		}
	}
	return nil
}
