package compaction

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Default configuration values based on production patterns.
const (
	DefaultTrigger             = 0.85   // trigger at 85% context usage
	DefaultMaxContextTokens    = 200000 // Claude Sonnet context window
	DefaultProtectedTokens     = 40000  // never summarize the last 40K tokens
	DefaultPreserveLastN       = 10     // always keep the last 10 messages
	DefaultHugeMessageTokens   = 50000  // per-message hard ceiling
	DefaultTruncateRatio       = 0.5    // truncation keeps half the context window
	DefaultSummarizerModel     = "claude-3-5-haiku-20241022"
	DefaultSummarizerMaxTokens = 4096
)

// Config holds compaction configuration.
type Config struct {
	// Trigger is the context usage threshold (0.0-1.0) that triggers
	// compaction. E.g., 0.85 means compact at 85% context usage.
	// Default: 0.85
	Trigger float64 `env:"COMPACTPG_TRIGGER"`

	// MaxContextTokens is the context window of the target model, used to
	// compute the trigger threshold and the truncation floor. Callers that
	// know the model's real context length should set it here.
	// Default: 200000
	MaxContextTokens int `env:"COMPACTPG_MAX_CONTEXT_TOKENS"`

	// ProtectedTokens is the token count at the tail of the history that is
	// never summarized. This preserves live conversational continuity.
	// Default: 40000
	ProtectedTokens int `env:"COMPACTPG_PROTECTED_TOKENS"`

	// PreserveLastN is the minimum number of recent messages always kept in
	// the protected tail regardless of their token cost.
	// Default: 10
	PreserveLastN int `env:"COMPACTPG_PRESERVE_LAST_N"`

	// HugeMessageTokens is the per-message ceiling. A single message whose
	// estimated cost reaches this limit is dropped outright; one oversized
	// tool output must not blow the budget by itself.
	// Default: 50000
	HugeMessageTokens int `env:"COMPACTPG_HUGE_MESSAGE_TOKENS"`

	// TruncateRatio is the fraction of the context window the truncation
	// fallback reduces the history to when summarization is unavailable or
	// insufficient.
	// Default: 0.5
	TruncateRatio float64 `env:"COMPACTPG_TRUNCATE_RATIO"`

	// SummarizerModel is the model used for summarization. Using a
	// faster/cheaper model is recommended.
	// Default: "claude-3-5-haiku-20241022"
	SummarizerModel string `env:"COMPACTPG_SUMMARIZER_MODEL"`

	// SummarizerMaxTokens is the maximum tokens for the summarization
	// response.
	// Default: 4096
	SummarizerMaxTokens int `env:"COMPACTPG_SUMMARIZER_MAX_TOKENS"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Trigger:             DefaultTrigger,
		MaxContextTokens:    DefaultMaxContextTokens,
		ProtectedTokens:     DefaultProtectedTokens,
		PreserveLastN:       DefaultPreserveLastN,
		HugeMessageTokens:   DefaultHugeMessageTokens,
		TruncateRatio:       DefaultTruncateRatio,
		SummarizerModel:     DefaultSummarizerModel,
		SummarizerMaxTokens: DefaultSummarizerMaxTokens,
	}
}

// ConfigFromEnv returns the default configuration overridden by any
// COMPACTPG_* environment variables.
func ConfigFromEnv() (*Config, error) {
	cfg := DefaultConfig()
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyDefaults fills in zero values with defaults.
func (c *Config) ApplyDefaults() {
	if c.Trigger == 0 {
		c.Trigger = DefaultTrigger
	}
	if c.MaxContextTokens == 0 {
		c.MaxContextTokens = DefaultMaxContextTokens
	}
	if c.ProtectedTokens == 0 {
		c.ProtectedTokens = DefaultProtectedTokens
	}
	if c.PreserveLastN == 0 {
		c.PreserveLastN = DefaultPreserveLastN
	}
	if c.HugeMessageTokens == 0 {
		c.HugeMessageTokens = DefaultHugeMessageTokens
	}
	if c.TruncateRatio == 0 {
		c.TruncateRatio = DefaultTruncateRatio
	}
	if c.SummarizerModel == "" {
		c.SummarizerModel = DefaultSummarizerModel
	}
	if c.SummarizerMaxTokens == 0 {
		c.SummarizerMaxTokens = DefaultSummarizerMaxTokens
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.Trigger <= 0 || c.Trigger > 1.0 {
		return fmt.Errorf("%w: trigger must be between 0 and 1, got %f", ErrInvalidConfig, c.Trigger)
	}
	if c.MaxContextTokens <= 0 {
		return fmt.Errorf("%w: max_context_tokens must be positive, got %d", ErrInvalidConfig, c.MaxContextTokens)
	}
	if c.ProtectedTokens < 0 {
		return fmt.Errorf("%w: protected_tokens must be non-negative, got %d", ErrInvalidConfig, c.ProtectedTokens)
	}
	if c.PreserveLastN < 0 {
		return fmt.Errorf("%w: preserve_last_n must be non-negative, got %d", ErrInvalidConfig, c.PreserveLastN)
	}
	if c.HugeMessageTokens <= 0 {
		return fmt.Errorf("%w: huge_message_tokens must be positive, got %d", ErrInvalidConfig, c.HugeMessageTokens)
	}
	if c.TruncateRatio <= 0 || c.TruncateRatio > 1.0 {
		return fmt.Errorf("%w: truncate_ratio must be between 0 and 1, got %f", ErrInvalidConfig, c.TruncateRatio)
	}
	if c.SummarizerMaxTokens <= 0 {
		return fmt.Errorf("%w: summarizer_max_tokens must be positive, got %d", ErrInvalidConfig, c.SummarizerMaxTokens)
	}
	return nil
}

// TriggerThreshold returns the absolute token count that triggers compaction.
func (c *Config) TriggerThreshold() int {
	return int(float64(c.MaxContextTokens) * c.Trigger)
}

// TruncateTarget returns the token budget the truncation fallback enforces.
func (c *Config) TruncateTarget() int {
	return int(float64(c.MaxContextTokens) * c.TruncateRatio)
}
