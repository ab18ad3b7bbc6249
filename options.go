package compactpg

import (
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/google/uuid"

	"github.com/youssefsiam38/compactpg/compaction"
	"github.com/youssefsiam38/compactpg/hooks"
	"github.com/youssefsiam38/compactpg/types"
)

// engineConfig collects the options applied at construction.
type engineConfig struct {
	sessionID     uuid.UUID
	config        *compaction.Config
	logger        compaction.Logger
	summarize     compaction.SummarizeFunc
	pending       compaction.PendingToolCalls
	systemPrompt  string
	tools         []types.ToolDefinition
	contextLength func() int
	hooks         *hooks.Registry
	anthropic     *anthropic.Client
}

// Option is a functional option for configuring an Engine.
type Option func(*engineConfig) error

// WithSessionID sets the session identifier the engine reports in logs,
// hooks, and errors. A random one is generated when unset.
func WithSessionID(id uuid.UUID) Option {
	return func(c *engineConfig) error {
		c.sessionID = id
		return nil
	}
}

// WithConfig sets the compaction configuration. Zero fields are filled
// with defaults.
func WithConfig(cfg *compaction.Config) Option {
	return func(c *engineConfig) error {
		c.config = cfg
		return nil
	}
}

// WithLogger sets the logger used by all engine components.
func WithLogger(logger compaction.Logger) Option {
	return func(c *engineConfig) error {
		c.logger = logger
		return nil
	}
}

// WithSummarizer sets the summarization function invoked when the eligible
// region is folded. Without one, the engine degrades to truncation only.
func WithSummarizer(fn compaction.SummarizeFunc) Option {
	return func(c *engineConfig) error {
		c.summarize = fn
		return nil
	}
}

// WithAnthropicSummarizer wires a Claude-backed summarizer using the
// configured summarizer model.
func WithAnthropicSummarizer(client *anthropic.Client) Option {
	return func(c *engineConfig) error {
		c.anthropic = client
		return nil
	}
}

// WithPendingToolCalls installs the runtime predicate the delayed
// compaction gate consults before allowing a compaction pass.
func WithPendingToolCalls(pending compaction.PendingToolCalls) Option {
	return func(c *engineConfig) error {
		c.pending = pending
		return nil
	}
}

// WithSystemPrompt sets the system prompt accounted for in the static
// context overhead.
func WithSystemPrompt(prompt string) Option {
	return func(c *engineConfig) error {
		c.systemPrompt = prompt
		return nil
	}
}

// WithToolDefinitions sets the tool/MCP schema descriptors accounted for
// in the static context overhead.
func WithToolDefinitions(tools []types.ToolDefinition) Option {
	return func(c *engineConfig) error {
		c.tools = tools
		return nil
	}
}

// WithModelContextLength installs a dynamic source for the model context
// length, owned by the model configuration loader.
func WithModelContextLength(fn func() int) Option {
	return func(c *engineConfig) error {
		c.contextLength = fn
		return nil
	}
}

// WithHooks installs an observability hook registry.
func WithHooks(registry *hooks.Registry) Option {
	return func(c *engineConfig) error {
		c.hooks = registry
		return nil
	}
}
