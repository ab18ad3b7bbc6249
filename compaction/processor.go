package compaction

import (
	"context"
	"time"

	"github.com/youssefsiam38/compactpg/types"
)

// Strategy labels the mechanism a processing pass used to get back under
// budget.
type Strategy string

const (
	// StrategySummarization folded the eligible region into a synthetic
	// summary message.
	StrategySummarization Strategy = "summarization"

	// StrategyTruncation dropped the oldest non-protected turns outright.
	StrategyTruncation Strategy = "truncation"
)

// Result contains the outcome of a compaction pass.
type Result struct {
	// Strategy is the mechanism that produced the final history.
	Strategy Strategy

	// OriginalTokens is the estimated history token count before the pass.
	OriginalTokens int

	// CompactedTokens is the estimated history token count after the pass.
	CompactedTokens int

	// OverheadTokens is the static context overhead reserved alongside the
	// history (system prompt plus tool schemas).
	OverheadTokens int

	// MessagesRemoved is the net change in message count.
	MessagesRemoved int

	// SummaryCreated indicates whether a synthetic summary message was
	// produced.
	SummaryCreated bool

	// Duration is how long the pass took.
	Duration time.Duration
}

// Processor is the orchestration entry point: it decides whether the
// history fits the model budget and, when it does not, drives the
// split/summarize/truncate pipeline.
type Processor struct {
	config        *Config
	strategy      *SummarizationStrategy
	overhead      *OverheadEstimator
	contextLength func() int
	logger        Logger
}

// NewProcessor creates a processor. overhead may be nil when no system
// prompt or tool schemas are in play.
func NewProcessor(cfg *Config, ledger *Ledger, summarize SummarizeFunc, overhead *OverheadEstimator, logger Logger) *Processor {
	if cfg == nil {
		cfg = DefaultConfig()
	} else {
		cfg.ApplyDefaults()
	}
	if logger == nil {
		logger = noopLogger{}
	}
	return &Processor{
		config:   cfg,
		strategy: NewSummarizationStrategy(summarize, ledger, logger),
		overhead: overhead,
		logger:   logger,
	}
}

// SetContextLengthFunc installs a dynamic source for the model context
// length, owned by the model configuration loader. When unset, the
// configured MaxContextTokens is used.
func (p *Processor) SetContextLengthFunc(fn func() int) {
	p.contextLength = fn
}

// Config returns the processor's configuration.
func (p *Processor) Config() *Config {
	return p.config
}

// EffectiveContextLength returns the model context length in effect: the
// dynamic source when one is installed and returns a positive value,
// otherwise the configured MaxContextTokens.
func (p *Processor) EffectiveContextLength() int {
	return p.effectiveContextLength()
}

// NeedsCompaction reports whether the history plus static overhead exceeds
// the trigger threshold.
func (p *Processor) NeedsCompaction(messages []*types.Message) bool {
	total := SumMessageTokens(messages) + p.overheadTokens()
	return total > p.triggerBudget()
}

// Process returns a history guaranteed to respect the per-message ceiling
// and tool-pair integrity, compacted when the token budget demands it.
//
// Under budget, the input passes through FilterHugeMessages unchanged and
// the returned Result is nil. Over budget, the eligible middle is folded
// into a summary; if that is unavailable or insufficient, the truncation
// fallback enforces the budget deterministically. The input slice is never
// mutated; callers swap the returned history in atomically.
func (p *Processor) Process(ctx context.Context, messages []*types.Message) ([]*types.Message, *Result, error) {
	start := time.Now()
	overhead := p.overheadTokens()
	original := SumMessageTokens(messages)

	if original+overhead <= p.triggerBudget() {
		return FilterHugeMessages(messages, p.config.HugeMessageTokens), nil, nil
	}

	p.logger.Info("history over budget, compacting",
		"history_tokens", original,
		"overhead_tokens", overhead,
		"budget", p.triggerBudget(),
		"messages", len(messages),
	)

	toSummarize, protected := SplitForProtectedSummarization(messages, p.config)
	compacted, folded, sumErr := p.strategy.Summarize(ctx, toSummarize, protected, true)

	result := &Result{
		Strategy:       StrategySummarization,
		OriginalTokens: original,
		OverheadTokens: overhead,
		SummaryCreated: len(folded) > 0,
	}

	if len(folded) == 0 {
		// Nothing was summarized; truncating the protected remainder would
		// silently lose the eligible middle, so fall back on the full input.
		compacted = Truncate(messages, p.truncateBudget(overhead))
		result.Strategy = StrategyTruncation
		result.SummaryCreated = false
		if sumErr != nil {
			p.logger.Warn("summarization unavailable, truncated instead", "error", sumErr)
		}
	} else if SumMessageTokens(compacted)+overhead > p.triggerBudget() {
		compacted = Truncate(compacted, p.truncateBudget(overhead))
		result.Strategy = StrategyTruncation
	}

	final := FilterHugeMessages(compacted, p.config.HugeMessageTokens)

	result.CompactedTokens = SumMessageTokens(final)
	result.MessagesRemoved = len(messages) - len(final)
	result.Duration = time.Since(start)

	p.logger.Info("compaction complete",
		"strategy", result.Strategy,
		"original_tokens", result.OriginalTokens,
		"compacted_tokens", result.CompactedTokens,
		"messages_removed", result.MessagesRemoved,
		"summary_created", result.SummaryCreated,
		"duration_ms", result.Duration.Milliseconds(),
	)

	return final, result, nil
}

// Compact performs an aggressive manual compaction: everything except the
// anchor and the final turn is offered for summarization, without
// reserving the recency window. Unlike Process, a summarization failure is
// reported to the caller and the history is returned unchanged.
func (p *Processor) Compact(ctx context.Context, messages []*types.Message) ([]*types.Message, *Result, error) {
	start := time.Now()
	original := SumMessageTokens(messages)

	aggressive := *p.config
	aggressive.ProtectedTokens = 0
	aggressive.PreserveLastN = 1 // the final turn still must survive

	toSummarize, protected := SplitForProtectedSummarization(messages, &aggressive)
	if len(toSummarize) == 0 {
		return messages, nil, WrapError("Compact", ErrNoMessagesToCompact)
	}

	compacted, folded, err := p.strategy.Summarize(ctx, toSummarize, protected, false)
	if err != nil {
		return messages, nil, err
	}

	final := FilterHugeMessages(compacted, p.config.HugeMessageTokens)
	result := &Result{
		Strategy:        StrategySummarization,
		OriginalTokens:  original,
		CompactedTokens: SumMessageTokens(final),
		OverheadTokens:  p.overheadTokens(),
		MessagesRemoved: len(messages) - len(final),
		SummaryCreated:  len(folded) > 0,
		Duration:        time.Since(start),
	}
	return final, result, nil
}

func (p *Processor) overheadTokens() int {
	if p.overhead == nil {
		return 0
	}
	return p.overhead.Estimate()
}

func (p *Processor) effectiveContextLength() int {
	if p.contextLength != nil {
		if n := p.contextLength(); n > 0 {
			return n
		}
	}
	return p.config.MaxContextTokens
}

func (p *Processor) triggerBudget() int {
	return int(float64(p.effectiveContextLength()) * p.config.Trigger)
}

func (p *Processor) truncateBudget(overhead int) int {
	return int(float64(p.effectiveContextLength())*p.config.TruncateRatio) - overhead
}
