package compaction

import (
	"context"
	"fmt"

	"github.com/youssefsiam38/compactpg/types"
)

// SummarizeFunc produces a single synthetic message that semantically
// compresses the given messages. It is an external model invocation; the
// engine only depends on this contract.
type SummarizeFunc func(ctx context.Context, messages []*types.Message) (*types.Message, error)

// SummarizationStrategy drives eviction-by-summarization of the eligible
// region. Originals folded into a summary are recorded in the ledger so
// the accumulator cannot resurrect them on a later pass.
type SummarizationStrategy struct {
	summarize SummarizeFunc
	ledger    *Ledger
	logger    Logger
}

// NewSummarizationStrategy creates a summarization strategy. summarize may
// be nil, in which case every call degrades to the no-op fast path and the
// caller is expected to escalate to truncation.
func NewSummarizationStrategy(summarize SummarizeFunc, ledger *Ledger, logger Logger) *SummarizationStrategy {
	if ledger == nil {
		ledger = NewLedger()
	}
	if logger == nil {
		logger = noopLogger{}
	}
	return &SummarizationStrategy{
		summarize: summarize,
		ledger:    ledger,
		logger:    logger,
	}
}

// Summarize folds toSummarize into one synthetic summary message and
// assembles the compacted history as anchor, summary, rest of protected.
// It returns the compacted history and the originals that were folded in.
//
// Failure never corrupts state: when the summarization call fails, is
// cancelled, or returns nothing usable, the protected history is returned
// unchanged with an empty summarized-source list and a non-nil error. The
// ledger is only updated on success. Escalating to the truncation fallback
// is the caller's responsibility.
//
// withProtection=false means the caller accepts summarizing without
// reserving the recency window; the assembly is identical, the flag only
// records intent for logging.
func (s *SummarizationStrategy) Summarize(ctx context.Context, toSummarize, protected []*types.Message, withProtection bool) ([]*types.Message, []*types.Message, error) {
	if len(toSummarize) == 0 {
		// Expected and common while the history is still short.
		return protected, nil, nil
	}

	if s.summarize == nil {
		return protected, nil, WrapError("Summarize", ErrNoSummarizer)
	}

	summary, err := s.summarize(ctx, toSummarize)
	if err != nil {
		s.logger.Warn("summarization call failed",
			"messages", len(toSummarize),
			"with_protection", withProtection,
			"error", err,
		)
		return protected, nil, WrapError("Summarize", fmt.Errorf("%w: %v", ErrSummarizationFailed, err))
	}
	if summary == nil || len(summary.Parts) == 0 {
		s.logger.Warn("summarization returned nothing usable",
			"messages", len(toSummarize),
		)
		return protected, nil, WrapError("Summarize", fmt.Errorf("%w: empty summary", ErrSummarizationFailed))
	}
	summary.IsSummary = true

	s.ledger.AddMessages(toSummarize)

	compacted := make([]*types.Message, 0, len(protected)+1)
	if len(protected) > 0 {
		compacted = append(compacted, protected[0])
		compacted = append(compacted, summary)
		compacted = append(compacted, protected[1:]...)
	} else {
		compacted = append(compacted, summary)
	}

	s.logger.Info("summarized eligible region",
		"folded", len(toSummarize),
		"protected", len(protected),
		"summary_tokens", EstimateMessageTokens(summary),
		"with_protection", withProtection,
	)

	return compacted, toSummarize, nil
}
