package compactpg

import (
	"context"

	"github.com/google/uuid"

	"github.com/youssefsiam38/compactpg/compaction"
	"github.com/youssefsiam38/compactpg/hooks"
	"github.com/youssefsiam38/compactpg/types"
)

// Engine owns the conversation state of a single agent session: the
// message history, the ledger of already-compacted message hashes, and
// the delayed-compaction gate. All state is instance-scoped; two engines
// never share anything.
//
// The engine is synchronous, single-threaded logic over in-memory state.
// It performs no internal locking; each Engine must be driven from one
// goroutine (or externally serialized).
type Engine struct {
	sessionID uuid.UUID

	history []*types.Message
	ledger  *compaction.Ledger

	accumulator *compaction.Accumulator
	processor   *compaction.Processor
	gate        *compaction.DelayedCompactionGate
	overhead    *compaction.OverheadEstimator

	hooks  *hooks.Registry
	logger compaction.Logger
}

// Stats describes the current state of an engine's context window.
type Stats struct {
	SessionID       uuid.UUID
	TotalMessages   int
	TotalTokens     int
	OverheadTokens  int
	UsagePercent    float64
	CompactedHashes int
	NeedsCompaction bool
}

// New creates an Engine with the given options.
func New(opts ...Option) (*Engine, error) {
	ec := &engineConfig{}
	for _, opt := range opts {
		if err := opt(ec); err != nil {
			return nil, err
		}
	}

	if ec.config == nil {
		ec.config = compaction.DefaultConfig()
	} else {
		ec.config.ApplyDefaults()
	}
	if err := ec.config.Validate(); err != nil {
		return nil, err
	}
	if ec.logger == nil {
		ec.logger = compaction.NopLogger()
	}
	if ec.sessionID == uuid.Nil {
		ec.sessionID = uuid.New()
	}
	if ec.hooks == nil {
		ec.hooks = hooks.NewRegistry()
	}
	if ec.summarize == nil && ec.anthropic != nil {
		summarizer := compaction.NewSummarizer(ec.anthropic, ec.config.SummarizerModel, ec.config.SummarizerMaxTokens)
		ec.summarize = summarizer.Summarize
	}

	ledger := compaction.NewLedger()
	overhead := compaction.NewOverheadEstimator(ec.systemPrompt, ec.tools)
	processor := compaction.NewProcessor(ec.config, ledger, ec.summarize, overhead, ec.logger)
	if ec.contextLength != nil {
		processor.SetContextLengthFunc(ec.contextLength)
	}

	return &Engine{
		sessionID:   ec.sessionID,
		ledger:      ledger,
		accumulator: compaction.NewAccumulator(ledger, ec.logger),
		processor:   processor,
		gate:        compaction.NewDelayedCompactionGate(ec.pending, ec.logger),
		overhead:    overhead,
		hooks:       ec.hooks,
		logger:      ec.logger,
	}, nil
}

// SessionID returns the engine's session identifier.
func (e *Engine) SessionID() uuid.UUID {
	return e.sessionID
}

// Accumulate merges newly produced messages into the running history,
// deduplicating against both this pass and previously compacted
// originals. The final turn always survives. The merged history becomes
// the new authoritative state and is also returned.
func (e *Engine) Accumulate(produced []*types.Message) []*types.Message {
	e.history = e.accumulator.Accumulate(e.history, produced)
	return e.history
}

// Process runs a compaction pass over the current history if the token
// budget demands one, swapping the result in as the new authoritative
// history. The returned Result is nil when no compaction was needed.
// Hooks fire only around an actual compaction pass; an under-budget call
// is invisible to them.
func (e *Engine) Process(ctx context.Context) (*compaction.Result, error) {
	compacting := e.processor.NeedsCompaction(e.history)
	if compacting {
		if err := e.hooks.TriggerBeforeCompaction(ctx, e.sessionID, e.history); err != nil {
			return nil, compaction.NewCompactionError("Process", err).WithSession(e.sessionID)
		}
	}

	processed, result, err := e.processor.Process(ctx, e.history)
	if err != nil {
		return nil, compaction.NewCompactionError("Process", err).WithSession(e.sessionID)
	}
	e.history = processed

	if compacting {
		if err := e.hooks.TriggerAfterCompaction(ctx, e.sessionID, result); err != nil {
			return result, compaction.NewCompactionError("Process", err).WithSession(e.sessionID)
		}
	}
	return result, nil
}

// Compact performs an aggressive manual compaction regardless of the
// current budget, summarizing everything except the anchor and the final
// turn. Unlike Process, summarization failure is reported and leaves the
// history unchanged.
func (e *Engine) Compact(ctx context.Context) (*compaction.Result, error) {
	if err := e.hooks.TriggerBeforeCompaction(ctx, e.sessionID, e.history); err != nil {
		return nil, compaction.NewCompactionError("Compact", err).WithSession(e.sessionID)
	}

	compacted, result, err := e.processor.Compact(ctx, e.history)
	if err != nil {
		return nil, err
	}
	e.history = compacted

	if err := e.hooks.TriggerAfterCompaction(ctx, e.sessionID, result); err != nil {
		return result, compaction.NewCompactionError("Compact", err).WithSession(e.sessionID)
	}
	return result, nil
}

// NeedsCompaction reports whether the history plus static overhead is over
// the trigger threshold.
func (e *Engine) NeedsCompaction() bool {
	return e.processor.NeedsCompaction(e.history)
}

// Stats returns statistics about the engine's context usage.
func (e *Engine) Stats() *Stats {
	total := compaction.SumMessageTokens(e.history)
	overhead := e.overhead.Estimate()
	return &Stats{
		SessionID:       e.sessionID,
		TotalMessages:   len(e.history),
		TotalTokens:     total,
		OverheadTokens:  overhead,
		UsagePercent:    float64(total+overhead) / float64(e.processor.EffectiveContextLength()),
		CompactedHashes: e.ledger.Len(),
		NeedsCompaction: e.processor.NeedsCompaction(e.history),
	}
}

// RequestDelayedCompaction arms the delayed-compaction gate. Safe to call
// repeatedly; every call fires the request notification.
func (e *Engine) RequestDelayedCompaction() {
	e.gate.Request()
	e.hooks.TriggerCompactionRequested(e.sessionID)
}

// ShouldAttemptDelayedCompaction reports whether an armed compaction
// request may run now. While tool calls are pending the request stays
// armed; once none are, the gate disarms and the caller may invoke
// Process safely.
func (e *Engine) ShouldAttemptDelayedCompaction() bool {
	return e.gate.ShouldAttempt()
}

// GetMessageHistory returns a copy of the current history.
func (e *Engine) GetMessageHistory() []*types.Message {
	out := make([]*types.Message, len(e.history))
	copy(out, e.history)
	return out
}

// SetMessageHistory replaces the history wholesale. Used by
// session-switching code to restore a snapshot.
func (e *Engine) SetMessageHistory(messages []*types.Message) {
	e.history = make([]*types.Message, len(messages))
	copy(e.history, messages)
}

// AppendToMessageHistory appends a single message without the
// accumulator's filtering.
func (e *Engine) AppendToMessageHistory(msg *types.Message) {
	if msg == nil {
		return
	}
	e.history = append(e.history, msg)
}

// ExtendMessageHistory appends messages without the accumulator's
// filtering.
func (e *Engine) ExtendMessageHistory(messages []*types.Message) {
	for _, msg := range messages {
		e.AppendToMessageHistory(msg)
	}
}

// ClearMessageHistory removes all messages.
func (e *Engine) ClearMessageHistory() {
	e.history = nil
}

// GetCompactedMessageHashes returns the compacted-hash ledger as a sorted
// slice, serializable by an external session manager.
func (e *Engine) GetCompactedMessageHashes() []uint64 {
	return e.ledger.Snapshot()
}

// AddCompactedMessageHash records a hash in the ledger. Zero (the invalid
// sentinel) is ignored.
func (e *Engine) AddCompactedMessageHash(h uint64) {
	e.ledger.Add(compaction.MessageHash(h))
}
