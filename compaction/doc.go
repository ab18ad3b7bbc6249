// Package compaction keeps a growing, tool-call-laden conversation history
// inside a bounded token budget while preserving the structural invariants
// model providers enforce.
//
// The engine is eviction-driven: new model output is merged into the running
// history by the Accumulator, which deduplicates by content hash and filters
// vacuous fragments. When the estimated token cost of the history plus the
// static context overhead (system prompt and tool schemas) crosses the
// configured trigger, the Processor splits the history into a protected tail
// and an eligible middle, folds the middle into a single synthetic summary
// message, and falls back to hard truncation when summarization is
// unavailable or insufficient.
//
// # Invariants
//
// Three invariants hold through every pass:
//
//   - Every tool call in the surviving history has exactly one matching tool
//     return, and vice versa. Messages whose pairing is broken are dropped
//     in full (PruneInterruptedToolCalls).
//
//   - The final message of an accumulation pass is never dropped, even when
//     its hash matches an already-compacted original. Generation continues
//     from the latest turn, so losing it breaks the provider contract.
//
//   - Truncation always retains the first message, for any budget.
//
// # Timing
//
// Compaction must not run while a tool call emitted in the current turn is
// still awaiting its return. The DelayedCompactionGate is a per-instance
// request/check latch: a request survives until a check observes no pending
// tool calls, at which point the caller may run Process safely.
//
// # Token counting
//
// Token costs are estimated with a cheap, deterministic length heuristic
// (EstimateTokenCount). Precision is not a goal; monotonicity and cheapness
// are. The heuristic never returns zero.
package compaction
