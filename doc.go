// Package compactpg provides a content-addressed, eviction-driven context
// manager for AI agent conversations.
//
// CompactPG is opinionated (Anthropic for summarization, PostgreSQL for
// snapshots) and keeps an ever-growing, tool-call-laden conversation
// history inside a bounded token budget while preserving the structural
// invariants model providers enforce: every tool call keeps exactly one
// matching return, and the most recent turn never silently disappears.
//
// # Key Features
//
//   - Deduplicating accumulation of model output by content hash
//   - Eviction by summarization with a protected recency window
//   - Deterministic truncation fallback when summarization is unavailable
//   - Orphaned tool-call/return pruning
//   - A delayed-compaction gate that defers compaction past in-flight
//     tool calls
//   - Snapshot persistence and observability hooks
//
// # Quick Start
//
// Create an engine per conversation session:
//
//	client := anthropic.NewClient()
//	engine, err := compactpg.New(
//	    compactpg.WithAnthropicSummarizer(&client),
//	    compactpg.WithSystemPrompt("You are a helpful coding assistant"),
//	    compactpg.WithPendingToolCalls(runtime.HasPendingToolCalls),
//	)
//
// Merge new model output and compact when needed:
//
//	engine.Accumulate(newMessages)
//	engine.RequestDelayedCompaction()
//	if engine.ShouldAttemptDelayedCompaction() {
//	    result, _ := engine.Process(ctx)
//	    _ = result
//	}
//
// Each Engine owns its history exclusively. The engine itself performs no
// locking; callers that share an Engine across goroutines must serialize
// access themselves.
package compactpg
