package hooks

import (
	"context"
	"log"

	"github.com/google/uuid"

	"github.com/youssefsiam38/compactpg/compaction"
	"github.com/youssefsiam38/compactpg/types"
)

// LoggingHooks provides built-in logging hooks for observability.
type LoggingHooks struct {
	logger *log.Logger
}

// NewLoggingHooks creates logging hooks with the provided logger.
func NewLoggingHooks(logger *log.Logger) *LoggingHooks {
	return &LoggingHooks{logger: logger}
}

// DefaultLoggingHooks creates logging hooks with the default logger.
func DefaultLoggingHooks() *LoggingHooks {
	return &LoggingHooks{logger: log.Default()}
}

// Register installs the logging hooks into a registry.
func (h *LoggingHooks) Register(r *Registry) {
	r.OnCompactionRequested(h.CompactionRequested)
	r.OnBeforeCompaction(h.BeforeCompaction)
	r.OnAfterCompaction(h.AfterCompaction)
}

// CompactionRequested logs a delayed-compaction request.
func (h *LoggingHooks) CompactionRequested(sessionID uuid.UUID) {
	h.logger.Printf("[CompactPG] Delayed compaction requested for session %s", sessionID)
}

// BeforeCompaction logs the start of a compaction pass.
func (h *LoggingHooks) BeforeCompaction(ctx context.Context, sessionID uuid.UUID, messages []*types.Message) error {
	h.logger.Printf("[CompactPG] Starting compaction for session %s (%d messages, ~%d tokens)",
		sessionID, len(messages), compaction.SumMessageTokens(messages))
	return nil
}

// AfterCompaction logs the outcome of a compaction pass.
func (h *LoggingHooks) AfterCompaction(ctx context.Context, sessionID uuid.UUID, result *compaction.Result) error {
	if result == nil {
		h.logger.Printf("[CompactPG] Compaction not needed for session %s", sessionID)
		return nil
	}

	reduction := float64(0)
	if result.OriginalTokens > 0 {
		reduction = float64(result.OriginalTokens-result.CompactedTokens) / float64(result.OriginalTokens) * 100
	}
	h.logger.Printf("[CompactPG] Compaction complete for session %s: %d → %d tokens (%.1f%% reduction, %d messages removed, strategy: %s)",
		sessionID, result.OriginalTokens, result.CompactedTokens, reduction, result.MessagesRemoved, result.Strategy)
	return nil
}
