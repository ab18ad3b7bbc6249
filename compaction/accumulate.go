package compaction

import (
	"github.com/youssefsiam38/compactpg/types"
)

// Accumulator merges newly produced messages into the running history. It
// deduplicates by content hash, suppresses originals that were already
// folded into a summary, and filters vacuous content, while never dropping
// the final turn: generation continues from the latest message, so the
// provider contract requires it to survive every pass.
type Accumulator struct {
	ledger *Ledger
	logger Logger
}

// NewAccumulator creates an accumulator backed by the given ledger.
func NewAccumulator(ledger *Ledger, logger Logger) *Accumulator {
	if ledger == nil {
		ledger = NewLedger()
	}
	if logger == nil {
		logger = noopLogger{}
	}
	return &Accumulator{ledger: ledger, logger: logger}
}

// Accumulate concatenates existing history with newly produced messages,
// drops vacuous and duplicate content, and prunes broken tool pairs. The
// last message of the combined sequence is always retained, even when its
// hash duplicates an earlier entry or is already in the compacted ledger.
func (a *Accumulator) Accumulate(existing, produced []*types.Message) []*types.Message {
	combined := make([]*types.Message, 0, len(existing)+len(produced))
	for _, msg := range existing {
		if msg != nil {
			combined = append(combined, msg)
		}
	}
	for _, msg := range produced {
		if msg != nil {
			combined = append(combined, msg)
		}
	}
	if len(combined) == 0 {
		return combined
	}

	out := make([]*types.Message, 0, len(combined))
	seen := make(map[MessageHash]struct{}, len(combined))
	dropped := 0

	for i, msg := range combined {
		last := i == len(combined)-1

		// An empty thinking part with nothing else in the turn adds token
		// cost without value. Mixed-content messages are kept.
		if !last && isVacuousThinking(msg) {
			dropped++
			continue
		}

		h := HashMessage(msg)
		if !last {
			if _, dup := seen[h]; dup {
				dropped++
				continue
			}
			if a.ledger.Contains(h) {
				dropped++
				continue
			}
		}
		seen[h] = struct{}{}
		out = append(out, msg)
	}

	if dropped > 0 {
		a.logger.Debug("accumulation dropped messages",
			"dropped", dropped,
			"kept", len(out),
		)
	}

	return PruneInterruptedToolCalls(out)
}

// isVacuousThinking reports whether the message consists of exactly one
// empty thinking part.
func isVacuousThinking(msg *types.Message) bool {
	return msg != nil &&
		len(msg.Parts) == 1 &&
		msg.Parts[0].Type == types.PartTypeThinking &&
		msg.Parts[0].Text == ""
}
