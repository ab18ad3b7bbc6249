package compaction

import (
	"testing"

	"github.com/youssefsiam38/compactpg/types"
)

func TestAccumulateAppends(t *testing.T) {
	a := NewAccumulator(NewLedger(), nil)

	existing := []*types.Message{
		types.NewRequest("first"),
		types.NewResponse("second"),
	}
	produced := []*types.Message{types.NewResponse("third")}

	got := a.Accumulate(existing, produced)
	if len(got) != 3 {
		t.Fatalf("got %d messages, want 3", len(got))
	}
	if got[2] != produced[0] {
		t.Error("new message should be last")
	}
}

func TestAccumulateEmptyProduced(t *testing.T) {
	a := NewAccumulator(NewLedger(), nil)

	existing := []*types.Message{
		types.NewRequest("only"),
	}
	got := a.Accumulate(existing, nil)
	if len(got) != 1 || got[0] != existing[0] {
		t.Error("empty input should return existing history unchanged")
	}
}

func TestAccumulateSingleMessagePreserved(t *testing.T) {
	ledger := NewLedger()
	a := NewAccumulator(ledger, nil)

	msg := types.NewRequest("lonely")
	ledger.Add(HashMessage(msg)) // even marked compacted

	got := a.Accumulate(nil, []*types.Message{msg})
	if len(got) != 1 || got[0] != msg {
		t.Error("single-message history must always be preserved")
	}
}

func TestAccumulatePassLocalDedup(t *testing.T) {
	a := NewAccumulator(NewLedger(), nil)

	dup := types.NewRequest("repeated")
	dupAgain := types.NewRequest("repeated") // same content, different ID
	tail := types.NewResponse("tail")

	got := a.Accumulate([]*types.Message{dup}, []*types.Message{dupAgain, tail})
	if len(got) != 2 {
		t.Fatalf("got %d messages, want 2", len(got))
	}
	if got[0] != dup || got[1] != tail {
		t.Error("duplicate should be dropped, earlier occurrence kept")
	}
}

func TestAccumulateCompactedSuppressed(t *testing.T) {
	ledger := NewLedger()
	a := NewAccumulator(ledger, nil)

	old := types.NewRequest("already summarized")
	ledger.Add(HashMessage(old))
	tail := types.NewResponse("tail")

	got := a.Accumulate([]*types.Message{old}, []*types.Message{tail})
	if len(got) != 1 || got[0] != tail {
		t.Error("compacted original should not be resurrected")
	}
}

func TestAccumulateLastMessageInvariant(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*Ledger, *types.Message)
	}{
		{
			name:  "hash already compacted",
			setup: func(l *Ledger, m *types.Message) { l.Add(HashMessage(m)) },
		},
		{
			name:  "plain duplicate",
			setup: func(l *Ledger, m *types.Message) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := NewLedger()
			a := NewAccumulator(ledger, nil)

			existing := []*types.Message{
				types.NewRequest("anchor"),
				types.NewResponse("final content"),
			}
			// Same content as the existing tail.
			final := types.NewResponse("final content")
			tt.setup(ledger, final)

			got := a.Accumulate(existing, []*types.Message{final})
			if len(got) == 0 {
				t.Fatal("history must not be empty")
			}
			if got[len(got)-1] != final {
				t.Error("the final turn must always survive accumulation")
			}
		})
	}
}

func TestAccumulateDropsVacuousThinking(t *testing.T) {
	a := NewAccumulator(NewLedger(), nil)

	vacuous := &types.Message{
		Role:  types.RoleResponse,
		Parts: []types.Part{types.NewThinkingPart("")},
	}
	mixed := &types.Message{
		Role: types.RoleResponse,
		Parts: []types.Part{
			types.NewThinkingPart(""),
			types.NewTextPart("real content"),
		},
	}
	tail := types.NewResponse("tail")

	got := a.Accumulate(nil, []*types.Message{vacuous, mixed, tail})
	if len(got) != 2 {
		t.Fatalf("got %d messages, want 2", len(got))
	}
	if got[0] != mixed {
		t.Error("mixed thinking/text message must be kept")
	}
}

func TestAccumulateSkipsNil(t *testing.T) {
	a := NewAccumulator(NewLedger(), nil)

	tail := types.NewResponse("tail")
	got := a.Accumulate([]*types.Message{nil}, []*types.Message{nil, tail})
	if len(got) != 1 || got[0] != tail {
		t.Error("nil messages should be dropped")
	}
}

func TestAccumulatePrunesBrokenPairs(t *testing.T) {
	a := NewAccumulator(NewLedger(), nil)

	broken := &types.Message{
		Role:  types.RoleResponse,
		Parts: []types.Part{types.NewToolCallPart("c9", "bash", nil)},
	}
	tail := types.NewResponse("tail")

	got := a.Accumulate([]*types.Message{broken}, []*types.Message{tail})
	if len(got) != 1 || got[0] != tail {
		t.Error("message with unreturned tool call should be pruned")
	}
}
