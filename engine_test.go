package compactpg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/youssefsiam38/compactpg/compaction"
	"github.com/youssefsiam38/compactpg/hooks"
	"github.com/youssefsiam38/compactpg/types"
)

func testEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	engine, err := New(opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return engine
}

func fillerMessages(n, tokens int) []*types.Message {
	msgs := make([]*types.Message, 0, n)
	for i := 0; i < n; i++ {
		role := types.RoleRequest
		if i%2 == 1 {
			role = types.RoleResponse
		}
		msgs = append(msgs, types.NewMessage(role, []types.Part{
			types.NewTextPart(fmt.Sprintf("%03d %s", i, strings.Repeat("x", tokens*3-4))),
		}))
	}
	return msgs
}

func TestNewDefaults(t *testing.T) {
	engine := testEngine(t)
	if engine.SessionID() == uuid.Nil {
		t.Error("a session ID should be generated")
	}
	if len(engine.GetMessageHistory()) != 0 {
		t.Error("a new engine starts with no history")
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := compaction.DefaultConfig()
	cfg.Trigger = 1.5
	if _, err := New(WithConfig(cfg)); !errors.Is(err, compaction.ErrInvalidConfig) {
		t.Errorf("err = %v, want ErrInvalidConfig", err)
	}
}

func TestHistoryAccessors(t *testing.T) {
	engine := testEngine(t)

	a := types.NewRequest("first")
	b := types.NewResponse("second")

	engine.AppendToMessageHistory(a)
	engine.AppendToMessageHistory(nil) // ignored
	engine.ExtendMessageHistory([]*types.Message{b})

	got := engine.GetMessageHistory()
	if len(got) != 2 || got[0] != a || got[1] != b {
		t.Fatalf("unexpected history: %d messages", len(got))
	}

	// The returned slice is a copy: mutating it must not corrupt state.
	got[0] = nil
	if engine.GetMessageHistory()[0] != a {
		t.Error("GetMessageHistory must return a copy")
	}

	engine.SetMessageHistory([]*types.Message{b})
	if h := engine.GetMessageHistory(); len(h) != 1 || h[0] != b {
		t.Error("SetMessageHistory should replace wholesale")
	}

	engine.ClearMessageHistory()
	if len(engine.GetMessageHistory()) != 0 {
		t.Error("ClearMessageHistory should empty the history")
	}
}

func TestCompactedHashRoundTrip(t *testing.T) {
	engine := testEngine(t)

	engine.AddCompactedMessageHash(42)
	engine.AddCompactedMessageHash(7)
	engine.AddCompactedMessageHash(0) // invalid sentinel, ignored

	hashes := engine.GetCompactedMessageHashes()
	if len(hashes) != 2 || hashes[0] != 7 || hashes[1] != 42 {
		t.Errorf("hashes = %v, want sorted [7 42]", hashes)
	}

	// Restoring into a fresh engine suppresses the matching messages.
	msg := types.NewRequest("already summarized")
	restored := testEngine(t)
	restored.AddCompactedMessageHash(uint64(compaction.HashMessage(msg)))
	history := restored.Accumulate([]*types.Message{msg, types.NewResponse("tail")})
	if len(history) != 1 {
		t.Errorf("got %d messages, want the ledgered one suppressed", len(history))
	}
}

func TestAccumulateThenProcess(t *testing.T) {
	cfg := compaction.DefaultConfig()
	cfg.MaxContextTokens = 2000
	cfg.ProtectedTokens = 300
	cfg.PreserveLastN = 4

	engine := testEngine(t,
		WithConfig(cfg),
		WithSummarizer(func(ctx context.Context, msgs []*types.Message) (*types.Message, error) {
			return types.NewResponse("condensed prior work"), nil
		}),
	)

	engine.Accumulate([]*types.Message{types.NewRequest("build the parser")})
	engine.Accumulate(fillerMessages(80, 50))
	if !engine.NeedsCompaction() {
		t.Fatal("history should be over budget")
	}

	result, err := engine.Process(context.Background())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result == nil || !result.SummaryCreated {
		t.Fatal("expected a summarization result")
	}
	if engine.NeedsCompaction() {
		t.Error("history should fit after compaction")
	}

	stats := engine.Stats()
	if stats.TotalMessages != len(engine.GetMessageHistory()) {
		t.Error("stats disagree with history length")
	}
	if stats.CompactedHashes == 0 {
		t.Error("summarized originals should appear in the ledger count")
	}
}

func TestProcessUnderBudgetIsNil(t *testing.T) {
	engine := testEngine(t)
	engine.Accumulate([]*types.Message{types.NewRequest("hi"), types.NewResponse("hello")})

	result, err := engine.Process(context.Background())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result != nil {
		t.Error("no compaction needed, result should be nil")
	}
}

func TestDelayedCompactionViaEngine(t *testing.T) {
	pending := true
	engine := testEngine(t, WithPendingToolCalls(func() bool { return pending }))

	if engine.ShouldAttemptDelayedCompaction() {
		t.Fatal("no request armed yet")
	}

	engine.RequestDelayedCompaction()
	if engine.ShouldAttemptDelayedCompaction() {
		t.Fatal("tool call pending, attempt must be deferred")
	}

	pending = false
	if !engine.ShouldAttemptDelayedCompaction() {
		t.Fatal("attempt should be granted once tool calls resolve")
	}
	if engine.ShouldAttemptDelayedCompaction() {
		t.Error("request already consumed")
	}
}

func TestDelayedCompactionIsPerEngine(t *testing.T) {
	a := testEngine(t)
	b := testEngine(t)

	a.RequestDelayedCompaction()
	if b.ShouldAttemptDelayedCompaction() {
		t.Error("request on one engine leaked into another")
	}
	if !a.ShouldAttemptDelayedCompaction() {
		t.Error("requesting engine should be granted")
	}
}

func TestEngineHooks(t *testing.T) {
	registry := hooks.NewRegistry()

	var requested, before, after int
	registry.OnCompactionRequested(func(sessionID uuid.UUID) {
		requested++
	})
	registry.OnBeforeCompaction(func(ctx context.Context, sessionID uuid.UUID, msgs []*types.Message) error {
		before++
		return nil
	})
	registry.OnAfterCompaction(func(ctx context.Context, sessionID uuid.UUID, result *compaction.Result) error {
		after++
		return nil
	})

	cfg := compaction.DefaultConfig()
	cfg.MaxContextTokens = 2000
	engine := testEngine(t,
		WithConfig(cfg),
		WithHooks(registry),
		WithSummarizer(func(ctx context.Context, msgs []*types.Message) (*types.Message, error) {
			return types.NewResponse("summary"), nil
		}),
	)

	engine.RequestDelayedCompaction()
	if requested != 1 {
		t.Errorf("requested hook fired %d times, want 1", requested)
	}

	engine.Accumulate(fillerMessages(80, 50))
	if _, err := engine.Process(context.Background()); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if before != 1 || after != 1 {
		t.Errorf("before=%d after=%d, want 1 each", before, after)
	}
}

func TestEngineHookErrorAborts(t *testing.T) {
	registry := hooks.NewRegistry()
	hookErr := errors.New("vetoed")
	registry.OnBeforeCompaction(func(ctx context.Context, sessionID uuid.UUID, msgs []*types.Message) error {
		return hookErr
	})

	cfg := compaction.DefaultConfig()
	cfg.MaxContextTokens = 2000
	engine := testEngine(t, WithConfig(cfg), WithHooks(registry))
	engine.Accumulate(fillerMessages(80, 50))

	_, err := engine.Process(context.Background())
	if !errors.Is(err, hookErr) {
		t.Fatalf("err = %v, want the hook error", err)
	}

	var cerr *compaction.CompactionError
	if !errors.As(err, &cerr) {
		t.Fatal("hook failures should carry session context")
	}
	if cerr.SessionID != engine.SessionID() {
		t.Error("error should name the failing session")
	}
}

func TestEngineHooksSilentWhenUnderBudget(t *testing.T) {
	registry := hooks.NewRegistry()
	var before, after int
	registry.OnBeforeCompaction(func(ctx context.Context, sessionID uuid.UUID, msgs []*types.Message) error {
		before++
		return nil
	})
	registry.OnAfterCompaction(func(ctx context.Context, sessionID uuid.UUID, result *compaction.Result) error {
		after++
		return nil
	})

	engine := testEngine(t, WithHooks(registry))
	engine.Accumulate([]*types.Message{types.NewRequest("hi"), types.NewResponse("hello")})

	result, err := engine.Process(context.Background())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result != nil {
		t.Fatal("no compaction expected")
	}
	if before != 0 || after != 0 {
		t.Errorf("before=%d after=%d, hooks must not fire for an under-budget pass", before, after)
	}
}

func TestStatsUsesDynamicContextLength(t *testing.T) {
	cfg := compaction.DefaultConfig()
	cfg.MaxContextTokens = 2000

	engine := testEngine(t,
		WithConfig(cfg),
		WithModelContextLength(func() int { return 1_000_000 }),
	)
	engine.Accumulate(fillerMessages(80, 50)) // ~4000 tokens

	stats := engine.Stats()
	if stats.NeedsCompaction {
		t.Fatal("history fits the dynamic context length")
	}
	if stats.UsagePercent >= 1 {
		t.Errorf("UsagePercent = %f, must agree with the dynamic context length", stats.UsagePercent)
	}
}

func TestToolPairSurvivesAccumulateAndProcess(t *testing.T) {
	cfg := compaction.DefaultConfig()
	cfg.MaxContextTokens = 2000
	cfg.PreserveLastN = 2

	engine := testEngine(t, WithConfig(cfg),
		WithSummarizer(func(ctx context.Context, msgs []*types.Message) (*types.Message, error) {
			return types.NewResponse("summary"), nil
		}),
	)

	engine.Accumulate(fillerMessages(80, 50))
	args := json.RawMessage(`{"cmd":"ls"}`)
	engine.Accumulate([]*types.Message{
		types.NewMessage(types.RoleResponse, []types.Part{types.NewToolCallPart("c1", "bash", args)}),
		types.NewMessage(types.RoleRequest, []types.Part{types.NewToolReturnPart("c1", "bash", "main.go")}),
	})

	if _, err := engine.Process(context.Background()); err != nil {
		t.Fatalf("Process: %v", err)
	}

	history := engine.GetMessageHistory()
	calls, returns := 0, 0
	for _, m := range history {
		for _, p := range m.Parts {
			switch p.Type {
			case types.PartTypeToolCall:
				calls++
			case types.PartTypeToolReturn:
				returns++
			}
		}
	}
	if calls != 1 || returns != 1 {
		t.Errorf("calls=%d returns=%d, want an intact pair", calls, returns)
	}
}
