package compaction

// PendingToolCalls reports whether a tool call emitted in the current turn
// is still awaiting its return. The predicate is owned by the broader
// agent runtime.
type PendingToolCalls func() bool

// DelayedCompactionGate coordinates compaction timing with in-flight tool
// calls. It is a two-state request/check latch, not a lock: nothing
// blocks, and the caller's scheduling loop polls ShouldAttempt at safe
// points such as turn boundaries.
//
// The gate is instance-scoped. Each session owns its own gate; two
// sessions must never observe or mutate each other's state.
type DelayedCompactionGate struct {
	requested bool
	pending   PendingToolCalls
	logger    Logger
}

// NewDelayedCompactionGate creates a gate in the idle state. pending may
// be nil, in which case no tool call is ever considered in flight.
func NewDelayedCompactionGate(pending PendingToolCalls, logger Logger) *DelayedCompactionGate {
	if logger == nil {
		logger = noopLogger{}
	}
	return &DelayedCompactionGate{pending: pending, logger: logger}
}

// Request arms the gate. It is idempotent with respect to state, but the
// notification fires on every call so callers can observe repeated
// requests.
func (g *DelayedCompactionGate) Request() {
	g.logger.Info("delayed compaction requested", "already_requested", g.requested)
	g.requested = true
}

// Requested reports whether a compaction request is armed.
func (g *DelayedCompactionGate) Requested() bool {
	return g.requested
}

// ShouldAttempt reports whether the caller may run compaction now. If no
// request is armed it returns false with no side effect. If a request is
// armed but a tool call is still pending, it returns false and keeps the
// request armed; the request must survive until it is actually safe to
// act. Only when no tool call is pending does it disarm the gate and
// return true.
func (g *DelayedCompactionGate) ShouldAttempt() bool {
	if !g.requested {
		return false
	}
	if g.pending != nil && g.pending() {
		g.logger.Debug("compaction deferred, tool calls still pending")
		return false
	}
	g.requested = false
	return true
}
