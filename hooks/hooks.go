// Package hooks provides observability callbacks for the compaction
// engine.
package hooks

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/youssefsiam38/compactpg/compaction"
	"github.com/youssefsiam38/compactpg/types"
)

// CompactionRequestedHook is called each time a delayed compaction is
// requested, including repeated requests while one is already armed.
type CompactionRequestedHook func(sessionID uuid.UUID)

// BeforeCompactionHook is called before a compaction pass runs.
type BeforeCompactionHook func(ctx context.Context, sessionID uuid.UUID, messages []*types.Message) error

// AfterCompactionHook is called after a compaction pass produced a result.
type AfterCompactionHook func(ctx context.Context, sessionID uuid.UUID, result *compaction.Result) error

// Registry holds all registered hooks.
type Registry struct {
	mu                sync.RWMutex
	compactionRequest []CompactionRequestedHook
	beforeCompaction  []BeforeCompactionHook
	afterCompaction   []AfterCompactionHook
}

// NewRegistry creates a new hook registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// OnCompactionRequested registers a hook fired on every delayed-compaction
// request.
func (r *Registry) OnCompactionRequested(hook CompactionRequestedHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.compactionRequest = append(r.compactionRequest, hook)
}

// OnBeforeCompaction registers a hook to be called before compaction.
func (r *Registry) OnBeforeCompaction(hook BeforeCompactionHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.beforeCompaction = append(r.beforeCompaction, hook)
}

// OnAfterCompaction registers a hook to be called after compaction.
func (r *Registry) OnAfterCompaction(hook AfterCompactionHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.afterCompaction = append(r.afterCompaction, hook)
}

// TriggerCompactionRequested calls all registered request hooks.
func (r *Registry) TriggerCompactionRequested(sessionID uuid.UUID) {
	r.mu.RLock()
	hooks := make([]CompactionRequestedHook, len(r.compactionRequest))
	copy(hooks, r.compactionRequest)
	r.mu.RUnlock()

	for _, hook := range hooks {
		hook(sessionID)
	}
}

// TriggerBeforeCompaction calls all registered before-compaction hooks.
func (r *Registry) TriggerBeforeCompaction(ctx context.Context, sessionID uuid.UUID, messages []*types.Message) error {
	r.mu.RLock()
	hooks := make([]BeforeCompactionHook, len(r.beforeCompaction))
	copy(hooks, r.beforeCompaction)
	r.mu.RUnlock()

	for _, hook := range hooks {
		if err := hook(ctx, sessionID, messages); err != nil {
			return err
		}
	}
	return nil
}

// TriggerAfterCompaction calls all registered after-compaction hooks.
func (r *Registry) TriggerAfterCompaction(ctx context.Context, sessionID uuid.UUID, result *compaction.Result) error {
	r.mu.RLock()
	hooks := make([]AfterCompactionHook, len(r.afterCompaction))
	copy(hooks, r.afterCompaction)
	r.mu.RUnlock()

	for _, hook := range hooks {
		if err := hook(ctx, sessionID, result); err != nil {
			return err
		}
	}
	return nil
}
