package pipeline

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// RunContext is the isolated state bucket for one analysis run. Contexts are
// never shared or reused: only the controller that opened one writes into
// it, each role exactly once, and readers see results in completion order.
type RunContext struct {
	id string

	mu     sync.Mutex
	order  []Role
	state  map[Role]StageResult
	closed bool
}

// ID returns the run's unique identifier.
func (rc *RunContext) ID() string { return rc.id }

// setResult records a stage result. Writing twice for the same role, or
// writing after Close, is a programming error and fails fast.
func (rc *RunContext) setResult(role Role, res StageResult) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if rc.closed {
		panic(fmt.Sprintf("pipeline: write to closed run context %s", rc.id))
	}
	if _, dup := rc.state[role]; dup {
		panic(fmt.Sprintf("pipeline: duplicate result for role %s in run %s", role, rc.id))
	}
	rc.state[role] = res
	rc.order = append(rc.order, role)
}

// result returns the recorded result for a role, if any.
func (rc *RunContext) result(role Role) (StageResult, bool) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if rc.closed {
		panic(fmt.Sprintf("pipeline: read from closed run context %s", rc.id))
	}
	res, ok := rc.state[role]
	return res, ok
}

// snapshot returns all recorded results in completion order.
func (rc *RunContext) snapshot() []StageResult {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if rc.closed {
		panic(fmt.Sprintf("pipeline: read from closed run context %s", rc.id))
	}
	out := make([]StageResult, 0, len(rc.order))
	for _, role := range rc.order {
		out = append(out, rc.state[role])
	}
	return out
}

// ContextManager allocates isolated execution contexts. Identifiers are
// random tokens with negligible collision probability, distinct across the
// process lifetime.
type ContextManager struct{}

// NewContextManager creates a context manager.
func NewContextManager() *ContextManager { return &ContextManager{} }

// Open allocates a fresh context with an empty state bucket.
func (m *ContextManager) Open() *RunContext {
	return &RunContext{
		id:    uuid.New().String(),
		state: make(map[Role]StageResult),
	}
}

// Close releases the context's state bucket. Any subsequent use panics.
func (m *ContextManager) Close(rc *RunContext) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.closed = true
	rc.state = nil
	rc.order = nil
}
