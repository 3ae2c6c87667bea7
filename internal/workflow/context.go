package workflow

import (
	"fmt"
	"strings"
	"sync"
)

// contextSeparator joins context values when a handler reads the full history.
const contextSeparator = "\n\n"

// RunContext accumulates the text each node produced during one run.
// Writes are once per node ID; reads see either the full history in
// insertion order (agent, report) or only the most recent value (action,
// condition, split). A run owns exactly one RunContext and discards it
// when the run ends.
type RunContext struct {
	mu     sync.RWMutex
	order  []string
	values map[string]string
}

// NewRunContext creates an empty run context.
func NewRunContext() *RunContext {
	return &RunContext{values: make(map[string]string)}
}

// Set records the result a node produced. A second write for the same
// node ID is rejected; node results are immutable within a run.
func (rc *RunContext) Set(nodeID, result string) error {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if _, exists := rc.values[nodeID]; exists {
		return fmt.Errorf("context already holds a result for node %s", nodeID)
	}
	rc.values[nodeID] = result
	rc.order = append(rc.order, nodeID)
	return nil
}

// Get returns the result a node produced, if any.
func (rc *RunContext) Get(nodeID string) (string, bool) {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	v, ok := rc.values[nodeID]
	return v, ok
}

// Latest returns the most recently written value, or "" for an empty context.
func (rc *RunContext) Latest() string {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	if len(rc.order) == 0 {
		return ""
	}
	return rc.values[rc.order[len(rc.order)-1]]
}

// All returns every value written so far, joined in insertion order.
func (rc *RunContext) All() string {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	parts := make([]string, 0, len(rc.order))
	for _, id := range rc.order {
		parts = append(parts, rc.values[id])
	}
	return strings.Join(parts, contextSeparator)
}

// Len returns the number of results recorded.
func (rc *RunContext) Len() int {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return len(rc.order)
}

// Snapshot returns the node IDs in insertion order and a copy of the values.
// Used for persistence and by read-only observers while a run is live.
func (rc *RunContext) Snapshot() ([]string, map[string]string) {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	order := make([]string, len(rc.order))
	copy(order, rc.order)
	values := make(map[string]string, len(rc.values))
	for k, v := range rc.values {
		values[k] = v
	}
	return order, values
}
