package workflow

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rankpilot/rankpilot/pkg/models"
)

// defaultFanOut bounds simultaneously in-flight node handlers so split
// fan-out cannot overwhelm the completion and delivery backends.
const defaultFanOut = 4

// RunReport is the observable outcome of one workflow run.
type RunReport struct {
	// Statuses is the final status of every node the run touched.
	// Unreached nodes are absent (they stay idle).
	Statuses map[string]NodeStatus
	// Errors maps failed node IDs to their failure messages.
	Errors map[string]string
	// Results maps node IDs to the text they produced.
	Results map[string]string
	// Visited is the number of nodes executed.
	Visited int
	// Cancelled is true when the run stopped on the cancellation flag.
	Cancelled bool
}

// Complete reports whether every node in a graph of totalNodes executed
// successfully. There is no separate "completed" run status; callers
// compare against graph size. Success is counted from node statuses, not
// context entries: the trigger succeeds without writing to context.
func (r *RunReport) Complete(totalNodes int) bool {
	if len(r.Errors) > 0 {
		return false
	}
	succeeded := 0
	for _, status := range r.Statuses {
		if status == StatusSuccess {
			succeeded++
		}
	}
	return succeeded >= totalNodes
}

// Executor walks a workflow graph from its trigger node, dispatching each
// reachable node to its handler exactly once per run.
//
// A node failure stops only its own downstream path; sibling branches keep
// running. The run ends when the traversal frontier is empty.
type Executor struct {
	graph    *Graph
	handlers *Registry
	rc       *RunContext
	emitter  *Emitter

	cancelled atomic.Bool
	slots     chan struct{}

	mu       sync.Mutex
	visited  map[string]bool
	arrivals map[string]int
	statuses map[string]NodeStatus
	errs     map[string]string
}

// ExecutorOption customizes an Executor.
type ExecutorOption func(*Executor)

// WithFanOut bounds the number of concurrently executing node handlers.
func WithFanOut(n int) ExecutorOption {
	return func(e *Executor) {
		if n > 0 {
			e.slots = make(chan struct{}, n)
		}
	}
}

// WithEventBuffer resizes the event channel.
func WithEventBuffer(n int) ExecutorOption {
	return func(e *Executor) {
		if n > 0 {
			e.emitter = NewEmitter(n)
		}
	}
}

// NewExecutor creates an executor for one run of the given graph.
// Executors are single-use: each run owns a fresh RunContext.
func NewExecutor(graph *Graph, handlers *Registry, opts ...ExecutorOption) *Executor {
	e := &Executor{
		graph:    graph,
		handlers: handlers,
		rc:       NewRunContext(),
		emitter:  NewEmitter(64),
		slots:    make(chan struct{}, defaultFanOut),
		visited:  make(map[string]bool),
		arrivals: make(map[string]int),
		statuses: make(map[string]NodeStatus),
		errs:     make(map[string]string),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Events returns the node event stream for subscribers. Events stop and
// the channel closes when Run returns.
func (e *Executor) Events() <-chan NodeEvent {
	return e.emitter.Events()
}

// Context returns the run's context store for read-only observers.
func (e *Executor) Context() *RunContext {
	return e.rc
}

// Cancel sets the run-scoped cancellation flag. The node currently
// executing finishes and records its result; no further node starts.
func (e *Executor) Cancel() {
	e.cancelled.Store(true)
}

// Run executes the workflow. It fails fast (before any node executes)
// when the graph has no unique trigger; all other failures are absorbed
// into the report so a run is always partially observable.
func (e *Executor) Run(ctx context.Context) (*RunReport, error) {
	defer e.emitter.Close()

	trigger, err := e.graph.Trigger()
	if err != nil {
		return nil, err
	}

	debugLog("[executor] run starting: %d nodes, trigger=%s", e.graph.Size(), trigger.ID)

	// The trigger is marked visited and successful without consulting its
	// handler's result in context: its marker is presentation only.
	e.markVisited(trigger.ID)
	e.setStatus(trigger.ID, StatusRunning, "", "")
	marker, _ := mustHandler(e.handlers, models.NodeTrigger).Execute(ctx, trigger, e.rc)
	e.setStatus(trigger.ID, StatusSuccess, marker, "")

	for _, edge := range e.graph.Successors(trigger.ID) {
		e.walk(ctx, edge.Target)
	}

	report := e.report()
	debugLog("[executor] run finished: visited=%d errors=%d cancelled=%v",
		report.Visited, len(report.Errors), report.Cancelled)
	return report, nil
}

// walk executes one node and then its downstream subgraph.
func (e *Executor) walk(ctx context.Context, nodeID string) {
	if e.cancelled.Load() || ctx.Err() != nil {
		return
	}

	node, ok := e.graph.Node(nodeID)
	if !ok {
		e.setStatus(nodeID, StatusError, "", fmt.Sprintf("node %s not in graph", nodeID))
		return
	}

	// A wait_all merge runs on its last arrival so it sees every feeding
	// branch's output. If a feeding branch dies upstream the merge never
	// runs; wait_all is only safe when every branch completes.
	if cfg, isMerge := node.Config.(models.MergeConfig); isMerge && cfg.MergeType != models.MergeWaitAny {
		if !e.lastArrival(nodeID) {
			return
		}
	}

	// At-most-once guarantee: a node reachable over multiple paths runs
	// on whichever path claims it first.
	if !e.markVisited(nodeID) {
		return
	}

	handler, ok := e.handlers.Handler(node.Kind)
	if !ok {
		e.setStatus(nodeID, StatusError, "", fmt.Sprintf("no handler for kind %q", node.Kind))
		return
	}

	e.setStatus(nodeID, StatusRunning, "", "")
	latestBefore := e.rc.Latest()

	result, err := e.execute(ctx, handler, node)
	if err != nil {
		nodeErr := &NodeExecutionError{NodeID: nodeID, Kind: node.Kind, Err: err}
		debugLog("[executor] %v", nodeErr)
		e.setStatus(nodeID, StatusError, "", nodeErr.Error())
		// Failure is isolated: successors on this path are never visited.
		return
	}

	if setErr := e.rc.Set(nodeID, result); setErr != nil {
		e.setStatus(nodeID, StatusError, "", setErr.Error())
		return
	}
	e.setStatus(nodeID, StatusSuccess, result, "")

	switch node.Kind {
	case models.NodeCondition:
		e.walkCondition(ctx, node, latestBefore)
	case models.NodeSplit:
		e.walkSplit(ctx, node)
	default:
		for _, edge := range e.graph.Successors(nodeID) {
			e.walk(ctx, edge.Target)
		}
	}
}

// walkCondition follows only the edge matching the evaluated boolean.
func (e *Executor) walkCondition(ctx context.Context, node models.Node, latest string) {
	cfg, _ := node.Config.(models.ConditionConfig)
	verdict, err := e.handlers.Condition().Evaluate(cfg, latest)
	if err != nil {
		// The condition already produced its pass-through result; a broken
		// comparison stops the walk on this path like any node failure.
		e.setStatus(node.ID, StatusError, "", fmt.Sprintf("condition evaluation: %v", err))
		return
	}

	handle := "false"
	if verdict {
		handle = "true"
	}
	debugLog("[executor] condition %s evaluated %s", node.ID, handle)

	for _, edge := range e.graph.SuccessorsByHandle(node.ID, handle) {
		e.walk(ctx, edge.Target)
	}
}

// walkSplit recurses into all outgoing targets concurrently and awaits
// every branch before returning to the outer walk.
func (e *Executor) walkSplit(ctx context.Context, node models.Node) {
	edges := e.graph.Successors(node.ID)
	debugLog("[executor] split %s fanning out to %d branches", node.ID, len(edges))

	var wg sync.WaitGroup
	for _, edge := range edges {
		wg.Add(1)
		go func(target string) {
			defer wg.Done()
			e.walk(ctx, target)
		}(edge.Target)
	}
	wg.Wait()
}

// execute runs the handler under the fan-out semaphore so concurrent
// branches cannot exceed the in-flight bound. The token is held only for
// the handler call itself, never while waiting on child branches, so
// nested splits cannot deadlock.
func (e *Executor) execute(ctx context.Context, handler Handler, node models.Node) (string, error) {
	select {
	case e.slots <- struct{}{}:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	defer func() { <-e.slots }()

	return handler.Execute(ctx, node, e.rc)
}

// lastArrival counts traversal arrivals at a merge node and reports true
// only for the arrival that completes the node's indegree.
func (e *Executor) lastArrival(nodeID string) bool {
	indegree := len(e.graph.Predecessors(nodeID))
	e.mu.Lock()
	defer e.mu.Unlock()
	e.arrivals[nodeID]++
	return e.arrivals[nodeID] >= indegree
}

func (e *Executor) markVisited(nodeID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.visited[nodeID] {
		return false
	}
	e.visited[nodeID] = true
	return true
}

func (e *Executor) setStatus(nodeID string, status NodeStatus, result, errMsg string) {
	e.mu.Lock()
	e.statuses[nodeID] = status
	if errMsg != "" {
		e.errs[nodeID] = errMsg
	}
	e.mu.Unlock()

	e.emitter.Emit(NodeEvent{NodeID: nodeID, Status: status, Result: result, Err: errMsg})
}

func (e *Executor) report() *RunReport {
	e.mu.Lock()
	defer e.mu.Unlock()

	_, values := e.rc.Snapshot()
	statuses := make(map[string]NodeStatus, len(e.statuses))
	for k, v := range e.statuses {
		statuses[k] = v
	}
	errs := make(map[string]string, len(e.errs))
	for k, v := range e.errs {
		errs[k] = v
	}

	return &RunReport{
		Statuses:  statuses,
		Errors:    errs,
		Results:   values,
		Visited:   len(e.visited),
		Cancelled: e.cancelled.Load(),
	}
}

// mustHandler fetches a handler that is always registered (trigger).
func mustHandler(r *Registry, kind models.NodeKind) Handler {
	h, _ := r.Handler(kind)
	return h
}
