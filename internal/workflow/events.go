package workflow

import (
	"log"
	"sync/atomic"
	"time"
)

// NodeStatus is the run-time state of a node as seen by subscribers.
type NodeStatus string

const (
	// StatusIdle is the pre-run state; unreached nodes keep it.
	StatusIdle NodeStatus = "idle"
	// StatusRunning means the node's handler is executing.
	StatusRunning NodeStatus = "running"
	// StatusSuccess means the handler returned a result.
	StatusSuccess NodeStatus = "success"
	// StatusError means the handler failed; successors are not visited.
	StatusError NodeStatus = "error"
)

// NodeEvent is one status transition emitted during a run. The executor
// publishes events instead of invoking UI callbacks, so any subscriber
// (canvas, logger, test) can observe a run without coupling to it.
type NodeEvent struct {
	// NodeID is the node the event concerns.
	NodeID string
	// Status is the node's new status.
	Status NodeStatus
	// Result is the produced text, set on success.
	Result string
	// Err is the failure message, set on error.
	Err string
	// At is when the transition happened.
	At time.Time
}

// Emitter publishes node events to a single subscriber channel.
// If the channel is full it retries briefly, then drops the event and
// counts the drop; execution never blocks on a slow subscriber.
type Emitter struct {
	events       chan NodeEvent
	droppedCount atomic.Uint64
}

// NewEmitter creates an Emitter with the given buffer size.
func NewEmitter(bufferSize int) *Emitter {
	return &Emitter{events: make(chan NodeEvent, bufferSize)}
}

// Emit sends an event to the events channel.
func (e *Emitter) Emit(event NodeEvent) {
	event.At = time.Now()

	select {
	case e.events <- event:
		return
	default:
	}

	// Channel full; give the receiver 100ms to drain before dropping.
	select {
	case e.events <- event:
		return
	case <-time.After(100 * time.Millisecond):
		count := e.droppedCount.Add(1)
		if count%10 == 1 {
			log.Printf("[workflow] WARNING: event channel full, dropped event (total dropped: %d): node=%s status=%s", count, event.NodeID, event.Status)
		}
	}
}

// DroppedCount returns the total number of events that have been dropped.
func (e *Emitter) DroppedCount() uint64 {
	return e.droppedCount.Load()
}

// Events returns a read-only channel of events for subscribers.
func (e *Emitter) Events() <-chan NodeEvent {
	return e.events
}

// Close closes the events channel once a run is finished.
func (e *Emitter) Close() {
	close(e.events)
}
