package event

import "sync"

// GuardedQueue adds a mutex around Queue so the realtime audio callback
// and the UI/editor thread can both reach the same queue safely (the
// export worker schedules into its own unguarded Queue). Mirrors the prototype's SharedMidiEventQueue = Mutex<EventQueue>
// alias; kept separate from Queue itself so the ordering logic stays
// lock-free and directly testable.
type GuardedQueue struct {
	mu    sync.Mutex
	queue Queue
}

// Enqueue appends e at time under lock.
func (g *GuardedQueue) Enqueue(time uint64, e Event) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.queue.Enqueue(time, e)
}

// Sort stably sorts the queue under lock.
func (g *GuardedQueue) Sort() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.queue.Sort()
}

// PeekTime returns the head time under lock.
func (g *GuardedQueue) PeekTime() (uint64, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.queue.PeekTime()
}

// Dequeue removes and returns every event at time under lock.
func (g *GuardedQueue) Dequeue(time uint64) []Event {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.queue.Dequeue(time)
}

// IsEmpty reports whether the queue is empty under lock.
func (g *GuardedQueue) IsEmpty() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.queue.IsEmpty()
}

// Len returns the queue length under lock.
func (g *GuardedQueue) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.queue.Len()
}

// Reset replaces the queue's contents with events under lock.
func (g *GuardedQueue) Reset(events []TimedEvent) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.queue = Queue{events: events}
}
