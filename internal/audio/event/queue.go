package event

import "sort"

// Queue is an ordered collection of TimedEvent, sorted on demand by Sort.
// Enqueue does not maintain order; callers must call Sort before relying on
// Peek/Dequeue. This mirrors audio/src/event_queue.rs in the prototype this
// engine is derived from: cheap appends while building a schedule, one
// stable sort before playback or export begins.
type Queue struct {
	events []TimedEvent
}

// Enqueue appends one event at time. O(1); does not preserve order.
func (q *Queue) Enqueue(time uint64, e Event) {
	q.events = append(q.events, TimedEvent{Time: time, Event: e})
}

// Sort establishes the total order from the data model. The sort is
// stable so that two mutually-equal events (e.g. two NoteOns at the same
// instant) keep their insertion order.
func (q *Queue) Sort() {
	sort.SliceStable(q.events, func(i, j int) bool {
		return less(q.events[i], q.events[j])
	})
}

// PeekTime returns the time of the head element, or ok=false if empty.
func (q *Queue) PeekTime() (t uint64, ok bool) {
	if len(q.events) == 0 {
		return 0, false
	}
	return q.events[0].Time, true
}

// Dequeue removes and returns every leading event whose time equals time.
// Events not at the head are never examined; callers must Sort first.
func (q *Queue) Dequeue(time uint64) []Event {
	n := 0
	for n < len(q.events) && q.events[n].Time == time {
		n++
	}
	if n == 0 {
		return nil
	}
	out := make([]Event, n)
	for i := 0; i < n; i++ {
		out[i] = q.events[i].Event
	}
	q.events = q.events[n:]
	return out
}

// IsEmpty reports whether the queue has no events left.
func (q *Queue) IsEmpty() bool {
	return len(q.events) == 0
}

// Len returns the number of events currently queued.
func (q *Queue) Len() int {
	return len(q.events)
}
