package sim

import "container/heap"

// CompletionEvent records that a request finishes on a channel at a given
// simulated time. The request carried inside is the dispatched copy with its
// start and finish timestamps already stamped.
type CompletionEvent struct {
	Time    float64 // Completion timestamp in seconds
	Channel int     // Physical channel whose request finished
	Request Request // Copy of the request carrying runtime metadata
}

// eventHeap implements heap.Interface over completion events ordered by
// ascending completion time. Ties are broken arbitrarily.
// See canonical Golang example here: https://pkg.go.dev/container/heap#example-package-IntHeap
type eventHeap []CompletionEvent

func (h eventHeap) Len() int           { return len(h) }
func (h eventHeap) Less(i, j int) bool { return h[i].Time < h[j].Time }
func (h eventHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) {
	*h = append(*h, x.(CompletionEvent))
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[0 : n-1]
	return item
}

// EventQueue is a min-heap of pending completion events keyed by completion
// time. All operations are in-memory and synchronous.
type EventQueue struct {
	events eventHeap
}

// NewEventQueue creates an empty event queue.
func NewEventQueue() *EventQueue {
	q := &EventQueue{events: make(eventHeap, 0)}
	heap.Init(&q.events)
	return q
}

// Len returns the number of pending events.
func (q *EventQueue) Len() int {
	return len(q.events)
}

// Empty reports whether no events are pending.
func (q *EventQueue) Empty() bool {
	return len(q.events) == 0
}

// Schedule inserts a new completion event into the queue.
func (q *EventQueue) Schedule(ev CompletionEvent) {
	heap.Push(&q.events, ev)
}

// Peek returns the earliest event without removing it.
// The boolean is false when the queue is empty.
func (q *EventQueue) Peek() (CompletionEvent, bool) {
	if len(q.events) == 0 {
		return CompletionEvent{}, false
	}
	return q.events[0], true
}

// PopNext removes and returns the earliest event.
// The boolean is false when the queue is empty.
func (q *EventQueue) PopNext() (CompletionEvent, bool) {
	if len(q.events) == 0 {
		return CompletionEvent{}, false
	}
	return heap.Pop(&q.events).(CompletionEvent), true
}
