package sim

import "testing"

func TestEventQueue_PopsInTimeOrder(t *testing.T) {
	// GIVEN events scheduled out of order
	q := NewEventQueue()
	q.Schedule(CompletionEvent{Time: 3.0, Channel: 0})
	q.Schedule(CompletionEvent{Time: 1.0, Channel: 1})
	q.Schedule(CompletionEvent{Time: 2.0, Channel: 2})

	// WHEN draining the queue
	var times []float64
	for {
		ev, ok := q.PopNext()
		if !ok {
			break
		}
		times = append(times, ev.Time)
	}

	// THEN completion times come out ascending
	want := []float64{1.0, 2.0, 3.0}
	if len(times) != len(want) {
		t.Fatalf("popped %d events, want %d", len(times), len(want))
	}
	for i := range want {
		if times[i] != want[i] {
			t.Errorf("pop %d: got t=%g, want t=%g", i, times[i], want[i])
		}
	}
}

func TestEventQueue_PeekDoesNotRemove(t *testing.T) {
	q := NewEventQueue()
	q.Schedule(CompletionEvent{Time: 1.5, Channel: 4})

	ev, ok := q.Peek()
	if !ok || ev.Time != 1.5 || ev.Channel != 4 {
		t.Fatalf("Peek: got (%+v, %v)", ev, ok)
	}
	if q.Len() != 1 {
		t.Errorf("Peek modified queue length: got %d, want 1", q.Len())
	}
}

func TestEventQueue_EmptyBehaviour(t *testing.T) {
	q := NewEventQueue()
	if !q.Empty() {
		t.Error("new queue should be empty")
	}
	if _, ok := q.Peek(); ok {
		t.Error("Peek on empty queue should report false")
	}
	if _, ok := q.PopNext(); ok {
		t.Error("PopNext on empty queue should report false")
	}
}

func TestEventQueue_CarriesRequestCopy(t *testing.T) {
	q := NewEventQueue()
	r := Request{UserID: 3, Op: OpWrite, SizeBytes: 512, FinishTS: 2.5}
	q.Schedule(CompletionEvent{Time: 2.5, Channel: 1, Request: r})

	ev, _ := q.PopNext()
	if ev.Request != r {
		t.Errorf("event request: got %+v, want %+v", ev.Request, r)
	}
}
