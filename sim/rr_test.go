package sim

import "testing"

func req(uid int, size uint32) Request {
	return Request{UserID: uid, Op: OpRead, SizeBytes: size}
}

func TestRoundRobin_RotatesAcrossTenants(t *testing.T) {
	// GIVEN three backlogged tenants
	s := NewRoundRobin()
	s.SetUsers(3)
	for uid := 0; uid < 3; uid++ {
		s.Enqueue(req(uid, 4096))
		s.Enqueue(req(uid, 4096))
	}

	// WHEN serving six requests
	var order []int
	for i := 0; i < 6; i++ {
		uid, ok := s.PickUser(0)
		if !ok {
			t.Fatalf("pick %d failed", i)
		}
		if _, ok := s.Pop(uid); !ok {
			t.Fatalf("pop %d failed for uid %d", i, uid)
		}
		order = append(order, uid)
	}

	// THEN tenants are served strictly in rotation
	want := []int{0, 1, 2, 0, 1, 2}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("pick %d: got uid %d, want %d", i, order[i], want[i])
		}
	}
	if !s.Empty() {
		t.Error("scheduler should be empty after draining")
	}
}

func TestRoundRobin_SkipsEmptyQueues(t *testing.T) {
	s := NewRoundRobin()
	s.SetUsers(4)
	s.Enqueue(req(2, 1))

	uid, ok := s.PickUser(0)
	if !ok || uid != 2 {
		t.Fatalf("PickUser: got (%d, %v), want (2, true)", uid, ok)
	}
}

func TestRoundRobin_PerTenantFIFO(t *testing.T) {
	// GIVEN one tenant with requests of distinct sizes
	s := NewRoundRobin()
	s.SetUsers(1)
	for _, size := range []uint32{1, 2, 3} {
		s.Enqueue(req(0, size))
	}

	// THEN pops return them in enqueue order
	for _, want := range []uint32{1, 2, 3} {
		uid, ok := s.PickUser(0)
		if !ok {
			t.Fatal("pick failed")
		}
		r, ok := s.Pop(uid)
		if !ok || r.SizeBytes != want {
			t.Errorf("pop: got size %d, want %d", r.SizeBytes, want)
		}
	}
}

func TestRoundRobin_DropsOutOfRangeIds(t *testing.T) {
	s := NewRoundRobin()
	s.SetUsers(2)
	s.Enqueue(req(-1, 1))
	s.Enqueue(req(2, 1))

	if !s.Empty() {
		t.Error("out-of-range enqueues must be dropped silently")
	}
	if _, ok := s.PickUser(0); ok {
		t.Error("nothing should be pickable")
	}
}

func TestRoundRobin_NoUsers(t *testing.T) {
	s := NewRoundRobin()
	s.SetUsers(0)
	if _, ok := s.PickUser(0); ok {
		t.Error("PickUser with zero tenants should fail")
	}
	if !s.Empty() {
		t.Error("zero-tenant scheduler is empty")
	}
}

func TestRoundRobin_PopEmptyQueue(t *testing.T) {
	s := NewRoundRobin()
	s.SetUsers(1)
	if _, ok := s.Pop(0); ok {
		t.Error("Pop on empty queue should report false")
	}
	if _, ok := s.Pop(5); ok {
		t.Error("Pop with out-of-range uid should report false")
	}
}
