package sim

// DeficitRoundRobin enforces byte-level fairness with per-tenant deficit
// counters. Each scan visit grants a tenant a quantum of byte credit (scaled
// by its weight); a tenant is only selected once its accumulated credit
// covers its head request. Tenants that are passed over keep the credit they
// accrued, so large requests eventually become eligible.
type DeficitRoundRobin struct {
	queues  [][]Request
	deficit []int64
	weights []float64
	quantum float64
	next    int
}

// DefaultQuantum is the per-round byte credit used when none is configured.
const DefaultQuantum = 4096.0

// NewDeficitRoundRobin creates a DRR policy with the default quantum and no
// tenant slots.
func NewDeficitRoundRobin() *DeficitRoundRobin {
	return &DeficitRoundRobin{quantum: DefaultQuantum}
}

func (s *DeficitRoundRobin) SetUsers(n int) {
	if n < 0 {
		n = 0
	}
	s.queues = make([][]Request, n)
	s.deficit = make([]int64, n)
	s.weights = make([]float64, n)
	for i := range s.weights {
		s.weights[i] = 1.0
	}
	s.next = 0
}

// SetQuantum replaces the per-round credit. Non-positive values are ignored.
func (s *DeficitRoundRobin) SetQuantum(q float64) {
	if q > 0 {
		s.quantum = q
	}
}

// SetWeights resets every weight to 1.0 and then copies the provided prefix,
// clamped at >= 0. A vector shorter than the tenant count leaves the
// remaining tenants at the default.
func (s *DeficitRoundRobin) SetWeights(w []float64) {
	if len(s.queues) == 0 {
		return
	}
	for i := range s.weights {
		s.weights[i] = 1.0
	}
	for i := 0; i < len(s.weights) && i < len(w); i++ {
		if w[i] < 0 {
			s.weights[i] = 0
		} else {
			s.weights[i] = w[i]
		}
	}
}

func (s *DeficitRoundRobin) Enqueue(r Request) {
	if r.UserID < 0 || r.UserID >= len(s.queues) {
		return
	}
	s.queues[r.UserID] = append(s.queues[r.UserID], r)
}

// PickUser grants quantum credit to each backlogged tenant it visits and
// selects the first whose deficit covers its head request. Deficits mutate
// during the scan, so back-to-back calls without a Pop are legal but not
// idempotent.
func (s *DeficitRoundRobin) PickUser(_ float64) (int, bool) {
	if len(s.queues) == 0 {
		return 0, false
	}
	for i := 0; i < len(s.queues); i++ {
		uid := (s.next + i) % len(s.queues)
		if len(s.queues[uid]) == 0 {
			continue
		}

		credit := int64(s.quantum * s.weights[uid])
		if credit < 1 {
			credit = 1
		}
		s.deficit[uid] += credit

		head := s.queues[uid][0]
		if s.deficit[uid] >= int64(head.SizeBytes) {
			s.next = (uid + 1) % len(s.queues)
			return uid, true
		}
	}
	return 0, false
}

// Pop removes the head request and charges its size against the tenant's
// deficit, clamped at zero.
func (s *DeficitRoundRobin) Pop(uid int) (Request, bool) {
	if uid < 0 || uid >= len(s.queues) || len(s.queues[uid]) == 0 {
		return Request{}, false
	}
	r := s.queues[uid][0]
	s.queues[uid] = s.queues[uid][1:]
	s.deficit[uid] -= int64(r.SizeBytes)
	if s.deficit[uid] < 0 {
		s.deficit[uid] = 0
	}
	return r, true
}

func (s *DeficitRoundRobin) Empty() bool {
	for _, q := range s.queues {
		if len(q) > 0 {
			return false
		}
	}
	return true
}
