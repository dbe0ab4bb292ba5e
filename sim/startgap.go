package sim

// StartGap wraps a base scheduler and periodically rotates the logical
// identity of the tenant it reports, emulating start-gap spatial fair
// sharing across channels. Enqueue and the configuration calls delegate
// untransformed; only the PickUser/Pop pair goes through the rotation.
//
// The logical->actual mapping is recorded when PickUser answers and erased
// by the next Pop for that logical id. A Pop with a logical id that no
// PickUser produced falls through to the base untranslated, and an id that
// is never popped leaves its mapping entry behind. Callers that follow the
// scheduler contract (every PickUser answered by exactly one Pop) never hit
// either case; the asymmetry is a known limitation of the rotation scheme.
type StartGap struct {
	base        Scheduler
	rotateEvery int
	gap         int
	rotateCount int
	start       int
	users       int
	remap       map[int]int
}

// Default start-gap rotation parameters.
const (
	DefaultRotateEvery = 200
	DefaultGap         = 1
)

// NewStartGap wraps base with the default rotation cadence.
func NewStartGap(base Scheduler) *StartGap {
	return &StartGap{
		base:        base,
		rotateEvery: DefaultRotateEvery,
		gap:         DefaultGap,
		remap:       make(map[int]int),
	}
}

// SetRotation configures how often the rotation advances (in picks) and by
// how many slots. Both parameters are clamped at 1.
func (s *StartGap) SetRotation(rotateEvery, gap int) {
	if rotateEvery < 1 {
		rotateEvery = 1
	}
	if gap < 1 {
		gap = 1
	}
	s.rotateEvery = rotateEvery
	s.gap = gap
}

func (s *StartGap) SetUsers(n int) {
	if n < 0 {
		n = 0
	}
	s.users = n
	s.base.SetUsers(n)
	s.remap = make(map[int]int)
	s.rotateCount = 0
	s.start = 0
}

func (s *StartGap) SetWeights(w []float64) {
	s.base.SetWeights(w)
}

func (s *StartGap) SetQuantum(q float64) {
	s.base.SetQuantum(q)
}

// Enqueue delegates using the request's original tenant id; rotation applies
// only to the identity reported by PickUser.
func (s *StartGap) Enqueue(r Request) {
	s.base.Enqueue(r)
}

// PickUser asks the base for a tenant, advances the rotation counter, and
// returns the rotated logical id, remembering which actual id it stands for.
func (s *StartGap) PickUser(now float64) (int, bool) {
	if s.users == 0 {
		return 0, false
	}

	actual, ok := s.base.PickUser(now)
	if !ok {
		return 0, false
	}

	s.rotateCount++
	if s.rotateCount >= s.rotateEvery {
		s.start = (s.start + s.gap) % s.users
		s.rotateCount = 0
	}

	mapped := (actual + s.start) % s.users
	s.remap[mapped] = actual
	return mapped, true
}

// Pop translates a previously reported logical id back to the actual tenant
// and delegates. Unknown ids pass through unchanged.
func (s *StartGap) Pop(uid int) (Request, bool) {
	actual := uid
	if a, ok := s.remap[uid]; ok {
		actual = a
		delete(s.remap, uid)
	}
	return s.base.Pop(actual)
}

func (s *StartGap) Empty() bool {
	return s.base.Empty()
}
