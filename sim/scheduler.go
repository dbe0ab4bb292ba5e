package sim

import "fmt"

// Scheduler is the contract every fairness policy implements. The driver
// interacts with a policy through three operations per dispatch:
//
//   - Enqueue(): admit a new request into its tenant's queue.
//   - PickUser(): select the next tenant id to dispatch (if any).
//   - Pop(): remove and return the head request for the chosen tenant.
//
// Policies are also told how many tenants exist (SetUsers) and can optionally
// accept per-tenant weights or a byte quantum; policies that do not weight or
// quantize ignore those calls.
//
// Contract invariants: after PickUser returns uid, Pop(uid) returns a
// request. No policy reorders requests within a single tenant's queue —
// per-tenant FIFO is mandatory. Enqueue silently drops requests whose tenant
// id falls outside [0, N).
//
// PickUser is not required to be pure: DRR accrues deficit credit during the
// scan, so repeated calls without an intervening Pop are legal but may answer
// differently.
type Scheduler interface {
	// SetUsers establishes n tenant slots, discarding any prior state.
	SetUsers(n int)
	// SetWeights applies per-tenant weights. Optional; ignored by policies
	// that do not weight.
	SetWeights(w []float64)
	// SetQuantum sets the per-round byte credit. Optional; ignored by
	// policies that do not quantize. Non-positive values are ignored.
	SetQuantum(q float64)
	// Enqueue admits r into the queue indexed by r.UserID.
	Enqueue(r Request)
	// PickUser selects the next tenant to serve at simulated time now.
	PickUser(now float64) (int, bool)
	// Pop removes and returns the head request for uid.
	Pop(uid int) (Request, bool)
	// Empty reports whether every tenant queue is empty.
	Empty() bool
}

// Scheduler policy names accepted by NewScheduler.
const (
	PolicyRoundRobin   = "rr"
	PolicyDeficitRR    = "drr"
	PolicyWeightedFair = "qfq"
	PolicyStartGap     = "sgfs"
)

// IsValidScheduler reports whether name is a recognized policy name.
func IsValidScheduler(name string) bool {
	switch name {
	case PolicyRoundRobin, PolicyDeficitRR, PolicyWeightedFair, PolicyStartGap:
		return true
	}
	return false
}

// NewScheduler creates a scheduler by policy name.
// Valid names: "rr", "drr", "qfq", "sgfs". "sgfs" composes a weighted-fair
// base with start-gap rotation using rotateEvery and gap; the two parameters
// are ignored by the other policies.
func NewScheduler(name string, rotateEvery, gap int) (Scheduler, error) {
	switch name {
	case PolicyRoundRobin:
		return NewRoundRobin(), nil
	case PolicyDeficitRR:
		return NewDeficitRoundRobin(), nil
	case PolicyWeightedFair:
		return NewWeightedFair(), nil
	case PolicyStartGap:
		sg := NewStartGap(NewWeightedFair())
		sg.SetRotation(rotateEvery, gap)
		return sg, nil
	default:
		return nil, fmt.Errorf("unknown scheduler policy: %q", name)
	}
}
