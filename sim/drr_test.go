package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDRR_SmallRequestPassesImmediately(t *testing.T) {
	// GIVEN a tenant whose head request fits within one quantum
	s := NewDeficitRoundRobin()
	s.SetUsers(2)
	s.SetQuantum(4096)
	s.Enqueue(req(0, 1024))

	// WHEN picking
	uid, ok := s.PickUser(0)

	// THEN the tenant is selected on the first visit
	require.True(t, ok)
	assert.Equal(t, 0, uid)

	// AND popping charges the deficit
	r, ok := s.Pop(uid)
	require.True(t, ok)
	assert.Equal(t, uint32(1024), r.SizeBytes)
	assert.Equal(t, int64(4096-1024), s.deficit[0])
}

func TestDRR_LargeRequestAccumulatesCredit(t *testing.T) {
	// GIVEN a lone tenant whose head request needs several quanta
	s := NewDeficitRoundRobin()
	s.SetUsers(1)
	s.SetQuantum(4096)
	s.Enqueue(req(0, 10000))

	// THEN the first two picks fail but accrue credit
	_, ok := s.PickUser(0)
	assert.False(t, ok)
	_, ok = s.PickUser(0)
	assert.False(t, ok)

	// AND the third pick passes (3 * 4096 >= 10000)
	uid, ok := s.PickUser(0)
	require.True(t, ok)
	assert.Equal(t, 0, uid)
}

func TestDRR_PickWithoutPopPreservesDeficits(t *testing.T) {
	// Selection legitimately mutates deficits; retried picks must keep the
	// credit accrued by earlier calls rather than resetting it.
	s := NewDeficitRoundRobin()
	s.SetUsers(1)
	s.SetQuantum(1000)
	s.Enqueue(req(0, 2500))

	_, ok := s.PickUser(0)
	assert.False(t, ok)
	assert.Equal(t, int64(1000), s.deficit[0])

	_, ok = s.PickUser(0)
	assert.False(t, ok)
	assert.Equal(t, int64(2000), s.deficit[0])

	uid, ok := s.PickUser(0)
	require.True(t, ok)
	assert.Equal(t, 0, uid)
	assert.Equal(t, int64(3000), s.deficit[0])
}

func TestDRR_PopClampsDeficitAtZero(t *testing.T) {
	s := NewDeficitRoundRobin()
	s.SetUsers(1)
	s.SetQuantum(4096)
	s.Enqueue(req(0, 4096))

	uid, ok := s.PickUser(0)
	require.True(t, ok)
	_, ok = s.Pop(uid)
	require.True(t, ok)
	assert.Equal(t, int64(0), s.deficit[0])
}

func TestDRR_SetWeights_ShortVectorKeepsDefaults(t *testing.T) {
	// GIVEN four tenants and a two-element weight vector
	s := NewDeficitRoundRobin()
	s.SetUsers(4)
	s.SetWeights([]float64{2.0, 0.5})

	// THEN the provided prefix applies and the rest reset to 1.0
	assert.Equal(t, []float64{2.0, 0.5, 1.0, 1.0}, s.weights)

	// AND a later shorter vector resets previously-set slots
	s.SetWeights([]float64{3.0})
	assert.Equal(t, []float64{3.0, 1.0, 1.0, 1.0}, s.weights)
}

func TestDRR_SetWeights_ClampsNegativeToZero(t *testing.T) {
	s := NewDeficitRoundRobin()
	s.SetUsers(2)
	s.SetWeights([]float64{-5.0, 2.0})
	assert.Equal(t, []float64{0.0, 2.0}, s.weights)
}

func TestDRR_SetQuantum_IgnoresNonPositive(t *testing.T) {
	s := NewDeficitRoundRobin()
	s.SetUsers(1)
	s.SetQuantum(-1)
	assert.Equal(t, DefaultQuantum, s.quantum)
	s.SetQuantum(0)
	assert.Equal(t, DefaultQuantum, s.quantum)
	s.SetQuantum(512)
	assert.Equal(t, 512.0, s.quantum)
}

func TestDRR_ZeroWeightStillMakesProgress(t *testing.T) {
	// A zero weight floors the per-visit credit at one byte, so the tenant
	// is starved but never wedged.
	s := NewDeficitRoundRobin()
	s.SetUsers(1)
	s.SetQuantum(4096)
	s.SetWeights([]float64{0})
	s.Enqueue(req(0, 3))

	for i := 0; i < 2; i++ {
		if _, ok := s.PickUser(0); ok {
			t.Fatalf("pick %d should still be accruing", i)
		}
	}
	uid, ok := s.PickUser(0)
	require.True(t, ok)
	assert.Equal(t, 0, uid)
}

func TestDRR_LongRunByteFairness(t *testing.T) {
	// GIVEN two persistently backlogged tenants with equal weights but
	// different request sizes
	s := NewDeficitRoundRobin()
	s.SetUsers(2)
	s.SetQuantum(1024)
	for i := 0; i < 100; i++ {
		s.Enqueue(req(0, 1024))
	}
	for i := 0; i < 50; i++ {
		s.Enqueue(req(1, 2048))
	}

	// WHEN serving for many rounds
	bytes := [2]int64{}
	for pops := 0; pops < 90; {
		uid, ok := s.PickUser(0)
		if !ok {
			continue
		}
		r, ok := s.Pop(uid)
		require.True(t, ok)
		bytes[uid] += int64(r.SizeBytes)
		pops++

		// THEN served bytes never diverge by more than the largest request
		diff := bytes[0] - bytes[1]
		if diff < 0 {
			diff = -diff
		}
		assert.LessOrEqualf(t, diff, int64(2048), "after %d pops: served %v", pops, bytes)
	}
}

func TestDRR_DropsOutOfRangeIds(t *testing.T) {
	s := NewDeficitRoundRobin()
	s.SetUsers(1)
	s.Enqueue(req(5, 100))
	s.Enqueue(req(-2, 100))
	assert.True(t, s.Empty())
}
