package ipasir

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestSolveSatisfiable(t *testing.T) {
	s := Init()
	defer s.Release()

	// (1 v -2) & (2 v 3)
	s.Add(1)
	s.Add(-2)
	s.Add(0)
	s.Add(2)
	s.Add(3)
	s.Add(0)

	if got := s.Solve(); got != StatusSAT {
		t.Fatalf("Solve() = %v, want SAT", got)
	}
	if v := s.Val(1); v != 1 && v != 0 {
		t.Fatalf("Val(1) = %d, want 1 or 0 (don't-care)", v)
	}
}

func TestSolveUnsatisfiable(t *testing.T) {
	s := Init()
	defer s.Release()

	s.Add(1)
	s.Add(0)
	s.Add(-1)
	s.Add(0)

	if got := s.Solve(); got != StatusUNSAT {
		t.Fatalf("Solve() = %v, want UNSAT", got)
	}
}

func TestAssumeAndFailed(t *testing.T) {
	s := Init()
	defer s.Release()

	// 1 must be true; assuming ¬1 must fail.
	s.Add(1)
	s.Add(0)

	s.Assume(-1)
	if got := s.Solve(); got != StatusUNSAT {
		t.Fatalf("Solve() = %v, want UNSAT", got)
	}
	if !s.Failed(-1) {
		t.Fatalf("Failed(-1) = false, want true")
	}
}

func TestAssumptionsAreSingleUse(t *testing.T) {
	s := Init()
	defer s.Release()

	s.Add(1)
	s.Add(2)
	s.Add(0)

	s.Assume(-1)
	s.Assume(-2)
	if got := s.Solve(); got != StatusUNSAT {
		t.Fatalf("first Solve() = %v, want UNSAT", got)
	}

	// No assumptions registered this round: should be satisfiable again.
	if got := s.Solve(); got != StatusSAT {
		t.Fatalf("second Solve() = %v, want SAT (assumptions should not persist)", got)
	}
}

// TestSetLearnReportsLemmasInExternalConvention builds a pigeonhole instance
// (4 pigeons, 3 holes) whose "has a hole" clauses are size 3, so refuting it
// forces at least one real conflict through multiple decision levels, and
// checks that SetLearn is invoked with the learnt literals translated back
// to the external signed-integer convention.
func TestSetLearnReportsLemmasInExternalConvention(t *testing.T) {
	s := Init()
	defer s.Release()

	varOf := func(p, h int) int32 { return int32(p*3 + h + 1) }
	for p := 0; p < 4; p++ {
		s.Add(varOf(p, 0))
		s.Add(varOf(p, 1))
		s.Add(varOf(p, 2))
		s.Add(0)
	}
	for h := 0; h < 3; h++ {
		for p1 := 0; p1 < 4; p1++ {
			for p2 := p1 + 1; p2 < 4; p2++ {
				s.Add(-varOf(p1, h))
				s.Add(-varOf(p2, h))
				s.Add(0)
			}
		}
	}

	var reported [][]int32
	s.SetLearn(12, func(lits []int32) {
		reported = append(reported, append([]int32(nil), lits...))
	})

	if got := s.Solve(); got != StatusUNSAT {
		t.Fatalf("Solve() = %v, want UNSAT", got)
	}
	if len(reported) == 0 {
		t.Fatalf("SetLearn callback was never invoked")
	}
	for _, lits := range reported {
		for _, l := range lits {
			if l == 0 {
				t.Fatalf("reported literal must not be 0: %v", lits)
			}
			id := l
			if id < 0 {
				id = -id
			}
			if id < 1 || id > 12 {
				t.Fatalf("reported literal %d out of the instance's variable range", l)
			}
		}
	}
}

// TestSetLearnNilDisablesReporting checks that passing a nil fn after a
// previous registration stops further callbacks.
func TestSetLearnNilDisablesReporting(t *testing.T) {
	s := Init()
	defer s.Release()

	varOf := func(p, h int) int32 { return int32(p*3 + h + 1) }
	for p := 0; p < 4; p++ {
		s.Add(varOf(p, 0))
		s.Add(varOf(p, 1))
		s.Add(varOf(p, 2))
		s.Add(0)
	}
	for h := 0; h < 3; h++ {
		for p1 := 0; p1 < 4; p1++ {
			for p2 := p1 + 1; p2 < 4; p2++ {
				s.Add(-varOf(p1, h))
				s.Add(-varOf(p2, h))
				s.Add(0)
			}
		}
	}

	called := false
	s.SetLearn(64, func(lits []int32) { called = true })
	s.SetLearn(64, nil)

	if got := s.Solve(); got != StatusUNSAT {
		t.Fatalf("Solve() = %v, want UNSAT", got)
	}
	if called {
		t.Fatalf("callback should not fire after being replaced with nil")
	}
}

func TestSetTerminateStopsSearch(t *testing.T) {
	s := Init()
	defer s.Release()
	s.wdPeriod = time.Millisecond

	var called int32
	s.SetTerminate(func() bool {
		atomic.StoreInt32(&called, 1)
		return true
	})

	s.Add(1)
	s.Add(0)
	s.Solve()

	deadline := time.Now().Add(time.Second)
	for atomic.LoadInt32(&called) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if atomic.LoadInt32(&called) == 0 {
		t.Fatalf("terminate callback was never invoked")
	}
}
