// Package ipasir implements the IPASIR incremental SAT solver surface: a
// functional API (init/add/assume/solve/val/failed/set_terminate/release)
// wrapping the core solver, plus the termination watchdog described for it.
package ipasir

import (
	"sync"
	"time"

	"github.com/narrowgate/cdclsat/internal/sat"
)

// Status mirrors the sentinel values the incremental API returns from
// Solve: 10 (SAT), 20 (UNSAT), 0 (indeterminate/terminated).
type Status int

const (
	StatusIndeterminate Status = 0
	StatusSAT           Status = 10
	StatusUNSAT         Status = 20
)

func fromDriverStatus(s sat.Status) Status {
	switch s {
	case sat.StatusSAT:
		return StatusSAT
	case sat.StatusUNSAT:
		return StatusUNSAT
	default:
		return StatusIndeterminate
	}
}

// TerminateFunc is the caller-supplied polling callback: return true to
// request that the in-progress solve stop at its next checkpoint.
type TerminateFunc func() bool

// LearnFunc is invoked with each learnt clause's literals (in the original
// signed-integer convention), for clauses of at most maxLen literals.
type LearnFunc func(lits []int32)

// watchdogContext is the mutex-guarded state shared between a Solver and its
// lazily-spawned watchdog goroutine. The solver's hot path never touches
// this mutex; only set_terminate (setup) and the watchdog itself do.
type watchdogContext struct {
	mu        sync.Mutex
	terminate TerminateFunc
	destroyed bool
}

// Solver is a single incremental solving context: init returns one of
// these, and every other IPASIR call is a method on it.
type Solver struct {
	driver *sat.Driver

	// clauseLits accumulates literals for the clause under construction via
	// Add, reset on the 0 terminator.
	clauseLits []int32
	varOf      map[int32]sat.Var
	idOf       map[sat.Var]int32

	assumeLits []int32

	wd       *watchdogContext
	wdOnce   sync.Once
	wdPeriod time.Duration
}

// defaultWatchdogPeriod is the polling interval the spec's watchdog thread
// sleeps for between termination checks.
const defaultWatchdogPeriod = 100 * time.Millisecond

// Init returns a fresh solver context with no variables or clauses.
func Init() *Solver {
	return &Solver{
		driver:   sat.NewDriver(sat.DefaultOptions),
		varOf:    make(map[int32]sat.Var),
		idOf:     make(map[sat.Var]int32),
		wdPeriod: defaultWatchdogPeriod,
	}
}

// varFor returns the internal Var for the external 1-based variable id,
// declaring it on first use.
func (s *Solver) varFor(id int32) sat.Var {
	if v, ok := s.varOf[id]; ok {
		return v
	}
	v := s.driver.AddVariable()
	s.varOf[id] = v
	s.idOf[v] = id
	return v
}

// litToInt converts an internal literal back to the external signed-integer
// convention, for reporting lemmas through SetLearn.
func (s *Solver) litToInt(l sat.Lit) int32 {
	id := s.idOf[l.Var()]
	if l.Sign() {
		return -id
	}
	return id
}

func (s *Solver) litFor(signed int32) sat.Lit {
	if signed < 0 {
		return sat.NegLit(s.varFor(-signed))
	}
	return sat.PosLit(s.varFor(signed))
}

// Add appends lit to the clause currently under construction; lit == 0
// terminates and submits the clause.
func (s *Solver) Add(lit int32) {
	if lit == 0 {
		s.driver.AddClause(append([]sat.Lit(nil), s.litsFromBuf()...))
		s.clauseLits = s.clauseLits[:0]
		return
	}
	s.clauseLits = append(s.clauseLits, lit)
}

func (s *Solver) litsFromBuf() []sat.Lit {
	out := make([]sat.Lit, len(s.clauseLits))
	for i, l := range s.clauseLits {
		out[i] = s.litFor(l)
	}
	return out
}

// Assume registers a single-use assumption literal for the next Solve call.
func (s *Solver) Assume(lit int32) {
	s.assumeLits = append(s.assumeLits, lit)
}

// Solve runs the search with the assumptions accumulated since the last
// call, then clears them (assumptions are single-use per the IPASIR
// contract).
func (s *Solver) Solve() Status {
	for _, l := range s.assumeLits {
		s.driver.Assume(s.litFor(l))
	}
	s.assumeLits = s.assumeLits[:0]
	return fromDriverStatus(s.driver.Solve())
}

// Val returns lit if lit is true in the last SAT model, -lit if false, or 0
// if its variable is unknown or there is no model.
func (s *Solver) Val(lit int32) int32 {
	id := lit
	if id < 0 {
		id = -id
	}
	v, ok := s.varOf[id]
	if !ok {
		return 0
	}
	switch s.driver.ValueOfVar(v) {
	case sat.True:
		return id
	case sat.False:
		return -id
	default:
		return 0
	}
}

// Failed reports whether lit participates in the unsatisfiable core
// produced by the most recent UNSAT-with-assumptions Solve call.
func (s *Solver) Failed(lit int32) bool {
	id := lit
	if id < 0 {
		id = -id
	}
	if _, ok := s.varOf[id]; !ok {
		return false
	}
	want := s.litFor(lit)
	for _, l := range s.driver.FailedCore() {
		if l == want {
			return true
		}
	}
	return false
}

// SetLearn registers fn to be invoked with each learnt clause of at most
// maxLen literals, in the external signed-integer convention. fn may be
// nil to disable reporting.
func (s *Solver) SetLearn(maxLen int, fn LearnFunc) {
	if fn == nil {
		s.driver.SetLearnCallback(0, nil)
		return
	}
	s.driver.SetLearnCallback(maxLen, func(lits []sat.Lit) {
		out := make([]int32, len(lits))
		for i, l := range lits {
			out[i] = s.litToInt(l)
		}
		fn(out)
	})
}

// SetTerminate registers fn as the watchdog's polling callback, spawning
// the watchdog goroutine on first call.
func (s *Solver) SetTerminate(fn TerminateFunc) {
	s.wdOnce.Do(func() {
		s.wd = &watchdogContext{}
		go s.watchdogLoop()
	})
	s.wd.mu.Lock()
	s.wd.terminate = fn
	s.wd.mu.Unlock()
}

// watchdogLoop is the body of the lazily-spawned termination thread: sleep,
// check, maybe stop, repeat, until the context is marked destroyed.
func (s *Solver) watchdogLoop() {
	for {
		time.Sleep(s.wdPeriod)

		s.wd.mu.Lock()
		destroyed := s.wd.destroyed
		fn := s.wd.terminate
		s.wd.mu.Unlock()

		if destroyed {
			return
		}
		if fn != nil && fn() {
			s.driver.Stop()
		}
	}
}

// Release tears down the context. Any watchdog goroutine observes the
// destruction flag on its next wake and exits; a concurrent Solve must
// already have stopped before Release is called.
func (s *Solver) Release() {
	if s.wd != nil {
		s.wd.mu.Lock()
		s.wd.destroyed = true
		s.wd.mu.Unlock()
	}
}
