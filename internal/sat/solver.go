package sat

import "sync/atomic"

// Status is the three-way result of a Solve call.
type Status uint8

const (
	StatusIndeterminate Status = iota
	StatusSAT
	StatusUNSAT
)

func (s Status) String() string {
	switch s {
	case StatusSAT:
		return "SATISFIABLE"
	case StatusUNSAT:
		return "UNSATISFIABLE"
	default:
		return "INDETERMINATE"
	}
}

// Options configures a Driver. Zero-valued fields fall back to DefaultOptions
// via NewDriver.
type Options struct {
	ClauseDecay   float64
	VariableDecay float64
	PhaseSaving   bool

	CheckStopInterval        int
	MaxLBDUpdatesOnBacktrack int
	ReduceInitialLimit       int
	ReduceGrowth             int
	EnableSimplify           bool
}

// DefaultOptions mirrors the decay constants a Glucose-family solver ships
// with: a near-1 clause decay (lemmas lose relevance slowly), a brisker
// variable decay (recent conflicts dominate branching), and a stop-flag
// check every CheckStopInterval conflicts.
var DefaultOptions = Options{
	ClauseDecay:              0.999,
	VariableDecay:            0.8,
	PhaseSaving:              true,
	CheckStopInterval:        8192,
	MaxLBDUpdatesOnBacktrack: 32,
	ReduceInitialLimit:       2000,
	ReduceGrowth:             1300,
	EnableSimplify:           true,
}

func fillDefaults(o Options) Options {
	d := DefaultOptions
	if o.ClauseDecay != 0 {
		d.ClauseDecay = o.ClauseDecay
	}
	if o.VariableDecay != 0 {
		d.VariableDecay = o.VariableDecay
	}
	if o.CheckStopInterval != 0 {
		d.CheckStopInterval = o.CheckStopInterval
	}
	if o.MaxLBDUpdatesOnBacktrack != 0 {
		d.MaxLBDUpdatesOnBacktrack = o.MaxLBDUpdatesOnBacktrack
	}
	if o.ReduceInitialLimit != 0 {
		d.ReduceInitialLimit = o.ReduceInitialLimit
	}
	if o.ReduceGrowth != 0 {
		d.ReduceGrowth = o.ReduceGrowth
	}
	d.PhaseSaving = o.PhaseSaving || DefaultOptions.PhaseSaving
	d.EnableSimplify = o.EnableSimplify || DefaultOptions.EnableSimplify
	return d
}

// Stats collects search counters for diagnostics and the CLI's trailing
// report, in the spirit of the teacher's TotalConflicts/TotalRestarts
// fields.
type Stats struct {
	Conflicts     int64
	Restarts      int64
	Decisions     int64
	Propagations  int64
	Reductions    int64
	LearntClauses int
}

// Driver is the CDCL main loop: it owns every subsystem and drives them
// through the Init -> Restart-Boundary -> {Decision, Propagation, Conflict,
// Backjump} -> Terminate-* state machine.
type Driver struct {
	asn        *Assignment
	db         *ClauseDB
	watches    *WatchStore
	analyzer   *Analyzer
	order      *VarOrder
	restart    *RestartPolicy
	reduceP    *ReducePolicy
	simplifier *Simplifier

	opts Options

	clauseInc float64

	facts       []Lit
	assumptions []Lit
	failedCore  []Lit

	detectedUNSAT bool
	detectedOOM   bool
	stopRequested int32 // accessed via sync/atomic only

	Stats Stats

	model []bool

	learnMaxLen int
	learnFn     func(lits []Lit)
}

// NewDriver returns a driver with no variables and no clauses, configured by
// opts (zero fields fall back to DefaultOptions).
func NewDriver(opts Options) *Driver {
	opts = fillDefaults(opts)

	db := NewClauseDB(0)
	watches := NewWatchStore()
	asn := NewAssignment(db, watches)
	analyzer := NewAnalyzer(asn, db, watches)
	order := NewVarOrder(opts.VariableDecay, opts.PhaseSaving)
	simplifier := NewSimplifier(asn, db, watches, analyzer)

	return &Driver{
		asn:        asn,
		db:         db,
		watches:    watches,
		analyzer:   analyzer,
		order:      order,
		restart:    NewRestartPolicy(),
		reduceP:    NewReducePolicy(opts.ReduceInitialLimit, opts.ReduceGrowth),
		simplifier: simplifier,
		opts:       opts,
		clauseInc:  1,
	}
}

// NumVariables returns the number of declared variables.
func (d *Driver) NumVariables() int { return d.asn.NumVars() }

// AddVariable declares one fresh variable and returns its handle.
func (d *Driver) AddVariable() Var {
	v := Var(d.asn.NumVars())
	d.asn.Grow()
	d.analyzer.Grow()
	d.order.Grow()
	d.simplifier.Grow()
	return v
}

// AddClause adds a problem clause. It must only be called at decision level
// 0. An empty (or, after simplification, contradictory) clause latches
// detected_unsat; an allocation failure latches detected_out_of_memory. The
// return value reports whether the clause was accepted without detecting
// either condition.
func (d *Driver) AddClause(lits []Lit) bool {
	simplified, tautology := simplifyInputClause(d.asn, lits)
	if tautology {
		return true
	}

	switch len(simplified) {
	case 0:
		d.detectedUNSAT = true
		return false
	case 1:
		d.facts = append(d.facts, simplified[0])
		if !d.asn.Enqueue(simplified[0], refNil) {
			d.detectedUNSAT = true
			return false
		}
		return true
	default:
		ref := d.db.Allocate(simplified, false)
		if ref.isNil() {
			d.detectedOOM = true
			return false
		}
		d.asn.RegisterClause(ref)
		return true
	}
}

// simplifyInputClause drops duplicate and root-false literals and reports a
// tautology (opposite literals present, or a root-true literal) so the
// caller can discard the clause as trivially satisfied.
func simplifyInputClause(asn *Assignment, lits []Lit) (out []Lit, tautology bool) {
	seen := make(map[Lit]bool, len(lits))
	out = make([]Lit, 0, len(lits))
	for _, l := range lits {
		if seen[l] {
			continue
		}
		if seen[l.Negated()] {
			return nil, true
		}
		seen[l] = true
		switch asn.ValueLit(l) {
		case True:
			return nil, true
		case False:
			continue
		}
		out = append(out, l)
	}
	return out, false
}

// Assume registers a single-use assumption literal for the next Solve call.
func (d *Driver) Assume(l Lit) { d.assumptions = append(d.assumptions, l) }

// Stop requests that any in-progress or future Solve call return
// INDETERMINATE at its next checkpoint. Safe to call from another
// goroutine.
func (d *Driver) Stop() { atomic.StoreInt32(&d.stopRequested, 1) }

// ClearStop resets the stop request. Solve never resets it itself, so a stop
// stays in effect for later Solve calls until ClearStop is called.
func (d *Driver) ClearStop() { atomic.StoreInt32(&d.stopRequested, 0) }

func (d *Driver) stopped() bool { return atomic.LoadInt32(&d.stopRequested) != 0 }

// ValueOfVar returns v's value in the last SAT model, or Undef if there is
// no current model. The model assigns every variable, so don't-care
// variables are reported with whatever value they were given.
func (d *Driver) ValueOfVar(v Var) TBool {
	if d.model == nil {
		return Undef
	}
	return Lift(d.model[v])
}

// FailedCore returns the assumption literals implicated in the last UNSAT
// result, a subset of the literals passed to Assume since the previous
// Solve call.
func (d *Driver) FailedCore() []Lit { return d.failedCore }

// SetLearnCallback registers fn to be invoked with a freshly learnt lemma's
// literals (including single-literal facts) whenever its length is at most
// maxLen. fn may be nil to disable reporting. This is the hook the IPASIR
// surface's set_learn is built on (internal/ipasir).
func (d *Driver) SetLearnCallback(maxLen int, fn func(lits []Lit)) {
	d.learnMaxLen = maxLen
	d.learnFn = fn
}

// reportLearnt invokes the registered learn callback, if any, with a copy
// of lemma (lemma may alias the analyzer's internal buffer, which is
// reused by the next conflict).
func (d *Driver) reportLearnt(lemma []Lit) {
	if d.learnFn == nil || len(lemma) > d.learnMaxLen {
		return
	}
	d.learnFn(append([]Lit(nil), lemma...))
}

// Solve runs the search to completion, to a stop request, or to resource
// exhaustion, consuming the assumptions accumulated since the last call.
func (d *Driver) Solve() Status {
	defer func() { d.assumptions = d.assumptions[:0] }()

	if d.detectedUNSAT {
		return StatusUNSAT
	}
	if d.detectedOOM {
		return StatusIndeterminate
	}

	for {
		status, terminal := d.restartBoundary()
		if terminal {
			return status
		}
		if status, terminal := d.searchUntilRestart(); terminal {
			return status
		}
	}
}

// restartBoundary re-propagates accumulated hard facts, optionally
// simplifies, then creates decision level 1 and propagates the pending
// assumptions.
func (d *Driver) restartBoundary() (Status, bool) {
	d.facts = dedupLits(d.facts)
	for _, f := range d.facts {
		if !d.asn.Enqueue(f, refNil) {
			d.detectedUNSAT = true
			return StatusUNSAT, true
		}
	}
	if conflict := d.asn.Propagate(IncludeLemmas); !conflict.isNil() {
		d.detectedUNSAT = true
		return StatusUNSAT, true
	}

	if d.opts.EnableSimplify && d.asn.CurrentLevel() == 0 {
		res := d.simplifier.Simplify(d.order.Bump, d.bumpClause, d.reinsert)
		d.facts = dedupLits(append(d.facts, res.Facts...))
		if res.Conflict {
			d.detectedUNSAT = true
			return StatusUNSAT, true
		}
	}

	d.asn.PushDecisionLevel()
	var conflict clauseRef = refNil
	directFail := false
	for _, a := range d.assumptions {
		if !d.asn.Enqueue(a, refNil) {
			directFail = true
			d.failedCore = []Lit{a}
			break
		}
	}
	if !directFail {
		conflict = d.asn.Propagate(IncludeLemmas)
	}
	if directFail || !conflict.isNil() {
		if !directFail {
			core := d.analyzer.AnalyzeFailedAssumptions(conflict)
			d.failedCore = d.filterAssumptions(core)
		}
		d.asn.UndoToLevel(0, d.reinsert)
		return StatusUNSAT, true
	}

	return StatusIndeterminate, false
}

// searchUntilRestart runs Decision/Propagation/Conflict/Backjump
// transitions until either the search terminates or the restart policy
// fires (in which case it undoes back to level 0 and returns
// (_, false) so Solve loops back into restartBoundary).
func (d *Driver) searchUntilRestart() (Status, bool) {
	for {
		conflict := d.asn.Propagate(IncludeLemmas)
		if !conflict.isNil() {
			status, terminal := d.handleConflict(conflict)
			if terminal {
				return status, true
			}
			continue
		}

		if d.asn.NumAssigned() == d.asn.NumVars() {
			d.saveModel()
			d.asn.UndoToLevel(0, d.reinsert)
			return StatusSAT, true
		}

		if d.reduceP.ShouldReduce(d.Stats.LearntClauses) {
			d.runReduce()
		}

		if d.restart.ShouldRestart() {
			d.restart.NotifyRestart()
			d.Stats.Restarts++
			d.asn.UndoToLevel(0, d.reinsert)
			return StatusIndeterminate, false
		}

		d.decide()
	}
}

// handleConflict implements the Conflict/Backjump transitions for a single
// conflicting clause found mid-search (decision level >= 1 beyond the pure
// assumption conflict handled by restartBoundary).
func (d *Driver) handleConflict(conflict clauseRef) (Status, bool) {
	d.Stats.Conflicts++
	if d.Stats.Conflicts%int64(d.opts.CheckStopInterval) == 0 && d.stopped() {
		d.asn.UndoToLevel(0, d.reinsert)
		return StatusIndeterminate, true
	}

	level := d.asn.CurrentLevel()

	if level == 0 {
		d.detectedUNSAT = true
		return StatusUNSAT, true
	}

	lemma, bt := d.analyzer.Analyze(conflict, d.order.Bump, d.bumpClause)
	d.order.Decay()
	d.decayClauseActivity()

	if level == 1 && bt <= 1 {
		core := d.analyzer.AnalyzeFailedAssumptions(conflict)
		d.failedCore = d.filterAssumptions(core)
		d.asn.UndoToLevel(0, d.reinsert)
		return StatusUNSAT, true
	}

	lbd := d.analyzer.computeLBD(lemma)
	d.restart.RecordConflict(lbd)

	d.recomputeHotLBDs(level)
	d.asn.UndoToLevel(bt, d.reinsert)
	d.reportLearnt(lemma)

	if len(lemma) == 1 {
		d.facts = append(d.facts, lemma[0])
		if !d.asn.Enqueue(lemma[0], refNil) {
			d.detectedUNSAT = true
			return StatusUNSAT, true
		}
		return StatusIndeterminate, false
	}

	d.placeAssertingLiteral(lemma)
	ref := d.db.Allocate(lemma, true)
	if ref.isNil() {
		d.detectedOOM = true
		d.asn.UndoToLevel(0, d.reinsert)
		return StatusIndeterminate, true
	}
	d.db.Clause(ref).setLBD(lbd)
	if !d.asn.RegisterLemma(ref) {
		d.detectedUNSAT = true
		return StatusUNSAT, true
	}
	d.Stats.LearntClauses++
	return StatusIndeterminate, false
}

// placeAssertingLiteral swaps the lemma's second-highest-level literal into
// position 1 (position 0 is always the asserting literal), so that after
// backjumping both watched positions become unassigned in a predictable
// order (4.8).
func (d *Driver) placeAssertingLiteral(lemma []Lit) {
	if len(lemma) < 3 {
		return
	}
	best := 1
	bestLevel := d.asn.LevelOf(lemma[1].Var())
	for i := 2; i < len(lemma); i++ {
		if lvl := d.asn.LevelOf(lemma[i].Var()); lvl > bestLevel {
			bestLevel = lvl
			best = i
		}
	}
	lemma[1], lemma[best] = lemma[best], lemma[1]
}

// recomputeHotLBDs refreshes the LBD of up to MaxLBDUpdatesOnBacktrack
// reason clauses belonging to the level about to be undone, since those
// clauses are "hot" (just used) and cheap to re-measure.
func (d *Driver) recomputeHotLBDs(level int) {
	lits := d.asn.TrailUpTo(level)
	updated := 0
	for _, l := range lits {
		if updated >= d.opts.MaxLBDUpdatesOnBacktrack {
			break
		}
		v := l.Var()
		if !d.asn.HasReason(v) {
			continue
		}
		c := d.db.Clause(d.asn.ReasonOf(v))
		if !c.IsRedundant() {
			continue
		}
		if newLBD := d.analyzer.computeLBD(c.Lits()); newLBD < c.LBD() {
			c.setLBD(newLBD)
		}
		updated++
	}
}

// decide picks the next branch literal and opens a new decision level for
// it.
func (d *Driver) decide() {
	l := d.order.NextDecision(d.asn)
	if l == LitUndef {
		return
	}
	d.Stats.Decisions++
	d.asn.PushDecisionLevel()
	d.asn.Enqueue(l, refNil)
}

// reinsert is the branching-heap reset callback passed to
// Assignment.UndoToLevel: it must run before the variable's value is
// cleared so phase saving can record the value it held.
func (d *Driver) reinsert(l Lit) {
	v := l.Var()
	d.order.Reinsert(v, d.asn.ValueVar(v))
}

func (d *Driver) bumpClause(ref clauseRef) {
	c := d.db.Clause(ref)
	if !c.IsRedundant() {
		return
	}
	c.activity += d.clauseInc
	if c.activity > 1e100 {
		d.clauseInc *= 1e-100
		d.db.ForEach(func(_ clauseRef, cc *Clause) {
			if cc.IsRedundant() {
				cc.activity *= 1e-100
			}
		})
	}
}

func (d *Driver) decayClauseActivity() {
	d.clauseInc /= d.opts.ClauseDecay
}

func (d *Driver) runReduce() {
	deleted := Reduce(d.db, d.asn)
	d.Stats.LearntClauses -= deleted
	d.Stats.Reductions++
	d.reduceP.NotifyReduced()

	d.watches.PurgeAllDeleted(d.db)
	remap := d.db.Compress()
	d.asn.RemapReasons(remap)
	d.watches.Rebuild(d.db)
}

func (d *Driver) saveModel() {
	d.model = make([]bool, d.asn.NumVars())
	for v := 0; v < d.asn.NumVars(); v++ {
		d.model[v] = d.asn.ValueVar(Var(v)) == True
	}
}

// filterAssumptions keeps only the literals of core that were actually
// registered via Assume, since root-level facts are enqueued the same way
// (no reason clause) and would otherwise be indistinguishable.
func (d *Driver) filterAssumptions(core []Lit) []Lit {
	set := make(map[Lit]bool, len(d.assumptions))
	for _, a := range d.assumptions {
		set[a] = true
	}
	out := make([]Lit, 0, len(core))
	for _, l := range core {
		if set[l] {
			out = append(out, l)
		}
	}
	return out
}

// dedupLits removes duplicate literals in place, preserving the order of
// first occurrence.
func dedupLits(lits []Lit) []Lit {
	seen := make(map[Lit]bool, len(lits))
	out := lits[:0]
	for _, l := range lits {
		if seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out
}
