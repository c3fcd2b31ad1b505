package sat

// PropagateMode gates whether clauses flagged redundant (i.e. learnt
// lemmas) participate in a propagation sweep. Simplification uses
// ExcludeLemmas so that failed-literal probing doesn't learn from clauses
// that were themselves derived under a now-retracted tentative assignment.
type PropagateMode uint8

const (
	IncludeLemmas PropagateMode = iota
	ExcludeLemmas
)

// Assignment owns the trail, decision levels, and per-variable value/phase/
// reason/level state, and drives two-watched-literal unit propagation over a
// ClauseDB and WatchStore. It is the component described in the design as
// "Assignment (trail + propagation)".
type Assignment struct {
	db      *ClauseDB
	watches *WatchStore

	varVal []TBool
	phase  []TBool
	reason []clauseRef
	level  []int32

	trail       []Lit
	levelLimits []int32
	qHead       int
}

// NewAssignment returns an assignment with no variables.
func NewAssignment(db *ClauseDB, watches *WatchStore) *Assignment {
	return &Assignment{db: db, watches: watches}
}

// Grow adds bookkeeping for one freshly declared variable.
func (a *Assignment) Grow() {
	a.varVal = append(a.varVal, Undef)
	a.phase = append(a.phase, False)
	a.reason = append(a.reason, refNil)
	a.level = append(a.level, -1)
	a.watches.Grow()
}

// NumVars returns the number of declared variables.
func (a *Assignment) NumVars() int { return len(a.varVal) }

// NumAssigned returns the trail's length, i.e. the number of variables
// currently bound.
func (a *Assignment) NumAssigned() int { return len(a.trail) }

// CurrentLevel returns the current decision level; level 0 holds only
// root-forced facts.
func (a *Assignment) CurrentLevel() int { return len(a.levelLimits) }

// ValueVar returns the current value of v (Undef if unassigned).
func (a *Assignment) ValueVar(v Var) TBool { return a.varVal[v] }

// ValueLit returns the current truth value of l.
func (a *Assignment) ValueLit(l Lit) TBool { return valueOfLit(a.varVal[l.Var()], l) }

// PhaseOf returns the saved phase (last assigned value, defaulting to false)
// of v. The branching heuristic keeps its own phase in VarOrder and does not
// read this one.
func (a *Assignment) PhaseOf(v Var) TBool { return a.phase[v] }

// LevelOf returns the decision level at which v was assigned. The result is
// meaningless if v is currently unassigned.
func (a *Assignment) LevelOf(v Var) int { return int(a.level[v]) }

// HasReason reports whether v currently has a trustworthy reason clause.
// Reason pointers are not eagerly cleared on backtrack (I2): the guard is
// simply "is v currently assigned", since undo always clears varVal first.
func (a *Assignment) HasReason(v Var) bool {
	return a.varVal[v] != Undef && !a.reason[v].isNil()
}

// ReasonOf returns v's reason handle. Only meaningful when HasReason(v).
func (a *Assignment) ReasonOf(v Var) clauseRef { return a.reason[v] }

// Trail returns the current trail. The returned slice aliases internal
// storage and must not be retained past the next mutation.
func (a *Assignment) Trail() []Lit { return a.trail }

// TrailUpTo returns the trail literals assigned at exactly the given
// decision level.
func (a *Assignment) TrailUpTo(level int) []Lit {
	if level > a.CurrentLevel() {
		return nil
	}
	lo := int32(0)
	if level > 0 {
		lo = a.levelLimits[level-1]
	}
	if level == a.CurrentLevel() {
		return a.trail[lo:]
	}
	hi := a.levelLimits[level]
	return a.trail[lo:hi]
}

// PushDecisionLevel opens a new decision level without assigning anything.
func (a *Assignment) PushDecisionLevel() {
	a.levelLimits = append(a.levelLimits, int32(len(a.trail)))
}

// Enqueue assigns l=true (precondition: l is unassigned or already true)
// with the given reason, appending it to the trail. It returns false if l is
// already false under the current assignment (a conflict), true otherwise
// (including the already-true no-op case).
func (a *Assignment) Enqueue(l Lit, reason clauseRef) bool {
	switch a.ValueLit(l) {
	case False:
		return false
	case True:
		return true
	}
	v := l.Var()
	a.varVal[v] = Lift(!l.Sign())
	a.phase[v] = a.varVal[v]
	a.level[v] = int32(a.CurrentLevel())
	a.reason[v] = reason
	a.trail = append(a.trail, l)
	return true
}

// RegisterClause wires up watchers for a freshly stored clause of size >= 2
// without assigning or propagating anything (register_clause). The clause
// must already be non-conflicting under the current assignment.
func (a *Assignment) RegisterClause(ref clauseRef) {
	c := a.db.Clause(ref)
	if c.Size() < 2 {
		return
	}
	l0, l1 := c.Lit(0), c.Lit(1)
	if c.Size() == 2 {
		a.watches.WatchBinary(l0.Negated(), l1, ref)
		a.watches.WatchBinary(l1.Negated(), l0, ref)
	} else {
		a.watches.WatchLong(l0.Negated(), l1, ref, 0)
		a.watches.WatchLong(l1.Negated(), l0, ref, 1)
	}
}

// RegisterLemma wires up watchers for a freshly learnt clause whose literals
// beyond position 0 are all false, then enqueues its asserting literal
// (register_lemma). The caller must still invoke Propagate to drive the
// resulting assignment to fixpoint.
func (a *Assignment) RegisterLemma(ref clauseRef) bool {
	c := a.db.Clause(ref)
	if c.Size() == 1 {
		return a.Enqueue(c.Lit(0), ref)
	}
	a.RegisterClause(ref)
	return a.Enqueue(c.Lit(0), ref)
}

// NotifyModification must be called before any external mutation of a
// registered clause's first two literals (e.g. simplification's
// subsumption/strengthening). It marks both current watched literals dirty
// so their watcher lists are scrubbed before next use, and flags the clause
// itself modified. It is an implementation error to call this on a clause
// that is currently a reason for some variable's assignment.
func (a *Assignment) NotifyModification(ref clauseRef) {
	c := a.db.Clause(ref)
	if c.Size() >= 2 {
		a.watches.MarkDirty(c.Lit(0).Negated())
		a.watches.MarkDirty(c.Lit(1).Negated())
	}
	c.flags |= flagModified
}

// Propagate drains the trail to fixpoint, returning the handle of a
// conflicting clause, or refNil if no conflict arose. mode gates whether
// redundant (learnt) clauses participate.
func (a *Assignment) Propagate(mode PropagateMode) clauseRef {
	for a.qHead < len(a.trail) {
		lit := a.trail[a.qHead]
		a.qHead++

		// Binary sweep: registered under key=lit since clauses are stored
		// under the negation of their watched literal (see watch.go).
		for _, e := range a.watches.Binary(lit) {
			c := a.db.Clause(e.ref)
			if c.IsDeleted() {
				continue
			}
			if mode == ExcludeLemmas && c.IsRedundant() {
				continue
			}
			switch a.ValueLit(e.blocker) {
			case False:
				return e.ref
			case Undef:
				if !a.Enqueue(e.blocker, e.ref) {
					return e.ref
				}
			}
		}

		if conflict := a.longSweep(lit, mode); !conflict.isNil() {
			return conflict
		}
	}
	return refNil
}

// longSweep processes lit's long (size >= 3) watcher list, migrating
// watches as needed and returning a conflicting clause's handle if one is
// found partway through.
func (a *Assignment) longSweep(lit Lit, mode PropagateMode) clauseRef {
	entries := a.watches.Long(lit, a.db)
	kept := entries[:0]

	for i := 0; i < len(entries); i++ {
		e := entries[i]
		c := a.db.Clause(e.ref)
		if c.IsDeleted() {
			continue
		}
		if mode == ExcludeLemmas && c.IsRedundant() {
			kept = append(kept, e)
			continue
		}

		other := c.Lit(1 - int(e.idx))
		if a.ValueLit(other) == True {
			e.blocker = other
			kept = append(kept, e)
			continue
		}

		// Scan for a new literal to watch among the clause's non-watched
		// literals.
		moved := false
		for k := 2; k < c.Size(); k++ {
			lk := c.Lit(k)
			if a.ValueLit(lk) != False {
				c.swapLits(int(e.idx), k)
				a.watches.WatchLong(lk.Negated(), other, e.ref, e.idx)
				moved = true
				break
			}
		}
		if moved {
			continue
		}

		// All of c[2:] are false: either a conflict or a forced assignment.
		if a.ValueLit(other) == False {
			e.blocker = other
			kept = append(kept, e)
			kept = append(kept, entries[i+1:]...)
			a.watches.ReplaceLong(lit, kept)
			return e.ref
		}
		e.blocker = other
		kept = append(kept, e)
		a.Enqueue(other, e.ref)
	}

	a.watches.ReplaceLong(lit, kept)
	return refNil
}

// UndoToLevel unwinds the trail back to the given decision level (must not
// exceed the current level). onUndo is invoked, in trail order from most to
// least recent, for every literal being unassigned -- the driver uses this
// to reinsert undone variables into the branching heap.
func (a *Assignment) UndoToLevel(target int, onUndo func(Lit)) {
	if target >= a.CurrentLevel() {
		return
	}
	limit := a.levelLimits[target]
	for i := len(a.trail) - 1; i >= int(limit); i-- {
		lit := a.trail[i]
		if onUndo != nil {
			onUndo(lit)
		}
		a.varVal[lit.Var()] = Undef
		a.level[lit.Var()] = -1
	}
	a.trail = a.trail[:limit]
	a.levelLimits = a.levelLimits[:target]
	a.qHead = len(a.trail)
}

// RemapReasons rewrites every assigned variable's reason handle through
// remap, as returned by ClauseDB.Compress. A reason absent from remap means
// its clause was deleted; since deletion never targets a locked (in-use)
// reason clause, this should not occur in practice, but is handled
// defensively by clearing the reason rather than leaving a stale handle.
func (a *Assignment) RemapReasons(remap map[clauseRef]clauseRef) {
	for v := range a.reason {
		if a.reason[v].isNil() {
			continue
		}
		if nr, ok := remap[a.reason[v]]; ok {
			a.reason[v] = nr
		} else {
			a.reason[v] = refNil
		}
	}
}

// QueueIsEmpty reports whether every enqueued literal has been propagated.
func (a *Assignment) QueueIsEmpty() bool { return a.qHead == len(a.trail) }
