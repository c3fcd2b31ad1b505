package sat

// seenSet is a set of variables with constant-time Clear, implemented as a
// timestamp stamped into a per-variable slot rather than a boolean that must
// be zeroed on every reset.
type seenSet struct {
	stampedAt []uint32
	now       uint32
}

func (s *seenSet) grow() { s.stampedAt = append(s.stampedAt, 0) }

func (s *seenSet) has(v Var) bool { return s.stampedAt[v] == s.now }

func (s *seenSet) add(v Var) { s.stampedAt[v] = s.now }

// clear resets the set in O(1). On the (practically unreachable) timestamp
// overflow it falls back to physically zeroing every slot.
func (s *seenSet) clear() {
	s.now++
	if s.now == 0 {
		s.now = 1
		for i := range s.stampedAt {
			s.stampedAt[i] = 0
		}
	}
}

// Analyzer turns a conflicting clause into a first-UIP lemma: the standard
// single-pass resolution walk back over the trail, stopping as soon as
// exactly one literal of the current decision level remains in the cut.
type Analyzer struct {
	asn     *Assignment
	db      *ClauseDB
	watches *WatchStore

	// SizeBound and LBDBound gate the binary-resolution minimization stage
	// (4.4.2): lemmas larger, or spanning more levels, than these are left
	// to redundant-literal elimination alone.
	SizeBound int
	LBDBound  int

	seen    seenSet
	onLevel seenSet // scratch reused by computeLBD, keyed by level rather than variable

	buf        []Lit
	explainBuf []Lit
	stack      []Var // DFS stack reused by minimize
}

// NewAnalyzer returns an analyzer bound to the given assignment, clause
// database, and watch store, initially tracking zero variables.
func NewAnalyzer(asn *Assignment, db *ClauseDB, watches *WatchStore) *Analyzer {
	return &Analyzer{
		asn:       asn,
		db:        db,
		watches:   watches,
		SizeBound: 30,
		LBDBound:  6,
	}
}

// Grow adds bookkeeping for one freshly declared variable.
func (an *Analyzer) Grow() {
	an.seen.grow()
	an.onLevel.grow()
}

// reasonLits returns the literals that "explain" pivot: the full clause when
// pivot is LitUndef (explaining a top-level conflict), or every literal but
// pivot itself otherwise (explaining why pivot got assigned true -- those
// literals are exactly the ones false at the time of the implication).
func (an *Analyzer) reasonLits(ref clauseRef, pivot Lit) []Lit {
	lits := an.db.Clause(ref).Lits()
	if pivot == LitUndef {
		return lits
	}
	an.explainBuf = an.explainBuf[:0]
	for _, l := range lits {
		if l != pivot {
			an.explainBuf = append(an.explainBuf, l)
		}
	}
	return an.explainBuf
}

// Analyze walks the implication graph backward from conflict to produce a
// learnt clause (lemma) whose first literal is the first-UIP, asserting at
// backtrackLevel. bumpVar is invoked once per distinct variable touched
// during the walk, letting the caller drive VSIDS bumping; bumpClause is
// invoked once per redundant clause resolved against, for clause activity.
//
// The returned slice aliases the analyzer's internal buffer and is only
// valid until the next Analyze call.
func (an *Analyzer) Analyze(conflict clauseRef, bumpVar func(Var), bumpClause func(clauseRef)) (lemma []Lit, backtrackLevel int) {
	asn := an.asn
	currentLevel := asn.CurrentLevel()
	trail := asn.Trail()

	an.seen.clear()
	an.buf = an.buf[:1] // reserve position 0 for the FUIP literal, filled below
	pending := 0

	ref := conflict
	pivot := LitUndef
	idx := len(trail) - 1
	var uip Lit

	for {
		c := an.db.Clause(ref)
		if c.IsRedundant() && bumpClause != nil {
			bumpClause(ref)
		}
		for _, q := range an.reasonLits(ref, pivot) {
			v := q.Var()
			if an.seen.has(v) {
				continue
			}
			an.seen.add(v)
			if bumpVar != nil {
				bumpVar(v)
			}
			if asn.LevelOf(v) == currentLevel {
				pending++
				continue
			}
			an.buf = append(an.buf, q)
			if lvl := asn.LevelOf(v); lvl > backtrackLevel {
				backtrackLevel = lvl
			}
		}

		// Walk back over the trail until we land on a seen variable: that is
		// the next node on the current level's cut to resolve against (or,
		// once pending drops to zero, the first-UIP itself).
		var v Var
		for {
			uip = trail[idx]
			idx--
			v = uip.Var()
			if an.seen.has(v) {
				break
			}
		}
		pending--
		if pending <= 0 {
			break
		}
		ref = asn.ReasonOf(v)
		pivot = uip
	}

	an.buf[0] = uip.Negated()
	lemma := an.minimize(an.buf)
	lemma = an.resolveWithBinaries(lemma)
	return lemma, backtrackLevel
}

// resolveWithBinaries is lemma-minimization stage two (4.4.2): hyper-binary
// self-subsumption rooted at the asserting literal. For every binary clause
// (lemma[0] ∨ b) registered in the assignment, if ¬b is also in the lemma,
// it is subsumed by resolving the lemma against that binary clause and can
// be dropped. Gated by size/LBD bounds since the binary scan costs time
// proportional to the asserting literal's binary degree.
func (an *Analyzer) resolveWithBinaries(lemma []Lit) []Lit {
	if len(lemma) > an.SizeBound || an.computeLBD(lemma) > an.LBDBound {
		return lemma
	}
	asserting := lemma[0]
	for _, e := range an.watches.Binary(asserting.Negated()) {
		if an.db.Clause(e.ref).IsDeleted() {
			continue
		}
		target := e.blocker.Negated()
		for i := 1; i < len(lemma); i++ {
			if lemma[i] == target {
				lemma[i] = lemma[len(lemma)-1]
				lemma = lemma[:len(lemma)-1]
				break
			}
		}
	}
	return lemma
}

// minimize drops literals from the lemma that are redundant: a literal l is
// redundant if its negation is implied by other literals already in the
// lemma, discoverable by a DFS over l's reason clause that follows reasons
// transitively through implied variables, stops at variables already seen
// during conflict analysis, treats root-level (decision level 0) literals as
// implied, and fails as soon as it reaches a decision outside the lemma.
func (an *Analyzer) minimize(lemma []Lit) []Lit {
	if len(lemma) <= 1 {
		return lemma
	}
	kept := lemma[:1]
	for _, l := range lemma[1:] {
		if an.litRedundant(l) {
			continue
		}
		kept = append(kept, l)
	}
	return kept
}

// litRedundant reports whether l (already a member of the lemma being built,
// with an.seen holding every variable touched so far) can be dropped because
// its negation is implied by the rest of the lemma.
func (an *Analyzer) litRedundant(l Lit) bool {
	asn := an.asn
	v := l.Var()
	if !asn.HasReason(v) {
		return false // a decision literal can never be redundant
	}

	an.stack = an.stack[:0]
	an.stack = append(an.stack, v)
	top := 1
	var added []Var

	for top > 0 {
		top--
		cur := an.stack[top]
		an.stack = an.stack[:top]

		ref := asn.ReasonOf(cur)
		truePivot := MkLit(cur, asn.ValueVar(cur) == False)
		for _, q := range an.reasonLits(ref, truePivot) {
			qv := q.Var()
			if an.seen.has(qv) {
				continue
			}
			if asn.LevelOf(qv) == 0 {
				// Forced at the root: harmless, every lemma is implicitly
				// conjoined with root-level facts.
				an.seen.add(qv)
				added = append(added, qv)
				continue
			}
			if !asn.HasReason(qv) {
				// Hit a decision outside the lemma: not redundant. Undo the
				// marks of this failed search so later calls do not use them.
				for _, u := range added {
					an.seen.stampedAt[u] = an.seen.now - 1
				}
				return false
			}
			an.seen.add(qv)
			added = append(added, qv)
			an.stack = append(an.stack, qv)
			top++
		}
	}
	return true
}

// AnalyzeFailedAssumptions explains a conflict raised while propagating
// assumptions by walking the full implication closure (not stopping at the
// first UIP, since assumption decisions may all share one decision level):
// every decision literal reached -- one with no reason of its own -- is a
// candidate failing assumption. The caller is expected to intersect the
// result with the actual set of assumption literals, since root-level facts
// are enqueued the same way (reason-less) and would otherwise be reported
// as failing too.
func (an *Analyzer) AnalyzeFailedAssumptions(conflict clauseRef) []Lit {
	asn := an.asn
	an.seen.clear()

	var core []Lit
	queue := append([]Lit(nil), an.reasonLits(conflict, LitUndef)...)
	for len(queue) > 0 {
		l := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		v := l.Var()
		if an.seen.has(v) {
			continue
		}
		an.seen.add(v)

		if asn.LevelOf(v) == 0 {
			continue
		}
		if !asn.HasReason(v) {
			core = append(core, l.Negated())
			continue
		}
		queue = append(queue, an.reasonLits(asn.ReasonOf(v), l)...)
	}
	return core
}

// computeLBD returns the literal block distance of lits: the number of
// distinct decision levels its literals span. Lower is better (a lemma that
// only spans one or two levels is "glue"-like and rarely evicted).
func (an *Analyzer) computeLBD(lits []Lit) int {
	an.onLevel.clear()
	n := 0
	for _, l := range lits {
		lvl := an.asn.LevelOf(l.Var())
		if lvl < 0 {
			continue
		}
		lv := Var(lvl) // reuse the seenSet keyed by level instead of variable
		if int(lv) >= len(an.onLevel.stampedAt) {
			continue
		}
		if an.onLevel.has(lv) {
			continue
		}
		an.onLevel.add(lv)
		n++
	}
	return n
}
