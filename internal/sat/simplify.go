package sat

// Simplifier implements the optional in-search simplification passes: unit
// based subsumption/strengthening, and self-subsuming resolution (SSR) via
// hyper-binary probing. Both passes are only valid to run at decision level
// 0 with no tentative decisions pending -- the driver is responsible for
// only invoking Simplify at a restart boundary.
type Simplifier struct {
	asn      *Assignment
	db       *ClauseDB
	watches  *WatchStore
	analyzer *Analyzer

	occur [][]clauseRef // literal -> long (size >= 3) clauses currently containing it
}

// NewSimplifier returns a simplifier wired to the given subsystems.
func NewSimplifier(asn *Assignment, db *ClauseDB, watches *WatchStore, analyzer *Analyzer) *Simplifier {
	return &Simplifier{asn: asn, db: db, watches: watches, analyzer: analyzer}
}

// Grow adds occurrence-list slots for one freshly declared variable.
func (sp *Simplifier) Grow() {
	sp.occur = append(sp.occur, nil, nil)
}

func (sp *Simplifier) rebuildOccur() {
	for i := range sp.occur {
		sp.occur[i] = sp.occur[i][:0]
	}
	sp.db.ForEach(func(ref clauseRef, c *Clause) {
		if c.IsDeleted() || c.Size() < 3 {
			return
		}
		for _, l := range c.Lits() {
			sp.occur[l] = append(sp.occur[l], ref)
		}
	})
}

// removeLiteral deletes target from c in place, notifying the assignment
// module first if target currently occupies one of the clause's two watched
// positions (see the clause-modification protocol in watch.go).
func (sp *Simplifier) removeLiteral(ref clauseRef, c *Clause, target Lit) {
	for i, l := range c.Lits() {
		if l != target {
			continue
		}
		if i < 2 {
			sp.asn.NotifyModification(ref)
		}
		c.removeLitAt(i)
		return
	}
}

// subsumeByUnits implements 4.9's first pass: every long clause containing a
// root-level unit u is subsumed (deleted); every long clause containing ¬u
// is strengthened by removing it.
func (sp *Simplifier) subsumeByUnits() {
	sp.rebuildOccur()
	units := append([]Lit(nil), sp.asn.TrailUpTo(0)...)
	for _, u := range units {
		for _, ref := range sp.occur[u] {
			c := sp.db.Clause(ref)
			if !c.IsDeleted() {
				c.ScheduleForDeletion()
			}
		}
		notU := u.Negated()
		for _, ref := range sp.occur[notU] {
			c := sp.db.Clause(ref)
			if !c.IsDeleted() && c.Size() >= 3 {
				sp.removeLiteral(ref, c, notU)
			}
		}
	}
}

// SimplifyResult summarizes one Simplify call.
type SimplifyResult struct {
	Conflict bool  // the formula was proved UNSAT during simplification
	Facts    []Lit // newly derived root-level unit facts (already enqueued)
}

// Simplify runs both passes described in 4.9. It must only be called at
// decision level 0. bumpVar/bumpClause are forwarded to conflict analysis
// triggered by a failed literal; reinsert is invoked for every variable
// unassigned while undoing a probe's tentative level, mirroring the
// branching heap's reset callback.
func (sp *Simplifier) Simplify(bumpVar func(Var), bumpClause func(clauseRef), reinsert func(Lit)) SimplifyResult {
	sp.subsumeByUnits()

	var facts []Lit
	if conflict := sp.asn.Propagate(IncludeLemmas); !conflict.isNil() {
		return SimplifyResult{Conflict: true}
	}

	sp.rebuildOccur()
	numVars := sp.asn.NumVars()

	for vi := 0; vi < numVars; vi++ {
		v := Var(vi)
		if sp.asn.ValueVar(v) != Undef {
			continue
		}
		for _, r := range [2]Lit{PosLit(v), NegLit(v)} {
			if sp.asn.ValueVar(r.Var()) != Undef {
				break // r's variable got forced by an earlier probe this pass
			}

			sp.asn.PushDecisionLevel()
			sp.asn.Enqueue(r.Negated(), refNil)
			conflict := sp.asn.Propagate(ExcludeLemmas)

			if !conflict.isNil() {
				lemma, _ := sp.analyzer.Analyze(conflict, bumpVar, bumpClause)
				sp.asn.UndoToLevel(0, reinsert)

				if len(lemma) == 1 {
					facts = append(facts, lemma[0])
					if !sp.asn.Enqueue(lemma[0], refNil) {
						return SimplifyResult{Conflict: true, Facts: facts}
					}
				} else {
					ref := sp.db.Allocate(lemma, true)
					if ref.isNil() {
						return SimplifyResult{Conflict: true, Facts: facts}
					}
					if !sp.asn.RegisterLemma(ref) {
						return SimplifyResult{Conflict: true, Facts: facts}
					}
				}
				if c := sp.asn.Propagate(IncludeLemmas); !c.isNil() {
					return SimplifyResult{Conflict: true, Facts: facts}
				}
				sp.rebuildOccur()
				continue
			}

			sp.scanProbeResults(r)
			sp.asn.UndoToLevel(0, reinsert)
		}
	}

	return SimplifyResult{Facts: facts}
}

// scanProbeResults implements the subsumption/strengthening half of 4.9's
// second pass, examining every long clause containing r after a successful
// (non-conflicting) tentative assignment of ¬r.
func (sp *Simplifier) scanProbeResults(r Lit) {
	for _, ref := range sp.occur[r] {
		c := sp.db.Clause(ref)
		if c.IsDeleted() {
			continue
		}
		subsumed := false
		for _, b := range c.Lits() {
			if b == r {
				continue
			}
			if sp.asn.ValueLit(b) == True {
				subsumed = true
				break
			}
		}
		if subsumed {
			c.ScheduleForDeletion()
			continue
		}
		for _, b := range append([]Lit(nil), c.Lits()...) {
			if b == r {
				continue
			}
			if sp.asn.ValueLit(b) == False {
				sp.removeLiteral(ref, c, b)
			}
		}
	}
}
