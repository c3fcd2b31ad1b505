package sat

import "testing"

func newTestSimplifier(numVars int) (*Simplifier, *Assignment, *ClauseDB) {
	asn, db, watches := newTestAssignment(numVars)
	analyzer := NewAnalyzer(asn, db, watches)
	sp := NewSimplifier(asn, db, watches, analyzer)
	for i := 0; i < numVars; i++ {
		analyzer.Grow()
		sp.Grow()
	}
	return sp, asn, db
}

func TestSubsumeByUnitsDeletesSubsumedClause(t *testing.T) {
	sp, asn, db := newTestSimplifier(3)
	asn.Enqueue(PosLit(0), refNil)

	ref := db.Allocate([]Lit{PosLit(0), PosLit(1), PosLit(2)}, false)
	asn.RegisterClause(ref)

	sp.subsumeByUnits()

	if !db.Clause(ref).IsDeleted() {
		t.Fatalf("a clause containing a true root unit should be subsumed (deleted)")
	}
}

func TestSubsumeByUnitsStrengthensClauseContainingNegatedUnit(t *testing.T) {
	sp, asn, db := newTestSimplifier(3)
	asn.Enqueue(PosLit(0), refNil)

	ref := db.Allocate([]Lit{NegLit(0), PosLit(1), PosLit(2)}, false)
	asn.RegisterClause(ref)

	sp.subsumeByUnits()

	c := db.Clause(ref)
	if c.IsDeleted() {
		t.Fatalf("clause should be strengthened, not deleted")
	}
	if c.Size() != 2 {
		t.Fatalf("Size() = %d, want 2 after removing the falsified unit literal", c.Size())
	}
	for _, l := range c.Lits() {
		if l == NegLit(0) {
			t.Fatalf("falsified literal should have been removed: %v", c.Lits())
		}
	}
}

func TestSimplifyDerivesFailedLiteralAsFact(t *testing.T) {
	sp, asn, db := newTestSimplifier(2)

	// (v0 v v1) and (v0 v ¬v1): assuming ¬v0 forces both v1 and ¬v1, a
	// conflict, so v0 must be a fact.
	r1 := db.Allocate([]Lit{PosLit(0), PosLit(1)}, false)
	r2 := db.Allocate([]Lit{PosLit(0), NegLit(1)}, false)
	asn.RegisterClause(r1)
	asn.RegisterClause(r2)

	noop := func(Lit) {}
	res := sp.Simplify(func(Var) {}, func(clauseRef) {}, noop)
	if res.Conflict {
		t.Fatalf("Simplify should not report a top-level conflict for a satisfiable formula")
	}
	found := false
	for _, f := range res.Facts {
		if f == PosLit(0) {
			found = true
		}
	}
	if !found && asn.ValueVar(Var(0)) != True {
		t.Fatalf("Simplify should have derived v0 as a forced fact, got Facts=%v", res.Facts)
	}
}
