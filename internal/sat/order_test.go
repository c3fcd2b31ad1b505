package sat

import "testing"

func TestNextDecisionPrefersHigherActivity(t *testing.T) {
	vo := NewVarOrder(0.8, false)
	for i := 0; i < 3; i++ {
		vo.Grow()
	}
	vo.Bump(Var(2))
	vo.Bump(Var(2))
	vo.Bump(Var(1))

	asn, _, _ := newTestAssignment(3)

	l := vo.NextDecision(asn)
	if l.Var() != 2 {
		t.Fatalf("NextDecision() picked var %v, want var 2 (highest activity)", l.Var())
	}
}

func TestNextDecisionSkipsAssignedVariables(t *testing.T) {
	vo := NewVarOrder(0.8, false)
	for i := 0; i < 2; i++ {
		vo.Grow()
	}
	vo.Bump(Var(1))

	asn, _, _ := newTestAssignment(2)
	asn.Enqueue(PosLit(1), refNil)

	l := vo.NextDecision(asn)
	if l.Var() != 0 {
		t.Fatalf("NextDecision() should skip already-assigned var 1 and return var 0, got %v", l.Var())
	}
}

func TestNextDecisionExhausted(t *testing.T) {
	vo := NewVarOrder(0.8, false)
	vo.Grow()
	asn, _, _ := newTestAssignment(1)
	asn.Enqueue(PosLit(0), refNil)

	if l := vo.NextDecision(asn); l != LitUndef {
		t.Fatalf("NextDecision() = %v, want LitUndef when every variable is assigned", l)
	}
}

func TestPhaseSavingReusesLastValue(t *testing.T) {
	vo := NewVarOrder(0.8, true)
	vo.Grow()
	vo.Reinsert(Var(0), False)

	asn, _, _ := newTestAssignment(1)
	l := vo.NextDecision(asn)
	if !l.Sign() {
		t.Fatalf("phase saving should have produced the negative literal after Reinsert(False), got %v", l)
	}
}

func TestBumpRescalesWithoutChangingRelativeOrder(t *testing.T) {
	vo := NewVarOrder(0.8, false)
	for i := 0; i < 2; i++ {
		vo.Grow()
	}
	vo.activity[1] = 5e100
	vo.inc = 2e100

	vo.Bump(Var(0))
	if vo.activity[0] >= vo.activity[1] {
		t.Fatalf("rescale should preserve relative activity order: activity[0]=%v activity[1]=%v", vo.activity[0], vo.activity[1])
	}
}
