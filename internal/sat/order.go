package sat

import (
	"github.com/rhartert/yagh"
)

// VarOrder is the VSIDS branching heuristic: a min-heap over negated
// activities, so that Pop always returns the variable with the highest
// activity (ties broken by declaration order, which is how yagh orders
// equal keys).
type VarOrder struct {
	heap *yagh.IntMap[float64]

	activity []float64 // in [0, 1e100)
	inc      float64   // in (0, 1e100)
	decay    float64   // in (0, 1]

	phase       []TBool
	phaseSaving bool
}

// NewVarOrder returns an empty VSIDS order. decay should be in (0, 1]: a
// value close to 1 makes recently bumped variables dominate less strongly
// over time. phaseSaving, when true, makes NextDecision reuse a variable's
// last assigned value instead of defaulting to positive.
func NewVarOrder(decay float64, phaseSaving bool) *VarOrder {
	return &VarOrder{
		heap:        yagh.New[float64](0),
		inc:         1,
		decay:       decay,
		phaseSaving: phaseSaving,
	}
}

// Grow adds one freshly declared variable to the order, inserting it into
// the heap immediately.
func (vo *VarOrder) Grow() {
	v := len(vo.activity)
	vo.activity = append(vo.activity, 0)
	vo.phase = append(vo.phase, Undef)
	vo.heap.GrowBy(1)
	vo.heap.Put(v, 0)
}

// Reinsert adds v back into the set of candidates, e.g. after it is
// unassigned by backtracking. val is the value v held just before being
// unassigned, recorded for phase saving.
func (vo *VarOrder) Reinsert(v Var, val TBool) {
	if vo.phaseSaving {
		vo.phase[v] = val
	}
	vo.heap.Put(int(v), -vo.activity[v])
}

// Bump increases v's activity, rescaling every variable's activity (and the
// increment) if it would otherwise overflow. This preserves variables'
// relative activity ordering even as the raw numbers shrink back down.
func (vo *VarOrder) Bump(v Var) {
	vo.activity[v] += vo.inc
	if vo.heap.Contains(int(v)) {
		vo.heap.Put(int(v), -vo.activity[v])
	}
	if vo.activity[v] > 1e100 {
		vo.rescale()
	}
}

// Decay increases the bump increment, which has the effect of making past
// bumps matter less relative to future ones without having to touch every
// variable's stored activity on every conflict.
func (vo *VarOrder) Decay() {
	vo.inc /= vo.decay
	if vo.inc > 1e100 {
		vo.rescale()
	}
}

func (vo *VarOrder) rescale() {
	vo.inc *= 1e-100
	for v, s := range vo.activity {
		vo.activity[v] = s * 1e-100
		if vo.heap.Contains(v) {
			vo.heap.Put(v, -vo.activity[v])
		}
	}
}

// ActivityOf returns v's current VSIDS activity.
func (vo *VarOrder) ActivityOf(v Var) float64 { return vo.activity[v] }

// NextDecision pops variables off the heap, skipping any already assigned
// under asn, until it finds one still free, and returns the literal of that
// variable matching its saved (or default positive) phase. It returns
// LitUndef if every variable is already assigned.
func (vo *VarOrder) NextDecision(asn *Assignment) Lit {
	for {
		v, ok := vo.heap.Pop()
		if !ok {
			return LitUndef
		}
		if asn.ValueVar(Var(v.Elem)) != Undef {
			continue
		}
		switch vo.phase[v.Elem] {
		case False:
			return NegLit(Var(v.Elem))
		default:
			return PosLit(Var(v.Elem))
		}
	}
}
