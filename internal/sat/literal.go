package sat

import "fmt"

// Var identifies a Boolean variable by a dense, zero-based index. Variables
// are never reused: the solver only ever grows its variable set.
type Var int32

// VarUndef stands in for a variable handle where none exists. (An exhausted
// branching heap is reported with LitUndef, not VarUndef.)
const VarUndef Var = -1

// Lit is a variable paired with a sign, densely indexed as 2*v+sign so that
// complementary literals sit at adjacent indices and negation is a single
// XOR. This is the layout the watch-list store and the assignment array key
// off of.
type Lit int32

// LitUndef represents the absence of a literal (e.g. "no asserting literal
// yet" during conflict analysis).
const LitUndef Lit = -1

// MkLit builds the literal of variable v with the given sign (true means
// negated).
func MkLit(v Var, negated bool) Lit {
	if negated {
		return Lit(2*int32(v) + 1)
	}
	return Lit(2 * int32(v))
}

// PosLit returns the positive literal of v.
func PosLit(v Var) Lit { return MkLit(v, false) }

// NegLit returns the negative literal of v.
func NegLit(v Var) Lit { return MkLit(v, true) }

// Var returns the variable l refers to.
func (l Lit) Var() Var { return Var(int32(l) >> 1) }

// Sign reports whether l is the negated literal of its variable.
func (l Lit) Sign() bool { return int32(l)&1 != 0 }

// Negated returns the complementary literal. Indices of complementary
// literals differ only in their low bit, so this is branch-free.
func (l Lit) Negated() Lit { return l ^ 1 }

// Index returns the dense array index used by the assignment and watch-list
// stores to key this literal.
func (l Lit) Index() int { return int(l) }

func (v Var) String() string { return fmt.Sprintf("v%d", v) }

func (l Lit) String() string {
	if l.Sign() {
		return fmt.Sprintf("-%d", l.Var()+1)
	}
	return fmt.Sprintf("%d", l.Var()+1)
}
