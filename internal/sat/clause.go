package sat

import (
	"strings"
)

// clauseFlags is the bitset carried by every stored clause.
type clauseFlags uint8

const (
	flagDeleted   clauseFlags = 1 << iota // SCHEDULED_FOR_DELETION
	flagRedundant                         // learnt lemma, as opposed to a problem clause
	flagModified                          // mutated since the last watch-list cleanup
)

// maxLBD bounds the literal block distance field; clauses spanning more
// decision levels than this are simply clamped, which only makes them look
// (harmlessly) worse to the reduction policy.
const maxLBD = 1<<16 - 1

// Clause is a variable-length, duplicate-free sequence of literals together
// with the bookkeeping the propagator, conflict analyzer, and reduction
// policy need. Clauses live inside a region (see region.go) and are
// referenced by callers through a stable clauseRef rather than a Go pointer,
// since compaction may relocate them.
type Clause struct {
	lits []Lit

	// initialSize is the literal count at allocation time. It must be kept
	// stable across in-place shrinks so that a physical walk of a region can
	// still find clause boundaries (see region.go's forEach), mirroring the
	// C allocator's alloc_size(initial_size) stride.
	initialSize int

	flags clauseFlags
	lbd   uint16

	// signature is a 64-bit Bloom-style over-approximation of the variables
	// occurring in the clause, refreshed by refreshSignature whenever the
	// clause's literal set changes. It lets subsumption/strengthening reject
	// non-candidates in O(1) before touching the literal slice.
	signature uint64

	// activity is only meaningful for redundant (learnt) clauses; it drives
	// the reduction policy's eviction order.
	activity float64
}

func litBit(l Lit) uint64 {
	return uint64(1) << (uint(l.Var()) & 63)
}

// refreshSignature recomputes the clause's Bloom signature. Must be called
// after any mutation of c.lits.
func (c *Clause) refreshSignature() {
	var sig uint64
	for _, l := range c.lits {
		sig |= litBit(l)
	}
	c.signature = sig
}

// mightContain is an O(1) prefilter: false is a definitive answer, true is
// merely "maybe, check the literals".
func (c *Clause) mightContain(l Lit) bool {
	return c.signature&litBit(l) != 0
}

// mightBeSubsetOf is an O(1) prefilter for clause-level subsumption checks.
func (c *Clause) mightBeSubsetOf(other *Clause) bool {
	return c.signature&^other.signature == 0
}

// Size returns the clause's current literal count.
func (c *Clause) Size() int { return len(c.lits) }

// Lits returns the clause's literals. The returned slice aliases the
// clause's storage and must not be retained past the next mutation of the
// clause or the next database compaction.
func (c *Clause) Lits() []Lit { return c.lits }

// Lit returns the i-th literal.
func (c *Clause) Lit(i int) Lit { return c.lits[i] }

// IsRedundant reports whether the clause is a learnt lemma.
func (c *Clause) IsRedundant() bool { return c.flags&flagRedundant != 0 }

// IsDeleted reports whether the clause has been scheduled for deletion. Such
// a clause must not influence propagation past the next watch-list cleanup.
func (c *Clause) IsDeleted() bool { return c.flags&flagDeleted != 0 }

// ScheduleForDeletion marks the clause SCHEDULED_FOR_DELETION. The clause
// store's compaction pass will physically reclaim it.
func (c *Clause) ScheduleForDeletion() { c.flags |= flagDeleted }

// LBD returns the clause's last-computed literal block distance.
func (c *Clause) LBD() int { return int(c.lbd) }

func (c *Clause) setLBD(v int) {
	if v > maxLBD {
		v = maxLBD
	}
	if v < 1 {
		v = 1
	}
	c.lbd = uint16(v)
}

// swapLits exchanges the literals at positions i and j, e.g. to move a newly
// found watch candidate into a watched slot.
func (c *Clause) swapLits(i, j int) {
	c.lits[i], c.lits[j] = c.lits[j], c.lits[i]
}

// removeLitAt deletes the literal at index i in place (order of the
// remaining literals beyond i is not preserved) and marks the clause
// modified.
func (c *Clause) removeLitAt(i int) {
	last := len(c.lits) - 1
	c.lits[i] = c.lits[last]
	c.lits = c.lits[:last]
	c.flags |= flagModified
	c.refreshSignature()
}

func (c *Clause) String() string {
	if len(c.lits) == 0 {
		return "()"
	}
	sb := strings.Builder{}
	sb.WriteByte('(')
	for i, l := range c.lits {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(l.String())
	}
	sb.WriteByte(')')
	return sb.String()
}
