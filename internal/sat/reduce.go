package sat

import "sort"

// ReducePolicy decides when the learnt-clause database has grown large
// enough to warrant a cleanup pass, with the trigger threshold itself
// growing after every reduction so cleanups get rarer as the search goes
// on and the surviving lemmas get a longer chance to prove their worth.
type ReducePolicy struct {
	nextLimit int
	growth    int
}

// NewReducePolicy returns a policy that first triggers once initialLimit
// learnt clauses have accumulated, growing the threshold by growth after
// each reduction.
func NewReducePolicy(initialLimit, growth int) *ReducePolicy {
	return &ReducePolicy{nextLimit: initialLimit, growth: growth}
}

// ShouldReduce reports whether the database should be cleaned up now.
func (rp *ReducePolicy) ShouldReduce(numLearnt int) bool {
	return numLearnt >= rp.nextLimit
}

// NotifyReduced must be called once after each reduction pass.
func (rp *ReducePolicy) NotifyReduced() {
	rp.nextLimit += rp.growth
}

// Reduce scores every redundant (learnt) clause by LBD first, clause
// activity second, protects clauses that are glue (LBD <= 2) or currently
// locked as some variable's reason, and schedules the worse half of what
// remains for deletion. It returns the number of clauses deleted.
//
// Deletion only sets a flag: propagation already skips deleted clauses it
// encounters (see Assignment.Propagate), so correctness does not depend on
// watch lists being purged immediately. Callers should still follow up with
// WatchStore.PurgeAllDeleted once deletions accumulate, to keep watch-list
// walks from wasting time on entries that will never fire again.
func Reduce(db *ClauseDB, asn *Assignment) int {
	type candidate struct {
		ref clauseRef
		lbd int
		act float64
	}
	var candidates []candidate

	db.ForEach(func(ref clauseRef, c *Clause) {
		if c.IsDeleted() || !c.IsRedundant() {
			return
		}
		if c.LBD() <= 2 {
			return
		}
		if isLocked(asn, ref, c) {
			return
		}
		candidates = append(candidates, candidate{ref: ref, lbd: c.LBD(), act: c.activity})
	})

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].lbd != candidates[j].lbd {
			return candidates[i].lbd > candidates[j].lbd
		}
		return candidates[i].act < candidates[j].act
	})

	toDelete := len(candidates) / 2
	for i := 0; i < toDelete; i++ {
		db.Clause(candidates[i].ref).ScheduleForDeletion()
	}
	return toDelete
}

// isLocked reports whether ref is currently serving as some variable's
// reason clause, via the convention that a registered clause's asserting
// literal always sits at position 0 (see Assignment.RegisterLemma).
func isLocked(asn *Assignment, ref clauseRef, c *Clause) bool {
	if c.Size() == 0 {
		return false
	}
	v := c.Lit(0).Var()
	return asn.HasReason(v) && asn.ReasonOf(v) == ref
}
