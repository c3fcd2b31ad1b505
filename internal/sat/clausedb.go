package sat

// defaultRegionCapacity bounds how many clauses a single region may hold
// before allocation spills into a fresh one.
const defaultRegionCapacity = 1 << 14

// ClauseDB is a sequence of active regions open for allocation plus a pool
// of spare (emptied) regions recycled by compaction. It implements the
// "iterable clause DB" described by the design: a closed trait of
// create_clause/compress/for_each_clause operations, with region as its sole
// in-tree implementor.
type ClauseDB struct {
	active         []*region
	spare          []*region
	regionCapacity int

	// outOfMemory latches once an allocation fails even after trying a fresh
	// region, i.e. a single clause is larger than an empty region. The
	// driver surfaces this as INDETERMINATE.
	outOfMemory bool
}

// NewClauseDB returns an empty clause database whose regions hold up to
// regionCapacity clauses each.
func NewClauseDB(regionCapacity int) *ClauseDB {
	if regionCapacity <= 0 {
		regionCapacity = defaultRegionCapacity
	}
	return &ClauseDB{regionCapacity: regionCapacity}
}

func (db *ClauseDB) freshRegion() *region {
	if n := len(db.spare); n > 0 {
		r := db.spare[n-1]
		db.spare = db.spare[:n-1]
		return r
	}
	return newRegion(db.regionCapacity)
}

// Allocate stores a new clause with the given literals, returning its
// handle. Allocation tries the current active region first and promotes a
// spare region on failure; if even an empty region cannot hold the clause,
// Allocate returns refNil and latches outOfMemory.
func (db *ClauseDB) Allocate(lits []Lit, redundant bool) clauseRef {
	if len(db.active) == 0 {
		db.active = append(db.active, db.freshRegion())
	}
	ri := len(db.active) - 1
	slot := db.active[ri].allocate(lits, redundant)
	if slot < 0 {
		db.active = append(db.active, db.freshRegion())
		ri = len(db.active) - 1
		slot = db.active[ri].allocate(lits, redundant)
		if slot < 0 {
			db.outOfMemory = true
			return refNil
		}
	}
	return clauseRef{region: int32(ri), slot: slot}
}

// Clause dereferences a handle. The returned pointer is valid until the next
// Compress call.
func (db *ClauseDB) Clause(ref clauseRef) *Clause {
	return db.active[ref.region].clause(ref.slot)
}

// ForEach walks every stored clause (including those marked for deletion but
// not yet compacted away) in physical layout order.
func (db *ClauseDB) ForEach(fn func(ref clauseRef, c *Clause)) {
	for ri, r := range db.active {
		ri := ri
		r.forEach(func(slot int32, c *Clause) {
			fn(clauseRef{int32(ri), slot}, c)
		})
	}
}

// Compress copies every surviving (non-deleted) clause into fresh regions,
// reclaiming the space held by deleted clauses, and returns a map from every
// pre-compaction handle that survived to its post-compaction handle. Callers
// that cache handles (watch lists, reasons, a lemma index) must look
// themselves up in this map and drop anything absent from it.
//
// The algorithm mirrors the design's region-by-region compaction: a spare
// region S is filled with surviving clauses; when S is exhausted it is
// swapped into the active slot currently being rebuilt and a fresh S
// continues the job, so at most one extra region's worth of memory is ever
// used as scratch space.
func (db *ClauseDB) Compress() map[clauseRef]clauseRef {
	remap := make(map[clauseRef]clauseRef)
	if len(db.active) == 0 {
		return remap
	}

	type pending struct {
		oldRef clauseRef
		dst    *region
		slot   int32
	}
	var pendings []pending

	spare := db.freshRegion()
	swapInIdx := 0

	for ai := 0; ai < len(db.active); ai++ {
		src := db.active[ai]
		for slot := int32(0); slot < int32(src.len()); slot++ {
			c := src.clause(slot)
			if c.IsDeleted() {
				continue
			}
			newSlot := spare.allocate(c.lits, c.flags&flagRedundant != 0)
			if newSlot < 0 {
				// Spare is full: finalize it into the active slot currently
				// being rebuilt, recycle what was there, and keep going with
				// a freshly emptied spare.
				old := db.active[swapInIdx]
				db.active[swapInIdx] = spare
				swapInIdx++
				old.clear()
				spare = old
				newSlot = spare.allocate(c.lits, c.flags&flagRedundant != 0)
			}
			// Copy over the clause's analysis metadata lost by allocate's
			// fresh Clause{}.
			dstClause := spare.clause(newSlot)
			dstClause.lbd = c.lbd
			dstClause.activity = c.activity

			pendings = append(pendings, pending{
				oldRef: clauseRef{int32(ai), slot},
				dst:    spare,
				slot:   newSlot,
			})
		}
	}

	// Finalize the last (possibly partial) spare into place.
	old := db.active[swapInIdx]
	db.active[swapInIdx] = spare
	swapInIdx++
	old.clear()
	db.spare = append(db.spare, old)

	// Any trailing active regions were fully drained as sources above but
	// never swapped with the spare; reclaim them too.
	for i := swapInIdx; i < len(db.active); i++ {
		db.active[i].clear()
		db.spare = append(db.spare, db.active[i])
	}
	db.active = db.active[:swapInIdx]

	indexOf := make(map[*region]int32, len(db.active))
	for i, r := range db.active {
		indexOf[r] = int32(i)
	}
	for _, p := range pendings {
		remap[p.oldRef] = clauseRef{region: indexOf[p.dst], slot: p.slot}
	}
	return remap
}

// NumClauses returns the number of live (non-deleted) clauses across all
// active regions. This walks every clause and is intended for diagnostics,
// not the hot path.
func (db *ClauseDB) NumClauses() int {
	n := 0
	for _, r := range db.active {
		r.forEach(func(_ int32, c *Clause) {
			if !c.IsDeleted() {
				n++
			}
		})
	}
	return n
}
