package sat

// watchEntry is a single watcher record: the clause being watched, the
// "blocker" literal cached from the clause's other watched position (I7: if
// the blocker is true the clause is satisfied and propagation can skip it
// without dereferencing the clause), and for long clauses the index (0 or
// 1) of the watched literal this entry tracks within the clause.
type watchEntry struct {
	ref     clauseRef
	blocker Lit
	idx     uint8 // meaningful for long-clause entries only
}

// WatchStore holds, for every literal, two watcher lists: one for size-2
// (binary) clauses and one for size >= 3 (long) clauses, per the design's
// split so the hot binary sweep never has to touch a long clause's body.
type WatchStore struct {
	binary [][]watchEntry
	long   [][]watchEntry
	dirty  []bool
}

// NewWatchStore returns an empty store.
func NewWatchStore() *WatchStore {
	return &WatchStore{}
}

// Grow adds watch-list slots for one freshly declared variable (its two
// literals).
func (w *WatchStore) Grow() {
	w.binary = append(w.binary, nil, nil)
	w.long = append(w.long, nil, nil)
	w.dirty = append(w.dirty, false, false)
}

// WatchBinary registers a size-2 clause's watcher at watchedLit, caching
// blocker as the clause's other literal.
func (w *WatchStore) WatchBinary(watchedLit, blocker Lit, ref clauseRef) {
	w.binary[watchedLit] = append(w.binary[watchedLit], watchEntry{ref: ref, blocker: blocker})
}

// WatchLong registers a long clause's watcher at watchedLit, for the literal
// stored at position idx (0 or 1) of the clause, caching blocker as the
// clause's other watched literal.
func (w *WatchStore) WatchLong(watchedLit, blocker Lit, ref clauseRef, idx uint8) {
	w.long[watchedLit] = append(w.long[watchedLit], watchEntry{ref: ref, blocker: blocker, idx: idx})
}

// Binary returns the binary watcher list for lit. The caller must not retain
// the slice past further mutation of the store.
func (w *WatchStore) Binary(lit Lit) []watchEntry { return w.binary[lit] }

// Long returns the long watcher list for lit after lazily scrubbing it if
// dirty (see MarkDirty). The returned slice aliases the store's internal
// storage.
func (w *WatchStore) Long(lit Lit, db *ClauseDB) []watchEntry {
	if w.dirty[lit] {
		w.scrub(lit, db)
	}
	return w.long[lit]
}

// ReplaceLong atomically sets lit's long watcher list, used by the
// propagator after it has finished rebuilding the list for a propagation
// sweep (entries for clauses that got a new watch elsewhere are dropped,
// the rest kept in place).
func (w *WatchStore) ReplaceLong(lit Lit, entries []watchEntry) {
	w.long[lit] = entries
}

// MarkDirty flags lit's watcher lists as needing a scrub before their next
// use. notify_clause_modification_ahead calls this for both of a clause's
// current watched literals before an external mutation (e.g.
// subsumption/strengthening) changes which literals occupy those positions.
func (w *WatchStore) MarkDirty(lit Lit) {
	w.dirty[lit] = true
}

// scrub implements the lazy cleanup described by the clause-modification
// protocol:
//   - watchers whose clause is scheduled for deletion are dropped;
//   - watchers whose clause has shrunk to size 2 migrate to the binary list;
//   - watchers whose tracked literal no longer lives at their cached index
//     are re-hung on the list of the literal that does.
//
// Watch lists are keyed by the negation of the literal being watched (a
// clause watching lit is stored under lit.Negated(), so that when lit is
// dequeued from the trail -- i.e. just assigned true, falsifying its
// negation -- the store is looked up directly by lit). scrub is therefore
// handed the falsified-literal key and must compare clause contents against
// its negation, lit.Negated(), to tell whether an entry is still correctly
// filed.
func (w *WatchStore) scrub(lit Lit, db *ClauseDB) {
	w.dirty[lit] = false
	entries := w.long[lit]
	watchedShouldBe := lit.Negated()

	type relocation struct {
		key Lit
		e   watchEntry
		bin bool
	}
	var relocations []relocation

	kept := entries[:0]
	for _, e := range entries {
		c := db.Clause(e.ref)
		if c.IsDeleted() {
			continue
		}
		if c.Size() == 2 {
			other := c.Lit(1 - int(e.idx))
			relocations = append(relocations, relocation{
				key: lit,
				e:   watchEntry{ref: e.ref, blocker: other},
				bin: true,
			})
			continue
		}
		if int(e.idx) >= c.Size() {
			continue // defensive: shouldn't happen for a live long clause
		}
		if c.Lit(int(e.idx)) == watchedShouldBe {
			kept = append(kept, e)
			continue
		}
		// Strengthening swapped a replacement literal into this watched
		// slot; re-hang the entry under the new literal's key.
		newWatched := c.Lit(int(e.idx))
		other := c.Lit(1 - int(e.idx))
		relocations = append(relocations, relocation{
			key: newWatched.Negated(),
			e:   watchEntry{ref: e.ref, blocker: other, idx: e.idx},
		})
	}
	w.long[lit] = kept

	for _, r := range relocations {
		if r.bin {
			w.binary[r.key] = append(w.binary[r.key], r.e)
		} else {
			w.long[r.key] = append(w.long[r.key], r.e)
		}
	}
}

// PurgeDeletedBinary drops binary watchers pointing at deleted clauses. This
// is invoked explicitly (not lazily) since binary clauses are never targets
// of notify_clause_modification_ahead and so never set the dirty bit.
func (w *WatchStore) PurgeDeletedBinary(lit Lit, db *ClauseDB) {
	entries := w.binary[lit]
	kept := entries[:0]
	for _, e := range entries {
		if db.Clause(e.ref).IsDeleted() {
			continue
		}
		kept = append(kept, e)
	}
	w.binary[lit] = kept
}

// PurgeAllDeleted sweeps every literal's watch lists, dropping entries for
// deleted clauses. Useful after a reduction or simplification pass deletes a
// batch of clauses at once, so later propagations don't keep re-checking
// (and skipping) stale entries.
func (w *WatchStore) PurgeAllDeleted(db *ClauseDB) {
	for l := range w.binary {
		w.PurgeDeletedBinary(Lit(l), db)
	}
	for l := range w.long {
		w.scrub(Lit(l), db)
	}
}

// Rebuild discards every watcher and re-registers one per clause's two
// watched positions, reading every handle afresh from db, so no stale handle
// survives it. The driver calls it after a database compaction.
func (w *WatchStore) Rebuild(db *ClauseDB) {
	for i := range w.binary {
		w.binary[i] = nil
	}
	for i := range w.long {
		w.long[i] = nil
		w.dirty[i] = false
	}
	db.ForEach(func(ref clauseRef, c *Clause) {
		if c.IsDeleted() || c.Size() < 2 {
			return
		}
		l0, l1 := c.Lit(0), c.Lit(1)
		if c.Size() == 2 {
			w.WatchBinary(l0.Negated(), l1, ref)
			w.WatchBinary(l1.Negated(), l0, ref)
		} else {
			w.WatchLong(l0.Negated(), l1, ref, 0)
			w.WatchLong(l1.Negated(), l0, ref, 1)
		}
	})
}
