package sat

import (
	"fmt"
	"io"
	"time"
)

// PrintBanner writes the column header for the periodic search-progress
// report, in the DIMACS "c "-comment convention the rest of the stats
// output follows.
func PrintBanner(w io.Writer) {
	fmt.Fprintln(w, "c ---------------------------------------------------------------------------")
	fmt.Fprintln(w, "c        time   conflicts   restarts    learnts   variables    clauses")
	fmt.Fprintln(w, "c ---------------------------------------------------------------------------")
}

// PrintProgress writes one line of the search-progress report.
func (d *Driver) PrintProgress(w io.Writer, elapsed time.Duration) {
	fmt.Fprintf(w, "c %10.3fs %11d %10d %10d %11d %10d\n",
		elapsed.Seconds(),
		d.Stats.Conflicts,
		d.Stats.Restarts,
		d.Stats.LearntClauses,
		d.asn.NumVars(),
		d.db.NumClauses(),
	)
}

// PrintSummary writes the final per-run statistics block.
func (d *Driver) PrintSummary(w io.Writer, elapsed time.Duration) {
	fmt.Fprintln(w, "c ---------------------------------------------------------------------------")
	fmt.Fprintf(w, "c time (sec):   %f\n", elapsed.Seconds())
	fmt.Fprintf(w, "c conflicts:    %d\n", d.Stats.Conflicts)
	fmt.Fprintf(w, "c restarts:     %d\n", d.Stats.Restarts)
	fmt.Fprintf(w, "c reductions:   %d\n", d.Stats.Reductions)
	fmt.Fprintf(w, "c decisions:    %d\n", d.Stats.Decisions)
	fmt.Fprintf(w, "c learnts:      %d\n", d.Stats.LearntClauses)
}
