package events

import (
	"fmt"
	"io"
	"sort"
)

// TextRenderer writes events as the human-readable lines the simulation is
// expected to produce, one line per event (a dump writes one line per site).
type TextRenderer struct {
	W io.Writer
}

func NewTextRenderer(w io.Writer) *TextRenderer {
	return &TextRenderer{W: w}
}

func (r *TextRenderer) Emit(e Event) {
	switch e.Kind {
	case KindRead:
		if e.ReadOnly {
			fmt.Fprintf(r.W, "%s (RO) reads %s.%d: %d\n", e.Txn, e.Var, e.Site, e.Value)
		} else {
			fmt.Fprintf(r.W, "%s reads %s.%d: %d\n", e.Txn, e.Var, e.Site, e.Value)
		}
	case KindWrite:
		fmt.Fprintf(r.W, "%s writes %s with value %d to sites %s\n", e.Txn, e.Var, e.Value, formatSites(e.Sites))
	case KindCommit:
		fmt.Fprintf(r.W, "%s commits!\n", e.Txn)
	case KindAbort:
		if e.Reason != "" {
			fmt.Fprintf(r.W, "%s aborts! (due to %s)\n", e.Txn, e.Reason)
		} else {
			fmt.Fprintf(r.W, "%s aborts!\n", e.Txn)
		}
	case KindSiteFail:
		fmt.Fprintf(r.W, "Site %d fails\n", e.Site)
	case KindSiteRecover:
		fmt.Fprintf(r.W, "Site %d recovers\n", e.Site)
	case KindDeadlockVictim:
		fmt.Fprintf(r.W, "Deadlock detected: aborting %s\n", e.Txn)
	case KindDump:
		writeDump(r.W, e.Dump)
	}
}

func formatSites(sites []int) string {
	sorted := append([]int(nil), sites...)
	sort.Ints(sorted)
	out := "["
	for i, s := range sorted {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%d", s)
	}
	return out + "]"
}

func writeDump(w io.Writer, dumps []SiteDump) {
	sorted := append([]SiteDump(nil), dumps...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].SiteID < sorted[j].SiteID })
	for _, sd := range sorted {
		fmt.Fprintf(w, "site %d - ", sd.SiteID)
		for i, v := range sd.Variables {
			if i > 0 {
				fmt.Fprint(w, ", ")
			}
			fmt.Fprintf(w, "%s: %d", v.Name, v.Value)
		}
		fmt.Fprintln(w)
	}
}
