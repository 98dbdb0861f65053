package report

import (
	"fmt"
	"io"

	"github.com/conciliar-dev/conciliar/internal/reconcile"
)

// Console prints the run's closing summary.
func Console(w io.Writer, res reconcile.Result) {
	st := res.Stats
	fmt.Fprintln(w, "Reconciliation summary")
	fmt.Fprintf(w, "  Days analyzed:          %d\n", st.Days)
	fmt.Fprintf(w, "  Days reconciled:        %d (%s%%)\n", st.ReconciledDays, st.Rate.StringFixed(1))
	fmt.Fprintf(w, "  Days with differences:  %d\n", st.DaysWithDifferences)
	fmt.Fprintf(w, "  Bank records:           %d (%d matched)\n", st.BankRecords, st.MatchedBank)
	fmt.Fprintf(w, "  System records:         %d (%d matched)\n", st.SystemRecords, st.MatchedSystem)
	fmt.Fprintf(w, "  To add to system:       %d\n", st.ToAdd)
	fmt.Fprintf(w, "  To remove from system:  %d\n", st.ToRemove)

	if st.Days > 0 && st.FullyReconciled() {
		fmt.Fprintln(w, "All days reconciled.")
		return
	}
	for _, d := range res.Summary {
		if d.Status != reconcile.StatusReconciled {
			fmt.Fprintf(w, "  %s  difference %s\n", d.Date, money(d.NetDifference))
		}
	}
}
