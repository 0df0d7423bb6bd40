package cli

import (
	"fmt"
	"io"

	"expensetracker/internal/core"
)

// renderTable prints expenses as fixed-width columns under a header line.
func renderTable(w io.Writer, expenses core.Collection) {
	fmt.Fprintf(w, "%-5s %-12s %-20s %-10s\n", "ID", "Date", "Description", "Amount")
	for _, e := range expenses {
		fmt.Fprintf(w, "%-5d %-12s %-20s $%-10s\n", e.ID, e.Date, e.Description, e.Amount)
	}
}
