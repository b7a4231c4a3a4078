package output

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/KaranUnique/Code-Migration-CLI-Tool/internal/errclass"
)

// printErrorSummary renders the per-category error counts as a table.
// Categories with no occurrences are omitted.
func printErrorSummary(w io.Writer, counts map[errclass.Category]int) {
	total := 0
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Category", "Count"})
	table.SetBorder(false)
	table.SetColumnSeparator(" ")

	for _, c := range errclass.Categories {
		n := counts[c]
		if n == 0 {
			continue
		}
		table.Append([]string{string(c), strconv.Itoa(n)})
		total += n
	}
	if total == 0 {
		return
	}
	table.SetFooter([]string{"total", strconv.Itoa(total)})

	fmt.Fprintln(w, "Errors by category:")
	table.Render()
}
