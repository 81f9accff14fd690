package google

import (
	"fmt"
	"strings"

	"retireplan/internal/core"
)

// SummaryHeader is the first row of the exported summary sheet.
var SummaryHeader = []any{"Year", "Age", "Pension", "ISA", "General", "Total", "Goal", "Gap", "Achievement %"}

// summaryValues converts the summary into the values matrix written to the
// sheet. Amounts stay numeric so the sheet can chart them.
func summaryValues(summary []core.YearSummary) [][]any {
	values := make([][]any, 0, len(summary)+1)
	values = append(values, SummaryHeader)
	for _, s := range summary {
		age := any("")
		if s.Age > 0 {
			age = s.Age
		}
		achievement := any("")
		if s.HasGoal() {
			achievement = s.Achievement.InexactFloat64()
		}
		values = append(values, []any{
			s.Year,
			age,
			s.Balances.Pension,
			s.Balances.ISA,
			s.Balances.General,
			s.Total,
			s.Goal,
			s.Gap,
			achievement,
		})
	}
	return values
}

// cellRows turns API values into trimmed strings for the seed parser.
func cellRows(values [][]any) [][]string {
	rows := make([][]string, 0, len(values))
	for _, row := range values {
		rows = append(rows, toStrings(row))
	}
	return rows
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

// sheetRange quotes sheet names that contain spaces or punctuation.
func sheetRange(sheet, cells string) string {
	if strings.ContainsAny(sheet, " '!-()") {
		sheet = "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
	}
	return sheet + "!" + cells
}
