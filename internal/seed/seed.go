// Package seed parses the plan table that the dashboard is bootstrapped with.
//
// The table has one row per year: "YYYY(age)", pension, ISA and general
// targets, the total, and three free-text notes (health insurance, tax,
// strategy). Rows are tab separated; rows pasted from a spreadsheet viewer
// that lost their tabs are split on runs of two or more spaces instead.
package seed

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"retireplan/internal/core"
)

//go:embed plan_seed.tsv
var defaultPlan []byte

const columns = 8

var (
	yearAgeRe    = regexp.MustCompile(`^(\d+)\((\d+)\)`)
	multiSpaceRe = regexp.MustCompile(`\s{2,}`)
)

// Result is the outcome of parsing a plan table. Problems are reported per
// row and never abort the whole import.
type Result struct {
	Entries []core.PlanEntry
	// Errors lists rows that were skipped.
	Errors []string
	// Warnings lists rows that were imported with a correction, e.g. a
	// stated total that did not match the sum of the targets.
	Warnings []string
}

// Default parses the embedded plan table.
func Default() (Result, error) {
	return ParsePlanTable(bytes.NewReader(defaultPlan))
}

// ParsePlanTable reads a tab separated plan table. The header row, blank
// lines and any row that does not start with "YYYY(age)" are ignored.
func ParsePlanTable(r io.Reader) (Result, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return Result{}, fmt.Errorf("read plan table: %w", err)
	}

	for i, rec := range records {
		if len(rec) == 1 {
			records[i] = multiSpaceRe.Split(strings.TrimSpace(rec[0]), -1)
		}
	}
	return ParseRows(records), nil
}

// ParseRows converts already split rows, as returned by a spreadsheet API.
func ParseRows(rows [][]string) Result {
	var res Result
	for i, row := range rows {
		rowNum := i + 1
		if len(row) == 0 {
			continue
		}
		first := strings.TrimSpace(row[0])
		if first == "" {
			continue
		}
		if !yearAgeRe.MatchString(first) {
			if rowNum > 1 {
				res.Errors = append(res.Errors, fmt.Sprintf("row %d: expected YYYY(age), got %q", rowNum, first))
			}
			continue
		}

		entry, warn, err := parseRow(row)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("row %d: %v", rowNum, err))
			continue
		}
		if warn != "" {
			res.Warnings = append(res.Warnings, fmt.Sprintf("row %d: %s", rowNum, warn))
		}
		res.Entries = append(res.Entries, entry)
	}
	return res
}

func parseRow(row []string) (core.PlanEntry, string, error) {
	parts := make([]string, columns)
	for i := 0; i < columns && i < len(row); i++ {
		parts[i] = strings.TrimSpace(row[i])
	}

	m := yearAgeRe.FindStringSubmatch(parts[0])
	year, err := strconv.Atoi(m[1])
	if err != nil {
		return core.PlanEntry{}, "", fmt.Errorf("year: %w", err)
	}
	age, err := strconv.Atoi(m[2])
	if err != nil {
		return core.PlanEntry{}, "", fmt.Errorf("age: %w", err)
	}

	var amounts [4]int64
	for i := range amounts {
		v, err := core.ParseAmount(parts[i+1])
		if err != nil {
			return core.PlanEntry{}, "", fmt.Errorf("column %d: %w", i+2, err)
		}
		amounts[i] = v
	}

	entry := core.PlanEntry{
		Year:                year,
		Age:                 age,
		Pension:             amounts[0],
		ISA:                 amounts[1],
		General:             amounts[2],
		HealthInsuranceNote: parts[5],
		TaxNote:             parts[6],
		StrategyNote:        parts[7],
	}.Normalize()
	if err := entry.Validate(); err != nil {
		return core.PlanEntry{}, "", err
	}

	var warn string
	if stated := amounts[3]; parts[4] != "" && stated != entry.Total {
		warn = fmt.Sprintf("stated total %d replaced by targets sum %d", stated, entry.Total)
	}
	return entry, warn, nil
}

// Rows renders entries back into table rows, header first. It is the
// inverse of ParseRows.
func Rows(entries []core.PlanEntry) [][]string {
	out := make([][]string, 0, len(entries)+1)
	out = append(out, Header())
	for _, e := range entries {
		out = append(out, []string{
			fmt.Sprintf("%d(%d)", e.Year, e.Age),
			core.FormatAmount(e.Pension),
			core.FormatAmount(e.ISA),
			core.FormatAmount(e.General),
			core.FormatAmount(e.Total),
			e.HealthInsuranceNote,
			e.TaxNote,
			e.StrategyNote,
		})
	}
	return out
}

// Header returns the column titles of the plan table.
func Header() []string {
	return []string{"Year(age)", "Pension", "ISA", "General", "Total", "Health insurance", "Tax", "Strategy"}
}
