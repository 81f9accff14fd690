package seed

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPlan(t *testing.T) {
	res, err := Default()
	require.NoError(t, err)
	assert.Empty(t, res.Errors)
	assert.Empty(t, res.Warnings)
	require.Len(t, res.Entries, 41)

	first := res.Entries[0]
	assert.Equal(t, 2026, first.Year)
	assert.Equal(t, 50, first.Age)
	assert.Equal(t, int64(7900), first.Pension)
	assert.Equal(t, int64(1100), first.ISA)
	assert.Equal(t, int64(20000), first.General)
	assert.Equal(t, int64(29000), first.Total)

	last := res.Entries[len(res.Entries)-1]
	assert.Equal(t, 2066, last.Year)
	assert.Equal(t, 90, last.Age)
	assert.Equal(t, int64(2193564), last.Total)

	for i := 1; i < len(res.Entries); i++ {
		assert.Equal(t, res.Entries[i-1].Year+1, res.Entries[i].Year)
	}
}

func TestParsePlanTable_SpaceSeparatedFallback(t *testing.T) {
	in := "Year(age)  Pension  ISA  General  Total\n" +
		"2030(54)  13,482  6,078  33,779  53,339  ok  0  hold\n"
	res, err := ParsePlanTable(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	e := res.Entries[0]
	assert.Equal(t, 2030, e.Year)
	assert.Equal(t, int64(53339), e.Total)
	assert.Equal(t, "hold", e.StrategyNote)
}

func TestParsePlanTable_ReportsBadRows(t *testing.T) {
	in := strings.Join([]string{
		"Year\tPension\tISA\tGeneral\tTotal",
		"2026(50)\t1\t2\t3\t6",
		"garbage\t1\t2\t3\t6",
		"2027(51)\tabc\t2\t3\t5",
		"2028(52)\t1\t2\t3\t99",
		"2029(53)\t1\t2",
	}, "\n")
	res, err := ParsePlanTable(strings.NewReader(in))
	require.NoError(t, err)

	require.Len(t, res.Entries, 3)
	assert.Equal(t, []int{2026, 2028, 2029}, []int{res.Entries[0].Year, res.Entries[1].Year, res.Entries[2].Year})
	assert.Equal(t, int64(6), res.Entries[1].Total)
	assert.Equal(t, int64(3), res.Entries[2].Total)

	require.Len(t, res.Errors, 2)
	assert.Contains(t, res.Errors[0], "row 3")
	assert.Contains(t, res.Errors[1], "row 4")
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "row 5")
}

func TestRowsRoundTrip(t *testing.T) {
	res, err := Default()
	require.NoError(t, err)

	back := ParseRows(Rows(res.Entries[:3]))
	assert.Empty(t, back.Errors)
	assert.Equal(t, res.Entries[:3], back.Entries)
}
