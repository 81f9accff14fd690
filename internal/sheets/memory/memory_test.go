package memory

import (
	"context"
	"testing"

	"retireplan/internal/core"
)

func TestSheetPlanRoundTrip(t *testing.T) {
	entries := []core.PlanEntry{
		core.PlanEntry{Year: 2026, Age: 50, Pension: 7900, ISA: 1100, General: 20000, TaxNote: "none"}.Normalize(),
		core.PlanEntry{Year: 2027, Age: 51, Pension: 9195, ISA: 2255, General: 22800}.Normalize(),
	}
	s := New(entries)

	res, err := s.ReadPlanEntries(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Entries) != 2 || len(res.Errors) != 0 || len(res.Warnings) != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Entries[0] != entries[0] {
		t.Errorf("got %+v, want %+v", res.Entries[0], entries[0])
	}
}

func TestSheetExport(t *testing.T) {
	s := New(nil)
	if got, n := s.Exported(); len(got) != 0 || n != 0 {
		t.Fatalf("expected empty sheet, got %v (%d exports)", got, n)
	}

	summary := core.Summarize(core.DefaultProjectionConfig(), nil, nil)
	if err := s.ExportSummaries(context.Background(), summary); err != nil {
		t.Fatal(err)
	}
	if err := s.ExportSummaries(context.Background(), summary); err != nil {
		t.Fatal(err)
	}

	got, n := s.Exported()
	if n != 2 || len(got) != 1 || got[0].Total != 27000 {
		t.Errorf("unexpected export: %v (%d exports)", got, n)
	}
}
