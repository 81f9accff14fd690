package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		year int
		ok   bool
	}{
		{"2026-01-15", 2026, true},
		{" 2030-12-31 ", 2030, true},
		{"", 0, false},
		{"2026", 0, false},
		{"2026/01/15", 0, false},
		{"15-01-2026", 0, false},
		{"2026-13-01", 0, false},
		{"abcd-ef-gh", 0, false},
	}
	for _, tc := range cases {
		d, err := ParseDate(tc.in)
		if tc.ok {
			if err != nil || d.Year() != tc.year {
				t.Fatalf("%q expected year %d, got %d (err=%v)", tc.in, tc.year, d.Year(), err)
			}
			continue
		}
		if !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("%q expected ErrInvalidDate, got %v", tc.in, err)
		}
	}
}

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2026, 1, 1), true},
		{NewDate(2066, 12, 31), true},
		{Date{Time: time.Time{}}, false},
		{NewDate(1800, 1, 1), false},
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestDateString(t *testing.T) {
	if got := NewDate(2027, 3, 9).String(); got != "2027-03-09" {
		t.Fatalf("unexpected date string %q", got)
	}
	if got := (Date{}).String(); got != "" {
		t.Fatalf("zero date should format empty, got %q", got)
	}
}

func TestPlanEntryNormalizeAndValidate(t *testing.T) {
	p := PlanEntry{Year: 2026, Age: 50, Pension: 7900, ISA: 1100, General: 20000, Total: 1, StrategyNote: "  start  "}.Normalize()
	if p.Total != 29000 {
		t.Fatalf("expected total 29000, got %d", p.Total)
	}
	if p.StrategyNote != "start" {
		t.Fatalf("expected trimmed note, got %q", p.StrategyNote)
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []PlanEntry{
		{Year: 0, Age: 50},
		{Year: 2026, Age: -1},
		{Year: 2026, Age: 50, Pension: -1},
		{Year: 2026, Age: 50, Pension: 10, Total: 5},
	}
	for i, b := range bads {
		if err := b.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
	if err := (PlanEntry{Year: 2026, Age: 50, ISA: -5, Total: -5}).Validate(); !errors.Is(err, ErrNegativeTarget) {
		t.Fatalf("expected ErrNegativeTarget, got %v", err)
	}
}

func TestBalances(t *testing.T) {
	a := Balances{Pension: 1, ISA: 2, General: 3}
	b := Balances{Pension: -1, ISA: 10, General: 0}
	sum := a.Add(b)
	if sum != (Balances{Pension: 0, ISA: 12, General: 3}) {
		t.Fatalf("unexpected sum %+v", sum)
	}
	if sum.Total() != 15 {
		t.Fatalf("unexpected total %d", sum.Total())
	}
	if !(Balances{}).IsZero() || sum.IsZero() {
		t.Fatalf("IsZero mismatch")
	}
}

func TestUserValidate(t *testing.T) {
	if err := (User{Username: "admin"}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (User{Username: "  "}).Validate(); !errors.Is(err, ErrEmptyUsername) {
		t.Fatalf("expected ErrEmptyUsername, got %v", err)
	}
	if err := (User{Username: strings.Repeat("a", MaxUsernameLength)}).Validate(); err != nil {
		t.Fatalf("expected %d characters to be accepted, got %v", MaxUsernameLength, err)
	}
	if err := (User{Username: strings.Repeat("a", MaxUsernameLength+1)}).Validate(); !errors.Is(err, ErrUsernameTooLong) {
		t.Fatalf("expected ErrUsernameTooLong, got %v", err)
	}
}
