package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"retireplan/internal/core"
)

func TestPlanEntriesCRUD(t *testing.T) {
	ctx := context.Background()
	s := New()

	id, err := s.CreatePlanEntry(ctx, core.PlanEntry{Year: 2027, Age: 51, Pension: 1, Total: 1})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.CreatePlanEntry(ctx, core.PlanEntry{Year: 2026, Age: 50}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.CreatePlanEntry(ctx, core.PlanEntry{Year: 2027, Age: 51}); !errors.Is(err, core.ErrDuplicateYear) {
		t.Fatalf("expected ErrDuplicateYear, got %v", err)
	}

	list, _ := s.ListPlanEntries(ctx)
	if len(list) != 2 || list[0].Year != 2026 || list[1].Year != 2027 {
		t.Fatalf("unexpected list order: %+v", list)
	}

	p, _ := s.GetPlanEntry(ctx, id)
	p.Year = 2026
	if err := s.UpdatePlanEntry(ctx, p); !errors.Is(err, core.ErrDuplicateYear) {
		t.Fatalf("expected ErrDuplicateYear on update, got %v", err)
	}
	p.Year = 2028
	if err := s.UpdatePlanEntry(ctx, p); err != nil {
		t.Fatalf("update: %v", err)
	}

	upID, _ := s.UpsertPlanEntry(ctx, core.PlanEntry{Year: 2028, Age: 60})
	if upID != id {
		t.Fatalf("upsert should keep id %d, got %d", id, upID)
	}
	got, _ := s.GetPlanEntry(ctx, id)
	if got.Age != 60 {
		t.Fatalf("upsert did not replace entry: %+v", got)
	}

	if err := s.DeletePlanEntry(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetPlanEntry(ctx, id); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.DeletePlanEntry(ctx, id); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestTransactionsCRUD(t *testing.T) {
	ctx := context.Background()
	s := New()

	if _, err := s.CreateTransaction(ctx, core.Transaction{}); !errors.Is(err, core.ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}

	a, _ := s.CreateTransaction(ctx, core.Transaction{Date: core.NewDate(2026, 1, 1), Amounts: core.Balances{Pension: 1}})
	b, _ := s.CreateTransaction(ctx, core.Transaction{Date: core.NewDate(2027, 1, 1), Amounts: core.Balances{ISA: -5}})

	list, _ := s.ListTransactions(ctx)
	if len(list) != 2 || list[0].ID != b || list[1].ID != a {
		t.Fatalf("expected newest first, got %+v", list)
	}

	tx, _ := s.GetTransaction(ctx, a)
	tx.Amounts.General = 42
	if err := s.UpdateTransaction(ctx, tx); err != nil {
		t.Fatalf("update: %v", err)
	}
	tx, _ = s.GetTransaction(ctx, a)
	if tx.Amounts.General != 42 {
		t.Fatalf("update not applied: %+v", tx)
	}

	if err := s.UpdateTransaction(ctx, core.Transaction{ID: 999, Date: core.NewDate(2026, 1, 1)}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteTransaction(ctx, b); err != nil {
		t.Fatalf("delete: %v", err)
	}
	list, _ = s.ListTransactions(ctx)
	if len(list) != 1 {
		t.Fatalf("expected one transaction left, got %d", len(list))
	}
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	s := New()

	id, err := s.CreateUser(ctx, core.User{Username: " admin ", PasswordHash: "x"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.CreateUser(ctx, core.User{Username: "admin"}); !errors.Is(err, core.ErrDuplicateUser) {
		t.Fatalf("expected ErrDuplicateUser, got %v", err)
	}
	if _, err := s.CreateUser(ctx, core.User{Username: ""}); !errors.Is(err, core.ErrEmptyUsername) {
		t.Fatalf("expected ErrEmptyUsername, got %v", err)
	}

	u, err := s.GetUserByUsername(ctx, "admin")
	if err != nil || u.ID != id {
		t.Fatalf("lookup by name: %+v %v", u, err)
	}
	if _, err := s.GetUserByUsername(ctx, "nobody"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteUser(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	users, _ := s.ListUsers(ctx)
	if len(users) != 0 {
		t.Fatalf("expected no users, got %v", users)
	}
}

func TestNewFromFilesSeedsPlan(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	// No file -> embedded default plan
	s := NewFromFiles(dir)
	plans, _ := s.ListPlanEntries(ctx)
	if len(plans) != 41 || plans[0].Year != 2026 {
		t.Fatalf("expected the default plan, got %d entries", len(plans))
	}

	content := "Year\tPension\tISA\tGeneral\tTotal\n2040(64)\t1\t2\t3\t6\n"
	if err := os.WriteFile(filepath.Join(dir, "plan_seed.tsv"), []byte(content), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	s = NewFromFiles(dir)
	plans, _ = s.ListPlanEntries(ctx)
	if len(plans) != 1 || plans[0].Year != 2040 || plans[0].Total != 6 {
		t.Fatalf("unexpected seeded plan: %+v", plans)
	}
}
