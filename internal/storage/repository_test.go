package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"retireplan/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	repo.Close()

	repo, err = NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer repo.Close()
	if err := repo.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestPlanEntries(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	entry := core.PlanEntry{Year: 2026, Age: 50, Pension: 7900, ISA: 1100, General: 20000, StrategyNote: "start"}.Normalize()
	id, err := repo.CreatePlanEntry(ctx, entry)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.CreatePlanEntry(ctx, entry); !errors.Is(err, core.ErrDuplicateYear) {
		t.Fatalf("expected ErrDuplicateYear, got %v", err)
	}
	if _, err := repo.CreatePlanEntry(ctx, core.PlanEntry{Year: 2025, Age: 49}); err != nil {
		t.Fatalf("create: %v", err)
	}

	list, err := repo.ListPlanEntries(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].Year != 2025 || list[1].Year != 2026 {
		t.Fatalf("unexpected order: %+v", list)
	}

	got, err := repo.GetPlanEntry(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	entry.ID = id
	if got != entry {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, entry)
	}

	got.Year = 2025
	if err := repo.UpdatePlanEntry(ctx, got); !errors.Is(err, core.ErrDuplicateYear) {
		t.Fatalf("expected ErrDuplicateYear on update, got %v", err)
	}
	got.Year, got.Pension = 2026, 8000
	got = got.Normalize()
	if err := repo.UpdatePlanEntry(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}

	upID, err := repo.UpsertPlanEntry(ctx, core.PlanEntry{Year: 2026, Age: 50, Pension: 1, Total: 1})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if upID != id {
		t.Fatalf("upsert should keep id %d, got %d", id, upID)
	}
	got, _ = repo.GetPlanEntry(ctx, id)
	if got.Total != 1 {
		t.Fatalf("upsert did not replace values: %+v", got)
	}

	if err := repo.DeletePlanEntry(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetPlanEntry(ctx, id); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := repo.UpdatePlanEntry(ctx, got); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on update, got %v", err)
	}
}

func TestTransactions(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	if _, err := repo.CreateTransaction(ctx, core.Transaction{}); !errors.Is(err, core.ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}

	a, err := repo.CreateTransaction(ctx, core.Transaction{Date: core.NewDate(2026, 3, 1), Amounts: core.Balances{Pension: 100, ISA: 50, General: 200}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	b, err := repo.CreateTransaction(ctx, core.Transaction{Date: core.NewDate(2027, 1, 1), Amounts: core.Balances{General: -300}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	list, err := repo.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].ID != b || list[1].ID != a {
		t.Fatalf("expected newest first, got %+v", list)
	}
	if list[0].Amounts.General != -300 {
		t.Fatalf("negative amount not preserved: %+v", list[0])
	}

	tx, _ := repo.GetTransaction(ctx, a)
	tx.Date = core.NewDate(2028, 6, 30)
	if err := repo.UpdateTransaction(ctx, tx); err != nil {
		t.Fatalf("update: %v", err)
	}
	tx, _ = repo.GetTransaction(ctx, a)
	if tx.Date.String() != "2028-06-30" {
		t.Fatalf("update not applied: %+v", tx)
	}

	if err := repo.DeleteTransaction(ctx, b); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.DeleteTransaction(ctx, b); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListTransactionsSkipsMalformedDates(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	if _, err := repo.CreateTransaction(ctx, core.Transaction{Date: core.NewDate(2026, 1, 1)}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.db.ExecContext(ctx, `INSERT INTO transactions (date, pension_amount) VALUES ('', 5), ('26-1-1', 7)`); err != nil {
		t.Fatalf("insert raw rows: %v", err)
	}

	list, err := repo.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected malformed rows to be skipped, got %+v", list)
	}
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	id, err := repo.CreateUser(ctx, core.User{Username: "admin", PasswordHash: "hash"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.CreateUser(ctx, core.User{Username: "admin", PasswordHash: "other"}); !errors.Is(err, core.ErrDuplicateUser) {
		t.Fatalf("expected ErrDuplicateUser, got %v", err)
	}

	u, err := repo.GetUserByUsername(ctx, "admin")
	if err != nil || u.ID != id || u.PasswordHash != "hash" {
		t.Fatalf("lookup: %+v %v", u, err)
	}
	if _, err := repo.GetUserByUsername(ctx, "ghost"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	users, _ := repo.ListUsers(ctx)
	if len(users) != 1 {
		t.Fatalf("expected one user, got %d", len(users))
	}
	if err := repo.DeleteUser(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetUser(ctx, id); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
