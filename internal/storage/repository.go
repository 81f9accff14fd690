package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"retireplan/internal/core"
	applog "retireplan/internal/log"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	repo := &SQLiteRepository{
		db:      db,
		queries: New(db),
	}

	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// ListPlanEntries implements ports.PlanStore
func (r *SQLiteRepository) ListPlanEntries(ctx context.Context) ([]core.PlanEntry, error) {
	rows, err := r.queries.ListPlans(ctx)
	if err != nil {
		return nil, fmt.Errorf("list plan entries: %w", err)
	}
	out := make([]core.PlanEntry, len(rows))
	for i, p := range rows {
		out[i] = planFromRow(p)
	}
	return out, nil
}

func (r *SQLiteRepository) GetPlanEntry(ctx context.Context, id int64) (core.PlanEntry, error) {
	p, err := r.queries.GetPlan(ctx, id)
	if err != nil {
		return core.PlanEntry{}, fmt.Errorf("get plan entry %d: %w", id, mapError(err, nil))
	}
	return planFromRow(p), nil
}

func (r *SQLiteRepository) CreatePlanEntry(ctx context.Context, p core.PlanEntry) (int64, error) {
	id, err := r.queries.CreatePlan(ctx, planParams(p))
	if err != nil {
		return 0, fmt.Errorf("create plan entry for %d: %w", p.Year, mapError(err, core.ErrDuplicateYear))
	}
	slog.InfoContext(ctx, "Plan entry saved to SQLite", "id", id, "year", p.Year, "total", p.Total)
	return id, nil
}

func (r *SQLiteRepository) UpdatePlanEntry(ctx context.Context, p core.PlanEntry) error {
	n, err := r.queries.UpdatePlan(ctx, p.ID, planParams(p))
	if err != nil {
		return fmt.Errorf("update plan entry %d: %w", p.ID, mapError(err, core.ErrDuplicateYear))
	}
	if n == 0 {
		return fmt.Errorf("update plan entry %d: %w", p.ID, core.ErrNotFound)
	}
	return nil
}

// UpsertPlanEntry inserts or replaces the entry for p.Year.
func (r *SQLiteRepository) UpsertPlanEntry(ctx context.Context, p core.PlanEntry) (int64, error) {
	id, err := r.queries.UpsertPlan(ctx, planParams(p))
	if err != nil {
		return 0, fmt.Errorf("upsert plan entry for %d: %w", p.Year, mapError(err, core.ErrDuplicateYear))
	}
	return id, nil
}

func (r *SQLiteRepository) DeletePlanEntry(ctx context.Context, id int64) error {
	n, err := r.queries.DeletePlan(ctx, id)
	if err != nil {
		return fmt.Errorf("delete plan entry %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete plan entry %d: %w", id, core.ErrNotFound)
	}
	slog.InfoContext(ctx, "Plan entry deleted", "id", id)
	return nil
}

// ListTransactions implements ports.TransactionStore. Rows whose date does
// not parse are skipped with a warning so one bad row cannot break the
// dashboard.
func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := transactionFromRow(row)
		if err != nil {
			slog.WarnContext(ctx, "Skipping transaction with malformed date",
				applog.FieldComponent, applog.ComponentStorage,
				"id", row.ID,
				"date", row.Date,
				"error", err)
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row, err := r.queries.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, mapError(err, nil))
	}
	return transactionFromRow(row)
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}
	id, err := r.queries.CreateTransaction(ctx, transactionParams(t))
	if err != nil {
		return 0, fmt.Errorf("create transaction: %w", mapError(err, nil))
	}
	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", id,
		"date", t.Date.String(),
		"pension", t.Amounts.Pension,
		"isa", t.Amounts.ISA,
		"general", t.Amounts.General)
	return id, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	n, err := r.queries.UpdateTransaction(ctx, t.ID, transactionParams(t))
	if err != nil {
		return fmt.Errorf("update transaction %d: %w", t.ID, mapError(err, nil))
	}
	if n == 0 {
		return fmt.Errorf("update transaction %d: %w", t.ID, core.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) error {
	n, err := r.queries.DeleteTransaction(ctx, id)
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete transaction %d: %w", id, core.ErrNotFound)
	}
	slog.InfoContext(ctx, "Transaction deleted", "id", id)
	return nil
}

// ListUsers implements ports.UserStore
func (r *SQLiteRepository) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := r.queries.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]core.User, len(rows))
	for i, u := range rows {
		out[i] = core.User(u)
	}
	return out, nil
}

func (r *SQLiteRepository) GetUser(ctx context.Context, id int64) (core.User, error) {
	u, err := r.queries.GetUser(ctx, id)
	if err != nil {
		return core.User{}, fmt.Errorf("get user %d: %w", id, mapError(err, nil))
	}
	return core.User(u), nil
}

func (r *SQLiteRepository) GetUserByUsername(ctx context.Context, username string) (core.User, error) {
	u, err := r.queries.GetUserByUsername(ctx, username)
	if err != nil {
		return core.User{}, fmt.Errorf("get user %q: %w", username, mapError(err, nil))
	}
	return core.User(u), nil
}

func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) (int64, error) {
	u.Username = strings.TrimSpace(u.Username)
	if err := u.Validate(); err != nil {
		return 0, err
	}
	id, err := r.queries.CreateUser(ctx, u.Username, u.PasswordHash)
	if err != nil {
		return 0, fmt.Errorf("create user %q: %w", u.Username, mapError(err, core.ErrDuplicateUser))
	}
	slog.InfoContext(ctx, "User created", "id", id, "username", u.Username)
	return id, nil
}

func (r *SQLiteRepository) DeleteUser(ctx context.Context, id int64) error {
	n, err := r.queries.DeleteUser(ctx, id)
	if err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete user %d: %w", id, core.ErrNotFound)
	}
	return nil
}

// mapError translates driver errors into domain sentinels. A unique
// constraint violation becomes duplicate when it is non-nil.
func mapError(err, duplicate error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrNotFound
	}
	if duplicate != nil && isUniqueViolation(err) {
		return duplicate
	}
	return err
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func planFromRow(p Plan) core.PlanEntry {
	return core.PlanEntry{
		ID:                  p.ID,
		Year:                int(p.Year),
		Age:                 int(p.Age),
		Pension:             p.PensionSavings,
		ISA:                 p.IsaAccount,
		General:             p.GeneralAccount,
		Total:               p.Total,
		HealthInsuranceNote: p.HealthInsurance,
		TaxNote:             p.Tax,
		StrategyNote:        p.WithdrawalStrategy,
	}
}

func planParams(p core.PlanEntry) PlanParams {
	return PlanParams{
		Year:               int64(p.Year),
		Age:                int64(p.Age),
		PensionSavings:     p.Pension,
		IsaAccount:         p.ISA,
		GeneralAccount:     p.General,
		Total:              p.Total,
		HealthInsurance:    p.HealthInsuranceNote,
		Tax:                p.TaxNote,
		WithdrawalStrategy: p.StrategyNote,
	}
}

func transactionFromRow(t Transaction) (core.Transaction, error) {
	d, err := core.ParseDate(t.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		ID:   t.ID,
		Date: d,
		Amounts: core.Balances{
			Pension: t.PensionAmount,
			ISA:     t.IsaAmount,
			General: t.GeneralAmount,
		},
	}, nil
}

func transactionParams(t core.Transaction) TransactionParams {
	return TransactionParams{
		Date:          t.Date.String(),
		PensionAmount: t.Amounts.Pension,
		IsaAmount:     t.Amounts.ISA,
		GeneralAmount: t.Amounts.General,
	}
}
