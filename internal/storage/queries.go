package storage

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

// Plan is a row of the plan table.
type Plan struct {
	ID                 int64
	Year               int64
	Age                int64
	PensionSavings     int64
	IsaAccount         int64
	GeneralAccount     int64
	Total              int64
	HealthInsurance    string
	Tax                string
	WithdrawalStrategy string
}

// Transaction is a row of the transactions table. Date is kept as text.
type Transaction struct {
	ID            int64
	Date          string
	PensionAmount int64
	IsaAmount     int64
	GeneralAmount int64
}

type User struct {
	ID           int64
	Username     string
	PasswordHash string
}

const planColumns = `id, year, age, pension_savings, isa_account, general_account, total, health_insurance, tax, withdrawal_strategy`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPlan(row rowScanner) (Plan, error) {
	var p Plan
	err := row.Scan(&p.ID, &p.Year, &p.Age, &p.PensionSavings, &p.IsaAccount, &p.GeneralAccount,
		&p.Total, &p.HealthInsurance, &p.Tax, &p.WithdrawalStrategy)
	return p, err
}

const listPlans = `SELECT ` + planColumns + ` FROM plan ORDER BY year`

func (q *Queries) ListPlans(ctx context.Context) ([]Plan, error) {
	rows, err := q.db.QueryContext(ctx, listPlans)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getPlan = `SELECT ` + planColumns + ` FROM plan WHERE id = ?`

func (q *Queries) GetPlan(ctx context.Context, id int64) (Plan, error) {
	return scanPlan(q.db.QueryRowContext(ctx, getPlan, id))
}

type PlanParams struct {
	Year               int64
	Age                int64
	PensionSavings     int64
	IsaAccount         int64
	GeneralAccount     int64
	Total              int64
	HealthInsurance    string
	Tax                string
	WithdrawalStrategy string
}

func (a PlanParams) args() []interface{} {
	return []interface{}{a.Year, a.Age, a.PensionSavings, a.IsaAccount, a.GeneralAccount,
		a.Total, a.HealthInsurance, a.Tax, a.WithdrawalStrategy}
}

const createPlan = `INSERT INTO plan (year, age, pension_savings, isa_account, general_account, total, health_insurance, tax, withdrawal_strategy)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id`

func (q *Queries) CreatePlan(ctx context.Context, arg PlanParams) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, createPlan, arg.args()...).Scan(&id)
	return id, err
}

const upsertPlan = `INSERT INTO plan (year, age, pension_savings, isa_account, general_account, total, health_insurance, tax, withdrawal_strategy)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(year) DO UPDATE SET
    age = excluded.age,
    pension_savings = excluded.pension_savings,
    isa_account = excluded.isa_account,
    general_account = excluded.general_account,
    total = excluded.total,
    health_insurance = excluded.health_insurance,
    tax = excluded.tax,
    withdrawal_strategy = excluded.withdrawal_strategy
RETURNING id`

func (q *Queries) UpsertPlan(ctx context.Context, arg PlanParams) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, upsertPlan, arg.args()...).Scan(&id)
	return id, err
}

const updatePlan = `UPDATE plan SET year = ?, age = ?, pension_savings = ?, isa_account = ?, general_account = ?,
    total = ?, health_insurance = ?, tax = ?, withdrawal_strategy = ?
WHERE id = ?`

func (q *Queries) UpdatePlan(ctx context.Context, id int64, arg PlanParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, updatePlan, append(arg.args(), id)...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deletePlan = `DELETE FROM plan WHERE id = ?`

func (q *Queries) DeletePlan(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deletePlan, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const transactionColumns = `id, date, pension_amount, isa_amount, general_amount`

func scanTransaction(row rowScanner) (Transaction, error) {
	var t Transaction
	err := row.Scan(&t.ID, &t.Date, &t.PensionAmount, &t.IsaAmount, &t.GeneralAmount)
	return t, err
}

const listTransactions = `SELECT ` + transactionColumns + ` FROM transactions ORDER BY date DESC, id DESC`

func (q *Queries) ListTransactions(ctx context.Context) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listTransactions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getTransaction = `SELECT ` + transactionColumns + ` FROM transactions WHERE id = ?`

func (q *Queries) GetTransaction(ctx context.Context, id int64) (Transaction, error) {
	return scanTransaction(q.db.QueryRowContext(ctx, getTransaction, id))
}

type TransactionParams struct {
	Date          string
	PensionAmount int64
	IsaAmount     int64
	GeneralAmount int64
}

const createTransaction = `INSERT INTO transactions (date, pension_amount, isa_amount, general_amount)
VALUES (?, ?, ?, ?)
RETURNING id`

func (q *Queries) CreateTransaction(ctx context.Context, arg TransactionParams) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, createTransaction,
		arg.Date, arg.PensionAmount, arg.IsaAmount, arg.GeneralAmount).Scan(&id)
	return id, err
}

const updateTransaction = `UPDATE transactions SET date = ?, pension_amount = ?, isa_amount = ?, general_amount = ?
WHERE id = ?`

func (q *Queries) UpdateTransaction(ctx context.Context, id int64, arg TransactionParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateTransaction,
		arg.Date, arg.PensionAmount, arg.IsaAmount, arg.GeneralAmount, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteTransaction = `DELETE FROM transactions WHERE id = ?`

func (q *Queries) DeleteTransaction(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteTransaction, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listUsers = `SELECT id, username, password_hash FROM users ORDER BY id`

func (q *Queries) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := q.db.QueryContext(ctx, listUsers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash); err != nil {
			return nil, err
		}
		items = append(items, u)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getUser = `SELECT id, username, password_hash FROM users WHERE id = ?`

func (q *Queries) GetUser(ctx context.Context, id int64) (User, error) {
	var u User
	err := q.db.QueryRowContext(ctx, getUser, id).Scan(&u.ID, &u.Username, &u.PasswordHash)
	return u, err
}

const getUserByUsername = `SELECT id, username, password_hash FROM users WHERE username = ?`

func (q *Queries) GetUserByUsername(ctx context.Context, username string) (User, error) {
	var u User
	err := q.db.QueryRowContext(ctx, getUserByUsername, username).Scan(&u.ID, &u.Username, &u.PasswordHash)
	return u, err
}

const createUser = `INSERT INTO users (username, password_hash) VALUES (?, ?) RETURNING id`

func (q *Queries) CreateUser(ctx context.Context, username, passwordHash string) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, createUser, username, passwordHash).Scan(&id)
	return id, err
}

const deleteUser = `DELETE FROM users WHERE id = ?`

func (q *Queries) DeleteUser(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteUser, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
