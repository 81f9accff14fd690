package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"retireplan/internal/amqp"
	"retireplan/internal/core"
	applog "retireplan/internal/log"
	"retireplan/internal/ports"
)

// TransactionInput is a transaction as submitted by a form.
type TransactionInput struct {
	Date    string
	Pension string
	ISA     string
	General string
}

// ParseTransactionInput normalizes form values. An empty date means today.
func ParseTransactionInput(in TransactionInput, today time.Time) (core.Transaction, error) {
	var t core.Transaction
	if strings.TrimSpace(in.Date) == "" {
		t.Date = core.NewDate(today.Year(), int(today.Month()), today.Day())
	} else {
		d, err := core.ParseDate(in.Date)
		if err != nil {
			return core.Transaction{}, err
		}
		t.Date = d
	}

	for _, f := range []struct {
		name string
		raw  string
		dst  *int64
	}{
		{"pension", in.Pension, &t.Amounts.Pension},
		{"isa", in.ISA, &t.Amounts.ISA},
		{"general", in.General, &t.Amounts.General},
	} {
		v, err := core.ParseAmount(f.raw)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = v
	}

	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

// TransactionService records contributions and withdrawals.
type TransactionService struct {
	store     ports.TransactionStore
	publisher Publisher
	log       *applog.StructuredLogger
	now       func() time.Time
}

func NewTransactionService(store ports.TransactionStore, publisher Publisher, logger *applog.StructuredLogger) *TransactionService {
	return &TransactionService{
		store:     store,
		publisher: publisher,
		log:       structuredLogger(logger),
		now:       time.Now,
	}
}

// Today is the date an undated transaction is recorded under.
func (s *TransactionService) Today() core.Date {
	now := s.now()
	return core.NewDate(now.Year(), int(now.Month()), now.Day())
}

// List returns all transactions, newest first.
func (s *TransactionService) List(ctx context.Context) ([]core.Transaction, error) {
	txs, err := s.store.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	core.SortTransactions(txs)
	return txs, nil
}

func (s *TransactionService) Record(ctx context.Context, in TransactionInput) (core.Transaction, error) {
	t, err := ParseTransactionInput(in, s.now())
	if err != nil {
		return core.Transaction{}, err
	}
	id, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		s.log.LogError(ctx, "Failed to record transaction", err, applog.ComponentTransaction, applog.OpCreate, nil)
		return core.Transaction{}, fmt.Errorf("record transaction: %w", err)
	}
	t.ID = id
	s.logSaved(ctx, applog.OpCreate, t)
	notify(ctx, s.publisher, amqp.EntityTransaction, id, t.Date.Year())
	return t, nil
}

func (s *TransactionService) Update(ctx context.Context, id int64, in TransactionInput) (core.Transaction, error) {
	t, err := ParseTransactionInput(in, s.now())
	if err != nil {
		return core.Transaction{}, err
	}
	t.ID = id
	if err := s.store.UpdateTransaction(ctx, t); err != nil {
		s.log.LogError(ctx, "Failed to update transaction", err, applog.ComponentTransaction, applog.OpUpdate,
			applog.LogFields{applog.FieldID: id})
		return core.Transaction{}, fmt.Errorf("update transaction %d: %w", id, err)
	}
	s.logSaved(ctx, applog.OpUpdate, t)
	notify(ctx, s.publisher, amqp.EntityTransaction, id, t.Date.Year())
	return t, nil
}

func (s *TransactionService) Delete(ctx context.Context, id int64) error {
	t, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	s.logSaved(ctx, applog.OpDelete, t)
	notify(ctx, s.publisher, amqp.EntityTransaction, id, t.Date.Year())
	return nil
}

func (s *TransactionService) logSaved(ctx context.Context, op string, t core.Transaction) {
	s.log.LogTransactionRecorded(ctx, op, t.ID, t.Date.String(), t.Amounts.Pension, t.Amounts.ISA, t.Amounts.General)
}
