package ports

import (
	"context"

	"retireplan/internal/core"
)

// Ports for outbound adapters.
type (
	// PlanStore persists the yearly plan. Year is unique.
	PlanStore interface {
		// ListPlanEntries returns every entry ordered by ascending year.
		ListPlanEntries(ctx context.Context) ([]core.PlanEntry, error)
		GetPlanEntry(ctx context.Context, id int64) (core.PlanEntry, error)
		// CreatePlanEntry fails with core.ErrDuplicateYear when the year is taken.
		CreatePlanEntry(ctx context.Context, p core.PlanEntry) (int64, error)
		UpdatePlanEntry(ctx context.Context, p core.PlanEntry) error
		// UpsertPlanEntry replaces the entry for p.Year, creating it if needed.
		UpsertPlanEntry(ctx context.Context, p core.PlanEntry) (int64, error)
		DeletePlanEntry(ctx context.Context, id int64) error
	}

	// TransactionStore persists recorded contributions in any order.
	TransactionStore interface {
		ListTransactions(ctx context.Context) ([]core.Transaction, error)
		GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
		CreateTransaction(ctx context.Context, t core.Transaction) (int64, error)
		UpdateTransaction(ctx context.Context, t core.Transaction) error
		DeleteTransaction(ctx context.Context, id int64) error
	}

	UserStore interface {
		ListUsers(ctx context.Context) ([]core.User, error)
		GetUser(ctx context.Context, id int64) (core.User, error)
		// GetUserByUsername returns core.ErrNotFound for unknown names.
		GetUserByUsername(ctx context.Context, username string) (core.User, error)
		// CreateUser fails with core.ErrDuplicateUser when the name is taken.
		CreateUser(ctx context.Context, u core.User) (int64, error)
		DeleteUser(ctx context.Context, id int64) error
	}

	// Pinger reports whether a store is reachable.
	Pinger interface {
		Ping(ctx context.Context) error
	}
)
