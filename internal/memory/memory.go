// Package memory is an in-process implementation of the store ports, used
// for local development and tests.
package memory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"retireplan/internal/core"
	"retireplan/internal/seed"
)

type Store struct {
	mu     sync.Mutex
	nextID int64
	plans  map[int64]core.PlanEntry
	txs    map[int64]core.Transaction
	users  map[int64]core.User
}

func New() *Store {
	return &Store{
		plans: make(map[int64]core.PlanEntry),
		txs:   make(map[int64]core.Transaction),
		users: make(map[int64]core.User),
	}
}

// NewFromFiles creates a store seeded with base/plan_seed.tsv, falling back
// to the embedded default plan when the file is missing or unreadable.
func NewFromFiles(base string) *Store {
	s := New()
	res, err := readPlan(filepath.Join(base, "plan_seed.tsv"))
	if err != nil || len(res.Entries) == 0 {
		res, _ = seed.Default()
	}
	for _, e := range res.Entries {
		_, _ = s.UpsertPlanEntry(context.Background(), e)
	}
	return s
}

func readPlan(path string) (seed.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return seed.Result{}, err
	}
	defer f.Close()
	return seed.ParsePlanTable(f)
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) Ping(context.Context) error { return nil }

// ListPlanEntries returns the plan ordered by year.
func (s *Store) ListPlanEntries(_ context.Context) ([]core.PlanEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.PlanEntry, 0, len(s.plans))
	for _, p := range s.plans {
		out = append(out, p)
	}
	core.SortPlanEntries(out)
	return out, nil
}

func (s *Store) GetPlanEntry(_ context.Context, id int64) (core.PlanEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.plans[id]
	if !ok {
		return core.PlanEntry{}, fmt.Errorf("plan entry %d: %w", id, core.ErrNotFound)
	}
	return p, nil
}

func (s *Store) CreatePlanEntry(_ context.Context, p core.PlanEntry) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.planByYear(p.Year); ok {
		return 0, fmt.Errorf("year %d: %w", p.Year, core.ErrDuplicateYear)
	}
	p.ID = s.id()
	s.plans[p.ID] = p
	return p.ID, nil
}

func (s *Store) UpdatePlanEntry(_ context.Context, p core.PlanEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.plans[p.ID]; !ok {
		return fmt.Errorf("plan entry %d: %w", p.ID, core.ErrNotFound)
	}
	if other, ok := s.planByYear(p.Year); ok && other.ID != p.ID {
		return fmt.Errorf("year %d: %w", p.Year, core.ErrDuplicateYear)
	}
	s.plans[p.ID] = p
	return nil
}

// UpsertPlanEntry replaces the entry of the same year, keeping its id.
func (s *Store) UpsertPlanEntry(_ context.Context, p core.PlanEntry) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.planByYear(p.Year); ok {
		p.ID = existing.ID
	} else {
		p.ID = s.id()
	}
	s.plans[p.ID] = p
	return p.ID, nil
}

func (s *Store) DeletePlanEntry(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.plans[id]; !ok {
		return fmt.Errorf("plan entry %d: %w", id, core.ErrNotFound)
	}
	delete(s.plans, id)
	return nil
}

func (s *Store) planByYear(year int) (core.PlanEntry, bool) {
	for _, p := range s.plans {
		if p.Year == year {
			return p, true
		}
	}
	return core.PlanEntry{}, false
}

func (s *Store) ListTransactions(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, 0, len(s.txs))
	for _, t := range s.txs {
		out = append(out, t)
	}
	core.SortTransactions(out)
	return out, nil
}

func (s *Store) GetTransaction(_ context.Context, id int64) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.txs[id]
	if !ok {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	return t, nil
}

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = s.id()
	s.txs[t.ID] = t
	return t.ID, nil
}

func (s *Store) UpdateTransaction(_ context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.txs[t.ID]; !ok {
		return fmt.Errorf("transaction %d: %w", t.ID, core.ErrNotFound)
	}
	s.txs[t.ID] = t
	return nil
}

func (s *Store) DeleteTransaction(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.txs[id]; !ok {
		return fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	delete(s.txs, id)
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sortUsers(out)
	return out, nil
}

func (s *Store) GetUser(_ context.Context, id int64) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return core.User{}, fmt.Errorf("user %d: %w", id, core.ErrNotFound)
	}
	return u, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return core.User{}, fmt.Errorf("user %q: %w", username, core.ErrNotFound)
}

func (s *Store) CreateUser(_ context.Context, u core.User) (int64, error) {
	u.Username = strings.TrimSpace(u.Username)
	if err := u.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == u.Username {
			return 0, fmt.Errorf("user %q: %w", u.Username, core.ErrDuplicateUser)
		}
	}
	u.ID = s.id()
	s.users[u.ID] = u
	return u.ID, nil
}

func (s *Store) DeleteUser(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return fmt.Errorf("user %d: %w", id, core.ErrNotFound)
	}
	delete(s.users, id)
	return nil
}

func sortUsers(users []core.User) {
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
}
