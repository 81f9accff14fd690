package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retireplan/internal/amqp"
	"retireplan/internal/auth"
	"retireplan/internal/core"
	"retireplan/internal/memory"
)

type published struct {
	entity string
	id     int64
	year   int
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (f *fakePublisher) PublishSummarySync(_ context.Context, entity string, id int64, year int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, published{entity, id, year})
	return f.err
}

type failingPlans struct {
	*memory.Store
}

func (failingPlans) ListPlanEntries(context.Context) ([]core.PlanEntry, error) {
	return nil, errors.New("disk on fire")
}

func TestParsePlanInput(t *testing.T) {
	p, err := ParsePlanInput(PlanInput{
		Year: "2027", Age: "51",
		Pension: "9,195", ISA: "2,255", General: " 22,800 ",
		StrategyNote: "  hold  ",
	})
	require.NoError(t, err)
	assert.Equal(t, 2027, p.Year)
	assert.Equal(t, 51, p.Age)
	assert.Equal(t, int64(34250), p.Total)
	assert.Equal(t, "hold", p.StrategyNote)

	_, err = ParsePlanInput(PlanInput{Year: "next year"})
	assert.ErrorIs(t, err, core.ErrInvalidYear)

	_, err = ParsePlanInput(PlanInput{Year: "2027", Age: "old"})
	assert.ErrorIs(t, err, core.ErrInvalidAge)

	_, err = ParsePlanInput(PlanInput{Year: "2027", ISA: "lots"})
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	_, err = ParsePlanInput(PlanInput{Year: "2027", General: "-5"})
	assert.ErrorIs(t, err, core.ErrNegativeTarget)
}

func TestParseTransactionInput(t *testing.T) {
	today := time.Date(2026, 3, 14, 15, 0, 0, 0, time.Local)

	tx, err := ParseTransactionInput(TransactionInput{Pension: "100", General: "-1,500"}, today)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-14", tx.Date.String())
	assert.Equal(t, core.Balances{Pension: 100, General: -1500}, tx.Amounts)

	tx, err = ParseTransactionInput(TransactionInput{Date: "2027-01-05", ISA: "12.9"}, today)
	require.NoError(t, err)
	assert.Equal(t, 2027, tx.Date.Year())
	assert.Equal(t, int64(12), tx.Amounts.ISA)

	_, err = ParseTransactionInput(TransactionInput{Date: "05/01/2027"}, today)
	assert.ErrorIs(t, err, core.ErrInvalidDate)

	_, err = ParseTransactionInput(TransactionInput{Pension: "abc"}, today)
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
}

func TestPlanService(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	pub := &fakePublisher{}
	svc := NewPlanService(store, pub, nil)

	created, err := svc.Create(ctx, PlanInput{Year: "2026", Age: "50", Pension: "7,900", ISA: "1,100", General: "20,000"})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, int64(29000), created.Total)

	_, err = svc.Create(ctx, PlanInput{Year: "2026", Age: "50"})
	assert.ErrorIs(t, err, core.ErrDuplicateYear)

	updated, err := svc.Update(ctx, created.ID, PlanInput{Year: "2026", Age: "50", Pension: "8,000", ISA: "1,000", General: "20,000"})
	require.NoError(t, err)
	assert.Equal(t, int64(29000), updated.Total)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(8000), got.Pension)

	require.NoError(t, svc.Delete(ctx, created.ID))
	_, err = svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, created.ID), core.ErrNotFound)

	require.Len(t, pub.msgs, 3)
	assert.Equal(t, published{amqp.EntityPlan, created.ID, 2026}, pub.msgs[0])
}

func TestPlanService_Import(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	pub := &fakePublisher{}
	svc := NewPlanService(store, pub, nil)

	entries := []core.PlanEntry{
		{Year: 2026, Age: 50, Pension: 1, ISA: 2, General: 3, Total: 999},
		{Year: 2027, Age: 51, Pension: 4, ISA: 5, General: 6},
	}
	n, err := svc.Import(ctx, entries)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// re-import replaces by year
	entries[0].Pension = 10
	n, err = svc.Import(ctx, entries[:1])
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, int64(15), list[0].Total)

	_, err = svc.Import(ctx, []core.PlanEntry{{Year: 12}})
	assert.ErrorIs(t, err, core.ErrInvalidYear)

	require.Len(t, pub.msgs, 2)
	assert.Equal(t, amqp.EntityFull, pub.msgs[0].entity)
}

func TestTransactionService(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := NewTransactionService(store, pub, nil)
	svc.now = func() time.Time { return time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC) }

	first, err := svc.Record(ctx, TransactionInput{Pension: "100"})
	require.NoError(t, err, "publish failures must not fail the write")
	assert.Equal(t, "2026-06-01", first.Date.String())

	second, err := svc.Record(ctx, TransactionInput{Date: "2027-02-01", ISA: "50"})
	require.NoError(t, err)

	_, err = svc.Record(ctx, TransactionInput{Date: "2027-13-01"})
	assert.ErrorIs(t, err, core.ErrInvalidDate)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)

	_, err = svc.Update(ctx, first.ID, TransactionInput{Date: "2026-01-01", Pension: "-20"})
	require.NoError(t, err)
	got, err := store.GetTransaction(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(-20), got.Amounts.Pension)

	_, err = svc.Update(ctx, 999, TransactionInput{})
	assert.ErrorIs(t, err, core.ErrNotFound)

	require.NoError(t, svc.Delete(ctx, second.ID))
	assert.ErrorIs(t, svc.Delete(ctx, second.ID), core.ErrNotFound)

	require.Len(t, pub.msgs, 4)
	assert.Equal(t, published{amqp.EntityTransaction, second.ID, 2027}, pub.msgs[3])
}

func TestProgressService_Dashboard(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	plans := NewPlanService(store, nil, nil)
	txs := NewTransactionService(store, nil, nil)

	_, err := plans.Create(ctx, PlanInput{Year: "2026", Age: "50", Pension: "7900", ISA: "1100", General: "20000"})
	require.NoError(t, err)
	_, err = plans.Create(ctx, PlanInput{Year: "2031", Age: "55", Pension: "1", ISA: "1", General: "1"})
	require.NoError(t, err)
	_, err = txs.Record(ctx, TransactionInput{Date: "2026-03-01", Pension: "100", ISA: "50", General: "200"})
	require.NoError(t, err)

	svc := NewProgressService(store, store, core.DefaultProjectionConfig())

	d, err := svc.Dashboard(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 2026, d.SelectedYear)
	require.NotNil(t, d.Current)
	assert.Equal(t, int64(27350), d.Current.Total)
	assert.Equal(t, int64(29000), d.Current.Goal)
	require.Len(t, d.Summary, 6)
	require.Len(t, d.Projection, 4)
	assert.Equal(t, 2029, d.Projection[3].Year)
	assert.Len(t, d.Plans, 2)

	d, err = svc.Dashboard(ctx, 2030)
	require.NoError(t, err)
	require.Len(t, d.Projection, 2)
	assert.Equal(t, 2030, d.Projection[0].Year)

	d, err = svc.Dashboard(ctx, 2099)
	require.NoError(t, err)
	assert.Empty(t, d.Projection)
}

func TestProgressService_EmptyStore(t *testing.T) {
	store := memory.New()
	svc := NewProgressService(store, store, core.DefaultProjectionConfig())

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	require.Len(t, summary, 1)
	assert.Equal(t, int64(27000), summary[0].Total)

	chart, err := svc.ChartData(context.Background())
	require.NoError(t, err)
	assert.Empty(t, chart.Labels)
	assert.NotNil(t, chart.Total)
}

func TestProgressService_ChartData(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	_, err := store.CreatePlanEntry(ctx, core.PlanEntry{Year: 2027, Pension: 4, ISA: 5, General: 6}.Normalize())
	require.NoError(t, err)
	_, err = store.CreatePlanEntry(ctx, core.PlanEntry{Year: 2026, Pension: 1, ISA: 2, General: 3}.Normalize())
	require.NoError(t, err)

	chart, err := NewProgressService(store, store, core.DefaultProjectionConfig()).ChartData(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{2026, 2027}, chart.Labels)
	assert.Equal(t, []int64{1, 4}, chart.Pension)
	assert.Equal(t, []int64{2, 5}, chart.ISA)
	assert.Equal(t, []int64{3, 6}, chart.General)
	assert.Equal(t, []int64{6, 15}, chart.Total)
}

func TestProgressService_StoreError(t *testing.T) {
	store := memory.New()
	svc := NewProgressService(failingPlans{store}, store, core.DefaultProjectionConfig())

	_, err := svc.Dashboard(context.Background(), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk on fire")
}

func TestUserService(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	sessions := auth.NewManager(store, "0123456789abcdef0123456789abcdef", time.Hour)
	_, err := sessions.EnsureAdmin(ctx, "admin", "admin-password")
	require.NoError(t, err)
	svc := NewUserService(store, sessions, "admin")

	u, err := svc.Create(ctx, "  kim ", "long-enough")
	require.NoError(t, err)
	assert.Equal(t, "kim", u.Username)
	assert.True(t, auth.CheckPassword(u.PasswordHash, "long-enough"))

	_, err = svc.Create(ctx, "kim", "another-one")
	assert.ErrorIs(t, err, core.ErrDuplicateUser)
	_, err = svc.Create(ctx, "lee", "")
	assert.ErrorIs(t, err, core.ErrEmptyPassword)
	_, err = svc.Create(ctx, "lee", "short")
	assert.ErrorIs(t, err, core.ErrWeakPassword)
	_, err = svc.Create(ctx, " ", "long-enough")
	assert.ErrorIs(t, err, core.ErrEmptyUsername)
	_, err = svc.Create(ctx, strings.Repeat("k", core.MaxUsernameLength+1), "long-enough")
	assert.ErrorIs(t, err, core.ErrUsernameTooLong)

	value, _, err := sessions.Login(ctx, "kim", "long-enough")
	require.NoError(t, err)

	users, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	admin := users[0]
	assert.True(t, svc.IsProtected(admin))
	assert.ErrorIs(t, svc.Delete(ctx, admin.ID), core.ErrProtectedUser)

	require.NoError(t, svc.Delete(ctx, u.ID))
	_, ok := sessions.Authenticate(value)
	assert.False(t, ok, "sessions of a deleted user must be revoked")
	assert.ErrorIs(t, svc.Delete(ctx, u.ID), core.ErrNotFound)
}
