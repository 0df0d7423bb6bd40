package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"expensetracker/internal/core"
	"expensetracker/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu      sync.Mutex
	name    string
	added   []core.Expense
	deleted []int64
	err     error
	closed  bool
}

func (n *recordingNotifier) Name() string { return n.name }

func (n *recordingNotifier) ExpenseAdded(_ context.Context, e core.Expense) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.added = append(n.added, e)
	return n.err
}

func (n *recordingNotifier) ExpenseDeleted(_ context.Context, id int64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.deleted = append(n.deleted, id)
	return n.err
}

func (n *recordingNotifier) Close() error {
	n.closed = true
	return nil
}

type fakeExporter struct {
	got core.Collection
	err error
}

func (f *fakeExporter) Export(_ context.Context, expenses core.Collection) (string, error) {
	f.got = expenses
	return "Expenses!A1:D3", f.err
}

// clockAt returns a clock stuck at the given day.
func clockAt(year, month, day int) func() time.Time {
	return func() time.Time { return time.Date(year, time.Month(month), day, 15, 4, 5, 0, time.Local) }
}

func mustAdd(t *testing.T, s *ExpenseService, desc, amount string) core.Expense {
	t.Helper()
	m, err := core.ParseAmount(amount)
	require.NoError(t, err)
	e, err := s.AddExpense(context.Background(), desc, m)
	require.NoError(t, err)
	return e
}

func TestAddExpenseOnEmptyStore(t *testing.T) {
	store := storage.NewMemoryStore()
	s := NewExpenseService(store).WithClock(clockAt(2025, 3, 9))

	e := mustAdd(t, s, "Coffee", "4.50")

	assert.Equal(t, core.Expense{
		ID:          1,
		Date:        core.NewDate(2025, 3, 9),
		Description: "Coffee",
		Amount:      core.Cents(450),
	}, e)

	stored, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, core.Collection{e}, stored)
}

func TestAddExpenseAssignsSequentialIDs(t *testing.T) {
	s := NewExpenseService(storage.NewMemoryStore())
	for k := 1; k <= 10; k++ {
		e := mustAdd(t, s, "item", "1")
		assert.Equal(t, int64(k), e.ID)
	}
	all, err := s.ListExpenses(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 10)
}

func TestAddExpenseValidationDoesNotSave(t *testing.T) {
	store := storage.NewMemoryStore()
	s := NewExpenseService(store)

	_, err := s.AddExpense(context.Background(), "", core.Cents(100))
	assert.ErrorIs(t, err, core.ErrEmptyDescription)
	assert.True(t, core.IsValidation(err))

	_, err = s.AddExpense(context.Background(), "Refund", core.Cents(-100))
	assert.ErrorIs(t, err, core.ErrNegativeAmount)

	assert.Equal(t, 0, store.Saves())
}

func TestDeleteExpenseKeepsOrder(t *testing.T) {
	s := NewExpenseService(storage.NewMemoryStore())
	mustAdd(t, s, "one", "1")
	mustAdd(t, s, "two", "2")
	mustAdd(t, s, "three", "3")

	require.NoError(t, s.DeleteExpense(context.Background(), 2))

	all, err := s.ListExpenses(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, int64(1), all[0].ID)
	assert.Equal(t, int64(3), all[1].ID)
}

func TestDeleteUnknownIDLeavesFileUntouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "expenses.json")
	s := NewExpenseService(storage.NewJSONStore(path))
	mustAdd(t, s, "one", "1")
	mustAdd(t, s, "two", "2")

	before, err := os.ReadFile(path)
	require.NoError(t, err)
	info, err := os.Stat(path)
	require.NoError(t, err)

	err = s.DeleteExpense(context.Background(), 99)
	require.ErrorIs(t, err, core.ErrNotFound)
	assert.EqualError(t, err, "Expense with ID 99 not found")

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	infoAfter, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, info.ModTime(), infoAfter.ModTime())
}

func TestDeletedIDNeverReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "expenses.json")
	s := NewExpenseService(storage.NewJSONStore(path))
	for i := 0; i < 4; i++ {
		mustAdd(t, s, "x", "1")
	}
	require.NoError(t, s.DeleteExpense(context.Background(), 3))

	reloaded, err := storage.NewJSONStore(path).Load(context.Background())
	require.NoError(t, err)
	for _, e := range reloaded {
		assert.NotEqual(t, int64(3), e.ID)
	}
}

func TestMonthlyTotal(t *testing.T) {
	s := NewExpenseService(storage.NewMemoryStore())

	s.WithClock(clockAt(2025, 3, 2))
	mustAdd(t, s, "march one", "10.25")
	s.WithClock(clockAt(2025, 3, 28))
	mustAdd(t, s, "march two", "4.75")
	s.WithClock(clockAt(2025, 4, 1))
	mustAdd(t, s, "april", "100")

	ctx := context.Background()

	march, err := s.MonthlyTotal(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "15.00", march.String())

	april, err := s.MonthlyTotal(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, "100.00", april.String())

	for _, m := range []int{1, 2, 5, 6, 7, 8, 9, 10, 11, 12} {
		total, err := s.MonthlyTotal(ctx, m)
		require.NoError(t, err)
		assert.True(t, total.IsZero(), "month %d", m)
	}

	all, err := s.TotalExpenses(ctx)
	require.NoError(t, err)
	assert.Equal(t, "115.00", all.String())

	_, err = s.MonthlyTotal(ctx, 13)
	assert.ErrorIs(t, err, core.ErrInvalidMonth)
}

func TestNotifiersSeeSavedChanges(t *testing.T) {
	first := &recordingNotifier{name: "first"}
	second := &recordingNotifier{name: "second", err: errors.New("broker down")}
	store := storage.NewMemoryStore()
	s := NewExpenseService(store, first, second)

	e := mustAdd(t, s, "Coffee", "4.5")
	require.NoError(t, s.DeleteExpense(context.Background(), e.ID))
	assert.ErrorIs(t, s.DeleteExpense(context.Background(), e.ID), core.ErrNotFound)

	for _, n := range []*recordingNotifier{first, second} {
		assert.Equal(t, []core.Expense{e}, n.added, n.name)
		assert.Equal(t, []int64{e.ID}, n.deleted, n.name)
	}
	assert.Equal(t, 2, store.Saves())

	require.NoError(t, s.Close())
	assert.True(t, first.closed)
	assert.True(t, second.closed)
}

type failingStore struct {
	loadErr error
	saveErr error
}

func (f failingStore) Load(context.Context) (core.Collection, error) {
	return core.Collection{}, f.loadErr
}

func (f failingStore) Save(context.Context, core.Collection) error {
	return f.saveErr
}

func TestStorageErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk full")

	n := &recordingNotifier{name: "n"}
	s := NewExpenseService(failingStore{saveErr: boom}, n)
	_, err := s.AddExpense(ctx, "x", core.Cents(1))
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, n.added, "nothing is announced when the save fails")

	s = NewExpenseService(failingStore{loadErr: storage.ErrMalformed})
	_, err = s.ListExpenses(ctx)
	assert.ErrorIs(t, err, storage.ErrMalformed)
	_, err = s.TotalExpenses(ctx)
	assert.ErrorIs(t, err, storage.ErrMalformed)
	assert.ErrorIs(t, s.DeleteExpense(ctx, 1), storage.ErrMalformed)
}

func TestExportExpenses(t *testing.T) {
	s := NewExpenseService(storage.NewMemoryStore())
	s.WithClock(clockAt(2025, 3, 2))
	mustAdd(t, s, "march", "1")
	s.WithClock(clockAt(2025, 4, 2))
	mustAdd(t, s, "april", "2")

	ctx := context.Background()
	dst := &fakeExporter{}

	ref, n, err := s.ExportExpenses(ctx, dst, 0)
	require.NoError(t, err)
	assert.Equal(t, "Expenses!A1:D3", ref)
	assert.Equal(t, 2, n)

	_, n, err = s.ExportExpenses(ctx, dst, 4)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "april", dst.got[0].Description)

	_, _, err = s.ExportExpenses(ctx, dst, 14)
	assert.ErrorIs(t, err, core.ErrInvalidMonth)

	_, _, err = s.ExportExpenses(ctx, &fakeExporter{err: errors.New("quota")}, 0)
	assert.ErrorContains(t, err, "export expenses: quota")

	_, _, err = s.ExportExpenses(ctx, nil, 0)
	assert.Error(t, err)
}

func TestCloseWithoutResources(t *testing.T) {
	s := NewExpenseService(storage.NewMemoryStore())
	assert.NoError(t, s.Close())
}
