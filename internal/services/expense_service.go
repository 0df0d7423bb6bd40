package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
	"expensetracker/internal/storage"

	"golang.org/x/sync/errgroup"
)

// Notifier is told about every change that has been saved.
type Notifier interface {
	Name() string
	ExpenseAdded(ctx context.Context, e core.Expense) error
	ExpenseDeleted(ctx context.Context, id int64) error
}

// Exporter pushes a set of expenses to an external destination.
type Exporter interface {
	Export(ctx context.Context, expenses core.Collection) (ref string, err error)
}

// ExpenseService orchestrates load, change, save and notify for one invocation.
type ExpenseService struct {
	store     storage.Store
	notifiers []Notifier
	now       func() time.Time
	logger    *applog.Logger
}

func NewExpenseService(store storage.Store, notifiers ...Notifier) *ExpenseService {
	return &ExpenseService{
		store:     store,
		notifiers: notifiers,
		now:       time.Now,
		logger:    applog.Discard(),
	}
}

// WithClock replaces the source of "today".
func (s *ExpenseService) WithClock(now func() time.Time) *ExpenseService {
	s.now = now
	return s
}

// WithLogger sets the logger used for notification failures and tracing.
func (s *ExpenseService) WithLogger(logger *applog.Logger) *ExpenseService {
	s.logger = logger.WithComponent(applog.ComponentExpense)
	return s
}

// AddExpense records a new expense dated today and saves the collection.
func (s *ExpenseService) AddExpense(ctx context.Context, description string, amount core.Money) (core.Expense, error) {
	expenses, err := s.store.Load(ctx)
	if err != nil {
		return core.Expense{}, fmt.Errorf("load expenses: %w", err)
	}

	expenses, e, err := expenses.Add(description, amount, core.DateOf(s.now()))
	if err != nil {
		return core.Expense{}, err
	}

	if err := s.store.Save(ctx, expenses); err != nil {
		return core.Expense{}, fmt.Errorf("save expenses: %w", err)
	}

	s.logger.InfoContext(ctx, "Expense added",
		applog.NewFields().WithOperation(applog.OpCreate).WithExpense(e.ID, e.Description, e.Amount.String()).ToSlice()...)

	s.notify(ctx, applog.OpCreate, func(ctx context.Context, n Notifier) error {
		return n.ExpenseAdded(ctx, e)
	})

	return e, nil
}

// ListExpenses returns every stored expense in insertion order.
func (s *ExpenseService) ListExpenses(ctx context.Context) (core.Collection, error) {
	expenses, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load expenses: %w", err)
	}
	return expenses, nil
}

// DeleteExpense removes the expense with the given id. Nothing is saved when
// the id is unknown.
func (s *ExpenseService) DeleteExpense(ctx context.Context, id int64) error {
	expenses, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load expenses: %w", err)
	}

	expenses, found := expenses.Remove(id)
	if !found {
		return &core.NotFoundError{ID: id}
	}

	if err := s.store.Save(ctx, expenses); err != nil {
		return fmt.Errorf("save expenses: %w", err)
	}

	s.logger.InfoContext(ctx, "Expense deleted",
		applog.FieldOperation, applog.OpDelete,
		applog.FieldExpenseID, id)

	s.notify(ctx, applog.OpDelete, func(ctx context.Context, n Notifier) error {
		return n.ExpenseDeleted(ctx, id)
	})

	return nil
}

// TotalExpenses sums every stored expense.
func (s *ExpenseService) TotalExpenses(ctx context.Context) (core.Money, error) {
	expenses, err := s.ListExpenses(ctx)
	if err != nil {
		return core.Money{}, err
	}
	return expenses.Total(), nil
}

// MonthlyTotal sums the expenses dated in month (1-12) of any year.
func (s *ExpenseService) MonthlyTotal(ctx context.Context, month int) (core.Money, error) {
	if err := core.ValidateMonth(month); err != nil {
		return core.Money{}, err
	}
	expenses, err := s.ListExpenses(ctx)
	if err != nil {
		return core.Money{}, err
	}
	filtered, err := expenses.FilterByMonth(month)
	if err != nil {
		return core.Money{}, err
	}
	return filtered.Total(), nil
}

// ExportExpenses sends the expenses of month, or all of them when month is 0,
// to dst. It returns the destination reference and the number of expenses sent.
func (s *ExpenseService) ExportExpenses(ctx context.Context, dst Exporter, month int) (string, int, error) {
	if dst == nil {
		return "", 0, errors.New("no export destination configured")
	}
	if month != 0 {
		if err := core.ValidateMonth(month); err != nil {
			return "", 0, err
		}
	}

	expenses, err := s.ListExpenses(ctx)
	if err != nil {
		return "", 0, err
	}
	if month != 0 {
		if expenses, err = expenses.FilterByMonth(month); err != nil {
			return "", 0, err
		}
	}

	ref, err := dst.Export(ctx, expenses)
	if err != nil {
		return "", 0, fmt.Errorf("export expenses: %w", err)
	}

	s.logger.InfoContext(ctx, "Expenses exported",
		applog.FieldOperation, applog.OpExport,
		applog.FieldSheetsRef, ref,
		applog.FieldCount, len(expenses))

	return ref, len(expenses), nil
}

// notify runs fn against every notifier concurrently. Failures are logged and
// never undo the save that already happened.
func (s *ExpenseService) notify(ctx context.Context, op string, fn func(context.Context, Notifier) error) {
	if len(s.notifiers) == 0 {
		return
	}

	// A plain group: one failing notifier must not cancel the others.
	var g errgroup.Group
	for _, n := range s.notifiers {
		n := n
		g.Go(func() error {
			if err := fn(ctx, n); err != nil {
				fields := applog.NewFields().WithOperation(op).WithError(err)
				fields[applog.FieldNotifier] = n.Name()
				s.logger.WarnContext(ctx, "Failed to notify expense change", fields.ToSlice()...)
				return fmt.Errorf("%s: %w", n.Name(), err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.DebugContext(ctx, "Notification fan-out finished with errors", applog.FieldError, err)
	}
}

// Close closes the notifiers that hold resources. The store belongs to the
// caller that opened it.
func (s *ExpenseService) Close() error {
	var errs []error
	for _, n := range s.notifiers {
		if c, ok := n.(interface{ Close() error }); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close expense service: %w", errors.Join(errs...))
	}

	return nil
}
