package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format used on disk and on screen.
const DateLayout = "2006-01-02"

type (
	Date struct {
		time.Time
	}

	// Money is an exact decimal amount in major units. The zero value is 0.
	Money struct {
		amount decimal.Decimal
	}

	Expense struct {
		ID          int64  `json:"id"`
		Date        Date   `json:"date"`
		Description string `json:"description"`
		Amount      Money  `json:"amount"`
	}
)

var (
	ErrInvalidMonth     = errors.New("month must be between 1 and 12")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrNegativeAmount   = errors.New("amount cannot be negative")
	ErrEmptyDescription = errors.New("description cannot be empty")
	ErrInvalidID        = errors.New("id must be positive")

	ErrNotFound = errors.New("expense not found")
)

// NotFoundError reports a lookup by id that matched nothing.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Expense with ID %d not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// IsValidation reports whether err is caused by bad user input.
func IsValidation(err error) bool {
	for _, target := range []error{ErrInvalidMonth, ErrInvalidAmount, ErrNegativeAmount, ErrEmptyDescription, ErrInvalidID} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (m Money) Validate() error {
	if m.amount.IsNegative() {
		return ErrNegativeAmount
	}
	return nil
}

// ValidateMonth checks a 1-12 month number.
func ValidateMonth(month int) error {
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

func (e Expense) Validate() error {
	if e.ID < 1 {
		return ErrInvalidID
	}
	if e.Date.IsZero() {
		return errors.New("date cannot be zero")
	}
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	return e.Amount.Validate()
}

// expenseRecord mirrors Expense with pointers so that missing keys are detected.
type expenseRecord struct {
	ID          *int64  `json:"id"`
	Date        *Date   `json:"date"`
	Description *string `json:"description"`
	Amount      *Money  `json:"amount"`
}

// UnmarshalJSON rejects records that lack any of the four fields.
func (e *Expense) UnmarshalJSON(b []byte) error {
	var rec expenseRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return err
	}
	var missing []string
	if rec.ID == nil {
		missing = append(missing, "id")
	}
	if rec.Date == nil {
		missing = append(missing, "date")
	}
	if rec.Description == nil {
		missing = append(missing, "description")
	}
	if rec.Amount == nil {
		missing = append(missing, "amount")
	}
	if len(missing) > 0 {
		return fmt.Errorf("expense record missing %s", strings.Join(missing, ", "))
	}
	*e = Expense{
		ID:          *rec.ID,
		Date:        *rec.Date,
		Description: *rec.Description,
		Amount:      *rec.Amount,
	}
	return nil
}
