package amqp

import (
	"encoding/json"
	"time"

	"expensetracker/internal/core"
)

// Event types published after a successful save.
const (
	EventExpenseAdded   = "expense.added"
	EventExpenseDeleted = "expense.deleted"
)

// ExpenseEvent announces a change to the expense collection. Deletions only
// carry the id.
type ExpenseEvent struct {
	Type        string      `json:"type"`
	ID          int64       `json:"id"`
	Date        string      `json:"date,omitempty"`
	Description string      `json:"description,omitempty"`
	Amount      *core.Money `json:"amount,omitempty"`
	Timestamp   time.Time   `json:"timestamp"`
}

// NewExpenseAddedEvent creates an event describing a new expense
func NewExpenseAddedEvent(e core.Expense) *ExpenseEvent {
	amount := e.Amount
	return &ExpenseEvent{
		Type:        EventExpenseAdded,
		ID:          e.ID,
		Date:        e.Date.String(),
		Description: e.Description,
		Amount:      &amount,
		Timestamp:   time.Now().UTC(),
	}
}

// NewExpenseDeletedEvent creates an event for a removed expense
func NewExpenseDeletedEvent(id int64) *ExpenseEvent {
	return &ExpenseEvent{
		Type:      EventExpenseDeleted,
		ID:        id,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseEventFromJSON creates a message from JSON bytes
func ExpenseEventFromJSON(data []byte) (*ExpenseEvent, error) {
	var msg ExpenseEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
