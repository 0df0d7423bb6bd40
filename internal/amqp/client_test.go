package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"expensetracker/internal/core"

	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	published []amqp091.Publishing
	keys      []string
	failWith  error
	closed    bool
}

func (f *fakeChannel) ExchangeDeclare(string, string, bool, bool, bool, bool, amqp091.Table) error {
	return f.failWith
}

func (f *fakeChannel) QueueDeclare(name string, _, _, _, _ bool, _ amqp091.Table) (amqp091.Queue, error) {
	return amqp091.Queue{Name: name}, f.failWith
}

func (f *fakeChannel) QueueBind(string, string, string, bool, amqp091.Table) error {
	return f.failWith
}

func (f *fakeChannel) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp091.Publishing) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.keys = append(f.keys, key)
	f.published = append(f.published, msg)
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestClientPublishesExpenseEvents(t *testing.T) {
	ch := &fakeChannel{}
	c := &Client{channel: ch, exchangeName: "expenses", queueName: "expense_events"}
	require.NoError(t, c.setup())

	e := core.Expense{ID: 1, Date: core.NewDate(2025, 3, 1), Description: "Coffee", Amount: core.Cents(450)}
	require.NoError(t, c.ExpenseAdded(context.Background(), e))
	require.NoError(t, c.ExpenseDeleted(context.Background(), 1))

	require.Len(t, ch.published, 2)
	assert.Equal(t, []string{"expense_events", "expense_events"}, ch.keys)

	added := ch.published[0]
	assert.Equal(t, "application/json", added.ContentType)
	assert.Equal(t, amqp091.Persistent, added.DeliveryMode)
	assert.Equal(t, EventExpenseAdded, added.Type)

	var body map[string]any
	require.NoError(t, json.Unmarshal(added.Body, &body))
	assert.Equal(t, "expense.added", body["type"])
	assert.Equal(t, float64(1), body["id"])
	assert.Equal(t, "2025-03-01", body["date"])
	assert.Equal(t, "Coffee", body["description"])
	assert.Equal(t, 4.5, body["amount"])

	deleted, err := ExpenseEventFromJSON(ch.published[1].Body)
	require.NoError(t, err)
	assert.Equal(t, EventExpenseDeleted, deleted.Type)
	assert.Equal(t, int64(1), deleted.ID)
	assert.Nil(t, deleted.Amount)
	assert.Empty(t, deleted.Description)
}

func TestClientPublishError(t *testing.T) {
	ch := &fakeChannel{failWith: errors.New("channel closed")}
	c := &Client{channel: ch, exchangeName: "expenses", queueName: "expense_events"}

	err := c.ExpenseDeleted(context.Background(), 7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish expense.deleted")

	assert.Error(t, c.setup())
	assert.NoError(t, c.Close())
	assert.True(t, ch.closed)
}

func TestNewClientInvalidURL(t *testing.T) {
	_, err := NewClient("not-a-url", "expenses", "expense_events")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dial AMQP")
}

func TestZeroAmountIsStillSent(t *testing.T) {
	ev := NewExpenseAddedEvent(core.Expense{ID: 2, Date: core.NewDate(2025, 1, 1), Description: "free"})
	b, err := ev.ToJSON()
	require.NoError(t, err)
	assert.Contains(t, string(b), `"amount":0`)
}
