package core

import "slices"

// Collection is the ordered list of expenses, in insertion order.
type Collection []Expense

// NextID returns the id given to the next added expense.
// Ids are len+1, so an id freed by a deletion can be handed out again.
func (c Collection) NextID() int64 {
	return int64(len(c)) + 1
}

// Add appends a new expense dated on and returns the updated collection with
// the created record. The receiver is left untouched.
func (c Collection) Add(description string, amount Money, on Date) (Collection, Expense, error) {
	e := Expense{
		ID:          c.NextID(),
		Date:        on,
		Description: description,
		Amount:      amount,
	}
	if err := e.Validate(); err != nil {
		return c, Expense{}, err
	}

	out := make(Collection, 0, len(c)+1)
	out = append(out, c...)
	return append(out, e), e, nil
}

// Remove drops the first expense with the given id. When nothing matches it
// returns the receiver and false.
func (c Collection) Remove(id int64) (Collection, bool) {
	i := slices.IndexFunc(c, func(e Expense) bool { return e.ID == id })
	if i < 0 {
		return c, false
	}
	return slices.Delete(slices.Clone(c), i, i+1), true
}

// FilterByMonth keeps the expenses dated in month (1-12) of any year.
func (c Collection) FilterByMonth(month int) (Collection, error) {
	if err := ValidateMonth(month); err != nil {
		return nil, err
	}
	out := Collection{}
	for _, e := range c {
		if e.Date.Month() == month {
			out = append(out, e)
		}
	}
	return out, nil
}

// Total sums every amount in the collection.
func (c Collection) Total() Money {
	total := Cents(0)
	for _, e := range c {
		total = total.Add(e.Amount)
	}
	return total
}
