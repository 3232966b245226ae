package core

import "context"

// Transactor runs fn inside a single storage transaction.
// The transaction travels in the context handed to fn: repositories called with that
// context join it, and nested calls to WithinTx reuse it.
// The transaction is rolled back when fn returns an error and committed otherwise.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}
