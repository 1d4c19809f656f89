package domain

import "context"

// Transactor runs fn within a single storage transaction. Repositories called
// with the context passed to fn join that transaction. Returning an error
// rolls everything back.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
