package domain

import "context"

// Store is the unit of work the services run against. Repositories returned
// from the Store passed to fn share one database transaction.
type Store interface {
	Account() AccountRepository
	Statement() StatementRepository
	WithTransaction(ctx context.Context, fn func(Store) error) error
	Ping(ctx context.Context) error
}
