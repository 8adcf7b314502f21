package application

import "context"

// QueryHandler handles a read-only query.
type QueryHandler[Q any, R any] interface {
	Handle(ctx context.Context, query Q) (R, error)
}
