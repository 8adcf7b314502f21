package application

import "context"

// UnitOfWork provides transactional support for aggregating multiple operations.
type UnitOfWork interface {
	Begin(ctx context.Context) (context.Context, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UnitOfWorkFunc is a function that executes within a unit of work.
type UnitOfWorkFunc func(ctx context.Context) error

type afterCommitKey struct{}

type afterCommitHooks struct {
	fns []func(context.Context)
}

// AfterCommit registers fn to run once the outermost unit of work in ctx has
// committed. Outside a unit of work fn runs immediately. Hooks never run when
// the unit of work rolls back.
func AfterCommit(ctx context.Context, fn func(context.Context)) {
	if hooks, ok := ctx.Value(afterCommitKey{}).(*afterCommitHooks); ok {
		hooks.fns = append(hooks.fns, fn)
		return
	}
	fn(ctx)
}

// WithUnitOfWork executes fn within a unit of work. The transaction is rolled
// back when fn returns an error or panics.
func WithUnitOfWork(ctx context.Context, uow UnitOfWork, fn UnitOfWorkFunc) error {
	parent := ctx
	hooks, nested := ctx.Value(afterCommitKey{}).(*afterCommitHooks)
	if !nested {
		hooks = &afterCommitHooks{}
		ctx = context.WithValue(ctx, afterCommitKey{}, hooks)
	}

	txCtx, err := uow.Begin(ctx)
	if err != nil {
		return err
	}

	committed := false
	defer func() {
		if !committed {
			if r := recover(); r != nil {
				_ = uow.Rollback(txCtx)
				panic(r)
			}
		}
	}()

	if err := fn(txCtx); err != nil {
		committed = true
		_ = uow.Rollback(txCtx)
		return err
	}

	committed = true
	if err := uow.Commit(txCtx); err != nil {
		return err
	}

	if !nested {
		for _, hook := range hooks.fns {
			hook(parent)
		}
	}
	return nil
}
