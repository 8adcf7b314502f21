package application

import "context"

// CommandHandler handles a command that modifies system state and returns its result.
type CommandHandler[C any, R any] interface {
	Handle(ctx context.Context, cmd C) (R, error)
}

// VoidHandler handles a command whose only outcome is success or an error.
type VoidHandler[C any] interface {
	Handle(ctx context.Context, cmd C) error
}
