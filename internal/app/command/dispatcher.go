package command

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// ErrUnhandled is returned when no handler is registered for a kind.
var ErrUnhandled = errors.New("no handler for command")

// Handler executes a command.
type Handler func(ctx context.Context, cmd Command) error

// Dispatcher routes commands to handlers by kind.
type Dispatcher struct {
	handlers map[Kind]Handler
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[Kind]Handler)}
}

// Register sets the handler for a kind, replacing any previous one.
func (d *Dispatcher) Register(kind Kind, h Handler) {
	d.handlers[kind] = h
}

// Handles reports whether a handler is registered for kind.
func (d *Dispatcher) Handles(kind Kind) bool {
	_, ok := d.handlers[kind]
	return ok
}

// Dispatch runs the handler registered for cmd.Kind.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd Command) error {
	h, ok := d.handlers[cmd.Kind]
	if !ok {
		return errors.Wrapf(ErrUnhandled, "%s", cmd.Kind)
	}
	zlog.Debug().Msgf("dispatching command: %s %+v", cmd.Kind, cmd)
	return h(ctx, cmd)
}
