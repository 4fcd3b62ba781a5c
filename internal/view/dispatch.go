package view

import (
	"context"
	"fmt"

	"github.com/tazhibayda/townboat/internal/domain"
)

// Handler performs one action type.
type Handler[R any] func(ctx context.Context, a Action) R

// Dispatcher routes every action through one table keyed by action type.
type Dispatcher[R any] struct {
	handlers map[string]Handler[R]
	fallback func(a Action, err error) R
}

// NewDispatcher builds a dispatcher; fallback produces the result for
// malformed or unknown actions.
func NewDispatcher[R any](fallback func(a Action, err error) R) *Dispatcher[R] {
	return &Dispatcher[R]{handlers: map[string]Handler[R]{}, fallback: fallback}
}

func (d *Dispatcher[R]) On(action string, h Handler[R]) *Dispatcher[R] {
	d.handlers[action] = h
	return d
}

func (d *Dispatcher[R]) Dispatch(ctx context.Context, a Action) R {
	if a.ID == "" {
		return d.fallback(a, fmt.Errorf("%w: %s without record id", domain.ErrValidation, a.Type))
	}
	h, ok := d.handlers[a.Type]
	if !ok {
		return d.fallback(a, fmt.Errorf("%w: %q", domain.ErrUnknownAction, a.Type))
	}
	return h(ctx, a)
}
