package service

import (
	"context"
	"fmt"

	"github.com/tazhibayda/townboat/internal/domain"
	"github.com/tazhibayda/townboat/internal/view"
)

type ConnectionStore interface {
	CreateConnection(ctx context.Context, c *domain.Connection) error
	GetConnection(ctx context.Context, id string) (*domain.Connection, error)
	SetConnectionStatus(ctx context.Context, c *domain.Connection, status string) error
	FindUserByID(ctx context.Context, id string) (*domain.User, error)
}

// ConnectionEvents are told about requests and answers.
type ConnectionEvents interface {
	ConnectionRequested(ctx context.Context, c *domain.Connection)
	ConnectionAnswered(ctx context.Context, c *domain.Connection)
}

type Connections struct {
	store  ConnectionStore
	events ConnectionEvents
}

func NewConnections(store ConnectionStore, events ConnectionEvents) *Connections {
	return &Connections{store: store, events: events}
}

// Request opens a pending connection from who to the user to.
func (s *Connections) Request(ctx context.Context, who view.Viewer, to string) (*domain.Connection, error) {
	if who.ID == "" {
		return nil, domain.ErrUnauthenticated
	}
	if to == "" || to == who.ID {
		return nil, fmt.Errorf("%w: cannot connect to yourself", domain.ErrValidation)
	}
	target, err := s.store.FindUserByID(ctx, to)
	if err != nil {
		return nil, err
	}
	c := &domain.Connection{From: who.ID, FromName: who.Name, To: to, ToName: target.DisplayName}
	if err := s.store.CreateConnection(ctx, c); err != nil {
		return nil, err
	}
	if s.events != nil {
		s.events.ConnectionRequested(ctx, c)
	}
	return c, nil
}

// Respond accepts or declines a pending request addressed to actor.
func (s *Connections) Respond(ctx context.Context, id, actor, action string) error {
	c, err := s.store.GetConnection(ctx, id)
	if err != nil {
		return err
	}
	status, err := c.Respond(actor, action)
	if err != nil {
		return err
	}
	if err := s.store.SetConnectionStatus(ctx, c, status); err != nil {
		return err
	}
	c.Status = status
	if s.events != nil {
		s.events.ConnectionAnswered(ctx, c)
	}
	return nil
}
