package chat

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/tazhibayda/townboat/internal/domain"
)

type MessageStore interface {
	AddMessage(ctx context.Context, m *domain.ChatMessage) error
	ListMessages(ctx context.Context, chatID string, limit int64) ([]domain.ChatMessage, error)
	GetRecord(ctx context.Context, collection, id string) (*domain.Record, error)
}

// Service sends and lists messages of direct threads and club chats.
type Service struct {
	store    MessageStore
	expirer  *Expirer
	validate *validator.Validate
	onSent   func(context.Context, *domain.ChatMessage)
}

func NewService(store MessageStore, expirer *Expirer, onSent func(context.Context, *domain.ChatMessage)) *Service {
	return &Service{store: store, expirer: expirer, validate: validator.New(), onSent: onSent}
}

// ClubChatID is the thread id of a club's group chat.
func ClubChatID(clubID string) string { return "club_" + clubID }

// SendDirect writes a message from one user to another.
func (s *Service) SendDirect(ctx context.Context, from, to, text string) (*domain.ChatMessage, error) {
	if from == "" {
		return nil, domain.ErrUnauthenticated
	}
	if to == "" || to == from {
		return nil, fmt.Errorf("%w: recipient", domain.ErrValidation)
	}
	return s.send(ctx, &domain.ChatMessage{ChatID: domain.ChatID(from, to), From: from, To: to, Text: text})
}

// SendClub writes to a club chat; only members may post.
func (s *Service) SendClub(ctx context.Context, from, clubID, text string) (*domain.ChatMessage, error) {
	if from == "" {
		return nil, domain.ErrUnauthenticated
	}
	if err := s.member(ctx, clubID, from); err != nil {
		return nil, err
	}
	return s.send(ctx, &domain.ChatMessage{ChatID: ClubChatID(clubID), ClubID: clubID, From: from, Text: text})
}

func (s *Service) send(ctx context.Context, m *domain.ChatMessage) (*domain.ChatMessage, error) {
	m.Text = strings.TrimSpace(m.Text)
	if err := s.validate.Struct(m); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if err := s.store.AddMessage(ctx, m); err != nil {
		return nil, fmt.Errorf("add message: %w", err)
	}
	if s.onSent != nil {
		s.onSent(ctx, m)
	}
	return m, nil
}

func (s *Service) member(ctx context.Context, clubID, user string) error {
	club, err := s.store.GetRecord(ctx, domain.ColClubs, clubID)
	if err != nil {
		return err
	}
	if !slices.Contains(club.Strings("members"), user) {
		return fmt.Errorf("%w: not a member of the club", domain.ErrForbidden)
	}
	return nil
}

// Thread lists a chat for viewer and starts expiry of what they are shown.
// A direct thread must include viewer; a club chat requires membership.
func (s *Service) Thread(ctx context.Context, viewer, chatID string, limit int64) ([]domain.ChatMessage, error) {
	if viewer == "" {
		return nil, domain.ErrUnauthenticated
	}
	if club, ok := strings.CutPrefix(chatID, "club_"); ok {
		if err := s.member(ctx, club, viewer); err != nil {
			return nil, err
		}
	} else if !slices.Contains(strings.Split(chatID, "_"), viewer) {
		return nil, domain.ErrForbidden
	}

	msgs, err := s.store.ListMessages(ctx, chatID, limit)
	if err != nil {
		return nil, err
	}
	if s.expirer != nil {
		for i := range msgs {
			if _, err := s.expirer.Display(ctx, &msgs[i], viewer); err != nil {
				return nil, err
			}
		}
	}
	return msgs, nil
}
