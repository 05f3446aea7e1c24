package account

import (
	"context"
	"errors"
	"time"

	"rocketcoins/internal/domain"
)

// UserCreated is published after a user row is committed.
type UserCreated struct {
	UserID uint
	Email  string
	Role   domain.Role
	At     time.Time
}

// Handler reacts to a UserCreated event. Returned errors reach the caller of
// Register.
type Handler func(ctx context.Context, ev UserCreated) error

// Subscribe adds h to the handlers run on every UserCreated.
func (s *Service) Subscribe(h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, h)
}

// publish runs every handler in subscription order and joins their errors.
func (s *Service) publish(ctx context.Context, ev UserCreated) error {
	s.mu.RLock()
	handlers := append([]Handler(nil), s.handlers...)
	s.mu.RUnlock()
	var errs []error
	for _, h := range handlers {
		if err := h(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// provisionOnCreate opens the wallet of every new user.
func (s *Service) provisionOnCreate(ctx context.Context, ev UserCreated) error {
	_, err := s.ProvisionWallet(ctx, ev.UserID)
	return err
}
