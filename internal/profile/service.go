package profile

import (
	"context"
	"log/slog"
	"strings"

	"github.com/medicine-cart/medicine_cart/internal/clock"
)

// Service manages user contact details.
type Service struct {
	repo   Repository
	clock  clock.Clock
	logger *slog.Logger
}

// NewService builds a profile service.
func NewService(repo Repository, clk clock.Clock, logger *slog.Logger) *Service {
	return &Service{repo: repo, clock: clk, logger: logger}
}

// Details captures the editable profile fields.
type Details struct {
	Name    string
	Email   string
	Address string
}

// Save upserts the profile for phone.
func (s *Service) Save(ctx context.Context, phone string, d Details) (Profile, error) {
	p := Profile{
		Phone:     phone,
		Name:      strings.TrimSpace(d.Name),
		Email:     strings.TrimSpace(d.Email),
		Address:   strings.TrimSpace(d.Address),
		UpdatedAt: s.clock.Now().UTC(),
	}
	if err := s.repo.Save(ctx, p); err != nil {
		return Profile{}, err
	}
	s.logger.Info("user details saved", slog.String("phone", phone))
	return p, nil
}

// Get returns the profile for phone or ErrNotFound.
func (s *Service) Get(ctx context.Context, phone string) (Profile, error) {
	return s.repo.Get(ctx, phone)
}
