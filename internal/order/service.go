package order

import (
	"context"
	"errors"
	"log/slog"
	"math"

	"github.com/google/uuid"

	"github.com/medicine-cart/medicine_cart/internal/cart"
	"github.com/medicine-cart/medicine_cart/internal/catalog"
	"github.com/medicine-cart/medicine_cart/internal/clock"
	"github.com/medicine-cart/medicine_cart/internal/metrics"
	"github.com/medicine-cart/medicine_cart/internal/profile"
)

// CartStore reads and clears carts.
type CartStore interface {
	Get(ctx context.Context, phone string) (cart.Cart, error)
	Clear(ctx context.Context, phone string) error
}

// ProfileReader loads the contact snapshot for an order.
type ProfileReader interface {
	Get(ctx context.Context, phone string) (profile.Profile, error)
}

// ProductReader prices order lines.
type ProductReader interface {
	Get(ctx context.Context, id string) (catalog.Product, error)
}

// Service places and administers orders.
type Service struct {
	repo     Repository
	carts    CartStore
	profiles ProfileReader
	products ProductReader
	clock    clock.Clock
	logger   *slog.Logger
}

// ServiceDeps bundles the collaborators of Service.
type ServiceDeps struct {
	Repo     Repository
	Carts    CartStore
	Profiles ProfileReader
	Products ProductReader
	Clock    clock.Clock
	Logger   *slog.Logger
}

// NewService builds an order service.
func NewService(d ServiceDeps) *Service {
	if d.Clock == nil {
		d.Clock = clock.New()
	}
	return &Service{
		repo:     d.Repo,
		carts:    d.Carts,
		profiles: d.Profiles,
		products: d.Products,
		clock:    d.Clock,
		logger:   d.Logger,
	}
}

// Place turns the cart of phone into an order and clears the cart.
// Lines whose product no longer exists are dropped.
func (s *Service) Place(ctx context.Context, phone string) (Order, error) {
	c, err := s.carts.Get(ctx, phone)
	if err != nil {
		return Order{}, err
	}
	if len(c.Items) == 0 {
		return Order{}, ErrCartEmpty
	}

	p, err := s.profiles.Get(ctx, phone)
	if errors.Is(err, profile.ErrNotFound) {
		return Order{}, ErrProfileMissing
	}
	if err != nil {
		return Order{}, err
	}

	var total int64
	items := make([]Item, 0, len(c.Items))
	for _, line := range c.Items {
		product, err := s.products.Get(ctx, line.ProductID)
		if errors.Is(err, catalog.ErrProductNotFound) {
			continue
		}
		if err != nil {
			return Order{}, err
		}
		lineTotal, err := lineAmount(product.Price, line.Qty)
		if err != nil {
			return Order{}, err
		}
		if total > math.MaxInt64-lineTotal {
			return Order{}, ErrOrderTooLarge
		}
		total += lineTotal
		items = append(items, Item{ProductID: product.ID, Name: product.Name, Qty: line.Qty, Price: product.Price})
	}
	if len(items) == 0 {
		return Order{}, ErrCartEmpty
	}

	o := Order{
		ID:        uuid.NewString(),
		Phone:     phone,
		Customer:  Customer{Phone: phone, Name: p.Name, Email: p.Email, Address: p.Address},
		Items:     items,
		Total:     total,
		Status:    StatusPlaced,
		CreatedAt: s.clock.Now().UTC(),
	}
	if err := s.repo.Create(ctx, o); err != nil {
		return Order{}, err
	}
	metrics.OrderTransitions.WithLabelValues(string(StatusPlaced)).Inc()
	s.logger.Info("order placed", slog.String("order_id", o.ID), slog.String("phone", phone), slog.Int64("total", total))

	if err := s.carts.Clear(ctx, phone); err != nil {
		s.logger.Warn("clear cart after order", slog.String("phone", phone), slog.Any("error", err))
	}
	return o, nil
}

// List returns the orders of phone.
func (s *Service) List(ctx context.Context, phone string) ([]Order, error) {
	return s.repo.ListByOwner(ctx, phone)
}

// AdminList returns a summary of every order.
func (s *Service) AdminList(ctx context.Context) ([]Summary, error) {
	return s.repo.ListAll(ctx)
}

// UpdateStatus applies a manual status change. Delivered and Awaiting
// Delivery OTP are only reached through the delivery OTP workflow. Terminal
// orders cannot change, and an order awaiting its delivery code can only be
// cancelled.
func (s *Service) UpdateStatus(ctx context.Context, id, rawStatus string) (Status, error) {
	status, err := ParseStatus(rawStatus)
	if err != nil {
		return "", err
	}
	switch status {
	case StatusDelivered:
		return "", ErrDeliveredByOTP
	case StatusAwaitingDelivery:
		return "", ErrAwaitingByOTP
	}
	if _, err := parseOrderID(id); err != nil {
		return "", err
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return "", err
	}
	metrics.OrderTransitions.WithLabelValues(string(status)).Inc()
	s.logger.Info("order status updated", slog.String("order_id", id), slog.String("status", string(status)))
	return status, nil
}

func lineAmount(price, qty int64) (int64, error) {
	if qty <= 0 {
		return 0, cart.ErrInvalidQuantity
	}
	if price < 0 {
		return 0, ErrOrderTooLarge
	}
	if price > 0 && qty > math.MaxInt64/price {
		return 0, ErrOrderTooLarge
	}
	return price * qty, nil
}

func parseOrderID(raw string) (string, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", ErrInvalidOrderID
	}
	return id.String(), nil
}
