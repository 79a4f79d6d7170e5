package cart

import (
	"context"
	"errors"
	"log/slog"
	"math"

	"github.com/medicine-cart/medicine_cart/internal/catalog"
)

// ProductReader looks up catalog products.
type ProductReader interface {
	Get(ctx context.Context, id string) (catalog.Product, error)
}

// Service manages per-identity carts.
type Service struct {
	repo     Repository
	products ProductReader
	logger   *slog.Logger
}

// NewService builds a cart service.
func NewService(repo Repository, products ProductReader, logger *slog.Logger) *Service {
	return &Service{repo: repo, products: products, logger: logger}
}

// Add puts qty units of productID in the cart of phone, merging with an
// existing line for the same product.
func (s *Service) Add(ctx context.Context, phone, productID string, qty int64) (Cart, error) {
	if _, err := s.products.Get(ctx, productID); err != nil {
		return Cart{}, err
	}
	if qty <= 0 {
		return Cart{}, ErrInvalidQuantity
	}

	c, err := s.repo.Update(ctx, phone, func(c *Cart) error {
		return mergeLine(c, productID, qty)
	})
	if err != nil {
		return Cart{}, err
	}
	s.logger.Info("cart updated", slog.String("phone", phone), slog.String("product_id", productID), slog.Int64("qty", qty))
	return c, nil
}

func mergeLine(c *Cart, productID string, qty int64) error {
	for i := range c.Items {
		if c.Items[i].ProductID != productID {
			continue
		}
		if c.Items[i].Qty > math.MaxInt64-qty {
			return ErrQuantityTooLarge
		}
		c.Items[i].Qty += qty
		return nil
	}
	c.Items = append(c.Items, Item{ProductID: productID, Qty: qty})
	return nil
}

// Get returns the raw cart of phone.
func (s *Service) Get(ctx context.Context, phone string) (Cart, error) {
	return s.repo.Get(ctx, phone)
}

// Detailed returns the cart lines joined with product data. Lines whose
// product has disappeared are omitted.
func (s *Service) Detailed(ctx context.Context, phone string) ([]DetailedItem, error) {
	c, err := s.repo.Get(ctx, phone)
	if err != nil {
		return nil, err
	}
	items := make([]DetailedItem, 0, len(c.Items))
	for _, line := range c.Items {
		p, err := s.products.Get(ctx, line.ProductID)
		if errors.Is(err, catalog.ErrProductNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		items = append(items, DetailedItem{ID: p.ID, Name: p.Name, Image: p.Image, Price: p.Price, Quantity: line.Qty})
	}
	return items, nil
}

// Clear removes the cart of phone.
func (s *Service) Clear(ctx context.Context, phone string) error {
	return s.repo.Delete(ctx, phone)
}
