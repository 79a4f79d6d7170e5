package catalog

import "context"

// Service exposes read access to the product catalog.
type Service struct {
	repo Repository
}

// NewService builds a catalog service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns all products.
func (s *Service) List(ctx context.Context) ([]Product, error) {
	return s.repo.List(ctx)
}

// Get returns one product or ErrProductNotFound.
func (s *Service) Get(ctx context.Context, id string) (Product, error) {
	return s.repo.Get(ctx, id)
}

// DevProducts is the starter catalog used when running without PostgreSQL.
func DevProducts() []Product {
	return []Product{
		{ID: "1", Name: "Paracetamol 500mg", Price: 4500, Quantity: 100, Image: "/static/paracetamol.png"},
		{ID: "2", Name: "Ibuprofen 200mg", Price: 6000, Quantity: 80, Image: "/static/ibuprofen.png"},
		{ID: "3", Name: "Cetirizine 10mg", Price: 3500, Quantity: 60, Image: "/static/cetirizine.png"},
		{ID: "4", Name: "Vitamin C 1000mg", Price: 9900, Quantity: 40, Image: "/static/vitamin-c.png"},
	}
}
