package catalog

import "github.com/medicine-cart/medicine_cart/internal/apperr"

var (
	// ErrProductNotFound is returned when a product id is unknown.
	ErrProductNotFound = apperr.NotFound("Product not found")
	// ErrInvalidDecrement is returned for a non-positive stock decrement.
	ErrInvalidDecrement = apperr.InvalidInput("Stock decrement must be positive")
)

// Product is a sellable item. Price is in minor currency units and Quantity
// is the on-hand stock.
type Product struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int64  `json:"quantity"`
	Image    string `json:"image"`
}

// StockChange lowers the stock of one product.
type StockChange struct {
	ProductID string
	Qty       int64
}
