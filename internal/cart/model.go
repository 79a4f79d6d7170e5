package cart

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/medicine-cart/medicine_cart/internal/apperr"
)

var (
	// ErrInvalidQuantity is returned for a non-positive quantity.
	ErrInvalidQuantity = apperr.InvalidInput("Quantity must be positive")
	// ErrQuantityTooLarge is returned when merging a line would overflow its quantity.
	ErrQuantityTooLarge = apperr.InvalidInput("Quantity too large")
)

// Item is one cart line.
type Item struct {
	ProductID string `json:"id"`
	Qty       int64  `json:"qty"`
}

// Cart holds the pending items of one identity.
type Cart struct {
	Phone string `json:"phone"`
	Items []Item `json:"items"`
}

// DetailedItem is a cart line joined with its product.
type DetailedItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Image    string `json:"image"`
	Price    int64  `json:"price"`
	Quantity int64  `json:"quantity"`
}

// ProductID accepts a product id sent as a JSON string or number.
type ProductID string

func (p *ProductID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = ProductID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("product_id must be a string or number")
	}
	*p = ProductID(n.String())
	return nil
}
