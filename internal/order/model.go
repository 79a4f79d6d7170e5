package order

import (
	"time"

	"github.com/medicine-cart/medicine_cart/internal/catalog"
)

// Status is the lifecycle state of an order. The values are the wire strings.
type Status string

const (
	StatusPlaced           Status = "Order Placed"
	StatusDispatched       Status = "Dispatched"
	StatusAwaitingDelivery Status = "Awaiting Delivery OTP"
	StatusDelivered        Status = "Delivered"
	StatusCancelled        Status = "Cancelled"
)

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanMoveTo reports whether a status update from s to next is allowed. An
// order awaiting its delivery code can only be cancelled.
func (s Status) CanMoveTo(next Status) bool {
	if s.Terminal() {
		return false
	}
	if s == StatusAwaitingDelivery {
		return next == StatusCancelled
	}
	return true
}

// ParseStatus validates a wire status string.
func ParseStatus(raw string) (Status, error) {
	switch s := Status(raw); s {
	case StatusPlaced, StatusDispatched, StatusAwaitingDelivery, StatusDelivered, StatusCancelled:
		return s, nil
	default:
		return "", ErrInvalidStatus
	}
}

// Customer is the contact snapshot taken when the order is placed.
type Customer struct {
	Phone   string `json:"phone"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

// Item is an order line priced at placement time.
type Item struct {
	ProductID string `json:"id"`
	Name      string `json:"name"`
	Qty       int64  `json:"qty"`
	Price     int64  `json:"price"`
}

// stockChanges converts order lines into stock decrements. It fails before
// anything is applied when a line has a non-positive quantity.
func stockChanges(items []Item) ([]catalog.StockChange, error) {
	changes := make([]catalog.StockChange, 0, len(items))
	for _, item := range items {
		if item.Qty <= 0 {
			return nil, ErrInvalidItems
		}
		changes = append(changes, catalog.StockChange{ProductID: item.ProductID, Qty: item.Qty})
	}
	return changes, nil
}

// Order is a placed order.
type Order struct {
	ID          string     `json:"order_id"`
	Phone       string     `json:"phone"`
	Customer    Customer   `json:"user"`
	Items       []Item     `json:"items"`
	Total       int64      `json:"total"`
	Status      Status     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
}

// Summary is the admin list projection of an order.
type Summary struct {
	ID        string    `json:"order_id"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	Phone     string    `json:"phone"`
}
