package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medicine-cart/medicine_cart/internal/catalog"
)

// Repository persists orders.
type Repository interface {
	Create(ctx context.Context, order Order) error
	Get(ctx context.Context, id string) (Order, error)
	ListByOwner(ctx context.Context, phone string) ([]Order, error)
	ListAll(ctx context.Context) ([]Summary, error)
	// UpdateStatus changes the status when Status.CanMoveTo allows it and
	// fails with ErrInvalidTransition otherwise.
	UpdateStatus(ctx context.Context, id string, status Status) error
	// CompleteDelivery marks the order Delivered and decrements stock for
	// items in one atomic step. It fails with ErrInvalidTransition, leaving
	// stock untouched, when the order is already terminal.
	CompleteDelivery(ctx context.Context, id string, items []Item, at time.Time) error
}

const orderColumns = `id, phone, customer, items, total, status, created_at, delivered_at`

// PostgresRepository stores orders in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts an order.
func (r *PostgresRepository) Create(ctx context.Context, o Order) error {
	orderID, err := uuid.Parse(o.ID)
	if err != nil {
		return ErrInvalidOrderID
	}
	customer, err := json.Marshal(o.Customer)
	if err != nil {
		return err
	}
	items, err := json.Marshal(o.Items)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO orders (id, phone, customer, items, total, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		orderID, o.Phone, customer, items, o.Total, string(o.Status), o.CreatedAt.UTC())
	return err
}

// Get fetches an order by id.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Order, error) {
	orderID, err := uuid.Parse(id)
	if err != nil {
		return Order{}, ErrInvalidOrderID
	}
	o, err := scanOrder(r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrOrderNotFound
		}
		return Order{}, err
	}
	return o, nil
}

// ListByOwner returns the orders placed by phone, newest first.
func (r *PostgresRepository) ListByOwner(ctx context.Context, phone string) ([]Order, error) {
	rows, err := r.db.Query(ctx, `SELECT `+orderColumns+` FROM orders WHERE phone = $1 ORDER BY created_at DESC`, phone)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// ListAll returns a summary of every order, newest first.
func (r *PostgresRepository) ListAll(ctx context.Context) ([]Summary, error) {
	rows, err := r.db.Query(ctx, `SELECT id, status, created_at, phone FROM orders ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]Summary, 0)
	for rows.Next() {
		var (
			s      Summary
			id     uuid.UUID
			status string
		)
		if err := rows.Scan(&id, &status, &s.CreatedAt, &s.Phone); err != nil {
			return nil, err
		}
		s.ID = id.String()
		s.Status = Status(status)
		s.CreatedAt = s.CreatedAt.UTC()
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// UpdateStatus changes the status of an order when Status.CanMoveTo allows it.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status Status) error {
	orderID, err := uuid.Parse(id)
	if err != nil {
		return ErrInvalidOrderID
	}
	cmd, err := r.db.Exec(ctx, `UPDATE orders SET status = $2
        WHERE id = $1 AND status NOT IN ($3, $4) AND (status <> $5 OR $2 = $4)`,
		orderID, string(status), string(StatusDelivered), string(StatusCancelled), string(StatusAwaitingDelivery))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return r.missingOrTerminal(ctx, r.db, orderID)
	}
	return nil
}

// CompleteDelivery gates the stock decrement on the status transition
// inside a single transaction.
func (r *PostgresRepository) CompleteDelivery(ctx context.Context, id string, items []Item, at time.Time) error {
	orderID, err := uuid.Parse(id)
	if err != nil {
		return ErrInvalidOrderID
	}
	changes, err := stockChanges(items)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	cmd, err := tx.Exec(ctx, `UPDATE orders SET status = $2, delivered_at = $3
        WHERE id = $1 AND status NOT IN ($2, $4)`,
		orderID, string(StatusDelivered), at.UTC(), string(StatusCancelled))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return r.missingOrTerminal(ctx, tx, orderID)
	}

	for _, ch := range changes {
		if err := catalog.DecrementStockTx(ctx, tx, ch.ProductID, ch.Qty); err != nil {
			return fmt.Errorf("decrement stock for %s: %w", ch.ProductID, err)
		}
	}

	return tx.Commit(ctx)
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *PostgresRepository) missingOrTerminal(ctx context.Context, q querier, orderID uuid.UUID) error {
	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, orderID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrOrderNotFound
	}
	return ErrInvalidTransition
}

func scanOrder(row pgx.Row) (Order, error) {
	var (
		o           Order
		id          uuid.UUID
		customer    []byte
		items       []byte
		status      string
		deliveredAt *time.Time
	)
	if err := row.Scan(&id, &o.Phone, &customer, &items, &o.Total, &status, &o.CreatedAt, &deliveredAt); err != nil {
		return Order{}, err
	}
	if err := json.Unmarshal(customer, &o.Customer); err != nil {
		return Order{}, fmt.Errorf("decode customer: %w", err)
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return Order{}, fmt.Errorf("decode items: %w", err)
	}
	o.ID = id.String()
	o.Status = Status(status)
	o.CreatedAt = o.CreatedAt.UTC()
	if deliveredAt != nil {
		t := deliveredAt.UTC()
		o.DeliveredAt = &t
	}
	return o, nil
}
