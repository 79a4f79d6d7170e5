package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists products.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id string) (Product, error)
	Upsert(ctx context.Context, product Product) error
}

// PostgresRepository stores products in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// List returns every product ordered by id.
func (r *PostgresRepository) List(ctx context.Context) ([]Product, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, price, quantity, image FROM products ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]Product, 0)
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Quantity, &p.Image); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// Get fetches a product by id.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Product, error) {
	var p Product
	err := r.db.QueryRow(ctx, `SELECT id, name, price, quantity, image FROM products WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Price, &p.Quantity, &p.Image)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrProductNotFound
		}
		return Product{}, err
	}
	return p, nil
}

// Upsert inserts or replaces a product.
func (r *PostgresRepository) Upsert(ctx context.Context, p Product) error {
	_, err := r.db.Exec(ctx, `INSERT INTO products (id, name, price, quantity, image)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, price = EXCLUDED.price,
            quantity = EXCLUDED.quantity, image = EXCLUDED.image`,
		p.ID, p.Name, p.Price, p.Quantity, p.Image)
	return err
}

// DecrementStockTx lowers the stock of product id by qty inside tx.
// A product that no longer exists is skipped.
func DecrementStockTx(ctx context.Context, tx pgx.Tx, id string, qty int64) error {
	if qty <= 0 {
		return ErrInvalidDecrement
	}
	_, err := tx.Exec(ctx, `UPDATE products SET quantity = quantity - $2 WHERE id = $1`, id, qty)
	return err
}
