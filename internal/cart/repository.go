package cart

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists one cart per phone.
type Repository interface {
	// Get returns the cart for phone, empty when none is stored.
	Get(ctx context.Context, phone string) (Cart, error)
	Save(ctx context.Context, cart Cart) error
	// Update applies fn to the stored cart of phone and saves the result.
	// Concurrent updates for the same phone are serialized. Nothing is saved
	// when fn fails.
	Update(ctx context.Context, phone string, fn func(*Cart) error) (Cart, error)
	Delete(ctx context.Context, phone string) error
}

// PostgresRepository stores carts as jsonb rows.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed cart repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(ctx context.Context, phone string) (Cart, error) {
	var raw []byte
	err := r.db.QueryRow(ctx, `SELECT items FROM carts WHERE phone = $1`, phone).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Cart{Phone: phone, Items: []Item{}}, nil
		}
		return Cart{}, err
	}
	c := Cart{Phone: phone}
	if err := json.Unmarshal(raw, &c.Items); err != nil {
		return Cart{}, err
	}
	return c, nil
}

func (r *PostgresRepository) Save(ctx context.Context, c Cart) error {
	return saveCart(ctx, r.db, c)
}

// Update locks the cart row with SELECT ... FOR UPDATE for the duration of fn.
func (r *PostgresRepository) Update(ctx context.Context, phone string, fn func(*Cart) error) (Cart, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Cart{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if _, err := tx.Exec(ctx, `INSERT INTO carts (phone, items, updated_at) VALUES ($1, '[]'::jsonb, $2)
        ON CONFLICT (phone) DO NOTHING`, phone, time.Now().UTC()); err != nil {
		return Cart{}, err
	}

	var raw []byte
	if err := tx.QueryRow(ctx, `SELECT items FROM carts WHERE phone = $1 FOR UPDATE`, phone).Scan(&raw); err != nil {
		return Cart{}, err
	}
	c := Cart{Phone: phone}
	if err := json.Unmarshal(raw, &c.Items); err != nil {
		return Cart{}, err
	}

	if err := fn(&c); err != nil {
		return Cart{}, err
	}
	if err := saveCart(ctx, tx, c); err != nil {
		return Cart{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Cart{}, err
	}
	return c, nil
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func saveCart(ctx context.Context, db execer, c Cart) error {
	raw, err := json.Marshal(c.Items)
	if err != nil {
		return err
	}
	_, err = db.Exec(ctx, `INSERT INTO carts (phone, items, updated_at) VALUES ($1, $2, $3)
        ON CONFLICT (phone) DO UPDATE SET items = EXCLUDED.items, updated_at = EXCLUDED.updated_at`,
		c.Phone, raw, time.Now().UTC())
	return err
}

func (r *PostgresRepository) Delete(ctx context.Context, phone string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM carts WHERE phone = $1`, phone)
	return err
}
