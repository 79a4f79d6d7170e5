package profile

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists profiles keyed by phone.
type Repository interface {
	Save(ctx context.Context, profile Profile) error
	Get(ctx context.Context, phone string) (Profile, error)
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed profile repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Save inserts or replaces the profile for its phone.
func (r *PostgresRepository) Save(ctx context.Context, p Profile) error {
	_, err := r.db.Exec(ctx, `INSERT INTO profiles (phone, name, email, address, updated_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (phone) DO UPDATE SET name = EXCLUDED.name, email = EXCLUDED.email,
            address = EXCLUDED.address, updated_at = EXCLUDED.updated_at`,
		p.Phone, p.Name, p.Email, p.Address, p.UpdatedAt.UTC())
	return err
}

// Get fetches a profile by phone.
func (r *PostgresRepository) Get(ctx context.Context, phone string) (Profile, error) {
	var (
		p         Profile
		updatedAt time.Time
	)
	err := r.db.QueryRow(ctx, `SELECT phone, name, email, address, updated_at FROM profiles WHERE phone = $1`, phone).
		Scan(&p.Phone, &p.Name, &p.Email, &p.Address, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, err
	}
	p.UpdatedAt = updatedAt.UTC()
	return p, nil
}
