package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/aliskhannn/azan-reminder/internal/domain/entities"
	"github.com/aliskhannn/azan-reminder/internal/infra/postgres"
)

var ErrUserNotFound = errors.New("user not found")

// UserRepository provides access to the registered-user table:
//
//	CREATE TABLE users (
//	    id         BIGINT PRIMARY KEY,
//	    city       TEXT NOT NULL,
//	    country    TEXT NOT NULL,
//	    push_token TEXT,
//	    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
type UserRepository struct {
	db postgres.DBTX
}

// NewUserRepository creates a new UserRepository with the provided database pool.
func NewUserRepository(db postgres.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// Register inserts a new registration or updates an existing one.
// A token may move between devices, so the upsert replaces the stored
// location and token wholesale.
func (r *UserRepository) Register(ctx context.Context, user *entities.RegisteredUser) (bool, error) {
	query := `
		INSERT INTO users (id, city, country, push_token)
		VALUES ($1, $2, $3, NULLIF($4, ''))
		ON CONFLICT (id) DO UPDATE SET
			city = EXCLUDED.city,
			country = EXCLUDED.country,
			push_token = EXCLUDED.push_token
		RETURNING (xmax = 0) AS created
	`

	var created bool
	err := r.db.QueryRow(ctx, query, user.ID, user.City, user.Country, user.PushToken).Scan(&created)
	if err != nil {
		return false, fmt.Errorf("register user: %w", err)
	}

	return created, nil
}

// GetByID retrieves a registration by user ID.
func (r *UserRepository) GetByID(ctx context.Context, userID int64) (*entities.RegisteredUser, error) {
	query := `
		SELECT id, city, country, COALESCE(push_token, '')
		FROM users
		WHERE id = $1
	`

	var user entities.RegisteredUser
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&user.ID,
		&user.City,
		&user.Country,
		&user.PushToken,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &user, nil
}

// ListRegistered returns every stored registration. Rows with an empty
// token or location still come back; the sweep decides what to skip.
func (r *UserRepository) ListRegistered(ctx context.Context) ([]*entities.RegisteredUser, error) {
	query := `
		SELECT id, city, country, COALESCE(push_token, '')
		FROM users
		ORDER BY id
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list registered users: %w", err)
	}
	defer rows.Close()

	var users []*entities.RegisteredUser
	for rows.Next() {
		var u entities.RegisteredUser
		if err := rows.Scan(&u.ID, &u.City, &u.Country, &u.PushToken); err != nil {
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		users = append(users, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user rows: %w", err)
	}

	return users, nil
}

// RemovePushToken clears a user's stored token after the push service
// reports it dead.
func (r *UserRepository) RemovePushToken(ctx context.Context, userID int64) error {
	query := "UPDATE users SET push_token = NULL WHERE id = $1"

	tag, err := r.db.Exec(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("remove push token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}
