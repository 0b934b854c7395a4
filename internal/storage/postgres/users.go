package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"food-order-backend/internal/models"
)

const userColumns = `id, username, first_name, last_name, email, password_hash, is_staff, is_superuser, is_active, created_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash,
		&u.IsStaff, &u.IsSuperuser, &u.IsActive, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (db *DB) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	u, err := scanUser(db.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
	if err != nil {
		return nil, mapError(err, "load user")
	}
	return u, nil
}

func (db *DB) UserByID(ctx context.Context, id int64) (*models.User, error) {
	u, err := scanUser(db.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, mapError(err, "load user")
	}
	return u, nil
}

func (db *DB) CreateUser(ctx context.Context, u *models.User) error {
	err := db.pool.QueryRow(ctx, `
		INSERT INTO users (username, first_name, last_name, email, password_hash, is_staff, is_superuser, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`,
		u.Username, u.FirstName, u.LastName, u.Email, u.PasswordHash, u.IsStaff, u.IsSuperuser, u.IsActive,
	).Scan(&u.ID, &u.CreatedAt)
	return mapError(err, "insert user")
}
