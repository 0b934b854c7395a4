package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"food-order-backend/internal/admin"
	"food-order-backend/internal/auth"
	"food-order-backend/internal/menu"
	"food-order-backend/internal/models"
	"food-order-backend/internal/orders"
	"food-order-backend/internal/resilience"
)

const uniqueViolation = "23505"

var (
	_ orders.Repository = (*DB)(nil)
	_ menu.Repository   = (*DB)(nil)
	_ admin.Repository  = (*DB)(nil)
	_ auth.UserStore    = (*DB)(nil)
)

// DB is the PostgreSQL store behind every repository interface of the service.
type DB struct {
	pool connPool
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// connPool is the part of *pgxpool.Pool the store uses.
type connPool interface {
	querier
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// Connect opens a pool and pings it, retrying while the database comes up.
func Connect(ctx context.Context, url string, maxConns int32) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, errors.Wrap(err, "parse database config")
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 30 * time.Minute

	var pgPool *pgxpool.Pool
	err = resilience.Retry(ctx, "postgres", 5, 2*time.Second, func(ctx context.Context) error {
		p, err := pgxpool.NewWithConfig(ctx, cfg)
		if err != nil {
			return err
		}

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := p.Ping(pingCtx); err != nil {
			p.Close()
			return err
		}

		pgPool = p
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "connect to database")
	}

	return &DB{pool: pgPool}, nil
}

func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

func (db *DB) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(ctx), "commit transaction")
}

// mapError translates driver errors into model errors and attaches op as context.
func mapError(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return errors.WithStack(models.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return errors.Wrap(models.ErrConflict, pgErr.ConstraintName)
	}
	return errors.Wrap(err, op)
}
