package service

import (
	"context"

	"github.com/eightball/booking_api/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Tx транзакция БД: запросы плюс Commit/Rollback.
// pgx.Tx удовлетворяет этому интерфейсу.
type Tx interface {
	repository.Querier
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// DB умеет открывать транзакции. Узкий интерфейс вместо *pgxpool.Pool,
// чтобы сервисы можно было тестировать без базы.
type DB interface {
	Begin(ctx context.Context) (Tx, error)
}

type pgxDB struct {
	pool *pgxpool.Pool
}

// NewPgxDB оборачивает пул соединений в интерфейс DB
func NewPgxDB(pool *pgxpool.Pool) DB {
	return &pgxDB{pool: pool}
}

func (d *pgxDB) Begin(ctx context.Context) (Tx, error) {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return tx, nil
}
