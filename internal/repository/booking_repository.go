package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/eightball/booking_api/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingRepository struct {
	pool *pgxpool.Pool
}

func NewBookingRepository(pool *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

// Create создаёт бронирование. Принимает Querier, чтобы вставка могла
// выполняться внутри транзакции резервирования.
func (r *BookingRepository) Create(ctx context.Context, q Querier, booking *model.Booking) error {
	meta := booking.Meta
	if meta == nil {
		meta = map[string]string{}
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal booking meta: %w", err)
	}

	query := `
		INSERT INTO bookings (shop_id, location_id, service_id, slot_start_utc, slot_end_utc,
		                      seats, customer_name, phone, email, status, meta)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`

	err = q.QueryRow(
		ctx, query,
		booking.ShopID,
		booking.LocationID,
		booking.ServiceID,
		booking.SlotStartUTC,
		booking.SlotEndUTC,
		booking.Seats,
		booking.CustomerName,
		booking.Phone,
		booking.Email,
		booking.Status,
		metaJSON,
	).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create booking: %w", err)
	}

	return nil
}

// GetByID получает бронирование по ID
func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*model.Booking, error) {
	query := `
		SELECT id, shop_id, location_id, service_id, slot_start_utc, slot_end_utc,
		       seats, customer_name, phone, email, status, meta, created_at, updated_at
		FROM bookings
		WHERE id = $1
	`

	var booking model.Booking
	var metaJSON []byte
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&booking.ID,
		&booking.ShopID,
		&booking.LocationID,
		&booking.ServiceID,
		&booking.SlotStartUTC,
		&booking.SlotEndUTC,
		&booking.Seats,
		&booking.CustomerName,
		&booking.Phone,
		&booking.Email,
		&booking.Status,
		&metaJSON,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get booking by id: %w", err)
	}

	if len(metaJSON) > 0 {
		if err := json.Unmarshal(metaJSON, &booking.Meta); err != nil {
			return nil, fmt.Errorf("unmarshal booking meta: %w", err)
		}
	}

	return &booking, nil
}

// SeatsTakenOverlapping суммирует места подтверждённых бронирований,
// пересекающихся с интервалом [start, end). Интервалы полуоткрытые:
// касание границ пересечением не считается.
func (r *BookingRepository) SeatsTakenOverlapping(ctx context.Context, locationID int64, start, end time.Time) (int, error) {
	query := `
		SELECT COALESCE(SUM(seats), 0)
		FROM bookings
		WHERE location_id = $1
		  AND status = 'confirmed'
		  AND slot_start_utc < $3
		  AND slot_end_utc > $2
	`

	var taken int
	err := r.pool.QueryRow(ctx, query, locationID, start, end).Scan(&taken)
	if err != nil {
		return 0, fmt.Errorf("sum overlapping seats: %w", err)
	}

	return taken, nil
}

// LockOverlappingSeats блокирует (FOR UPDATE) подтверждённые бронирования,
// пересекающиеся с интервалом, и возвращает сумму их мест. Агрегировать
// прямо в запросе нельзя — FOR UPDATE не совместим с агрегатами, поэтому
// строки суммируются здесь.
func (r *BookingRepository) LockOverlappingSeats(ctx context.Context, q Querier, locationID int64, start, end time.Time) (int, error) {
	query := `
		SELECT seats
		FROM bookings
		WHERE location_id = $1
		  AND status = 'confirmed'
		  AND slot_start_utc < $3
		  AND slot_end_utc > $2
		FOR UPDATE
	`

	rows, err := q.Query(ctx, query, locationID, start, end)
	if err != nil {
		return 0, fmt.Errorf("lock overlapping bookings: %w", err)
	}
	defer rows.Close()

	var taken int
	for rows.Next() {
		var seats int
		if err := rows.Scan(&seats); err != nil {
			return 0, fmt.Errorf("scan locked booking: %w", err)
		}
		taken += seats
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterate locked bookings: %w", err)
	}

	return taken, nil
}

// GetByLocationAndRange получает бронирования локации в диапазоне времени
func (r *BookingRepository) GetByLocationAndRange(ctx context.Context, locationID int64, from, to time.Time) ([]*model.Booking, error) {
	query := `
		SELECT id, shop_id, location_id, service_id, slot_start_utc, slot_end_utc,
		       seats, customer_name, phone, email, status, meta, created_at, updated_at
		FROM bookings
		WHERE location_id = $1
		  AND slot_start_utc >= $2
		  AND slot_start_utc < $3
		ORDER BY slot_start_utc
	`

	rows, err := r.pool.Query(ctx, query, locationID, from, to)
	if err != nil {
		return nil, fmt.Errorf("get bookings by range: %w", err)
	}
	defer rows.Close()

	var bookings []*model.Booking
	for rows.Next() {
		var booking model.Booking
		var metaJSON []byte
		err := rows.Scan(
			&booking.ID,
			&booking.ShopID,
			&booking.LocationID,
			&booking.ServiceID,
			&booking.SlotStartUTC,
			&booking.SlotEndUTC,
			&booking.Seats,
			&booking.CustomerName,
			&booking.Phone,
			&booking.Email,
			&booking.Status,
			&metaJSON,
			&booking.CreatedAt,
			&booking.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		if len(metaJSON) > 0 {
			if err := json.Unmarshal(metaJSON, &booking.Meta); err != nil {
				return nil, fmt.Errorf("unmarshal booking meta: %w", err)
			}
		}
		bookings = append(bookings, &booking)
	}

	return bookings, nil
}
