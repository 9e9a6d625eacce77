package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/eightball/booking_api/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type LocationRepository struct {
	pool *pgxpool.Pool
}

func NewLocationRepository(pool *pgxpool.Pool) *LocationRepository {
	return &LocationRepository{pool: pool}
}

// GetByID получает локацию по ID
func (r *LocationRepository) GetByID(ctx context.Context, id int64) (*model.Location, error) {
	query := `
		SELECT id, shop_id, shopify_location_gid, name, timezone, is_active, created_at
		FROM locations
		WHERE id = $1
	`

	var loc model.Location
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&loc.ID,
		&loc.ShopID,
		&loc.ShopifyLocationGID,
		&loc.Name,
		&loc.Timezone,
		&loc.IsActive,
		&loc.CreatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get location by id: %w", err)
	}

	return &loc, nil
}

// GetActive получает все активные локации
func (r *LocationRepository) GetActive(ctx context.Context) ([]*model.Location, error) {
	query := `
		SELECT id, shop_id, shopify_location_gid, name, timezone, is_active, created_at
		FROM locations
		WHERE is_active = TRUE
		ORDER BY name
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get active locations: %w", err)
	}
	defer rows.Close()

	var locations []*model.Location
	for rows.Next() {
		var loc model.Location
		err := rows.Scan(
			&loc.ID,
			&loc.ShopID,
			&loc.ShopifyLocationGID,
			&loc.Name,
			&loc.Timezone,
			&loc.IsActive,
			&loc.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		locations = append(locations, &loc)
	}

	return locations, nil
}

// GetSettings получает настройки рабочего дня локации.
// Время открытия/закрытия отдаём строками "HH:MM".
func (r *LocationRepository) GetSettings(ctx context.Context, locationID int64) (*model.LocationSettings, error) {
	query := `
		SELECT id, location_id,
		       to_char(open_time, 'HH24:MI'),
		       to_char(close_time, 'HH24:MI'),
		       is_weekend_open,
		       COALESCE(to_char(weekend_open_time, 'HH24:MI'), ''),
		       COALESCE(to_char(weekend_close_time, 'HH24:MI'), ''),
		       capacity_per_slot, slot_duration_minutes
		FROM location_settings
		WHERE location_id = $1
	`

	var settings model.LocationSettings
	err := r.pool.QueryRow(ctx, query, locationID).Scan(
		&settings.ID,
		&settings.LocationID,
		&settings.OpenTime,
		&settings.CloseTime,
		&settings.IsWeekendOpen,
		&settings.WeekendOpenTime,
		&settings.WeekendCloseTime,
		&settings.CapacityPerSlot,
		&settings.SlotDurationMinutes,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get location settings: %w", err)
	}

	return &settings, nil
}

// SumResourceSeats суммирует места по ресурсам локации
func (r *LocationRepository) SumResourceSeats(ctx context.Context, locationID int64) (int, error) {
	query := `
		SELECT COALESCE(SUM(seats), 0)
		FROM resources
		WHERE location_id = $1
	`

	var total int
	err := r.pool.QueryRow(ctx, query, locationID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum resource seats: %w", err)
	}

	return total, nil
}

// IsBlackedOut проверяет закрыта ли дата для бронирования
func (r *LocationRepository) IsBlackedOut(ctx context.Context, locationID int64, date time.Time) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM blackouts
			WHERE location_id = $1 AND date = $2::date
		)
	`

	var exists bool
	err := r.pool.QueryRow(ctx, query, locationID, date.Format("2006-01-02")).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check blackout: %w", err)
	}

	return exists, nil
}
