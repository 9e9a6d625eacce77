package service

import (
	"context"
	"time"

	"github.com/eightball/booking_api/internal/model"
	"github.com/eightball/booking_api/internal/repository"
)

// Интерфейсы хранилищ объявлены на стороне потребителя,
// реализуются репозиториями из internal/repository.

type LocationStore interface {
	GetByID(ctx context.Context, id int64) (*model.Location, error)
	GetActive(ctx context.Context) ([]*model.Location, error)
	GetSettings(ctx context.Context, locationID int64) (*model.LocationSettings, error)
	SumResourceSeats(ctx context.Context, locationID int64) (int, error)
	IsBlackedOut(ctx context.Context, locationID int64, date time.Time) (bool, error)
}

type ServiceStore interface {
	GetByID(ctx context.Context, id int64) (*model.Service, error)
	GetActiveByShopID(ctx context.Context, shopID int64) ([]*model.Service, error)
	GetParts(ctx context.Context, serviceID int64) ([]*model.ServicePart, error)
	GetPartByVariantGID(ctx context.Context, variantGID string) (*model.ServicePart, error)
}

type BookingStore interface {
	Create(ctx context.Context, q repository.Querier, booking *model.Booking) error
	GetByID(ctx context.Context, id int64) (*model.Booking, error)
	SeatsTakenOverlapping(ctx context.Context, locationID int64, start, end time.Time) (int, error)
	LockOverlappingSeats(ctx context.Context, q repository.Querier, locationID int64, start, end time.Time) (int, error)
	GetByLocationAndRange(ctx context.Context, locationID int64, from, to time.Time) ([]*model.Booking, error)
}

// InventoryChecker проверка инвентаря для услуги на локации.
// Ошибок не возвращает: любая неопределённость трактуется как "нет".
type InventoryChecker interface {
	CheckInventory(ctx context.Context, serviceID, locationID int64, seatsRequested int) bool
}

// InventoryProvider внешний источник остатков (Shopify)
type InventoryProvider interface {
	GetInventoryForVariantAtLocation(ctx context.Context, variantGID, locationGID string) (*int, error)
}

// totalCapacity вместимость локации: capacity_per_slot из настроек,
// если задана, иначе сумма мест по ресурсам
func totalCapacity(ctx context.Context, locations LocationStore, locationID int64, settings *model.LocationSettings) (int, error) {
	if settings.CapacityPerSlot > 0 {
		return settings.CapacityPerSlot, nil
	}
	return locations.SumResourceSeats(ctx, locationID)
}
