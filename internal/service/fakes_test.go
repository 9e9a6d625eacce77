package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/eightball/booking_api/internal/model"
	"github.com/eightball/booking_api/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Фейковые хранилища для тестов сервисного слоя. Данные задаются
// прямо в полях, без базы.

type fakeLocationStore struct {
	locations     map[int64]*model.Location
	settings      map[int64]*model.LocationSettings
	resourceSeats map[int64]int
	blackouts     map[string]bool // "locationID:YYYY-MM-DD"
	err           error
}

func newFakeLocationStore() *fakeLocationStore {
	return &fakeLocationStore{
		locations:     make(map[int64]*model.Location),
		settings:      make(map[int64]*model.LocationSettings),
		resourceSeats: make(map[int64]int),
		blackouts:     make(map[string]bool),
	}
}

func (f *fakeLocationStore) GetByID(ctx context.Context, id int64) (*model.Location, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.locations[id], nil
}

func (f *fakeLocationStore) GetActive(ctx context.Context) ([]*model.Location, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*model.Location
	for _, loc := range f.locations {
		if loc.IsActive {
			out = append(out, loc)
		}
	}
	return out, nil
}

func (f *fakeLocationStore) GetSettings(ctx context.Context, locationID int64) (*model.LocationSettings, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.settings[locationID], nil
}

func (f *fakeLocationStore) SumResourceSeats(ctx context.Context, locationID int64) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.resourceSeats[locationID], nil
}

func (f *fakeLocationStore) IsBlackedOut(ctx context.Context, locationID int64, date time.Time) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.blackouts[fmt.Sprintf("%d:%s", locationID, date.Format("2006-01-02"))], nil
}

type fakeServiceStore struct {
	services map[int64]*model.Service
	parts    map[int64][]*model.ServicePart
	partsErr error
}

func newFakeServiceStore() *fakeServiceStore {
	return &fakeServiceStore{
		services: make(map[int64]*model.Service),
		parts:    make(map[int64][]*model.ServicePart),
	}
}

func (f *fakeServiceStore) GetByID(ctx context.Context, id int64) (*model.Service, error) {
	return f.services[id], nil
}

func (f *fakeServiceStore) GetActiveByShopID(ctx context.Context, shopID int64) ([]*model.Service, error) {
	var out []*model.Service
	for _, svc := range f.services {
		if svc.ShopID == shopID && svc.Active {
			out = append(out, svc)
		}
	}
	return out, nil
}

func (f *fakeServiceStore) GetParts(ctx context.Context, serviceID int64) ([]*model.ServicePart, error) {
	if f.partsErr != nil {
		return nil, f.partsErr
	}
	return f.parts[serviceID], nil
}

func (f *fakeServiceStore) GetPartByVariantGID(ctx context.Context, variantGID string) (*model.ServicePart, error) {
	if f.partsErr != nil {
		return nil, f.partsErr
	}
	for _, parts := range f.parts {
		for _, part := range parts {
			if part.ShopifyVariantGID == variantGID {
				return part, nil
			}
		}
	}
	return nil, nil
}

// fakeBookingStore хранит брони в памяти и считает пересечения так же,
// как SQL в настоящем репозитории: полуоткрытые интервалы, только
// подтверждённые брони
type fakeBookingStore struct {
	mu        sync.Mutex
	bookings  []*model.Booking
	nextID    int64
	createErr error
	lockErr   error
}

func newFakeBookingStore() *fakeBookingStore {
	return &fakeBookingStore{nextID: 1}
}

func (f *fakeBookingStore) Create(ctx context.Context, q repository.Querier, booking *model.Booking) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	booking.ID = f.nextID
	f.nextID++
	booking.CreatedAt = time.Now()
	booking.UpdatedAt = booking.CreatedAt
	stored := *booking
	f.bookings = append(f.bookings, &stored)
	return nil
}

func (f *fakeBookingStore) GetByID(ctx context.Context, id int64) (*model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.bookings {
		if b.ID == id {
			copied := *b
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeBookingStore) overlappingSeats(locationID int64, start, end time.Time) int {
	taken := 0
	for _, b := range f.bookings {
		if b.LocationID != locationID || b.Status != model.BookingStatusConfirmed {
			continue
		}
		if b.SlotStartUTC.Before(end) && b.SlotEndUTC.After(start) {
			taken += b.Seats
		}
	}
	return taken
}

func (f *fakeBookingStore) SeatsTakenOverlapping(ctx context.Context, locationID int64, start, end time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.overlappingSeats(locationID, start, end), nil
}

func (f *fakeBookingStore) LockOverlappingSeats(ctx context.Context, q repository.Querier, locationID int64, start, end time.Time) (int, error) {
	if f.lockErr != nil {
		return 0, f.lockErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.overlappingSeats(locationID, start, end), nil
}

func (f *fakeBookingStore) GetByLocationAndRange(ctx context.Context, locationID int64, from, to time.Time) ([]*model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Booking
	for _, b := range f.bookings {
		if b.LocationID == locationID && !b.SlotStartUTC.Before(from) && b.SlotStartUTC.Before(to) {
			copied := *b
			out = append(out, &copied)
		}
	}
	return out, nil
}

// fakeInventory отвечает заранее заданным вердиктом и записывает,
// с какими аргументами его спрашивали
type fakeInventory struct {
	ok    bool
	calls []inventoryCall
}

type inventoryCall struct {
	serviceID  int64
	locationID int64
	seats      int
}

func (f *fakeInventory) CheckInventory(ctx context.Context, serviceID, locationID int64, seatsRequested int) bool {
	f.calls = append(f.calls, inventoryCall{serviceID: serviceID, locationID: locationID, seats: seatsRequested})
	return f.ok
}

type fakeInvalidator struct {
	busted []string
}

func (f *fakeInvalidator) BustSlotCache(ctx context.Context, locationID, serviceID int64, date time.Time) {
	f.busted = append(f.busted, fmt.Sprintf("%d:%d:%s", locationID, serviceID, date.Format("2006-01-02")))
}

// fakeProvider источник остатков для тестов InventoryService
type fakeProvider struct {
	mu        sync.Mutex
	inventory map[string]*int // variantGID -> остаток, nil = неизвестно
	err       error
	calls     int
}

func (f *fakeProvider) GetInventoryForVariantAtLocation(ctx context.Context, variantGID, locationGID string) (*int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.inventory[variantGID], nil
}

// fakeTx и fakeDB имитируют транзакцию. Запросы через Querier в тестах
// не используются: репозитории тоже фейковые.
type fakeTx struct {
	committed  bool
	rolledBack bool
	commitErr  error
}

func (t *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	panic("unexpected QueryRow in fake tx")
}

func (t *fakeTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	panic("unexpected Query in fake tx")
}

func (t *fakeTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	panic("unexpected Exec in fake tx")
}

func (t *fakeTx) Commit(ctx context.Context) error {
	if t.commitErr != nil {
		return t.commitErr
	}
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	if t.committed {
		return pgx.ErrTxClosed
	}
	t.rolledBack = true
	return nil
}

type fakeDB struct {
	tx       *fakeTx
	beginErr error
}

func (d *fakeDB) Begin(ctx context.Context) (Tx, error) {
	if d.beginErr != nil {
		return nil, d.beginErr
	}
	if d.tx == nil {
		d.tx = &fakeTx{}
	}
	return d.tx, nil
}

func intPtr(v int) *int { return &v }
