package service

import (
	"context"
	"testing"
	"time"

	"github.com/eightball/booking_api/internal/cache"
	"github.com/eightball/booking_api/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Понедельник, рабочий день для будних настроек
var testNow = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

type availabilityFixture struct {
	svc       *AvailabilityService
	locations *fakeLocationStore
	services  *fakeServiceStore
	bookings  *fakeBookingStore
	inventory *fakeInventory
	cache     *cache.MemoryCache
}

func newAvailabilityFixture(t *testing.T) *availabilityFixture {
	t.Helper()

	locations := newFakeLocationStore()
	locations.locations[1] = &model.Location{
		ID: 1, ShopID: 10, ShopifyLocationGID: "gid://shopify/Location/1",
		Name: "Main", Timezone: "UTC", IsActive: true,
	}
	locations.settings[1] = &model.LocationSettings{
		LocationID:          1,
		OpenTime:            "09:00",
		CloseTime:           "18:00",
		IsWeekendOpen:       false,
		CapacityPerSlot:     5,
		SlotDurationMinutes: 60,
	}

	services := newFakeServiceStore()
	services.services[2] = &model.Service{
		ID: 2, ShopID: 10, Title: "Tire swap", DurationMinutes: 60, Active: true,
	}

	bookings := newFakeBookingStore()
	inventory := &fakeInventory{ok: true}
	memCache := cache.NewMemoryCache()

	svc := NewAvailabilityService(locations, services, bookings, inventory, memCache, zap.NewNop())
	svc.now = func() time.Time { return testNow }

	return &availabilityFixture{
		svc:       svc,
		locations: locations,
		services:  services,
		bookings:  bookings,
		inventory: inventory,
		cache:     memCache,
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestGetDailySlotsGeneratesGrid(t *testing.T) {
	f := newAvailabilityFixture(t)

	slots, err := f.svc.GetDailySlots(context.Background(), 1, 2, day(2026, 3, 2))
	require.NoError(t, err)
	require.Len(t, slots, 9)

	assert.Equal(t, time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), slots[0].SlotStart)
	assert.Equal(t, time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC), slots[0].SlotEnd)
	assert.Equal(t, time.Date(2026, 3, 2, 17, 0, 0, 0, time.UTC), slots[8].SlotStart)

	for _, slot := range slots {
		assert.Equal(t, 5, slot.SeatsLeft)
		assert.True(t, slot.InventoryOk)
	}
}

func TestGetDailySlotsOutsideHorizon(t *testing.T) {
	f := newAvailabilityFixture(t)
	ctx := context.Background()

	past, err := f.svc.GetDailySlots(ctx, 1, 2, day(2026, 3, 1))
	require.NoError(t, err)
	assert.Empty(t, past)

	farFuture, err := f.svc.GetDailySlots(ctx, 1, 2, day(2026, 5, 1))
	require.NoError(t, err)
	assert.Empty(t, farFuture)
}

func TestGetDailySlotsBlackout(t *testing.T) {
	f := newAvailabilityFixture(t)
	f.locations.blackouts["1:2026-03-02"] = true

	slots, err := f.svc.GetDailySlots(context.Background(), 1, 2, day(2026, 3, 2))
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestGetDailySlotsWeekend(t *testing.T) {
	f := newAvailabilityFixture(t)
	ctx := context.Background()
	saturday := day(2026, 3, 7)

	// Выходные закрыты
	slots, err := f.svc.GetDailySlots(ctx, 1, 2, saturday)
	require.NoError(t, err)
	assert.Empty(t, slots)

	// Выходные открыты с укороченным окном. Пустая выдача закрытого
	// дня уже закэширована, сбрасываем перед пересчётом.
	f.locations.settings[1].IsWeekendOpen = true
	f.locations.settings[1].WeekendOpenTime = "10:00"
	f.locations.settings[1].WeekendCloseTime = "14:00"
	f.svc.BustSlotCache(ctx, 1, 2, saturday)

	slots, err = f.svc.GetDailySlots(ctx, 1, 2, saturday)
	require.NoError(t, err)
	require.Len(t, slots, 4)
	assert.Equal(t, time.Date(2026, 3, 7, 10, 0, 0, 0, time.UTC), slots[0].SlotStart)
	assert.Equal(t, time.Date(2026, 3, 7, 13, 0, 0, 0, time.UTC), slots[3].SlotStart)
}

func TestGetDailySlotsCapacityFromResources(t *testing.T) {
	f := newAvailabilityFixture(t)
	// Явная вместимость не задана — берётся сумма мест по ресурсам
	f.locations.settings[1].CapacityPerSlot = 0
	f.locations.resourceSeats[1] = 10

	slots, err := f.svc.GetDailySlots(context.Background(), 1, 2, day(2026, 3, 2))
	require.NoError(t, err)
	require.NotEmpty(t, slots)
	assert.Equal(t, 10, slots[0].SeatsLeft)
}

func TestGetDailySlotsDropsFullSlots(t *testing.T) {
	f := newAvailabilityFixture(t)
	f.bookings.bookings = append(f.bookings.bookings, &model.Booking{
		ID: 100, LocationID: 1, ServiceID: 2, Seats: 5,
		SlotStartUTC: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		SlotEndUTC:   time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		Status:       model.BookingStatusConfirmed,
	})

	slots, err := f.svc.GetDailySlots(context.Background(), 1, 2, day(2026, 3, 2))
	require.NoError(t, err)
	require.Len(t, slots, 8)
	// Полностью занятый слот 09:00 выпал из выдачи
	assert.Equal(t, time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC), slots[0].SlotStart)
}

func TestGetDailySlotsPartialOverlap(t *testing.T) {
	f := newAvailabilityFixture(t)
	// Бронь 09:30-10:30 пересекает оба соседних слота
	f.bookings.bookings = append(f.bookings.bookings, &model.Booking{
		ID: 100, LocationID: 1, ServiceID: 2, Seats: 2,
		SlotStartUTC: time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC),
		SlotEndUTC:   time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC),
		Status:       model.BookingStatusConfirmed,
	})

	slots, err := f.svc.GetDailySlots(context.Background(), 1, 2, day(2026, 3, 2))
	require.NoError(t, err)
	require.Len(t, slots, 9)
	assert.Equal(t, 3, slots[0].SeatsLeft) // 09:00
	assert.Equal(t, 3, slots[1].SeatsLeft) // 10:00
	assert.Equal(t, 5, slots[2].SeatsLeft) // 11:00 не задет
}

func TestGetDailySlotsTouchingBookingDoesNotCount(t *testing.T) {
	f := newAvailabilityFixture(t)
	// Бронь ровно 08:00-09:00 касается открытия, но не пересекает 09:00-10:00
	f.bookings.bookings = append(f.bookings.bookings, &model.Booking{
		ID: 100, LocationID: 1, ServiceID: 2, Seats: 5,
		SlotStartUTC: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC),
		SlotEndUTC:   time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		Status:       model.BookingStatusConfirmed,
	})

	slots, err := f.svc.GetDailySlots(context.Background(), 1, 2, day(2026, 3, 2))
	require.NoError(t, err)
	require.Len(t, slots, 9)
	assert.Equal(t, 5, slots[0].SeatsLeft)
}

func TestGetDailySlotsCancelledBookingIgnored(t *testing.T) {
	f := newAvailabilityFixture(t)
	f.bookings.bookings = append(f.bookings.bookings, &model.Booking{
		ID: 100, LocationID: 1, ServiceID: 2, Seats: 5,
		SlotStartUTC: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		SlotEndUTC:   time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		Status:       model.BookingStatusCancelled,
	})

	slots, err := f.svc.GetDailySlots(context.Background(), 1, 2, day(2026, 3, 2))
	require.NoError(t, err)
	require.Len(t, slots, 9)
	assert.Equal(t, 5, slots[0].SeatsLeft)
}

func TestGetDailySlotsServiceLongerThanStep(t *testing.T) {
	f := newAvailabilityFixture(t)
	f.services.services[2].DurationMinutes = 90

	slots, err := f.svc.GetDailySlots(context.Background(), 1, 2, day(2026, 3, 2))
	require.NoError(t, err)
	// Шаг сетки остаётся часовым, но слот занимает 90 минут:
	// последний старт 16:00 (16:00+1:30 <= 18:00), 17:00 уже не влезает
	require.Len(t, slots, 8)
	assert.Equal(t, time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), slots[0].SlotStart)
	assert.Equal(t, time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC), slots[0].SlotEnd)
	assert.Equal(t, time.Date(2026, 3, 2, 16, 0, 0, 0, time.UTC), slots[7].SlotStart)
}

func TestGetDailySlotsCacheCoherence(t *testing.T) {
	f := newAvailabilityFixture(t)
	ctx := context.Background()
	date := day(2026, 3, 2)

	first, err := f.svc.GetDailySlots(ctx, 1, 2, date)
	require.NoError(t, err)
	require.Len(t, first, 9)

	// Бронь появилась, но кэш ещё хранит старую выдачу
	f.bookings.bookings = append(f.bookings.bookings, &model.Booking{
		ID: 100, LocationID: 1, ServiceID: 2, Seats: 5,
		SlotStartUTC: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		SlotEndUTC:   time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		Status:       model.BookingStatusConfirmed,
	})

	stale, err := f.svc.GetDailySlots(ctx, 1, 2, date)
	require.NoError(t, err)
	assert.Len(t, stale, 9)

	// После сброса пересчёт видит бронь
	f.svc.BustSlotCache(ctx, 1, 2, date)

	fresh, err := f.svc.GetDailySlots(ctx, 1, 2, date)
	require.NoError(t, err)
	assert.Len(t, fresh, 8)
}

func TestGetDailySlotsInventoryFlag(t *testing.T) {
	f := newAvailabilityFixture(t)
	f.inventory.ok = false

	slots, err := f.svc.GetDailySlots(context.Background(), 1, 2, day(2026, 3, 2))
	require.NoError(t, err)
	require.Len(t, slots, 9)

	// Слоты с местами показываются, но помечены как недоступные по инвентарю
	for _, slot := range slots {
		assert.False(t, slot.InventoryOk)
	}
	// Инвентарь спрашивается на фактический остаток мест
	require.NotEmpty(t, f.inventory.calls)
	assert.Equal(t, 5, f.inventory.calls[0].seats)
}

func TestGetDailySlotsByDateUnknownLocation(t *testing.T) {
	f := newAvailabilityFixture(t)

	_, err := f.svc.GetDailySlotsByDate(context.Background(), 99, 2, "2026-03-02")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetDailySlotsByDateBadDate(t *testing.T) {
	f := newAvailabilityFixture(t)

	_, err := f.svc.GetDailySlotsByDate(context.Background(), 1, 2, "03/02/2026")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestBustCapacityCacheClearsAllShopServices(t *testing.T) {
	f := newAvailabilityFixture(t)
	ctx := context.Background()
	f.services.services[3] = &model.Service{
		ID: 3, ShopID: 10, Title: "Wheel alignment", DurationMinutes: 60, Active: true,
	}

	_, err := f.svc.GetDailySlots(ctx, 1, 2, day(2026, 3, 2))
	require.NoError(t, err)
	_, err = f.svc.GetDailySlots(ctx, 1, 3, day(2026, 3, 2))
	require.NoError(t, err)

	_, ok := f.cache.Get(ctx, "availability:1:2:2026-03-02")
	require.True(t, ok)

	require.NoError(t, f.svc.BustCapacityCache(ctx, 1))

	_, ok = f.cache.Get(ctx, "availability:1:2:2026-03-02")
	assert.False(t, ok)
	_, ok = f.cache.Get(ctx, "availability:1:3:2026-03-02")
	assert.False(t, ok)
}

func TestBustInventoryCacheUsesLocationLocalDay(t *testing.T) {
	f := newAvailabilityFixture(t)
	f.locations.locations[1].Timezone = "America/New_York"
	// По UTC уже 3 марта, но в Нью-Йорке ещё вечер 2-го
	f.svc.now = func() time.Time { return time.Date(2026, 3, 3, 1, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	f.cache.Set(ctx, "availability:1:2:2026-03-02", []byte("[]"), time.Minute)

	f.svc.BustInventoryCache(ctx, 1, 2)

	// Локальное "сегодня" локации попало в 30-дневный сброс
	_, ok := f.cache.Get(ctx, "availability:1:2:2026-03-02")
	assert.False(t, ok)
}

func TestGetDailySlotsLocalTodayNotRejectedAsPast(t *testing.T) {
	f := newAvailabilityFixture(t)
	f.locations.locations[1].Timezone = "America/New_York"
	f.svc.now = func() time.Time { return time.Date(2026, 3, 3, 1, 0, 0, 0, time.UTC) }

	// Серверное UTC-"сегодня" уже 3-е, но запрошенный день — текущий
	// день локации, а не прошлый
	slots, err := f.svc.GetDailySlotsByDate(context.Background(), 1, 2, "2026-03-02")
	require.NoError(t, err)
	assert.Len(t, slots, 9)
}

func TestBustForVariantTargetsOneService(t *testing.T) {
	f := newAvailabilityFixture(t)
	ctx := context.Background()
	f.services.services[3] = &model.Service{
		ID: 3, ShopID: 10, Title: "Wheel alignment", DurationMinutes: 60, Active: true,
	}
	f.services.parts[3] = []*model.ServicePart{
		{ServiceID: 3, ShopifyVariantGID: "gid://shopify/ProductVariant/100", QtyPerService: 1},
	}

	_, err := f.svc.GetDailySlots(ctx, 1, 2, day(2026, 3, 2))
	require.NoError(t, err)
	_, err = f.svc.GetDailySlots(ctx, 1, 3, day(2026, 3, 2))
	require.NoError(t, err)

	require.NoError(t, f.svc.BustForVariant(ctx, 1, "gid://shopify/ProductVariant/100"))

	// Сброшена только услуга со спецификацией, содержащей вариант
	_, ok := f.cache.Get(ctx, "availability:1:3:2026-03-02")
	assert.False(t, ok)
	_, ok = f.cache.Get(ctx, "availability:1:2:2026-03-02")
	assert.True(t, ok)
}

func TestBustForVariantUnknownVariantBustsLocation(t *testing.T) {
	f := newAvailabilityFixture(t)
	ctx := context.Background()

	_, err := f.svc.GetDailySlots(ctx, 1, 2, day(2026, 3, 2))
	require.NoError(t, err)

	require.NoError(t, f.svc.BustForVariant(ctx, 1, "gid://shopify/ProductVariant/999"))

	_, ok := f.cache.Get(ctx, "availability:1:2:2026-03-02")
	assert.False(t, ok)
}

func TestBustCapacityCacheUnknownLocation(t *testing.T) {
	f := newAvailabilityFixture(t)

	err := f.svc.BustCapacityCache(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
}
