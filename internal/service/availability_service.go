package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/eightball/booking_api/internal/cache"
	"github.com/eightball/booking_api/internal/model"
	"go.uber.org/zap"
)

const (
	availabilityCacheTTL = 5 * time.Minute
	availabilityHorizon  = 30 // дней вперёд
	dateLayout           = "2006-01-02"
)

// Capacity вместимость интервала: всего, занято, свободно
type Capacity struct {
	Total int
	Taken int
	Left  int
}

// AvailabilityService считает доступные слоты и управляет их кэшем.
// Путь чтения: кэш и обычные SELECT'ы, никаких блокировок — финальное
// решение о брони всё равно принимает BookingService под row lock.
type AvailabilityService struct {
	locationRepo LocationStore
	serviceRepo  ServiceStore
	bookingRepo  BookingStore
	inventory    InventoryChecker
	cache        cache.Cache
	logger       *zap.Logger
	now          func() time.Time
}

func NewAvailabilityService(
	locationRepo LocationStore,
	serviceRepo ServiceStore,
	bookingRepo BookingStore,
	inventory InventoryChecker,
	c cache.Cache,
	logger *zap.Logger,
) *AvailabilityService {
	return &AvailabilityService{
		locationRepo: locationRepo,
		serviceRepo:  serviceRepo,
		bookingRepo:  bookingRepo,
		inventory:    inventory,
		cache:        c,
		logger:       logger,
		now:          time.Now,
	}
}

// GetDailySlots возвращает доступные слоты услуги на дату, по кэшу.
// Даты в прошлом и дальше горизонта (30 дней) сразу дают пустой список.
func (s *AvailabilityService) GetDailySlots(ctx context.Context, locationID, serviceID int64, date time.Time) ([]model.AvailabilitySlot, error) {
	day := date.Format(dateLayout)
	// "Сегодня" считается в зоне переданной даты, то есть в зоне
	// локации: вечером по UTC локальный день на западе ещё не кончился
	localNow := s.now().In(date.Location())
	today := localNow.Format(dateLayout)
	maxDay := localNow.AddDate(0, 0, availabilityHorizon).Format(dateLayout)

	// ISO-даты сравниваются лексикографически
	if day < today || day > maxDay {
		return nil, nil
	}

	cacheKey := availabilityCacheKey(locationID, serviceID, day)

	if raw, ok := s.cache.Get(ctx, cacheKey); ok {
		var slots []model.AvailabilitySlot
		if err := json.Unmarshal(raw, &slots); err == nil {
			return slots, nil
		}
		s.cache.Forget(ctx, cacheKey)
	}

	slots, err := s.generateDailySlots(ctx, locationID, serviceID, date)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(slots); err == nil {
		s.cache.Set(ctx, cacheKey, raw, availabilityCacheTTL)
	}

	return slots, nil
}

// GetDailySlotsByDate то же, что GetDailySlots, но принимает дату
// строкой "YYYY-MM-DD" и сам приводит её к таймзоне локации
func (s *AvailabilityService) GetDailySlotsByDate(ctx context.Context, locationID, serviceID int64, day string) ([]model.AvailabilitySlot, error) {
	location, err := s.locationRepo.GetByID(ctx, locationID)
	if err != nil {
		return nil, fmt.Errorf("load location: %w", err)
	}
	if location == nil || !location.IsActive {
		return nil, fmt.Errorf("%w: location %d", ErrNotFound, locationID)
	}

	loc, err := time.LoadLocation(location.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load location timezone %q: %w", location.Timezone, err)
	}

	date, err := time.ParseInLocation(dateLayout, day, loc)
	if err != nil {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidation)
	}

	return s.GetDailySlots(ctx, locationID, serviceID, date)
}

// generateDailySlots строит слоты с нуля: рабочее окно, шаг сетки,
// вместимость и инвентарь. Слоты без свободных мест отбрасываются
// целиком — невозможные слоты наружу не показываем.
func (s *AvailabilityService) generateDailySlots(ctx context.Context, locationID, serviceID int64, date time.Time) ([]model.AvailabilitySlot, error) {
	settings, err := s.locationRepo.GetSettings(ctx, locationID)
	if err != nil {
		return nil, fmt.Errorf("load location settings: %w", err)
	}
	if settings == nil {
		return nil, nil
	}

	blackedOut, err := s.locationRepo.IsBlackedOut(ctx, locationID, date)
	if err != nil {
		return nil, fmt.Errorf("check blackout: %w", err)
	}
	if blackedOut {
		return nil, nil
	}

	openAt, closeAt, ok, err := resolveWindow(settings, date)
	if err != nil {
		return nil, fmt.Errorf("resolve operating window: %w", err)
	}
	if !ok {
		return nil, nil
	}

	svc, err := s.serviceRepo.GetByID(ctx, serviceID)
	if err != nil {
		return nil, fmt.Errorf("load service: %w", err)
	}
	if svc == nil {
		return nil, nil
	}

	if settings.SlotDurationMinutes <= 0 || svc.DurationMinutes <= 0 {
		s.logger.Warn("Invalid slot or service duration, no slots generated",
			zap.Int64("location_id", locationID),
			zap.Int64("service_id", serviceID),
		)
		return nil, nil
	}

	serviceDur := time.Duration(svc.DurationMinutes) * time.Minute
	step := time.Duration(settings.SlotDurationMinutes) * time.Minute
	// Слот занимает максимум из длительности услуги и шага сетки,
	// поэтому окно вместимости может быть шире шага
	span := serviceDur
	if step > span {
		span = step
	}

	var slots []model.AvailabilitySlot
	for current := openAt; !current.Add(serviceDur).After(closeAt); current = current.Add(step) {
		slotEnd := current.Add(span)

		capacity, err := s.slotCapacity(ctx, locationID, settings, current, slotEnd)
		if err != nil {
			return nil, err
		}
		if capacity.Left <= 0 {
			continue
		}

		inventoryOk := s.inventory.CheckInventory(ctx, serviceID, locationID, capacity.Left)

		slots = append(slots, model.AvailabilitySlot{
			SlotStart:   current,
			SlotEnd:     slotEnd,
			SeatsLeft:   capacity.Left,
			InventoryOk: inventoryOk,
		})
	}

	return slots, nil
}

// slotCapacity вместимость интервала без блокировок (путь чтения)
func (s *AvailabilityService) slotCapacity(ctx context.Context, locationID int64, settings *model.LocationSettings, start, end time.Time) (Capacity, error) {
	total, err := totalCapacity(ctx, s.locationRepo, locationID, settings)
	if err != nil {
		return Capacity{}, fmt.Errorf("total capacity: %w", err)
	}

	taken, err := s.bookingRepo.SeatsTakenOverlapping(ctx, locationID, start, end)
	if err != nil {
		return Capacity{}, fmt.Errorf("seats taken: %w", err)
	}

	left := total - taken
	if left < 0 {
		left = 0
	}

	return Capacity{Total: total, Taken: taken, Left: left}, nil
}

// resolveWindow рабочее окно локации на дату: по будним или выходным
// настройкам. Закрытый день — ok=false. Таймзона не конвертируется,
// дата считается уже приведённой к нужной зоне.
func resolveWindow(settings *model.LocationSettings, date time.Time) (openAt, closeAt time.Time, ok bool, err error) {
	weekday := date.Weekday()
	isWeekend := weekday == time.Saturday || weekday == time.Sunday

	openClock, closeClock := settings.OpenTime, settings.CloseTime
	if isWeekend {
		if !settings.IsWeekendOpen {
			return time.Time{}, time.Time{}, false, nil
		}
		openClock, closeClock = settings.WeekendOpenTime, settings.WeekendCloseTime
	}
	if openClock == "" || closeClock == "" {
		return time.Time{}, time.Time{}, false, nil
	}

	openAt, err = combineClock(date, openClock)
	if err != nil {
		return time.Time{}, time.Time{}, false, err
	}
	closeAt, err = combineClock(date, closeClock)
	if err != nil {
		return time.Time{}, time.Time{}, false, err
	}
	if !closeAt.After(openAt) {
		return time.Time{}, time.Time{}, false, nil
	}

	return openAt, closeAt, true, nil
}

// combineClock совмещает календарный день даты и время суток "HH:MM"
func combineClock(date time.Time, clock string) (time.Time, error) {
	parts := strings.SplitN(clock, ":", 2)
	if len(parts) != 2 {
		return time.Time{}, fmt.Errorf("bad clock value %q", clock)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("bad clock value %q", clock)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("bad clock value %q", clock)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return time.Time{}, fmt.Errorf("clock value %q out of range", clock)
	}

	y, m, d := date.Date()
	return time.Date(y, m, d, hour, minute, 0, 0, date.Location()), nil
}

// BustSlotCache сбрасывает кэш слотов одной пары (локация, услуга)
// на конкретную дату
func (s *AvailabilityService) BustSlotCache(ctx context.Context, locationID, serviceID int64, date time.Time) {
	s.cache.Forget(ctx, availabilityCacheKey(locationID, serviceID, date.Format(dateLayout)))
}

// BustInventoryCache сбрасывает кэш слотов услуги на 30 дней вперёд.
// Вызывается после записи брони и при сигналах об изменении инвентаря.
// Отсчёт дней идёт от локального "сегодня" локации: записи кэша
// ключуются локальными датами.
func (s *AvailabilityService) BustInventoryCache(ctx context.Context, locationID, serviceID int64) {
	s.bustHorizon(ctx, locationID, serviceID, s.locationZone(ctx, locationID))
}

// bustHorizon сбрасывает кэш слотов услуги на 30 локальных дней вперёд
func (s *AvailabilityService) bustHorizon(ctx context.Context, locationID, serviceID int64, zone *time.Location) {
	start := s.now().In(zone)
	for i := 0; i < availabilityHorizon; i++ {
		s.BustSlotCache(ctx, locationID, serviceID, start.AddDate(0, 0, i))
	}
}

// locationZone таймзона локации; на любой ошибке UTC, чтобы сброс кэша
// не падал из-за кривой настройки
func (s *AvailabilityService) locationZone(ctx context.Context, locationID int64) *time.Location {
	location, err := s.locationRepo.GetByID(ctx, locationID)
	if err != nil || location == nil {
		return time.UTC
	}
	return zoneOf(location)
}

func zoneOf(location *model.Location) *time.Location {
	if zone, err := time.LoadLocation(location.Timezone); err == nil {
		return zone
	}
	return time.UTC
}

// BustCapacityCache сбрасывает кэш всех услуг магазина этой локации.
// Вызывается когда меняется контекст всей локации, например по вебхуку
// об изменении инвентаря.
func (s *AvailabilityService) BustCapacityCache(ctx context.Context, locationID int64) error {
	location, err := s.locationRepo.GetByID(ctx, locationID)
	if err != nil {
		return fmt.Errorf("load location: %w", err)
	}
	if location == nil {
		return ErrNotFound
	}

	services, err := s.serviceRepo.GetActiveByShopID(ctx, location.ShopID)
	if err != nil {
		return fmt.Errorf("load shop services: %w", err)
	}

	zone := zoneOf(location)
	for _, svc := range services {
		s.bustHorizon(ctx, locationID, svc.ID, zone)
	}

	s.logger.Info("Capacity cache busted",
		zap.Int64("location_id", locationID),
		zap.Int("services", len(services)),
	)

	return nil
}

// BustForVariant точечный сброс по варианту Shopify: если вариант
// числится в спецификации услуги, сбрасывается только она, иначе вся
// локация. Используется при обработке инвентарных вебхуков.
func (s *AvailabilityService) BustForVariant(ctx context.Context, locationID int64, variantGID string) error {
	part, err := s.serviceRepo.GetPartByVariantGID(ctx, variantGID)
	if err != nil {
		return fmt.Errorf("find part by variant: %w", err)
	}
	if part == nil {
		return s.BustCapacityCache(ctx, locationID)
	}

	s.BustInventoryCache(ctx, locationID, part.ServiceID)
	s.logger.Info("Slot cache busted for variant",
		zap.Int64("location_id", locationID),
		zap.Int64("service_id", part.ServiceID),
		zap.String("variant_gid", variantGID),
	)
	return nil
}

// WarmLocation прогревает кэш слотов локации на сегодня, чтобы первый
// клиентский запрос после сброса не платил за полный пересчёт
func (s *AvailabilityService) WarmLocation(ctx context.Context, locationID int64) error {
	location, err := s.locationRepo.GetByID(ctx, locationID)
	if err != nil {
		return fmt.Errorf("load location: %w", err)
	}
	if location == nil {
		return ErrNotFound
	}

	services, err := s.serviceRepo.GetActiveByShopID(ctx, location.ShopID)
	if err != nil {
		return fmt.Errorf("load shop services: %w", err)
	}

	today := s.now().In(zoneOf(location)).Format(dateLayout)
	for _, svc := range services {
		if _, err := s.GetDailySlotsByDate(ctx, locationID, svc.ID, today); err != nil {
			s.logger.Warn("Failed to warm slot cache",
				zap.Int64("location_id", locationID),
				zap.Int64("service_id", svc.ID),
				zap.Error(err),
			)
		}
	}

	return nil
}

func availabilityCacheKey(locationID, serviceID int64, day string) string {
	return fmt.Sprintf("availability:%d:%d:%s", locationID, serviceID, day)
}
