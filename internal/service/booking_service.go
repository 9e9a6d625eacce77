package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/eightball/booking_api/internal/model"
	"go.uber.org/zap"
)

// Invalidator сброс кэша слотов после успешной записи брони
type Invalidator interface {
	BustSlotCache(ctx context.Context, locationID, serviceID int64, date time.Time)
}

// ReserveRequest запрос на резервирование слота
type ReserveRequest struct {
	LocationID   int64             `json:"locationId"`
	ServiceID    int64             `json:"serviceId"`
	SlotStart    time.Time         `json:"slotStart"`
	Seats        int               `json:"seats"`
	CustomerName string            `json:"customerName"`
	Phone        string            `json:"phone"`
	Email        string            `json:"email"`
	Meta         map[string]string `json:"meta,omitempty"`
}

// BookingService резервирует слоты. Решение о достаточности мест
// принимается только внутри транзакции: пересекающиеся подтверждённые
// брони блокируются FOR UPDATE, сумма пересчитывается заново, и лишь
// потом вставляется новая бронь. Кэш слотов — подсказка для чтения,
// здесь он не участвует.
type BookingService struct {
	db           DB
	locationRepo LocationStore
	serviceRepo  ServiceStore
	bookingRepo  BookingStore
	inventory    InventoryChecker
	invalidator  Invalidator
	logger       *zap.Logger
	now          func() time.Time
}

func NewBookingService(
	db DB,
	locationRepo LocationStore,
	serviceRepo ServiceStore,
	bookingRepo BookingStore,
	inventory InventoryChecker,
	invalidator Invalidator,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		db:           db,
		locationRepo: locationRepo,
		serviceRepo:  serviceRepo,
		bookingRepo:  bookingRepo,
		inventory:    inventory,
		invalidator:  invalidator,
		logger:       logger,
		now:          time.Now,
	}
}

// Reserve проводит транзакцию резервирования и возвращает созданную
// бронь. Отказы различаются sentinel-ошибками из errors.go.
func (s *BookingService) Reserve(ctx context.Context, req *ReserveRequest) (*model.Booking, error) {
	if err := s.validateReserve(req); err != nil {
		return nil, err
	}

	location, err := s.locationRepo.GetByID(ctx, req.LocationID)
	if err != nil {
		return nil, fmt.Errorf("load location: %w", err)
	}
	if location == nil || !location.IsActive {
		return nil, fmt.Errorf("%w: location %d", ErrNotFound, req.LocationID)
	}

	svc, err := s.serviceRepo.GetByID(ctx, req.ServiceID)
	if err != nil {
		return nil, fmt.Errorf("load service: %w", err)
	}
	if svc == nil {
		return nil, fmt.Errorf("%w: service %d", ErrNotFound, req.ServiceID)
	}
	if svc.ShopID != location.ShopID {
		return nil, fmt.Errorf("%w: service %d does not belong to location's shop", ErrValidation, req.ServiceID)
	}

	settings, err := s.locationRepo.GetSettings(ctx, req.LocationID)
	if err != nil {
		return nil, fmt.Errorf("load location settings: %w", err)
	}
	if settings == nil {
		return nil, fmt.Errorf("%w: location %d has no schedule settings", ErrValidation, req.LocationID)
	}

	slotStart := req.SlotStart
	localStart, err := s.validateSlotAgainstCalendar(ctx, location, settings, svc, slotStart)
	if err != nil {
		return nil, err
	}

	// Бронь занимает максимум из длительности услуги и шага сетки —
	// тот же интервал, что показывает генератор слотов
	span := time.Duration(svc.DurationMinutes) * time.Minute
	if step := time.Duration(settings.SlotDurationMinutes) * time.Minute; step > span {
		span = step
	}
	slotEnd := slotStart.Add(span)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin reserve tx: %w", err)
	}
	defer tx.Rollback(ctx)

	taken, err := s.bookingRepo.LockOverlappingSeats(ctx, tx, req.LocationID, slotStart.UTC(), slotEnd.UTC())
	if err != nil {
		return nil, fmt.Errorf("lock overlapping bookings: %w", err)
	}

	total, err := totalCapacity(ctx, s.locationRepo, req.LocationID, settings)
	if err != nil {
		return nil, fmt.Errorf("total capacity: %w", err)
	}

	if taken+req.Seats > total {
		s.logger.Info("Reservation rejected, not enough seats",
			zap.Int64("location_id", req.LocationID),
			zap.Time("slot_start", slotStart),
			zap.Int("taken", taken),
			zap.Int("requested", req.Seats),
			zap.Int("total", total),
		)
		return nil, fmt.Errorf("%w: %d of %d seats taken, %d requested", ErrInsufficientCapacity, taken, total, req.Seats)
	}

	// Инвентарь перепроверяется прямо перед вставкой: кэшированный
	// ответ из листинга мог устареть
	if !s.inventory.CheckInventory(ctx, req.ServiceID, req.LocationID, req.Seats) {
		return nil, fmt.Errorf("%w: service %d at location %d", ErrInsufficientInventory, req.ServiceID, req.LocationID)
	}

	booking := &model.Booking{
		ShopID:       location.ShopID,
		LocationID:   req.LocationID,
		ServiceID:    req.ServiceID,
		SlotStartUTC: slotStart.UTC(),
		SlotEndUTC:   slotEnd.UTC(),
		Seats:        req.Seats,
		CustomerName: strings.TrimSpace(req.CustomerName),
		Phone:        strings.TrimSpace(req.Phone),
		Email:        strings.TrimSpace(req.Email),
		Status:       model.BookingStatusConfirmed,
		Meta:         req.Meta,
	}

	if err := s.bookingRepo.Create(ctx, tx, booking); err != nil {
		return nil, fmt.Errorf("insert booking: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit reserve tx: %w", err)
	}

	// Кэш сбрасывается только после коммита: упавшая транзакция
	// не должна трогать уже закэшированные слоты. Ключ кэша строится
	// по локальному дню локации, поэтому сбрасываем по localStart,
	// а не по дню UTC-момента.
	s.invalidator.BustSlotCache(ctx, req.LocationID, req.ServiceID, localStart)

	s.logger.Info("Booking reserved",
		zap.Int64("booking_id", booking.ID),
		zap.Int64("location_id", booking.LocationID),
		zap.Int64("service_id", booking.ServiceID),
		zap.Time("slot_start_utc", booking.SlotStartUTC),
		zap.Int("seats", booking.Seats),
	)

	booking.Location = location
	booking.Service = svc

	return booking, nil
}

// GetBooking возвращает бронь с локацией и услугой для отображения
func (s *BookingService) GetBooking(ctx context.Context, id int64) (*model.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load booking: %w", err)
	}
	if booking == nil {
		return nil, fmt.Errorf("%w: booking %d", ErrNotFound, id)
	}

	if booking.Location, err = s.locationRepo.GetByID(ctx, booking.LocationID); err != nil {
		return nil, fmt.Errorf("load booking location: %w", err)
	}
	if booking.Service, err = s.serviceRepo.GetByID(ctx, booking.ServiceID); err != nil {
		return nil, fmt.Errorf("load booking service: %w", err)
	}

	return booking, nil
}

// ListByLocation брони локации за период, для админских выгрузок
func (s *BookingService) ListByLocation(ctx context.Context, locationID int64, from, to time.Time) ([]*model.Booking, error) {
	if !to.After(from) {
		return nil, fmt.Errorf("%w: empty time range", ErrValidation)
	}

	location, err := s.locationRepo.GetByID(ctx, locationID)
	if err != nil {
		return nil, fmt.Errorf("load location: %w", err)
	}
	if location == nil {
		return nil, fmt.Errorf("%w: location %d", ErrNotFound, locationID)
	}

	bookings, err := s.bookingRepo.GetByLocationAndRange(ctx, locationID, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	return bookings, nil
}

func (s *BookingService) validateReserve(req *ReserveRequest) error {
	switch {
	case req == nil:
		return fmt.Errorf("%w: empty request", ErrValidation)
	case req.LocationID <= 0:
		return fmt.Errorf("%w: locationId is required", ErrValidation)
	case req.ServiceID <= 0:
		return fmt.Errorf("%w: serviceId is required", ErrValidation)
	case req.Seats <= 0:
		return fmt.Errorf("%w: seats must be positive", ErrValidation)
	case req.SlotStart.IsZero():
		return fmt.Errorf("%w: slotStart is required", ErrValidation)
	case strings.TrimSpace(req.CustomerName) == "":
		return fmt.Errorf("%w: customerName is required", ErrValidation)
	}

	if req.SlotStart.Before(s.now()) {
		return fmt.Errorf("%w: slotStart is in the past", ErrValidation)
	}

	return nil
}

// validateSlotAgainstCalendar проверяет, что запрошенный слот попадает
// в рабочее окно локации в её таймзоне и день не закрыт полностью.
// Возвращает момент начала в зоне локации — по нему же строится ключ
// кэша слотов.
func (s *BookingService) validateSlotAgainstCalendar(ctx context.Context, location *model.Location, settings *model.LocationSettings, svc *model.Service, slotStart time.Time) (time.Time, error) {
	loc, err := time.LoadLocation(location.Timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("load location timezone %q: %w", location.Timezone, err)
	}
	localStart := slotStart.In(loc)

	blackedOut, err := s.locationRepo.IsBlackedOut(ctx, location.ID, localStart)
	if err != nil {
		return time.Time{}, fmt.Errorf("check blackout: %w", err)
	}
	if blackedOut {
		return time.Time{}, fmt.Errorf("%w: location is closed on %s", ErrValidation, localStart.Format(dateLayout))
	}

	openAt, closeAt, ok, err := resolveWindow(settings, localStart)
	if err != nil {
		return time.Time{}, fmt.Errorf("resolve operating window: %w", err)
	}
	if !ok {
		return time.Time{}, fmt.Errorf("%w: location is closed on %s", ErrValidation, localStart.Format(dateLayout))
	}

	serviceEnd := localStart.Add(time.Duration(svc.DurationMinutes) * time.Minute)
	if localStart.Before(openAt) || serviceEnd.After(closeAt) {
		return time.Time{}, fmt.Errorf("%w: slot is outside operating hours", ErrValidation)
	}

	return localStart, nil
}
