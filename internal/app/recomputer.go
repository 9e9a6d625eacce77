package app

import (
	"context"
	"time"

	"github.com/eightball/booking_api/internal/service"
	"go.uber.org/zap"
)

// Recomputer фоновый пересчёт доступности. Сигналы о смене инвентаря
// приходят из вебхука в канал; на каждый сигнал кэш слотов локации
// сбрасывается и прогревается заново. Раз в сутки прогреваются все
// активные локации независимо от сигналов.
// InventoryEvent сигнал о смене остатков. VariantGID опционален:
// с ним сброс точечный, без него сбрасывается вся локация.
type InventoryEvent struct {
	LocationID int64
	VariantGID string
}

type Recomputer struct {
	availability *service.AvailabilityService
	locations    service.LocationStore
	logger       *zap.Logger
	events       chan InventoryEvent
	stopChan     chan struct{}
}

func NewRecomputer(availability *service.AvailabilityService, locations service.LocationStore, logger *zap.Logger) *Recomputer {
	return &Recomputer{
		availability: availability,
		locations:    locations,
		logger:       logger,
		events:       make(chan InventoryEvent, 64),
		stopChan:     make(chan struct{}),
	}
}

// Enqueue ставит локацию в очередь на пересчёт. Не блокирует:
// при переполненной очереди возвращает false, сигнал теряется.
func (s *Recomputer) Enqueue(locationID int64, variantGID string) bool {
	select {
	case s.events <- InventoryEvent{LocationID: locationID, VariantGID: variantGID}:
		return true
	default:
		return false
	}
}

// Start запускает фоновую обработку
func (s *Recomputer) Start(ctx context.Context) {
	s.logger.Info("Starting availability recomputer")
	go s.run(ctx)
}

// Stop останавливает фоновую обработку
func (s *Recomputer) Stop() {
	s.logger.Info("Stopping availability recomputer")
	close(s.stopChan)
}

func (s *Recomputer) run(ctx context.Context) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case event := <-s.events:
			s.recompute(ctx, event)
		case <-ticker.C:
			s.warmAll(ctx)
		case <-s.stopChan:
			s.logger.Info("Availability recomputer stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Availability recomputer cancelled")
			return
		}
	}
}

// recompute сброс и прогрев кэша одной локации
func (s *Recomputer) recompute(ctx context.Context, event InventoryEvent) {
	s.logger.Info("Recomputing availability",
		zap.Int64("location_id", event.LocationID),
		zap.String("variant_gid", event.VariantGID),
	)

	var err error
	if event.VariantGID != "" {
		err = s.availability.BustForVariant(ctx, event.LocationID, event.VariantGID)
	} else {
		err = s.availability.BustCapacityCache(ctx, event.LocationID)
	}
	if err != nil {
		s.logger.Error("Failed to bust availability cache",
			zap.Int64("location_id", event.LocationID),
			zap.Error(err),
		)
		return
	}

	if err := s.availability.WarmLocation(ctx, event.LocationID); err != nil {
		s.logger.Error("Failed to warm availability cache",
			zap.Int64("location_id", event.LocationID),
			zap.Error(err),
		)
	}
}

// warmAll суточный прогрев кэша всех активных локаций
func (s *Recomputer) warmAll(ctx context.Context) {
	s.logger.Info("Starting daily availability warm-up")

	locations, err := s.locations.GetActive(ctx)
	if err != nil {
		s.logger.Error("Failed to list active locations", zap.Error(err))
		return
	}

	for _, location := range locations {
		if err := s.availability.WarmLocation(ctx, location.ID); err != nil {
			s.logger.Error("Failed to warm availability cache",
				zap.Int64("location_id", location.ID),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("Daily availability warm-up completed", zap.Int("locations", len(locations)))
}
