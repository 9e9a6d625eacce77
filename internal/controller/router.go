package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/eightball/booking_api/internal/model"
	"github.com/eightball/booking_api/internal/service"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

// Зависимости HTTP-слоя, объявлены на стороне потребителя

type AvailabilityProvider interface {
	GetDailySlotsByDate(ctx context.Context, locationID, serviceID int64, day string) ([]model.AvailabilitySlot, error)
}

type BookingProvider interface {
	Reserve(ctx context.Context, req *service.ReserveRequest) (*model.Booking, error)
	GetBooking(ctx context.Context, id int64) (*model.Booking, error)
	ListByLocation(ctx context.Context, locationID int64, from, to time.Time) ([]*model.Booking, error)
}

type LocationLister interface {
	GetActive(ctx context.Context) ([]*model.Location, error)
}

type ServiceLister interface {
	GetActiveByShopID(ctx context.Context, shopID int64) ([]*model.Service, error)
}

// Recomputer принимает сигналы о смене инвентаря для фоновой обработки
type Recomputer interface {
	Enqueue(locationID int64, variantGID string) bool
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	availability AvailabilityProvider
	bookings     BookingProvider
	locations    LocationLister
	services     ServiceLister
	recomputer   Recomputer
	db           Pinger
	logger       *zap.Logger
}

func NewHandler(
	availability AvailabilityProvider,
	bookings BookingProvider,
	locations LocationLister,
	services ServiceLister,
	recomputer Recomputer,
	db Pinger,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		availability: availability,
		bookings:     bookings,
		locations:    locations,
		services:     services,
		recomputer:   recomputer,
		db:           db,
		logger:       logger,
	}
}

// Router собирает маршруты API и навешивает CORS с логированием
func (h *Handler) Router() http.Handler {
	router := httprouter.New()

	router.GET("/health", h.Health)

	router.GET("/api/v1/availability", h.GetAvailability)
	router.POST("/api/v1/bookings", h.CreateBooking)
	router.GET("/api/v1/bookings/:id", h.GetBooking)
	router.GET("/api/v1/locations", h.ListLocations)
	router.GET("/api/v1/locations/:id/bookings", h.ListLocationBookings)
	router.GET("/api/v1/services", h.ListServices)
	router.POST("/api/v1/webhooks/inventory", h.InventoryWebhook)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", requestIDHeader},
	})

	return withRequestLogging(h.logger, c.Handler(router))
}
