package model

import "time"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"   // Создано, ждёт подтверждения
	BookingStatusConfirmed BookingStatus = "confirmed" // Подтверждено, учитывается в capacity
	BookingStatusCancelled BookingStatus = "cancelled" // Отменено
	BookingStatusCompleted BookingStatus = "completed" // Завершено
)

type Booking struct {
	ID           int64         `json:"id"`
	ShopID       int64         `json:"shop_id"`
	LocationID   int64         `json:"location_id"`
	ServiceID    int64         `json:"service_id"`
	SlotStartUTC time.Time     `json:"slot_start_utc"`
	SlotEndUTC   time.Time     `json:"slot_end_utc"`
	Seats        int           `json:"seats"`
	CustomerName string        `json:"customer_name"`
	Phone        string        `json:"phone"`
	Email        string        `json:"email"`
	Status       BookingStatus `json:"status"`
	// Meta хранится в БД строго как JSON-объект, без альтернативных форматов
	Meta      map[string]string `json:"meta,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`

	// Дополнительные поля для удобства (не из БД)
	Location *Location `json:"location,omitempty"`
	Service  *Service  `json:"service,omitempty"`
}
