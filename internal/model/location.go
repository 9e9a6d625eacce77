package model

import "time"

type Location struct {
	ID                 int64     `json:"id"`
	ShopID             int64     `json:"shop_id"`
	ShopifyLocationGID string    `json:"shopify_location_gid"`
	Name               string    `json:"name"`
	Timezone           string    `json:"timezone"`
	IsActive           bool      `json:"is_active"`
	CreatedAt          time.Time `json:"created_at"`

	// Дополнительные поля для удобства (не из БД)
	Settings  *LocationSettings `json:"settings,omitempty"`
	Resources []*Resource       `json:"resources,omitempty"`
}

// LocationSettings настройки рабочего дня локации.
// Время открытия/закрытия храним как "HH:MM" (время суток, без таймзоны).
type LocationSettings struct {
	ID                  int64  `json:"id"`
	LocationID          int64  `json:"location_id"`
	OpenTime            string `json:"open_time"`
	CloseTime           string `json:"close_time"`
	IsWeekendOpen       bool   `json:"is_weekend_open"`
	WeekendOpenTime     string `json:"weekend_open_time"`
	WeekendCloseTime    string `json:"weekend_close_time"`
	CapacityPerSlot     int    `json:"capacity_per_slot"`
	SlotDurationMinutes int    `json:"slot_duration_minutes"`
}

// Resource физический ресурс локации (подъёмник, пост, кресло)
type Resource struct {
	ID         int64  `json:"id"`
	LocationID int64  `json:"location_id"`
	Name       string `json:"name"`
	Seats      int    `json:"seats"`
}

// Blackout полностью закрывает дату для бронирования
type Blackout struct {
	ID         int64     `json:"id"`
	LocationID int64     `json:"location_id"`
	Date       time.Time `json:"date"`
	Reason     string    `json:"reason"`
}
