package model

import "time"

// AvailabilitySlot вычисляемый слот доступности, в БД не хранится.
// Слоты с seatsLeft == 0 наружу не отдаются вовсе — это осознанная
// политика "не показывать невозможные слоты".
type AvailabilitySlot struct {
	SlotStart   time.Time `json:"slotStart"`
	SlotEnd     time.Time `json:"slotEnd"`
	SeatsLeft   int       `json:"seatsLeft"`
	InventoryOk bool      `json:"inventoryOk"`
}
