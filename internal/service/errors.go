package service

import "errors"

// Причины отказа резервирования. HTTP-слой отличает конфликт по местам
// (можно ретраить на другой слот) от нехватки инвентаря (внешнее
// ограничение, ретрай без ожидания бессмысленен).
var (
	ErrValidation            = errors.New("validation failed")
	ErrNotFound              = errors.New("not found")
	ErrInsufficientCapacity  = errors.New("insufficient capacity")
	ErrInsufficientInventory = errors.New("insufficient inventory")
)
