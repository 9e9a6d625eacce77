package controller

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/eightball/booking_api/internal/service"
	"go.uber.org/zap"
)

// Машиночитаемые коды отказов для клиентов API
const (
	codeValidation           = "VALIDATION"
	codeNotFound             = "NOT_FOUND"
	codeCapacityConflict     = "CAPACITY_CONFLICT"
	codeInventoryUnavailable = "INVENTORY_UNAVAILABLE"
	codePersistenceError     = "PERSISTENCE_ERROR"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: errorBody{Code: code, Message: message}})
}

// writeServiceError переводит sentinel-ошибки сервисного слоя в HTTP.
// 409 — мест нет, клиенту есть смысл выбрать другой слот; 422 — не
// хватает инвентаря, внешнее ограничение. Всё неопознанное — 500, и
// только для него текст ошибки не уходит наружу.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		writeError(w, http.StatusBadRequest, codeValidation, err.Error())
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, err.Error())
	case errors.Is(err, service.ErrInsufficientCapacity):
		writeError(w, http.StatusConflict, codeCapacityConflict, err.Error())
	case errors.Is(err, service.ErrInsufficientInventory):
		writeError(w, http.StatusUnprocessableEntity, codeInventoryUnavailable, err.Error())
	default:
		logger.Error("Request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, codePersistenceError, "internal error")
	}
}
