package controller

import (
	"net/http"
	"strconv"

	"github.com/eightball/booking_api/internal/model"
	"github.com/julienschmidt/httprouter"
)

type availabilityResponse struct {
	LocationID int64                    `json:"locationId"`
	ServiceID  int64                    `json:"serviceId"`
	Date       string                   `json:"date"`
	Slots      []model.AvailabilitySlot `json:"slots"`
}

// GetAvailability слоты услуги на дату.
// GET /api/v1/availability?locationId=&serviceId=&date=YYYY-MM-DD
func (h *Handler) GetAvailability(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	locationID, err := strconv.ParseInt(r.URL.Query().Get("locationId"), 10, 64)
	if err != nil || locationID <= 0 {
		writeError(w, http.StatusBadRequest, codeValidation, "locationId is required")
		return
	}

	serviceID, err := strconv.ParseInt(r.URL.Query().Get("serviceId"), 10, 64)
	if err != nil || serviceID <= 0 {
		writeError(w, http.StatusBadRequest, codeValidation, "serviceId is required")
		return
	}

	date := r.URL.Query().Get("date")
	if date == "" {
		writeError(w, http.StatusBadRequest, codeValidation, "date is required")
		return
	}

	slots, err := h.availability.GetDailySlotsByDate(r.Context(), locationID, serviceID, date)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	if slots == nil {
		slots = []model.AvailabilitySlot{}
	}

	writeJSON(w, http.StatusOK, availabilityResponse{
		LocationID: locationID,
		ServiceID:  serviceID,
		Date:       date,
		Slots:      slots,
	})
}
