package controller

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/eightball/booking_api/internal/model"
	"github.com/eightball/booking_api/internal/service"
	"github.com/julienschmidt/httprouter"
)

type bookingResponse struct {
	ID             int64             `json:"id"`
	LocationID     int64             `json:"locationId"`
	ServiceID      int64             `json:"serviceId"`
	SlotStartUTC   time.Time         `json:"slotStartUtc"`
	SlotEndUTC     time.Time         `json:"slotEndUtc"`
	SlotStartLocal string            `json:"slotStartLocal,omitempty"`
	SlotEndLocal   string            `json:"slotEndLocal,omitempty"`
	Seats          int               `json:"seats"`
	CustomerName   string            `json:"customerName"`
	Status         string            `json:"status"`
	Meta           map[string]string `json:"meta,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
}

// newBookingResponse добавляет к брони локальное время в зоне локации,
// если таймзона известна и валидна
func newBookingResponse(booking *model.Booking) bookingResponse {
	resp := bookingResponse{
		ID:           booking.ID,
		LocationID:   booking.LocationID,
		ServiceID:    booking.ServiceID,
		SlotStartUTC: booking.SlotStartUTC,
		SlotEndUTC:   booking.SlotEndUTC,
		Seats:        booking.Seats,
		CustomerName: booking.CustomerName,
		Status:       string(booking.Status),
		Meta:         booking.Meta,
		CreatedAt:    booking.CreatedAt,
	}

	if booking.Location != nil {
		if loc, err := time.LoadLocation(booking.Location.Timezone); err == nil {
			resp.SlotStartLocal = booking.SlotStartUTC.In(loc).Format(time.RFC3339)
			resp.SlotEndLocal = booking.SlotEndUTC.In(loc).Format(time.RFC3339)
		}
	}

	return resp
}

// CreateBooking резервирует слот.
// POST /api/v1/bookings
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req service.ReserveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, "malformed request body")
		return
	}

	booking, err := h.bookings.Reserve(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, newBookingResponse(booking))
}

// GetBooking бронь по id, JSON или календарный файл.
// GET /api/v1/bookings/:id[?format=ics]
func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	id, err := strconv.ParseInt(params.ByName("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, codeValidation, "booking id must be a positive integer")
		return
	}

	booking, err := h.bookings.GetBooking(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if r.URL.Query().Get("format") == "ics" {
		w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=booking-%d.ics", booking.ID))
		_, _ = w.Write([]byte(service.BookingICS(booking)))
		return
	}

	writeJSON(w, http.StatusOK, newBookingResponse(booking))
}

// ListLocationBookings брони локации за период.
// GET /api/v1/locations/:id/bookings?from=RFC3339&to=RFC3339
func (h *Handler) ListLocationBookings(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	locationID, err := strconv.ParseInt(params.ByName("id"), 10, 64)
	if err != nil || locationID <= 0 {
		writeError(w, http.StatusBadRequest, codeValidation, "location id must be a positive integer")
		return
	}

	from, err := time.Parse(time.RFC3339, r.URL.Query().Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, "from must be an RFC3339 timestamp")
		return
	}
	to, err := time.Parse(time.RFC3339, r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, "to must be an RFC3339 timestamp")
		return
	}

	bookings, err := h.bookings.ListByLocation(r.Context(), locationID, from, to)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	resp := make([]bookingResponse, 0, len(bookings))
	for _, booking := range bookings {
		resp = append(resp, newBookingResponse(booking))
	}

	writeJSON(w, http.StatusOK, resp)
}
