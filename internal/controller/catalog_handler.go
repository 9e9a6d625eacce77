package controller

import (
	"net/http"
	"strconv"

	"github.com/eightball/booking_api/internal/model"
	"github.com/julienschmidt/httprouter"
)

// ListLocations активные локации.
// GET /api/v1/locations
func (h *Handler) ListLocations(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	locations, err := h.locations.GetActive(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	if locations == nil {
		locations = []*model.Location{}
	}

	writeJSON(w, http.StatusOK, locations)
}

// ListServices активные услуги магазина.
// GET /api/v1/services?shopId=
func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	shopID, err := strconv.ParseInt(r.URL.Query().Get("shopId"), 10, 64)
	if err != nil || shopID <= 0 {
		writeError(w, http.StatusBadRequest, codeValidation, "shopId is required")
		return
	}

	services, err := h.services.GetActiveByShopID(r.Context(), shopID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	if services == nil {
		services = []*model.Service{}
	}

	writeJSON(w, http.StatusOK, services)
}
