package controller

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

type inventoryWebhookRequest struct {
	LocationID int64  `json:"locationId"`
	VariantGID string `json:"variantGid,omitempty"`
}

// InventoryWebhook сигнал об изменении остатков на локации. Сам пересчёт
// идёт в фоне, вебхук отвечает сразу — внешняя система ждать не должна.
// POST /api/v1/webhooks/inventory
func (h *Handler) InventoryWebhook(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req inventoryWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.LocationID <= 0 {
		writeError(w, http.StatusBadRequest, codeValidation, "locationId is required")
		return
	}

	if !h.recomputer.Enqueue(req.LocationID, req.VariantGID) {
		// Очередь переполнена — сигнал теряем, TTL кэша догонит
		h.logger.Warn("Inventory recompute signal dropped, queue is full",
			zap.Int64("location_id", req.LocationID),
		)
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}
