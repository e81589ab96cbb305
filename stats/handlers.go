package stats

import (
	"net/http"

	"github.com/user/chathub-go/auth"
)

// Handlers wraps the stats Service with HTTP handlers.
type Handlers struct {
	service *Service
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// HandleStatus godoc
// @Summary Service status and activity counters
// @Description Public liveness endpoint. Reports overall totals alongside a
// plain "online" marker so clients can probe reachability without auth.
// @Tags Status
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/status [get]
func (h *Handlers) HandleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		totals, err := h.service.Snapshot(r.Context())
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"status": "online",
			"stats":  totals,
		})
	}
}
