package presence

import (
	"net/http"
	"time"

	"github.com/user/chathub-go/apperror"
	"github.com/user/chathub-go/auth"
)

// Handlers wraps the Tracker with HTTP handlers. defaultWindow is the
// transport-level presence window; the core always takes it explicitly.
type Handlers struct {
	tracker       *Tracker
	defaultWindow time.Duration
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(tracker *Tracker, defaultWindow time.Duration) *Handlers {
	return &Handlers{tracker: tracker, defaultWindow: defaultWindow}
}

// HandleListOnline godoc
// @Summary List online users
// @Description Users active within the presence window, most recent first.
// @Tags Presence
// @Produce json
// @Success 200 {array} presence.OnlineUser
// @Router /api/users/online [get]
func (h *Handlers) HandleListOnline() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		online, err := h.tracker.ListOnline(r.Context(), h.defaultWindow)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusOK, online)
	}
}

// HandleTouch godoc
// @Summary Record activity
// @Description Explicitly marks the authenticated user as active. The same
// effect already happens implicitly on every authenticated call.
// @Tags Presence
// @Produce json
// @Success 200 {object} map[string]string
// @Router /api/users/activity [post]
func (h *Handlers) HandleTouch() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.GetUserIDFromContext(r.Context())
		if !ok {
			auth.WriteError(w, r, apperror.NewAuthError("not authenticated", nil))
			return
		}
		if err := h.tracker.Touch(r.Context(), userID); err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusOK, map[string]string{"message": "activity recorded"})
	}
}
