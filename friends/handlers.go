package friends

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/user/chathub-go/apperror"
	"github.com/user/chathub-go/auth"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// RequestBody is the payload for sending a friend request.
type RequestBody struct {
	AddresseeID int `json:"addressee_id" validate:"required,min=1"`
}

// RespondBody is the payload for accepting or rejecting a request.
type RespondBody struct {
	RequesterID int  `json:"requester_id" validate:"required,min=1"`
	Accept      bool `json:"accept"`
}

// Handlers wraps the friendship Service with HTTP handlers.
type Handlers struct {
	service       *Service
	defaultWindow time.Duration
}

// NewHandlers creates a new Handlers instance. defaultWindow is the presence
// window used by the online-friends listing.
func NewHandlers(service *Service, defaultWindow time.Duration) *Handlers {
	return &Handlers{service: service, defaultWindow: defaultWindow}
}

// RegisterRoutes mounts the friendship routes on the given router.
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleList())
	r.Post("/request", h.HandleRequest())
	r.Post("/respond", h.HandleRespond())
	r.Get("/requests", h.HandlePending())
	r.Get("/online", h.HandleOnline())
	r.Delete("/{friendID}", h.HandleRemove())
}

func callerID(w http.ResponseWriter, r *http.Request) (int, bool) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		auth.WriteError(w, r, apperror.NewAuthError("not authenticated", nil))
	}
	return userID, ok
}

// HandleRequest godoc
// @Summary Send a friend request
// @Tags Friends
// @Accept json
// @Produce json
// @Param requestBody body friends.RequestBody true "Addressee"
// @Success 200 {object} map[string]string
// @Failure 400 {object} apperror.ErrorResponse "Self request"
// @Failure 409 {object} apperror.ErrorResponse "Duplicate request or already friends"
// @Router /api/friends/request [post]
func (h *Handlers) HandleRequest() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := callerID(w, r)
		if !ok {
			return
		}

		var body RequestBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			auth.WriteError(w, r, apperror.NewBadRequestError("invalid request body: "+err.Error(), nil))
			return
		}
		defer r.Body.Close()
		if err := validate.Struct(body); err != nil {
			auth.WriteError(w, r, apperror.NewValidationError(err.Error(), nil))
			return
		}

		if err := h.service.SendRequest(r.Context(), userID, body.AddresseeID); err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusOK, map[string]string{"message": "friend request sent"})
	}
}

// HandleRespond godoc
// @Summary Respond to a friend request
// @Tags Friends
// @Accept json
// @Produce json
// @Param respondBody body friends.RespondBody true "Requester and decision"
// @Success 200 {object} map[string]string
// @Failure 404 {object} apperror.ErrorResponse "No pending request for this pair"
// @Router /api/friends/respond [post]
func (h *Handlers) HandleRespond() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := callerID(w, r)
		if !ok {
			return
		}

		var body RespondBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			auth.WriteError(w, r, apperror.NewBadRequestError("invalid request body: "+err.Error(), nil))
			return
		}
		defer r.Body.Close()
		if err := validate.Struct(body); err != nil {
			auth.WriteError(w, r, apperror.NewValidationError(err.Error(), nil))
			return
		}

		if err := h.service.Respond(r.Context(), body.RequesterID, userID, body.Accept); err != nil {
			auth.WriteError(w, r, err)
			return
		}

		msg := "friend request rejected"
		if body.Accept {
			msg = "friend request accepted"
		}
		auth.WriteJSON(w, http.StatusOK, map[string]string{"message": msg})
	}
}

// HandleList godoc
// @Summary List friends
// @Tags Friends
// @Produce json
// @Success 200 {array} friends.Friend
// @Router /api/friends [get]
func (h *Handlers) HandleList() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := callerID(w, r)
		if !ok {
			return
		}
		list, err := h.service.ListFriends(r.Context(), userID)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusOK, list)
	}
}

// HandlePending godoc
// @Summary List pending friend requests addressed to the caller
// @Tags Friends
// @Produce json
// @Success 200 {array} friends.PendingRequest
// @Router /api/friends/requests [get]
func (h *Handlers) HandlePending() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := callerID(w, r)
		if !ok {
			return
		}
		pending, err := h.service.ListPending(r.Context(), userID)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusOK, pending)
	}
}

// HandleOnline godoc
// @Summary List online friends
// @Tags Friends
// @Produce json
// @Success 200 {array} friends.OnlineFriend
// @Router /api/friends/online [get]
func (h *Handlers) HandleOnline() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := callerID(w, r)
		if !ok {
			return
		}
		online, err := h.service.ListOnlineFriends(r.Context(), userID, h.defaultWindow)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusOK, online)
	}
}

// HandleRemove godoc
// @Summary Remove a friend
// @Description Deletes the accepted edge between the caller and the friend.
// Idempotent: removing an absent friendship succeeds.
// @Tags Friends
// @Produce json
// @Param friendID path int true "Friend user ID"
// @Success 200 {object} map[string]string
// @Router /api/friends/{friendID} [delete]
func (h *Handlers) HandleRemove() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := callerID(w, r)
		if !ok {
			return
		}

		friendID, err := strconv.Atoi(chi.URLParam(r, "friendID"))
		if err != nil {
			auth.WriteError(w, r, apperror.NewBadRequestError("friend ID must be an integer", nil))
			return
		}

		if err := h.service.Remove(r.Context(), userID, friendID); err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusOK, map[string]string{"message": "friend removed"})
	}
}
