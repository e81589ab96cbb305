package privmsg

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/user/chathub-go/apperror"
	"github.com/user/chathub-go/auth"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// SendBody is the payload for sending a direct message.
type SendBody struct {
	ReceiverID int    `json:"receiver_id" validate:"required,min=1"`
	Body       string `json:"body" validate:"required"`
}

// Handlers wraps the private message Service with HTTP handlers.
type Handlers struct {
	service *Service
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes mounts the private message routes on the given router.
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Post("/send", h.HandleSend())
	r.Get("/messages", h.HandleHistory())
	r.Get("/last", h.HandleLastPerFriend())
}

func callerID(w http.ResponseWriter, r *http.Request) (int, bool) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		auth.WriteError(w, r, apperror.NewAuthError("not authenticated", nil))
	}
	return userID, ok
}

// HandleSend godoc
// @Summary Send a direct message to a friend
// @Tags Private
// @Accept json
// @Produce json
// @Param sendBody body privmsg.SendBody true "Receiver and body"
// @Success 201 {object} privmsg.Message
// @Failure 400 {object} apperror.ErrorResponse "Empty body"
// @Failure 403 {object} apperror.ErrorResponse "Not friends"
// @Router /api/private/send [post]
func (h *Handlers) HandleSend() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := callerID(w, r)
		if !ok {
			return
		}

		var body SendBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			auth.WriteError(w, r, apperror.NewBadRequestError("invalid request body: "+err.Error(), nil))
			return
		}
		defer r.Body.Close()
		if err := validate.Struct(body); err != nil {
			auth.WriteError(w, r, apperror.NewValidationError(err.Error(), nil))
			return
		}

		msg, err := h.service.Send(r.Context(), userID, body.ReceiverID, body.Body)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusCreated, msg)
	}
}

// HandleHistory godoc
// @Summary Read the conversation with another user
// @Description Returns the most recent messages between the caller and the
// "with" user, oldest first.
// @Tags Private
// @Produce json
// @Param with query int true "Other user ID"
// @Param limit query int false "Maximum messages to return"
// @Success 200 {array} privmsg.Message
// @Router /api/private/messages [get]
func (h *Handlers) HandleHistory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := callerID(w, r)
		if !ok {
			return
		}

		otherID, err := strconv.Atoi(r.URL.Query().Get("with"))
		if err != nil || otherID < 1 {
			auth.WriteError(w, r, apperror.NewBadRequestError("with must be a positive user ID", nil))
			return
		}

		var limit int
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 1 {
				auth.WriteError(w, r, apperror.NewBadRequestError("limit must be a positive integer", nil))
				return
			}
			limit = parsed
		}

		messages, err := h.service.History(r.Context(), userID, otherID, limit)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusOK, messages)
	}
}

// HandleLastPerFriend godoc
// @Summary Last message per friend
// @Description Returns the most recent direct message exchanged with each
// current friend, for conversation list previews.
// @Tags Private
// @Produce json
// @Success 200 {array} privmsg.LastMessage
// @Router /api/private/last [get]
func (h *Handlers) HandleLastPerFriend() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := callerID(w, r)
		if !ok {
			return
		}
		last, err := h.service.LastPerFriend(r.Context(), userID)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusOK, last)
	}
}
