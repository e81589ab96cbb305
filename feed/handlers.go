package feed

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

// PostBody is the payload for posting a feed message.
type PostBody struct {
	Body string `json:"body" validate:"required"`
}

// Handlers wraps the feed Service with HTTP handlers.
type Handlers struct {
	service *Service
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes mounts the feed routes on the given router.
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleSince())
	r.Post("/", h.HandlePost())
}

// HandlePost godoc
// @Summary Post a message to the shared feed
// @Tags Feed
// @Accept json
// @Produce json
// @Param postBody body feed.PostBody true "Message body"
// @Success 201 {object} feed.Message
// @Failure 400 {object} apperror.ErrorResponse "Empty body"
// @Router /api/messages [post]
func (h *Handlers) HandlePost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.GetUserIDFromContext(r.Context())
		if !ok {
			auth.WriteError(w, r, apperror.NewAuthError("not authenticated", nil))
			return
		}

		var body PostBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			auth.WriteError(w, r, apperror.NewBadRequestError("invalid request body: "+err.Error(), nil))
			return
		}
		defer r.Body.Close()
		if err := validate.Struct(body); err != nil {
			auth.WriteError(w, r, apperror.NewValidationError(err.Error(), nil))
			return
		}

		msg, err := h.service.Post(r.Context(), userID, body.Body)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusCreated, msg)
	}
}

// HandleSince godoc
// @Summary Read feed messages after a cursor
// @Description Returns messages with an ID greater than "since", oldest
// first. Clients pass the largest ID they have seen to sync incrementally.
// @Tags Feed
// @Produce json
// @Param since query int false "Last seen message ID" default(0)
// @Param limit query int false "Maximum messages to return"
// @Success 200 {array} feed.Message
// @Router /api/messages [get]
func (h *Handlers) HandleSince() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var cursor int64
		if raw := r.URL.Query().Get("since"); raw != "" {
			parsed, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || parsed < 0 {
				auth.WriteError(w, r, apperror.NewBadRequestError("since must be a non-negative integer", nil))
				return
			}
			cursor = parsed
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

		messages, err := h.service.Since(r.Context(), cursor, limit)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusOK, messages)
	}
}
