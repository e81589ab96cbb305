package users

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

// Handlers wraps the user Service with HTTP handlers.
type Handlers struct {
	service *Service
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes mounts the user routes on the given router.
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleList())
	r.Get("/resolve", h.HandleResolve())
	r.Put("/me", h.HandleUpdateProfile())
	r.Get("/{userID}", h.HandleGet())
}

// HandleList godoc
// @Summary List all users
// @Tags Users
// @Produce json
// @Success 200 {array} users.UserSummary
// @Router /api/users [get]
func (h *Handlers) HandleList() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summaries, err := h.service.ListAll(r.Context())
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusOK, summaries)
	}
}

// HandleResolve godoc
// @Summary Resolve a handle to a user
// @Tags Users
// @Produce json
// @Param handle query string true "Handle in name#tag form"
// @Success 200 {object} users.ResolveResponse
// @Failure 400 {object} apperror.ErrorResponse "Malformed handle"
// @Failure 404 {object} apperror.ErrorResponse "No such user"
// @Router /api/users/resolve [get]
func (h *Handlers) HandleResolve() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		handle := r.URL.Query().Get("handle")
		user, err := h.service.ResolveHandle(r.Context(), handle)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusOK, ResolveResponse{ID: user.ID, Handle: user.Handle()})
	}
}

// HandleGet godoc
// @Summary Get a user by ID
// @Tags Users
// @Produce json
// @Param userID path int true "User ID"
// @Success 200 {object} auth.User
// @Failure 404 {object} apperror.ErrorResponse "No such user"
// @Router /api/users/{userID} [get]
func (h *Handlers) HandleGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := strconv.Atoi(chi.URLParam(r, "userID"))
		if err != nil {
			auth.WriteError(w, r, apperror.NewBadRequestError("user ID must be an integer", nil))
			return
		}

		user, err := h.service.Lookup(r.Context(), userID)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusOK, user)
	}
}

// HandleUpdateProfile godoc
// @Summary Update own profile
// @Tags Users
// @Accept json
// @Produce json
// @Param profileBody body users.UpdateProfileRequest true "Profile fields to update"
// @Success 200 {object} auth.User
// @Router /api/users/me [put]
func (h *Handlers) HandleUpdateProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.GetUserIDFromContext(r.Context())
		if !ok {
			auth.WriteError(w, r, apperror.NewAuthError("not authenticated", nil))
			return
		}

		var req UpdateProfileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			auth.WriteError(w, r, apperror.NewBadRequestError("invalid request body: "+err.Error(), nil))
			return
		}
		defer r.Body.Close()

		if err := validate.Struct(req); err != nil {
			auth.WriteError(w, r, apperror.NewValidationError(err.Error(), nil))
			return
		}

		user, err := h.service.UpdateProfile(r.Context(), userID, &req)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusOK, user)
	}
}
