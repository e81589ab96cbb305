package presence

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/user/chathub-go/auth"
)

// TouchMiddleware records activity for the authenticated user on every
// request passing through it. Any authenticated action counts as presence,
// so it runs after the auth middleware. A failed touch never fails the
// request; it is logged and the handler proceeds.
func TouchMiddleware(tracker *Tracker) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID, ok := auth.GetUserIDFromContext(r.Context()); ok {
				if err := tracker.Touch(r.Context(), userID); err != nil {
					logrus.WithField("user_id", userID).WithError(err).Warn("failed to touch presence")
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
