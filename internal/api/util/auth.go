package util

import (
	"net/http"

	"sainmakosam/internal/session"
)

// UserIDFromRequest returns the authenticated user id of the request's
// session, or "" for anonymous requests.
func UserIDFromRequest(r *http.Request) string {
	sess := session.FromContext(r.Context())
	if !sess.Authenticated() {
		return ""
	}
	return sess.UserID
}
