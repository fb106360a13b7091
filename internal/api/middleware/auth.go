package middleware

import (
	"net/http"

	"sainmakosam/internal/session"

	"github.com/sirupsen/logrus"
)

// LoginPath is where unauthenticated admin requests are sent.
const LoginPath = "/auth/login"

type AuthMiddleware struct {
	sessions *session.Manager
}

func NewAuthMiddleware(sessions *session.Manager) *AuthMiddleware {
	return &AuthMiddleware{
		sessions: sessions,
	}
}

// RequireAuth lets authenticated sessions through and redirects everyone
// else to the login page. For GET and HEAD the requested URL is remembered
// so login can send the user back to it.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := session.FromContext(r.Context())
		if sess == nil {
			sess = m.sessions.Load(r)
		}
		if sess.Authenticated() {
			next.ServeHTTP(w, r)
			return
		}

		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			sess.ReturnTo = r.URL.RequestURI()
			if err := m.sessions.Commit(r.Context(), w, sess); err != nil {
				logrus.WithError(err).Warn("Could not remember return path")
			}
		}

		logrus.WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Debug("Unauthenticated admin request redirected to login")
		http.Redirect(w, r, LoginPath, http.StatusFound)
	})
}
