package handler

import (
	"errors"
	"net/http"
	"strings"

	"sainmakosam/internal/core/service"
	"sainmakosam/internal/observability"
	"sainmakosam/internal/session"

	"github.com/sirupsen/logrus"
)

type AuthHandler struct {
	authService service.AuthService
	sessions    *session.Manager
	render      *Renderer
	metrics     *observability.Metrics
}

func NewAuthHandler(authService service.AuthService, sessions *session.Manager, render *Renderer, metrics *observability.Metrics) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		sessions:    sessions,
		render:      render,
		metrics:     metrics,
	}
}

func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, r, http.StatusOK, pageLogin, &view{Title: "Login"})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render.Render(w, r, http.StatusBadRequest, pageLogin, &view{Title: "Login", Error: "Invalid login form."})
		return
	}
	username := strings.TrimSpace(r.PostForm.Get("username"))
	password := r.PostForm.Get("password")

	sess := session.FromContext(r.Context())
	if sess == nil {
		sess = h.sessions.Load(r)
	}

	target, err := h.authService.Login(r.Context(), sess, username, password)
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		h.metrics.LoginAttempt(observability.ResultDenied)
		h.render.Render(w, r, http.StatusUnauthorized, pageLogin, &view{Title: "Login", Error: err.Error(), Username: username})
		return
	case err != nil:
		h.metrics.LoginAttempt(observability.ResultError)
		logrus.WithError(err).Error("Login could not be completed")
		h.render.Render(w, r, http.StatusInternalServerError, pageLogin, &view{Title: "Login", Error: "Login is unavailable right now, please try again.", Username: username})
		return
	}

	h.metrics.LoginAttempt(observability.ResultOK)
	if err := h.sessions.WriteCookie(w, sess); err != nil {
		logrus.WithError(err).Error("Failed to write session cookie")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// Logout always ends on the home page, even if the session could not be
// destroyed.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.authService.Logout(r.Context(), session.FromContext(r.Context()))
	h.sessions.ClearCookie(w)
	http.Redirect(w, r, "/", http.StatusFound)
}
