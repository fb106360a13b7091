package handler

import (
	"net/http"

	"sainmakosam/internal/core/repository"
	"sainmakosam/internal/core/service"

	"github.com/sirupsen/logrus"
)

const siteTitle = "Sainma Kosam"

// PageHandler serves the public pages.
type PageHandler struct {
	reviewService service.ReviewService
	render        *Renderer
}

func NewPageHandler(reviewService service.ReviewService, render *Renderer) *PageHandler {
	return &PageHandler{
		reviewService: reviewService,
		render:        render,
	}
}

func (h *PageHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, r, http.StatusOK, pageStart, &view{})
}

// Dashboard lists the newest reviews. A storage failure shows an empty list
// with a banner instead of an error page.
func (h *PageHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	v := &view{Title: siteTitle}
	reviews, err := h.reviewService.List(r.Context(), repository.ListOptions{
		Limit:  service.PublicFeedLimit,
		Newest: true,
	})
	if err != nil {
		logrus.WithError(err).Error("Error fetching reviews for homepage")
		v.Error = "Could not load reviews right now."
	}
	v.Reviews = reviews
	h.render.Render(w, r, http.StatusOK, pageHome, v)
}

func (h *PageHandler) Why(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, r, http.StatusOK, pageWhy, &view{Title: "Why"})
}

func (h *PageHandler) Contact(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, r, http.StatusOK, pageContact, &view{Title: "Contact"})
}

func (h *PageHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, r, http.StatusNotFound, pageNotFound, &view{Title: "Not Found"})
}
