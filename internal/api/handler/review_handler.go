package handler

import (
	"errors"
	"net/http"

	"sainmakosam/internal/core/service"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// ReviewHandler serves single public review pages.
type ReviewHandler struct {
	reviewService service.ReviewService
	render        *Renderer
}

func NewReviewHandler(reviewService service.ReviewService, render *Renderer) *ReviewHandler {
	return &ReviewHandler{
		reviewService: reviewService,
		render:        render,
	}
}

func (h *ReviewHandler) Show(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	review, err := h.reviewService.GetBySlug(r.Context(), slug)
	switch {
	case errors.Is(err, service.ErrNotFound):
		h.render.Render(w, r, http.StatusNotFound, pageNotFound, &view{Title: "Review Not Found"})
		return
	case err != nil:
		logrus.WithError(err).WithField("slug", slug).Error("Error fetching single review")
		http.Error(w, "Database Error while loading review.", http.StatusInternalServerError)
		return
	}
	h.render.Render(w, r, http.StatusOK, pageSingleReview, &view{Title: review.Title, Review: review})
}
