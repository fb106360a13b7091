package handler

import (
	"errors"
	"net/http"

	"sainmakosam/internal/api/util"
	"sainmakosam/internal/core/model"
	"sainmakosam/internal/core/repository"
	"sainmakosam/internal/core/service"
	"sainmakosam/internal/observability"
	"sainmakosam/internal/session"
	"sainmakosam/internal/upload"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

const (
	adminDashboardPath = "/admin/dashboard"

	// multipartMemory is how much of a multipart body is kept in memory
	// before spilling file parts to temp files.
	multipartMemory = 8 << 20
)

var errUploadTooLarge = errors.New("upload too large")

// AdminHandler serves the authenticated review management pages.
type AdminHandler struct {
	reviewService  service.ReviewService
	authService    service.AuthService
	render         *Renderer
	metrics        *observability.Metrics
	maxUploadBytes int64
}

func NewAdminHandler(
	reviewService service.ReviewService,
	authService service.AuthService,
	render *Renderer,
	metrics *observability.Metrics,
	maxUploadBytes int64,
) *AdminHandler {
	return &AdminHandler{
		reviewService:  reviewService,
		authService:    authService,
		render:         render,
		metrics:        metrics,
		maxUploadBytes: maxUploadBytes,
	}
}

func (h *AdminHandler) Index(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, adminDashboardPath, http.StatusFound)
}

func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	h.renderDashboard(w, r, http.StatusOK, "")
}

func (h *AdminHandler) renderDashboard(w http.ResponseWriter, r *http.Request, status int, message string) {
	v := &view{Title: "Admin Dashboard", Error: message}
	reviews, err := h.reviewService.List(r.Context(), repository.ListOptions{Newest: true})
	if err != nil {
		logrus.WithError(err).Error("Error fetching reviews for dashboard")
		if v.Error == "" {
			v.Error = "Could not load reviews due to a database error."
		}
	}
	v.Reviews = reviews

	if user, err := h.authService.CurrentUser(r.Context(), session.FromContext(r.Context())); err == nil {
		v.User = user
	}
	h.render.Render(w, r, status, pageAdminDashboard, v)
}

func (h *AdminHandler) New(w http.ResponseWriter, r *http.Request) {
	h.renderWrite(w, r, http.StatusOK, "Create New Review", &reviewForm{Action: "/admin/reviews"}, "")
}

func (h *AdminHandler) Create(w http.ResponseWriter, r *http.Request) {
	form := &reviewForm{Action: "/admin/reviews"}
	image, cleanup, err := h.parseReviewForm(w, r)
	defer cleanup()
	if err != nil {
		h.metrics.ReviewOp("create", observability.ResultInvalid)
		fillForm(form, r)
		h.renderWrite(w, r, formErrorStatus(err), "Create New Review", form, formErrorMessage(err))
		return
	}
	fillForm(form, r)

	review, err := h.reviewService.Create(r.Context(), service.ReviewInput{
		Title:   r.PostForm.Get("title"),
		Excerpt: r.PostForm.Get("excerpt"),
		Content: r.PostForm.Get("content"),
		Author:  r.PostForm.Get("author"),
	}, image)
	if err != nil {
		h.writeFailed(w, r, "create", "Create New Review", form, err)
		return
	}

	h.metrics.ReviewOp("create", observability.ResultOK)
	logrus.WithFields(logrus.Fields{
		"user_id": util.UserIDFromRequest(r),
		"slug":    review.Slug,
	}).Info("New review created")
	http.Redirect(w, r, adminDashboardPath, http.StatusSeeOther)
}

func (h *AdminHandler) Edit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	review, err := h.reviewService.GetByID(r.Context(), id)
	switch {
	case errors.Is(err, service.ErrNotFound):
		h.renderDashboard(w, r, http.StatusNotFound, "Review not found for editing.")
		return
	case err != nil:
		logrus.WithError(err).WithField("review_id", id).Error("Error loading review for edit")
		h.renderDashboard(w, r, http.StatusInternalServerError, "Database error loading review.")
		return
	}

	form := &reviewForm{
		ID:      review.ID,
		Action:  editAction(review.ID),
		Title:   review.Title,
		Excerpt: review.Excerpt,
		Content: review.Content,
		Author:  review.Author.String(),
		Image:   review.Image,
	}
	h.renderWrite(w, r, http.StatusOK, "Edit: "+review.Title, form, "")
}

func (h *AdminHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	form := &reviewForm{ID: id, Action: editAction(id)}
	image, cleanup, err := h.parseReviewForm(w, r)
	defer cleanup()
	if err != nil {
		h.metrics.ReviewOp("update", observability.ResultInvalid)
		fillForm(form, r)
		h.renderWrite(w, r, formErrorStatus(err), "Editing Review", form, formErrorMessage(err))
		return
	}
	fillForm(form, r)

	patch := service.ReviewUpdate{
		Title:   postedValue(r, "title"),
		Excerpt: postedValue(r, "excerpt"),
		Content: postedValue(r, "content"),
		Author:  postedValue(r, "author"),
	}
	review, err := h.reviewService.Update(r.Context(), id, patch, image)
	if errors.Is(err, service.ErrNotFound) {
		h.metrics.ReviewOp("update", observability.ResultNotFound)
		http.Redirect(w, r, adminDashboardPath, http.StatusFound)
		return
	}
	if err != nil {
		if existing, gerr := h.reviewService.GetByID(r.Context(), id); gerr == nil {
			form.Image = existing.Image
		}
		h.writeFailed(w, r, "update", "Editing Review", form, err)
		return
	}

	h.metrics.ReviewOp("update", observability.ResultOK)
	logrus.WithFields(logrus.Fields{
		"user_id": util.UserIDFromRequest(r),
		"slug":    review.Slug,
	}).Info("Review updated")
	http.Redirect(w, r, adminDashboardPath, http.StatusFound)
}

// Delete always returns to the dashboard; failures are only logged.
func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.reviewService.Delete(r.Context(), id); err != nil {
		h.metrics.ReviewOp("delete", observability.ResultError)
		logrus.WithError(err).WithField("review_id", id).Error("Error deleting review")
	} else {
		h.metrics.ReviewOp("delete", observability.ResultOK)
		logrus.WithFields(logrus.Fields{
			"user_id":   util.UserIDFromRequest(r),
			"review_id": id,
		}).Info("Review permanently terminated")
	}
	http.Redirect(w, r, adminDashboardPath, http.StatusFound)
}

func (h *AdminHandler) renderWrite(w http.ResponseWriter, r *http.Request, status int, title string, form *reviewForm, message string) {
	h.render.Render(w, r, status, pageAdminWrite, &view{
		Title:   title,
		Error:   message,
		Form:    form,
		Authors: model.Authors(),
	})
}

func (h *AdminHandler) writeFailed(w http.ResponseWriter, r *http.Request, op, title string, form *reviewForm, err error) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		h.metrics.ReviewOp(op, observability.ResultInvalid)
		h.renderWrite(w, r, http.StatusUnprocessableEntity, title, form, verr.Error())
		return
	}

	h.metrics.ReviewOp(op, observability.ResultError)
	logrus.WithError(err).WithField("op", op).Error("Error saving review")
	h.renderWrite(w, r, http.StatusInternalServerError, title, form, "Could not save the review, please try again.")
}

// parseReviewForm reads a multipart or urlencoded review submission and
// returns the optional image. cleanup must always be called.
func (h *AdminHandler) parseReviewForm(w http.ResponseWriter, r *http.Request) (*upload.File, func(), error) {
	noop := func() {}
	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	}

	err := r.ParseMultipartForm(multipartMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, noop, errUploadTooLarge
		}
		return nil, noop, err
	}
	if r.MultipartForm == nil {
		return nil, noop, nil
	}
	cleanup := func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			logrus.WithError(err).Warn("Failed to remove multipart temp files")
		}
	}

	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, cleanup, nil
	}
	if err != nil {
		return nil, cleanup, err
	}
	closeAll := func() {
		file.Close()
		cleanup()
	}
	if header.Size == 0 {
		return nil, closeAll, nil
	}
	return &upload.File{Name: header.Filename, Body: file}, closeAll, nil
}

func fillForm(form *reviewForm, r *http.Request) {
	form.Title = r.PostForm.Get("title")
	form.Excerpt = r.PostForm.Get("excerpt")
	form.Content = r.PostForm.Get("content")
	form.Author = r.PostForm.Get("author")
}

// postedValue distinguishes a field sent empty from one not sent at all.
func postedValue(r *http.Request, key string) *string {
	values, ok := r.PostForm[key]
	if !ok || len(values) == 0 {
		return nil
	}
	v := values[0]
	return &v
}

func editAction(id string) string {
	return "/admin/reviews/" + id + "?_method=PUT"
}

func formErrorStatus(err error) int {
	if errors.Is(err, errUploadTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func formErrorMessage(err error) string {
	if errors.Is(err, errUploadTooLarge) {
		return "That upload is too large."
	}
	return "The form could not be read, please try again."
}
