package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"sainmakosam/internal/core/model"
	"sainmakosam/internal/session"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
)

// Page template names.
const (
	pageStart          = "start"
	pageHome           = "home"
	pageWhy            = "why"
	pageContact        = "contact"
	pageLogin          = "login"
	pageAdminDashboard = "admin_dashboard"
	pageAdminWrite     = "admin_write"
	pageSingleReview   = "single_review"
	pageNotFound       = "404"
)

var pages = []string{
	pageStart, pageHome, pageWhy, pageContact, pageLogin,
	pageAdminDashboard, pageAdminWrite, pageSingleReview, pageNotFound,
}

// view is the data every page template receives.
type view struct {
	Title    string
	Error    string
	LoggedIn bool

	User     *model.User
	Username string
	Reviews  []*model.Review
	Review   *model.Review
	Form     *reviewForm
	Authors  []model.Author
}

// reviewForm holds the values shown in the write form, including rejected
// submissions so nothing typed is lost.
type reviewForm struct {
	ID      string
	Action  string
	Title   string
	Excerpt string
	Content string
	Author  string
	Image   string
}

var templateFuncs = template.FuncMap{
	"since": humanize.Time,
	"date": func(t time.Time) string {
		return t.Format("2 Jan 2006")
	},
}

type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses every page together with the shared layout.
func NewRenderer(fsys fs.FS) (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template, len(pages))}
	for _, name := range pages {
		t, err := template.New(name).Funcs(templateFuncs).ParseFS(fsys, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Render writes the page with status. Rendering happens into a buffer so a
// template error still produces a clean 500.
func (rn *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, name string, v *view) {
	t, ok := rn.pages[name]
	if !ok {
		logrus.WithField("page", name).Error("Unknown page template")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if v == nil {
		v = &view{}
	}
	v.LoggedIn = session.FromContext(r.Context()).Authenticated()

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", v); err != nil {
		logrus.WithError(err).WithField("page", name).Error("Template execution failed")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
