package middleware

import (
	"mime"
	"net/http"
	"strings"
)

const (
	MethodOverrideParam  = "_method"
	MethodOverrideHeader = "X-HTTP-Method-Override"
)

var overridable = map[string]bool{
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

// MethodOverride lets HTML forms, which can only POST, reach PUT, PATCH and
// DELETE routes. The method is taken from the _method query parameter, the
// X-HTTP-Method-Override header, or an urlencoded _method form field.
// Multipart bodies are left unread; use the query parameter for those.
func MethodOverride(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if m := overrideMethod(r); overridable[m] {
				r.Method = m
			}
		}
		next.ServeHTTP(w, r)
	})
}

func overrideMethod(r *http.Request) string {
	if m := r.URL.Query().Get(MethodOverrideParam); m != "" {
		return strings.ToUpper(m)
	}
	if m := r.Header.Get(MethodOverrideHeader); m != "" {
		return strings.ToUpper(m)
	}
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/x-www-form-urlencoded" {
		return strings.ToUpper(r.PostFormValue(MethodOverrideParam))
	}
	return ""
}
