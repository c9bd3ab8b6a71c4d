package handlers

import (
	"net/http"

	templpkg "github.com/a-h/templ"

	applog "formulaplace/internal/log"
)

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true" || r.Header.Get("HX-Boosted") == "true"
}

// renderComponent writes an HTML response. HTMX only swaps 2xx responses, so
// fragment requests always get 200.
func renderComponent(w http.ResponseWriter, r *http.Request, status int, component templpkg.Component) {
	if isHTMX(r) {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := component.Render(r.Context(), w); err != nil {
		applog.Error(r.Context(), "failed to render component", "path", r.URL.Path, "error", err)
	}
}

// redirect sends the browser to target, using HX-Redirect for HTMX requests.
func redirect(w http.ResponseWriter, r *http.Request, target string) {
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
