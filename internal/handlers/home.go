package handlers

import (
	"net/http"

	"formulaplace/internal/viewstate"
)

// Home sends visitors to the formula index.
func Home(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, viewstate.ListPath, http.StatusFound)
}
