package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"gorm.io/gorm"

	applog "formulaplace/internal/log"
	"formulaplace/internal/viewstate"
)

var (
	sessionManager *scs.SessionManager
	database       *gorm.DB
	service        viewstate.Service
)

// Configure installs the shared dependencies used by the HTTP handlers. The
// database backs the JSON resource; the service is how the HTML pages reach
// that resource.
func Configure(sm *scs.SessionManager, db *gorm.DB, svc viewstate.Service) {
	sessionManager = sm
	database = db
	service = svc
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		applog.Error(r.Context(), "failed to encode json response", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, r, status, map[string]string{"error": message})
}
