package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"formulaplace/internal/formula"
	applog "formulaplace/internal/log"
	"formulaplace/models"
)

const maxBodyBytes = 1 << 20

type validationResponse struct {
	Error  string                   `json:"error"`
	Fields map[formula.Field]string `json:"fields"`
}

// ListFormulas handles GET /api/formulas[?title=].
func ListFormulas(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r) {
		return
	}
	ctx := r.Context()
	title := r.URL.Query().Get("title")

	var records []models.Formula
	err := database.WithContext(ctx).
		Scopes(models.TitleContains(title)).
		Order("updated_at DESC").
		Find(&records).Error
	if err != nil {
		applog.Error(ctx, "failed to list formulas", "title", title, "error", err)
		writeJSONError(w, r, http.StatusInternalServerError, "unable to load formulas")
		return
	}

	out := make([]formula.Formula, 0, len(records))
	for _, record := range records {
		out = append(out, record.Domain())
	}
	writeJSON(w, r, http.StatusOK, out)
}

// CreateFormula handles POST /api/formulas.
func CreateFormula(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r) {
		return
	}
	ctx := r.Context()

	var draft formula.Draft
	if !decodeBody(w, r, &draft) {
		return
	}
	if err := formula.ValidateDraft(draft); err != nil {
		writeValidationError(w, r, err)
		return
	}

	record := models.NewFormula(draft)
	if err := database.WithContext(ctx).Create(&record).Error; err != nil {
		applog.Error(ctx, "failed to create formula", "error", err)
		writeJSONError(w, r, http.StatusInternalServerError, "unable to create formula")
		return
	}

	applog.Info(ctx, "formula created", "id", record.ID)
	writeJSON(w, r, http.StatusCreated, record.Domain())
}

// ShowFormula handles GET /api/formulas/{id}.
func ShowFormula(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r) {
		return
	}
	record, ok := loadFormula(w, r)
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, record.Domain())
}

// UpdateFormula handles PATCH /api/formulas/{id}. Only the fields present in
// the body change; an empty body returns the record as stored.
func UpdateFormula(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r) {
		return
	}
	ctx := r.Context()

	record, ok := loadFormula(w, r)
	if !ok {
		return
	}

	var patch formula.Patch
	if !decodeBody(w, r, &patch) {
		return
	}
	if err := formula.ValidatePatch(patch); err != nil {
		writeValidationError(w, r, err)
		return
	}
	if patch.Empty() {
		writeJSON(w, r, http.StatusOK, record.Domain())
		return
	}

	if err := database.WithContext(ctx).Model(&record).Updates(models.Changes(patch)).Error; err != nil {
		applog.Error(ctx, "failed to update formula", "id", record.ID, "error", err)
		writeJSONError(w, r, http.StatusInternalServerError, "unable to update formula")
		return
	}

	var updated models.Formula
	if err := database.WithContext(ctx).First(&updated, "id = ?", record.ID).Error; err != nil {
		applog.Error(ctx, "failed to reload formula", "id", record.ID, "error", err)
		writeJSONError(w, r, http.StatusInternalServerError, "unable to load formula")
		return
	}

	applog.Info(ctx, "formula updated", "id", record.ID, "fields", patch.Fields().String())
	writeJSON(w, r, http.StatusOK, updated.Domain())
}

// DeleteFormula handles DELETE /api/formulas/{id}.
func DeleteFormula(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r) {
		return
	}
	ctx := r.Context()

	id, ok := parseFormulaID(r)
	if !ok {
		writeJSONError(w, r, http.StatusNotFound, formula.ErrNotFound.Error())
		return
	}

	result := database.WithContext(ctx).Delete(&models.Formula{}, "id = ?", id)
	if result.Error != nil {
		applog.Error(ctx, "failed to delete formula", "id", id, "error", result.Error)
		writeJSONError(w, r, http.StatusInternalServerError, "unable to delete formula")
		return
	}
	if result.RowsAffected == 0 {
		applog.Debug(ctx, "formula not found for delete", "id", id)
		writeJSONError(w, r, http.StatusNotFound, formula.ErrNotFound.Error())
		return
	}

	applog.Info(ctx, "formula deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

func requireDatabase(w http.ResponseWriter, r *http.Request) bool {
	if database != nil {
		return true
	}
	applog.Debug(r.Context(), "formula request without database")
	writeJSONError(w, r, http.StatusServiceUnavailable, "service unavailable")
	return false
}

func parseFormulaID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		applog.Debug(r.Context(), "invalid formula identifier", "identifier", chi.URLParam(r, "id"), "error", err)
		return uuid.Nil, false
	}
	return id, true
}

func loadFormula(w http.ResponseWriter, r *http.Request) (models.Formula, bool) {
	ctx := r.Context()
	id, ok := parseFormulaID(r)
	if !ok {
		writeJSONError(w, r, http.StatusNotFound, formula.ErrNotFound.Error())
		return models.Formula{}, false
	}

	var record models.Formula
	if err := database.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			applog.Debug(ctx, "formula not found", "id", id)
			writeJSONError(w, r, http.StatusNotFound, formula.ErrNotFound.Error())
			return models.Formula{}, false
		}
		applog.Error(ctx, "failed to load formula", "id", id, "error", err)
		writeJSONError(w, r, http.StatusInternalServerError, "unable to load formula")
		return models.Formula{}, false
	}
	return record, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		applog.Debug(r.Context(), "invalid formula payload", "error", err)
		writeJSONError(w, r, http.StatusBadRequest, "invalid request payload")
		return false
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		writeJSONError(w, r, http.StatusBadRequest, "request body must contain a single JSON object")
		return false
	}
	return true
}

func writeValidationError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *formula.ValidationError
	if !errors.As(err, &verr) {
		applog.Error(r.Context(), "unexpected validation failure", "error", err)
		writeJSONError(w, r, http.StatusInternalServerError, "unable to validate formula")
		return
	}
	writeJSON(w, r, http.StatusUnprocessableEntity, validationResponse{
		Error:  "validation failed",
		Fields: verr.Fields,
	})
}
