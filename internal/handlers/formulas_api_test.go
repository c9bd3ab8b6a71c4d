package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"formulaplace/internal/formula"
	"formulaplace/models"
)

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeFormula(t *testing.T, w *httptest.ResponseRecorder) formula.Formula {
	t.Helper()
	var out formula.Formula
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func seedFormula(t *testing.T, gdb *gorm.DB, title string, updated time.Time) models.Formula {
	t.Helper()
	record := models.Formula{Title: title, Content: "x", CreatedAt: updated, UpdatedAt: updated}
	if err := gdb.Create(&record).Error; err != nil {
		t.Fatalf("failed to seed formula: %v", err)
	}
	return record
}

func TestCreateFormula(t *testing.T) {
	gdb := newTestDatabase(t)
	useDependencies(t, nil, gdb, nil)

	w := httptest.NewRecorder()
	CreateFormula(w, jsonRequest(http.MethodPost, "/api/formulas", `{"title":"Euler's Identity","content":"e^{i\\pi}+1=0"}`))

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	got := decodeFormula(t, w)
	if got.ID.Version() != 7 {
		t.Fatalf("expected a version 7 id, got %s", got.ID)
	}
	if got.Title != "Euler's Identity" || got.Content != `e^{i\pi}+1=0` || got.Description != "" {
		t.Fatalf("unexpected formula %+v", got)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.Before(got.CreatedAt) {
		t.Fatalf("unexpected timestamps %+v", got)
	}

	var count int64
	gdb.Model(&models.Formula{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected one stored formula, got %d", count)
	}
}

func TestCreateFormulaRejectsBadInput(t *testing.T) {
	gdb := newTestDatabase(t)
	useDependencies(t, nil, gdb, nil)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"malformed json", `{"title":`, http.StatusBadRequest},
		{"unknown field", `{"title":"t","content":"c","author":"me"}`, http.StatusBadRequest},
		{"trailing data", `{"title":"t","content":"c"}{}`, http.StatusBadRequest},
		{"missing content", `{"title":"t"}`, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		CreateFormula(w, jsonRequest(http.MethodPost, "/api/formulas", tt.body))
		if w.Code != tt.status {
			t.Fatalf("%s: expected status %d, got %d", tt.name, tt.status, w.Code)
		}
	}

	w := httptest.NewRecorder()
	CreateFormula(w, jsonRequest(http.MethodPost, "/api/formulas", `{"title":"","content":""}`))
	var resp validationResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode validation response: %v", err)
	}
	want := map[formula.Field]string{
		formula.FieldTitle:   "Title is required",
		formula.FieldContent: "Content is required",
	}
	if diff := cmp.Diff(want, resp.Fields); diff != "" {
		t.Fatalf("validation fields mismatch (-want +got):\n%s", diff)
	}
}

func TestListFormulasFiltersAndOrders(t *testing.T) {
	gdb := newTestDatabase(t)
	useDependencies(t, nil, gdb, nil)

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	seedFormula(t, gdb, "Euler's Identity", base)
	seedFormula(t, gdb, "Euler's formula", base.Add(time.Hour))
	seedFormula(t, gdb, "Pythagorean theorem", base.Add(2*time.Hour))

	w := httptest.NewRecorder()
	ListFormulas(w, httptest.NewRequest(http.MethodGet, "/api/formulas?title=EULER", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var got []formula.Formula
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to decode list: %v", err)
	}
	titles := make([]string, len(got))
	for i, f := range got {
		titles[i] = f.Title
	}
	if diff := cmp.Diff([]string{"Euler's formula", "Euler's Identity"}, titles); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}
}

func TestListFormulasEmptyIsArray(t *testing.T) {
	gdb := newTestDatabase(t)
	useDependencies(t, nil, gdb, nil)

	w := httptest.NewRecorder()
	ListFormulas(w, httptest.NewRequest(http.MethodGet, "/api/formulas", nil))
	if body := bytes.TrimSpace(w.Body.Bytes()); string(body) != "[]" {
		t.Fatalf("expected empty array, got %s", body)
	}
}

func TestShowFormulaNotFound(t *testing.T) {
	gdb := newTestDatabase(t)
	useDependencies(t, nil, gdb, nil)

	for _, id := range []string{uuid.NewString(), "not-a-uuid"} {
		req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/formulas/"+id, nil), "id", id)
		w := httptest.NewRecorder()
		ShowFormula(w, req)
		if w.Code != http.StatusNotFound {
			t.Fatalf("id %q: expected status 404, got %d", id, w.Code)
		}
	}
}

func TestUpdateFormulaChangesOnlyPresentFields(t *testing.T) {
	gdb := newTestDatabase(t)
	useDependencies(t, nil, gdb, nil)

	before := time.Now().Add(-time.Hour).UTC()
	record := seedFormula(t, gdb, "Euler's Identity", before)

	req := jsonRequest(http.MethodPatch, "/api/formulas/"+record.ID.String(), `{"description":"A famous identity"}`)
	w := httptest.NewRecorder()
	UpdateFormula(w, withURLParam(req, "id", record.ID.String()))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	got := decodeFormula(t, w)
	if got.Description != "A famous identity" || got.Title != "Euler's Identity" || got.Content != "x" {
		t.Fatalf("unexpected formula %+v", got)
	}
	if !got.UpdatedAt.After(before) {
		t.Fatalf("expected updated_at to move past %s, got %s", before, got.UpdatedAt)
	}

	var stored models.Formula
	if err := gdb.First(&stored, "id = ?", record.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.Title != record.Title || stored.Content != record.Content {
		t.Fatalf("unrelated fields changed: %+v", stored)
	}
}

func TestUpdateFormulaEmptyPatchReturnsRecord(t *testing.T) {
	gdb := newTestDatabase(t)
	useDependencies(t, nil, gdb, nil)

	stamp := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	record := seedFormula(t, gdb, "Gaussian integral", stamp)

	req := jsonRequest(http.MethodPatch, "/api/formulas/"+record.ID.String(), `{}`)
	w := httptest.NewRecorder()
	UpdateFormula(w, withURLParam(req, "id", record.ID.String()))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if got := decodeFormula(t, w); !got.UpdatedAt.Equal(stamp) {
		t.Fatalf("empty patch bumped updated_at to %s", got.UpdatedAt)
	}
}

func TestUpdateFormulaRejectsEmptyTitle(t *testing.T) {
	gdb := newTestDatabase(t)
	useDependencies(t, nil, gdb, nil)

	record := seedFormula(t, gdb, "Gaussian integral", time.Now())
	req := jsonRequest(http.MethodPatch, "/api/formulas/"+record.ID.String(), `{"title":""}`)
	w := httptest.NewRecorder()
	UpdateFormula(w, withURLParam(req, "id", record.ID.String()))

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", w.Code)
	}
}

func TestDeleteFormula(t *testing.T) {
	gdb := newTestDatabase(t)
	useDependencies(t, nil, gdb, nil)

	record := seedFormula(t, gdb, "Gaussian integral", time.Now())
	for _, want := range []int{http.StatusNoContent, http.StatusNotFound} {
		req := withURLParam(httptest.NewRequest(http.MethodDelete, "/api/formulas/"+record.ID.String(), nil), "id", record.ID.String())
		w := httptest.NewRecorder()
		DeleteFormula(w, req)
		if w.Code != want {
			t.Fatalf("expected status %d, got %d", want, w.Code)
		}
	}
}

func TestFormulaAPIWithoutDatabase(t *testing.T) {
	useDependencies(t, nil, nil, nil)

	w := httptest.NewRecorder()
	ListFormulas(w, httptest.NewRequest(http.MethodGet, "/api/formulas", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", w.Code)
	}
}
