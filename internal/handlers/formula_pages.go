package handlers

import (
	"errors"
	"net/http"
	"strings"

	"formulaplace/internal/formula"
	applog "formulaplace/internal/log"
	"formulaplace/internal/viewstate"
	"formulaplace/internal/views/pages"
)

const (
	flashCreated   = "Formula created."
	flashUpdated   = "Formula updated."
	flashUnchanged = "No changes to save."
	flashDeleted   = "Formula deleted."
)

// FormulaIndex renders the list page. HTMX filter requests get only the
// result section.
func FormulaIndex(w http.ResponseWriter, r *http.Request) {
	if !requireService(w, r) {
		return
	}
	page := viewstate.NewListPage(service, r.URL.Query().Get("title"))
	if err := page.Load(r.Context()); err != nil {
		applog.Error(r.Context(), "list page load rejected", "error", err)
	}
	view := page.View()

	status := http.StatusOK
	if view.State == viewstate.Error {
		status = http.StatusBadGateway
	}
	if isHTMX(r) {
		renderComponent(w, r, status, pages.FormulaListPartial(view))
		return
	}
	renderComponent(w, r, status, pages.FormulaList(view, popFlash(r.Context())))
}

// FormulaNew renders an empty create form.
func FormulaNew(w http.ResponseWriter, r *http.Request) {
	view := viewstate.NewCreatePage(service).View()
	renderCreate(w, r, http.StatusOK, view)
}

// FormulaCreate handles the create form submission.
func FormulaCreate(w http.ResponseWriter, r *http.Request) {
	if !requireService(w, r) {
		return
	}
	ctx := r.Context()

	page := viewstate.NewCreatePage(service)
	if err := page.SetDraft(draftFromForm(r)); err != nil {
		applog.Error(ctx, "create draft rejected", "error", err)
	}
	_, err := page.Submit(ctx)
	view := page.View()

	switch {
	case view.Navigate != "":
		putFlash(ctx, flashCreated)
		redirect(w, r, view.Navigate)
	case err != nil:
		renderCreate(w, r, http.StatusUnprocessableEntity, view)
	default:
		renderCreate(w, r, http.StatusBadGateway, view)
	}
}

// FormulaValidateField answers blur validation with the field's error slot.
func FormulaValidateField(w http.ResponseWriter, r *http.Request) {
	field, ok := formula.ParseField(r.FormValue("field"))
	if !ok {
		http.Error(w, "unknown field", http.StatusBadRequest)
		return
	}
	page := viewstate.NewCreatePage(service)
	if err := page.SetField(field, r.FormValue(string(field))); err != nil {
		http.Error(w, "unknown field", http.StatusBadRequest)
		return
	}
	renderComponent(w, r, http.StatusOK, pages.FieldError(field, page.ValidateField(field)))
}

// FormulaShow renders the detail and edit page.
func FormulaShow(w http.ResponseWriter, r *http.Request) {
	if !requireService(w, r) {
		return
	}
	ctx := r.Context()

	page, ok := detailPage(r)
	if !ok {
		renderDetail(w, r, notFoundView, "")
		return
	}
	if err := page.Load(ctx); err != nil {
		applog.Error(ctx, "detail page load rejected", "error", err)
	}
	view := page.View()
	if view.HasFormula() {
		saveSnapshot(ctx, view.Formula)
	}
	renderDetail(w, r, view, popFlash(ctx))
}

// FormulaUpdate handles the edit form submission. Only fields that differ
// from the snapshot taken when the form was rendered are sent.
func FormulaUpdate(w http.ResponseWriter, r *http.Request) {
	if !requireService(w, r) {
		return
	}
	ctx := r.Context()

	page, ok := seededDetailPage(r)
	if !ok {
		renderDetail(w, r, viewOf(page), "")
		return
	}

	if err := page.SetDraft(draftFromForm(r)); err != nil {
		applog.Error(ctx, "edit draft rejected", "error", err)
	}
	dispatched, err := page.Submit(ctx)
	view := page.View()

	var verr *formula.ValidationError
	switch {
	case errors.As(err, &verr):
		renderComponentForDetail(w, r, http.StatusUnprocessableEntity, view, "")
	case err != nil:
		applog.Error(ctx, "edit submission rejected", "error", err)
		renderComponentForDetail(w, r, http.StatusConflict, view, "")
	case !dispatched:
		renderDetail(w, r, view, flashUnchanged)
	case view.State == viewstate.Error:
		renderDetail(w, r, view, "")
	default:
		saveSnapshot(ctx, view.Formula)
		renderDetail(w, r, view, flashUpdated)
	}
}

// FormulaDeleteConfirm is the first step of a delete. It records the pending
// request in the session and asks for confirmation.
func FormulaDeleteConfirm(w http.ResponseWriter, r *http.Request) {
	if !requireService(w, r) {
		return
	}
	ctx := r.Context()

	page, ok := seededDetailPage(r)
	if !ok {
		renderDetail(w, r, viewOf(page), "")
		return
	}
	if err := page.RequestDelete(); err != nil {
		applog.Error(ctx, "delete request rejected", "error", err)
		renderDetail(w, r, page.View(), "")
		return
	}
	markPendingDelete(ctx, page.View().ID)

	view := page.View()
	if isHTMX(r) {
		renderComponent(w, r, http.StatusOK, pages.DeleteConfirmPartial(view))
		return
	}
	renderComponent(w, r, http.StatusOK, pages.DeleteConfirm(view))
}

// FormulaDelete is the confirming step. Without a pending request from
// FormulaDeleteConfirm nothing is sent and the user is asked again.
func FormulaDelete(w http.ResponseWriter, r *http.Request) {
	if !requireService(w, r) {
		return
	}
	ctx := r.Context()

	page, ok := seededDetailPage(r)
	if !ok {
		renderDetail(w, r, viewOf(page), "")
		return
	}
	id := page.View().ID
	if popPendingDelete(ctx, id) {
		if err := page.RequestDelete(); err != nil {
			applog.Error(ctx, "delete request rejected", "error", err)
		}
	}

	err := page.ConfirmDelete(ctx)
	if errors.Is(err, viewstate.ErrNotConfirmed) {
		applog.Debug(ctx, "delete without confirmation", "id", id)
		redirect(w, r, "/formulas/"+id.String()+"/delete")
		return
	}
	if err != nil {
		applog.Error(ctx, "delete rejected", "id", id, "error", err)
	}

	view := page.View()
	if view.Navigate == "" {
		renderDetail(w, r, view, "")
		return
	}
	dropSnapshot(ctx, id)
	putFlash(ctx, flashDeleted)
	redirect(w, r, view.Navigate)
}

func requireService(w http.ResponseWriter, r *http.Request) bool {
	if service != nil {
		return true
	}
	applog.Debug(r.Context(), "formula page requested without service")
	http.Error(w, "service unavailable", http.StatusServiceUnavailable)
	return false
}

var notFoundView = viewstate.DetailView{
	State:    viewstate.Error,
	Message:  viewstate.MessageNotFound,
	NotFound: true,
}

// detailPage builds a controller for the {id} route parameter. It reports
// false for a malformed id, which can never name a record.
func detailPage(r *http.Request) (*viewstate.DetailPage, bool) {
	id, ok := parseFormulaID(r)
	if !ok {
		return nil, false
	}
	return viewstate.NewDetailPage(service, id), true
}

// seededDetailPage builds a controller for a form submission. The record
// comes from the session snapshot, falling back to a fetch. When the form
// carries original_* fields they replace the editable values, so every
// rendered form diffs against what it showed rather than against whichever
// render came last. It reports false when no record is available.
func seededDetailPage(r *http.Request) (*viewstate.DetailPage, bool) {
	ctx := r.Context()
	id, ok := parseFormulaID(r)
	if !ok {
		return nil, false
	}

	record, found := loadSnapshot(ctx, id)
	if !found {
		loader := viewstate.NewDetailPage(service, id)
		if err := loader.Load(ctx); err != nil {
			applog.Error(ctx, "detail page load rejected", "error", err)
		}
		view := loader.View()
		if !view.HasFormula() {
			return loader, false
		}
		record = view.Formula
		saveSnapshot(ctx, record)
	}
	if baseline, ok := baselineFromForm(r); ok {
		record.Title = baseline.Title
		record.Description = baseline.Description
		record.Content = baseline.Content
	}

	page := viewstate.NewDetailPage(service, id)
	if err := page.Restore(record); err != nil {
		applog.Error(ctx, "detail page restore rejected", "id", id, "error", err)
		return nil, false
	}
	return page, true
}

func viewOf(page *viewstate.DetailPage) viewstate.DetailView {
	if page == nil {
		return notFoundView
	}
	return page.View()
}

func renderDetail(w http.ResponseWriter, r *http.Request, view viewstate.DetailView, flash string) {
	status := http.StatusOK
	switch {
	case view.NotFound:
		status = http.StatusNotFound
	case view.State == viewstate.Error:
		status = http.StatusBadGateway
	}
	renderComponentForDetail(w, r, status, view, flash)
}

func renderComponentForDetail(w http.ResponseWriter, r *http.Request, status int, view viewstate.DetailView, flash string) {
	if isHTMX(r) {
		renderComponent(w, r, status, pages.FormulaDetailPartial(view, flash))
		return
	}
	renderComponent(w, r, status, pages.FormulaDetail(view, flash))
}

func renderCreate(w http.ResponseWriter, r *http.Request, status int, view viewstate.CreateView) {
	if isHTMX(r) {
		renderComponent(w, r, status, pages.FormulaCreatePartial(view))
		return
	}
	renderComponent(w, r, status, pages.FormulaCreate(view))
}

func draftFromForm(r *http.Request) formula.Draft {
	return formula.Draft{
		Title:       formValue(r, "title"),
		Description: formValue(r, "description"),
		Content:     formValue(r, "content"),
	}
}

// baselineFromForm reads the values the edit form was rendered with. It
// reports false when the form does not carry them.
func baselineFromForm(r *http.Request) (formula.Draft, bool) {
	if err := r.ParseForm(); err != nil {
		return formula.Draft{}, false
	}
	if _, ok := r.PostForm["original_title"]; !ok {
		return formula.Draft{}, false
	}
	return formula.Draft{
		Title:       formValue(r, "original_title"),
		Description: formValue(r, "original_description"),
		Content:     formValue(r, "original_content"),
	}, true
}

// formValue reads a posted field with browser CRLF line endings folded to LF,
// so textarea values compare equal to stored text.
func formValue(r *http.Request, key string) string {
	return strings.ReplaceAll(r.PostFormValue(key), "\r\n", "\n")
}
