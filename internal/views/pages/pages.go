// Package pages renders the formula screens. Markup lives in embedded
// html/template files; every exported function returns a templ component so
// handlers render full pages and HTMX fragments the same way.
package pages

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/a-h/templ"
	"github.com/microcosm-cc/bluemonday"

	"formulaplace/internal/formula"
	"formulaplace/internal/viewstate"
)

//go:embed templates/*.html
var templateFS embed.FS

var (
	policy    = bluemonday.UGCPolicy()
	templates = template.Must(template.New("").Funcs(template.FuncMap{
		"timeAgo":    timeAgo,
		"stamp":      stamp,
		"sanitize":   sanitize,
		"fieldError": fieldErrorOf,
	}).ParseFS(templateFS, "templates/*.html"))
)

type layoutData struct {
	Title string
	Flash string
	Body  template.HTML
}

type detailData struct {
	viewstate.DetailView
	Flash string
}

type fieldErrorData struct {
	Field   formula.Field
	Message string
}

// Layout wraps body in the document shell, which loads HTMX and MathJax.
func Layout(title, flash string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		html, err := templ.ToGoHTML(ctx, body)
		if err != nil {
			return err
		}
		return templates.ExecuteTemplate(w, "layout", layoutData{Title: title, Flash: flash, Body: html})
	})
}

// FormulaList renders the index page.
func FormulaList(view viewstate.ListView, flash string) templ.Component {
	return Layout("Formulas", flash, fragment("list_page", view))
}

// FormulaListPartial renders only the result section, for filter requests.
func FormulaListPartial(view viewstate.ListView) templ.Component {
	return fragment("formula_list", view)
}

// FormulaDetail renders the view/edit page.
func FormulaDetail(view viewstate.DetailView, flash string) templ.Component {
	return Layout(detailTitle(view), flash, FormulaDetailPartial(view, ""))
}

// FormulaDetailPartial renders the detail section alone. flash is shown
// inside the section, for HTMX swaps that replace it.
func FormulaDetailPartial(view viewstate.DetailView, flash string) templ.Component {
	return fragment("detail_page", detailData{DetailView: view, Flash: flash})
}

// FormulaCreate renders the new-formula page.
func FormulaCreate(view viewstate.CreateView) templ.Component {
	return Layout("New formula", "", FormulaCreatePartial(view))
}

// FormulaCreatePartial renders the create section alone.
func FormulaCreatePartial(view viewstate.CreateView) templ.Component {
	return fragment("create_page", view)
}

// DeleteConfirm renders the confirmation step of a delete.
func DeleteConfirm(view viewstate.DetailView) templ.Component {
	return Layout("Delete "+view.Formula.Title, "", DeleteConfirmPartial(view))
}

// DeleteConfirmPartial renders the confirmation section alone.
func DeleteConfirmPartial(view viewstate.DetailView) templ.Component {
	return fragment("delete_confirm", view)
}

// FieldError renders the blur-validation message slot for one field. An
// empty message clears the slot.
func FieldError(field formula.Field, message string) templ.Component {
	return fragment("field_error", fieldErrorData{Field: field, Message: message})
}

// ErrorState renders a standalone page-level error.
func ErrorState(message string) templ.Component {
	return fragment("error_state", message)
}

func fragment(name string, data any) templ.Component {
	t := templates.Lookup(name)
	if t == nil {
		panic(fmt.Sprintf("pages: template %q not defined", name))
	}
	return templ.FromGoHTML(t, data)
}

func detailTitle(view viewstate.DetailView) string {
	if view.HasFormula() {
		return view.Formula.Title
	}
	return "Formula"
}

func fieldErrorOf(name string, errs map[formula.Field]string) fieldErrorData {
	field := formula.Field(name)
	return fieldErrorData{Field: field, Message: errs[field]}
}

func sanitize(s string) template.HTML {
	return template.HTML(policy.Sanitize(s))
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.UTC().Format("2 Jan 2006 15:04 UTC")
}

func timeAgo(t time.Time) string {
	return relativeTo(time.Now(), t)
}

func relativeTo(ref, t time.Time) string {
	d := ref.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
