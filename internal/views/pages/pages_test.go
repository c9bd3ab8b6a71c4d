package pages

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/google/uuid"

	"formulaplace/internal/formula"
	"formulaplace/internal/viewstate"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(context.Background(), &buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	return buf.String()
}

func assertContains(t *testing.T, out string, tokens ...string) {
	t.Helper()
	for _, token := range tokens {
		if !strings.Contains(out, token) {
			t.Fatalf("expected output to contain %q:\n%s", token, out)
		}
	}
}

var sample = formula.Formula{
	ID:          uuid.MustParse("0190c0de-0000-7000-8000-000000000001"),
	Title:       "Euler's Identity",
	Description: `A <b>famous</b> identity<script>alert(1)</script>`,
	Content:     `e^{i\pi}+1=0`,
	CreatedAt:   time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC),
	UpdatedAt:   time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC),
}

func TestFormulaListStates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		view viewstate.ListView
		want []string
	}{
		{"empty", viewstate.ListView{State: viewstate.Empty}, []string{"No formulas yet", `href="/formulas/new"`}},
		{"no matches", viewstate.ListView{State: viewstate.Empty, Filter: "zeta"}, []string{"No formulas match “zeta”."}},
		{"error", viewstate.ListView{State: viewstate.Error, Message: viewstate.MessageListFailed}, []string{`role="alert"`, viewstate.MessageListFailed}},
		{"loaded", viewstate.ListView{State: viewstate.Loaded, Formulas: []formula.Formula{sample}}, []string{"Euler&#39;s Identity", "/formulas/" + sample.ID.String(), `$$e^{i\pi}&#43;1=0$$`}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assertContains(t, render(t, FormulaListPartial(tt.view)), tt.want...)
		})
	}
}

func TestFormulaListFullPageIncludesShell(t *testing.T) {
	t.Parallel()

	out := render(t, FormulaList(viewstate.ListView{State: viewstate.Empty, Filter: "euler"}, "Formula created."))
	assertContains(t, out, "<!doctype html>", "mathjax", "htmx.org", `value="euler"`, "Formula created.", `id="formula-list"`, "Loading…")
}

func TestDescriptionIsSanitised(t *testing.T) {
	t.Parallel()

	out := render(t, FormulaListPartial(viewstate.ListView{State: viewstate.Loaded, Formulas: []formula.Formula{sample}}))
	if strings.Contains(out, "<script>") {
		t.Fatalf("script tag survived sanitising: %s", out)
	}
	assertContains(t, out, "<b>famous</b>")
}

func TestFormulaDetailRendersFormAndStamps(t *testing.T) {
	t.Parallel()

	view := viewstate.DetailView{
		State:       viewstate.Loaded,
		ID:          sample.ID,
		Formula:     sample,
		Draft:       formula.DraftOf(sample),
		FieldErrors: map[formula.Field]string{formula.FieldTitle: "Title is required"},
	}
	out := render(t, FormulaDetail(view, ""))
	assertContains(t, out,
		`action="/formulas/`+sample.ID.String()+`"`,
		`hx-disabled-elt=`,
		"Created 14 Mar 2025 09:00 UTC",
		"Updated 14 Mar 2025 10:30 UTC",
		`id="title-error"`,
		"Title is required",
		`class="preview math"`,
		"/formulas/"+sample.ID.String()+"/delete",
		`name="original_title" value="Euler&#39;s Identity"`,
		`name="original_content" value="e^{i\pi}&#43;1=0"`,
	)
}

func TestFormulaDetailNotFound(t *testing.T) {
	t.Parallel()

	out := render(t, FormulaDetailPartial(viewstate.DetailView{State: viewstate.Error, Message: viewstate.MessageNotFound, NotFound: true}, ""))
	assertContains(t, out, viewstate.MessageNotFound, "Back to formulas")
	if strings.Contains(out, "<form") {
		t.Fatalf("not-found page must not render the edit form: %s", out)
	}
}

func TestFormulaCreateRetainsValues(t *testing.T) {
	t.Parallel()

	view := viewstate.CreateView{
		State:   viewstate.Error,
		Message: viewstate.MessageCreateFailed,
		Draft:   formula.Draft{Title: "Gaussian", Content: `\int e^{-x^2}`},
	}
	out := render(t, FormulaCreate(view))
	assertContains(t, out, viewstate.MessageCreateFailed, `value="Gaussian"`, `\int e^{-x^2}`, `action="/formulas"`)
}

func TestDeleteConfirm(t *testing.T) {
	t.Parallel()

	out := render(t, DeleteConfirm(viewstate.DetailView{State: viewstate.Loaded, ID: sample.ID, Formula: sample, Confirming: true}))
	assertContains(t, out, "Delete “Euler&#39;s Identity”?", `action="/formulas/`+sample.ID.String()+`/delete"`, "Cancel")
}

func TestFieldErrorClearsWhenEmpty(t *testing.T) {
	t.Parallel()

	out := render(t, FieldError(formula.FieldContent, ""))
	assertContains(t, out, `id="content-error"`)
	if strings.Contains(out, "role=") {
		t.Fatalf("empty field error should not announce an alert: %s", out)
	}
}

func TestTimeAgo(t *testing.T) {
	t.Parallel()

	ref := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return ref }

	tests := []struct {
		at   time.Time
		want string
	}{
		{ref.Add(-10 * time.Second), "just now"},
		{ref.Add(-5 * time.Minute), "5m ago"},
		{ref.Add(-3 * time.Hour), "3h ago"},
		{ref.Add(-50 * time.Hour), "2d ago"},
	}
	for _, tt := range tests {
		if got := relativeTo(clock(), tt.at); got != tt.want {
			t.Fatalf("relativeTo(%s) = %q, want %q", tt.at, got, tt.want)
		}
	}
}
