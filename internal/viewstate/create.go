package viewstate

import (
	"context"
	"errors"

	"formulaplace/internal/formula"
	applog "formulaplace/internal/log"
)

// CreateView is a read-only copy of a create page.
type CreateView struct {
	State       State
	Message     string
	Draft       formula.Draft
	FieldErrors map[formula.Field]string
	Created     formula.Formula
	Navigate    string
}

// CreatePage drives the new-formula form.
type CreatePage struct {
	machine
	svc         Service
	draft       formula.Draft
	fieldErrors map[formula.Field]string
	created     formula.Formula
	navigate    string
}

// NewCreatePage returns a page in Loaded with an empty draft.
func NewCreatePage(svc Service) *CreatePage {
	return &CreatePage{
		machine:     machine{state: Loaded},
		svc:         svc,
		fieldErrors: map[formula.Field]string{},
	}
}

// SetField applies one edit to the draft.
func (p *CreatePage) SetField(field formula.Field, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == Submitting {
		return ErrInFlight
	}
	if !p.draft.Set(field, value) {
		return ErrInvalidTransition
	}
	return nil
}

// SetDraft replaces the whole draft.
func (p *CreatePage) SetDraft(d formula.Draft) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == Submitting {
		return ErrInFlight
	}
	p.draft = d
	return nil
}

// ValidateField checks a single field on blur and records the result.
func (p *CreatePage) ValidateField(field formula.Field) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	msg := formula.ValidateField(field, p.draft.Value(field))
	setFieldError(p.fieldErrors, field, msg)
	return msg
}

// Submit creates the formula. The required-fields guard runs before the
// field validator; neither dispatches on failure. It reports whether a
// request was sent.
func (p *CreatePage) Submit(ctx context.Context) (bool, error) {
	p.mu.Lock()
	if p.state == Submitting {
		p.mu.Unlock()
		return false, ErrInFlight
	}
	if p.draft.Title == "" || p.draft.Content == "" {
		p.message = MessageCreateRequired
		p.mu.Unlock()
		return false, ErrIncomplete
	}
	if err := formula.ValidateDraft(p.draft); err != nil {
		var verr *formula.ValidationError
		if errors.As(err, &verr) {
			p.fieldErrors = copyFieldErrors(verr.Fields)
		}
		p.mu.Unlock()
		return false, err
	}
	p.fieldErrors = map[formula.Field]string{}
	if err := p.beginSubmit(); err != nil {
		p.mu.Unlock()
		return false, err
	}
	draft := p.draft
	p.mu.Unlock()

	created, err := p.svc.Create(dispatch(ctx), draft)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		applog.Error(ctx, "failed to create formula", "title", draft.Title, "error", err)
		p.fail(MessageCreateFailed)
		return true, nil
	}
	p.created = created
	p.navigate = ListPath
	return true, p.moveTo(Loaded)
}

// View returns a snapshot of the page.
func (p *CreatePage) View() CreateView {
	p.mu.Lock()
	defer p.mu.Unlock()
	return CreateView{
		State:       p.state,
		Message:     p.message,
		Draft:       p.draft,
		FieldErrors: copyFieldErrors(p.fieldErrors),
		Created:     p.created,
		Navigate:    p.navigate,
	}
}
