package viewstate

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"formulaplace/internal/formula"
	applog "formulaplace/internal/log"
)

// Option customises a controller.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the clock used to stamp optimistic updates.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// DetailView is a read-only copy of a detail page.
type DetailView struct {
	State       State
	Message     string
	ID          uuid.UUID
	Formula     formula.Formula
	Draft       formula.Draft
	FieldErrors map[formula.Field]string
	Dirty       formula.FieldSet
	NotFound    bool
	Confirming  bool
	Navigate    string
}

// HasFormula reports whether a record is available to show.
func (v DetailView) HasFormula() bool { return v.Formula.ID != uuid.Nil }

// DetailPage drives viewing, editing and deleting one formula.
type DetailPage struct {
	machine
	svc  Service
	id   uuid.UUID
	opts options

	loaded      bool
	notFound    bool
	formula     formula.Formula
	original    formula.Draft
	draft       formula.Draft
	fieldErrors map[formula.Field]string
	confirming  bool
	navigate    string
}

// NewDetailPage returns a page in Loading keyed by id.
func NewDetailPage(svc Service, id uuid.UUID, opts ...Option) *DetailPage {
	return &DetailPage{
		svc:         svc,
		id:          id,
		opts:        buildOptions(opts),
		fieldErrors: map[formula.Field]string{},
	}
}

// Load fetches the record and seeds the edit draft from it.
func (p *DetailPage) Load(ctx context.Context) error {
	p.mu.Lock()
	if p.state != Loading {
		p.mu.Unlock()
		return ErrInvalidTransition
	}
	p.mu.Unlock()

	f, err := p.svc.Get(dispatch(ctx), p.id)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != Loading {
		return ErrInvalidTransition
	}
	if err != nil {
		if errors.Is(err, formula.ErrNotFound) {
			p.notFound = true
			p.fail(MessageNotFound)
			return nil
		}
		applog.Error(ctx, "failed to get formula", "id", p.id, "error", err)
		p.fail(MessageGetFailed)
		return nil
	}
	return p.seed(f)
}

// Restore seeds the page from a record fetched earlier, without a request.
func (p *DetailPage) Restore(f formula.Formula) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != Loading {
		return ErrInvalidTransition
	}
	if f.ID != p.id {
		return ErrInvalidTransition
	}
	return p.seed(f)
}

func (p *DetailPage) seed(f formula.Formula) error {
	if err := p.moveTo(Loaded); err != nil {
		return err
	}
	p.loaded = true
	p.formula = f
	p.original = formula.DraftOf(f)
	p.draft = p.original
	return nil
}

// SetField applies one keystroke-level edit to the draft.
func (p *DetailPage) SetField(field formula.Field, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.editable(); err != nil {
		return err
	}
	if !p.draft.Set(field, value) {
		return ErrInvalidTransition
	}
	return nil
}

// SetDraft replaces the whole draft, as a form post does.
func (p *DetailPage) SetDraft(d formula.Draft) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.editable(); err != nil {
		return err
	}
	p.draft = d
	return nil
}

func (p *DetailPage) editable() error {
	if p.state == Submitting {
		return ErrInFlight
	}
	if !p.loaded {
		return ErrInvalidTransition
	}
	return nil
}

// ValidateField checks a single field on blur and records the result.
func (p *DetailPage) ValidateField(field formula.Field) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	msg := formula.ValidateField(field, p.draft.Value(field))
	setFieldError(p.fieldErrors, field, msg)
	return msg
}

// DirtyFields lists the fields whose draft value differs from the loaded one.
func (p *DetailPage) DirtyFields() formula.FieldSet {
	p.mu.Lock()
	defer p.mu.Unlock()
	return formula.DirtyFields(p.original, p.draft)
}

// Submit sends the dirty fields as a partial update. It reports whether a
// request was dispatched. Rejections before dispatch are returned as errors;
// transport failures move the page to Error instead.
func (p *DetailPage) Submit(ctx context.Context) (bool, error) {
	p.mu.Lock()
	if err := p.editable(); err != nil {
		p.mu.Unlock()
		return false, err
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

	dirty := formula.DirtyFields(p.original, p.draft)
	if dirty.Len() == 0 {
		p.mu.Unlock()
		return false, nil
	}
	if err := p.beginSubmit(); err != nil {
		p.mu.Unlock()
		return false, err
	}
	patch := formula.PatchFromDraft(p.draft, dirty)
	submitted := p.draft
	p.mu.Unlock()

	updated, err := p.svc.Update(dispatch(ctx), p.id, patch)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		applog.Error(ctx, "failed to update formula", "id", p.id, "fields", dirty.String(), "error", err)
		if errors.Is(err, formula.ErrNotFound) {
			p.notFound = true
			p.fail(MessageNotFound)
		} else {
			p.fail(MessageUpdateFailed)
		}
		return true, nil
	}

	p.formula.Apply(patch)
	if updated.UpdatedAt.IsZero() {
		p.formula.UpdatedAt = p.opts.now()
	} else {
		p.formula.UpdatedAt = updated.UpdatedAt
	}
	p.original = submitted
	p.message = ""
	return true, p.moveTo(Loaded)
}

// RequestDelete is the first step of the two-step delete.
func (p *DetailPage) RequestDelete() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.editable(); err != nil {
		return err
	}
	p.confirming = true
	return nil
}

// CancelDelete withdraws a pending delete request.
func (p *DetailPage) CancelDelete() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.confirming = false
}

// ConfirmDelete dispatches the delete requested earlier. Without a pending
// request it returns ErrNotConfirmed and sends nothing.
func (p *DetailPage) ConfirmDelete(ctx context.Context) error {
	p.mu.Lock()
	if p.state == Submitting {
		p.mu.Unlock()
		return ErrInFlight
	}
	if !p.confirming {
		p.mu.Unlock()
		return ErrNotConfirmed
	}
	if err := p.beginSubmit(); err != nil {
		p.mu.Unlock()
		return err
	}
	p.confirming = false
	p.mu.Unlock()

	err := p.svc.Delete(dispatch(ctx), p.id)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		applog.Error(ctx, "failed to delete formula", "id", p.id, "error", err)
		p.fail(MessageDeleteFailed)
		return nil
	}
	p.navigate = ListPath
	return p.moveTo(Loaded)
}

// View returns a snapshot of the page.
func (p *DetailPage) View() DetailView {
	p.mu.Lock()
	defer p.mu.Unlock()
	return DetailView{
		State:       p.state,
		Message:     p.message,
		ID:          p.id,
		Formula:     p.formula,
		Draft:       p.draft,
		FieldErrors: copyFieldErrors(p.fieldErrors),
		Dirty:       formula.DirtyFields(p.original, p.draft),
		NotFound:    p.notFound,
		Confirming:  p.confirming,
		Navigate:    p.navigate,
	}
}

func setFieldError(errs map[formula.Field]string, field formula.Field, msg string) {
	if msg == "" {
		delete(errs, field)
		return
	}
	errs[field] = msg
}

func copyFieldErrors(src map[formula.Field]string) map[formula.Field]string {
	dst := make(map[formula.Field]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
