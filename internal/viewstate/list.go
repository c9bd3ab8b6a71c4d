package viewstate

import (
	"context"

	"formulaplace/internal/formula"
	applog "formulaplace/internal/log"
)

// ListView is a read-only copy of a list page.
type ListView struct {
	State    State
	Message  string
	Filter   string
	Formulas []formula.Formula
}

// ListPage drives the formulas index.
type ListPage struct {
	machine
	svc      Service
	filter   string
	formulas []formula.Formula
	fetching bool
}

// NewListPage returns a page in Loading for the given title filter.
func NewListPage(svc Service, filter string) *ListPage {
	return &ListPage{svc: svc, filter: filter}
}

// Load fetches the list once. Failures land in the Error state; the page
// never retries on its own.
func (p *ListPage) Load(ctx context.Context) error {
	p.mu.Lock()
	if p.state != Loading {
		p.mu.Unlock()
		return ErrInvalidTransition
	}
	if p.fetching {
		p.mu.Unlock()
		return ErrInFlight
	}
	p.fetching = true
	p.mu.Unlock()

	formulas, err := p.svc.List(dispatch(ctx), p.filter)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.fetching = false
	if err != nil {
		applog.Error(ctx, "failed to load formulas", "filter", p.filter, "error", err)
		p.fail(MessageListFailed)
		return nil
	}
	p.formulas = formulas
	if len(formulas) == 0 {
		return p.moveTo(Empty)
	}
	return p.moveTo(Loaded)
}

// View returns a snapshot of the page.
func (p *ListPage) View() ListView {
	p.mu.Lock()
	defer p.mu.Unlock()
	return ListView{
		State:    p.state,
		Message:  p.message,
		Filter:   p.filter,
		Formulas: append([]formula.Formula(nil), p.formulas...),
	}
}
