package viewstate

import (
	"context"

	"github.com/google/uuid"

	"formulaplace/internal/formula"
)

// Service is the transport the controllers dispatch to. *client.Client
// satisfies it.
type Service interface {
	List(ctx context.Context, title string) ([]formula.Formula, error)
	Get(ctx context.Context, id uuid.UUID) (formula.Formula, error)
	Create(ctx context.Context, draft formula.Draft) (formula.Formula, error)
	Update(ctx context.Context, id uuid.UUID, patch formula.Patch) (formula.Formula, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Page-level messages shown in place of raw errors.
const (
	MessageListFailed     = "Failed to load the list of formulas."
	MessageNotFound       = "Formula not found."
	MessageGetFailed      = "Failed to get formula."
	MessageUpdateFailed   = "Failed to update formula."
	MessageCreateFailed   = "Failed to create formula."
	MessageDeleteFailed   = "Failed to delete formula."
	MessageCreateRequired = "Title and content are required."
)

// ListPath is where pages navigate after a successful create or delete.
const ListPath = "/formulas"

// dispatch detaches ctx from cancellation. A dispatched call runs to
// completion or until the transport timeout.
func dispatch(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}
