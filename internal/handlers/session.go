package handlers

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"formulaplace/internal/formula"
	applog "formulaplace/internal/log"
)

const (
	sessionFlashKey            = "flash"
	sessionSnapshotPrefix      = "formula:snapshot:"
	sessionPendingDeletePrefix = "formula:delete:"
)

func putFlash(ctx context.Context, message string) {
	if sessionManager == nil {
		return
	}
	sessionManager.Put(ctx, sessionFlashKey, message)
}

func popFlash(ctx context.Context) string {
	if sessionManager == nil {
		return ""
	}
	return sessionManager.PopString(ctx, sessionFlashKey)
}

// saveSnapshot remembers the record an edit form was seeded from, so the
// submit can diff against it without another fetch.
func saveSnapshot(ctx context.Context, f formula.Formula) {
	if sessionManager == nil {
		return
	}
	raw, err := json.Marshal(f)
	if err != nil {
		applog.Error(ctx, "failed to encode formula snapshot", "id", f.ID, "error", err)
		return
	}
	sessionManager.Put(ctx, sessionSnapshotPrefix+f.ID.String(), raw)
}

func loadSnapshot(ctx context.Context, id uuid.UUID) (formula.Formula, bool) {
	if sessionManager == nil {
		return formula.Formula{}, false
	}
	raw := sessionManager.GetBytes(ctx, sessionSnapshotPrefix+id.String())
	if len(raw) == 0 {
		return formula.Formula{}, false
	}
	var f formula.Formula
	if err := json.Unmarshal(raw, &f); err != nil || f.ID != id {
		applog.Debug(ctx, "discarding unreadable formula snapshot", "id", id, "error", err)
		sessionManager.Remove(ctx, sessionSnapshotPrefix+id.String())
		return formula.Formula{}, false
	}
	return f, true
}

func dropSnapshot(ctx context.Context, id uuid.UUID) {
	if sessionManager == nil {
		return
	}
	sessionManager.Remove(ctx, sessionSnapshotPrefix+id.String())
	sessionManager.Remove(ctx, sessionPendingDeletePrefix+id.String())
}

func markPendingDelete(ctx context.Context, id uuid.UUID) {
	if sessionManager == nil {
		return
	}
	sessionManager.Put(ctx, sessionPendingDeletePrefix+id.String(), true)
}

func popPendingDelete(ctx context.Context, id uuid.UUID) bool {
	if sessionManager == nil {
		return false
	}
	return sessionManager.PopBool(ctx, sessionPendingDeletePrefix+id.String())
}
