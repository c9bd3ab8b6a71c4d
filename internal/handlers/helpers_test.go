package handlers

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"formulaplace/internal/db"
	"formulaplace/internal/formula"
	"formulaplace/internal/viewstate"
)

// useDependencies swaps the package-level handler dependencies for the
// duration of a test. Tests calling it must not run in parallel.
func useDependencies(t *testing.T, sm *scs.SessionManager, gdb *gorm.DB, svc viewstate.Service) {
	t.Helper()
	origSM, origDB, origSvc := sessionManager, database, service
	Configure(sm, gdb, svc)
	t.Cleanup(func() {
		Configure(origSM, origDB, origSvc)
	})
}

func newTestDatabase(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:handlers-%s?mode=memory&cache=shared", uuid.NewString())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite database: %v", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return gdb
}

// sessionContext returns a context carrying a fresh scs session. Reusing it
// across requests simulates one browser.
func sessionContext(t *testing.T, sm *scs.SessionManager) context.Context {
	t.Helper()
	ctx, err := sm.Load(context.Background(), "")
	if err != nil {
		t.Fatalf("failed to load session context: %v", err)
	}
	return ctx
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

type fakeService struct {
	mu sync.Mutex

	formulas  map[uuid.UUID]formula.Formula
	listErr   error
	deleteErr error

	calls   []string
	patches []formula.Patch
}

func newFakeService(seed ...formula.Formula) *fakeService {
	f := &fakeService{formulas: map[uuid.UUID]formula.Formula{}}
	for _, item := range seed {
		f.formulas[item.ID] = item
	}
	return f
}

func (f *fakeService) track(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakeService) count(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeService) List(ctx context.Context, title string) ([]formula.Formula, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.track("list")
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]formula.Formula, 0, len(f.formulas))
	for _, item := range f.formulas {
		out = append(out, item)
	}
	return out, nil
}

func (f *fakeService) Get(ctx context.Context, id uuid.UUID) (formula.Formula, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.track("get")
	item, ok := f.formulas[id]
	if !ok {
		return formula.Formula{}, &formula.NotFoundError{ID: id}
	}
	return item, nil
}

func (f *fakeService) Create(ctx context.Context, d formula.Draft) (formula.Formula, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.track("create")
	item := formula.Formula{ID: uuid.Must(uuid.NewV7()), Title: d.Title, Description: d.Description, Content: d.Content}
	f.formulas[item.ID] = item
	return item, nil
}

func (f *fakeService) Update(ctx context.Context, id uuid.UUID, p formula.Patch) (formula.Formula, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.track("update")
	f.patches = append(f.patches, p)
	item, ok := f.formulas[id]
	if !ok {
		return formula.Formula{}, &formula.NotFoundError{ID: id}
	}
	item.Apply(p)
	f.formulas[id] = item
	return item, nil
}

func (f *fakeService) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.track("delete")
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.formulas[id]; !ok {
		return &formula.NotFoundError{ID: id}
	}
	delete(f.formulas, id)
	return nil
}
