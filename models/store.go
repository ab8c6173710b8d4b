package models

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// ListFilter narrows and pages a project listing. Page is 1-based.
type ListFilter struct {
	Status   string
	Page     int
	PageSize int
}

// normalize clamps page bounds so every store answers malformed paging with
// a well-formed slice instead of erroring or panicking.
func (f ListFilter) normalize() ListFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = 10
	}
	return f
}

// ProjectStore 项目的持久化存储，按 id 检索
//
// Update applies fn to the stored project and persists the result. The store
// guarantees read-modify-write cycles on the same id never interleave; calls
// on different ids proceed in parallel. Projects returned by Get/List/Update
// are copies the caller may freely inspect without racing the store.
type ProjectStore interface {
	Create(ctx context.Context, p *Project) (string, error)
	Get(ctx context.Context, id string) (*Project, error)
	List(ctx context.Context, f ListFilter) ([]*Project, int64, error)
	Update(ctx context.Context, id string, fn func(*Project) error) (*Project, error)
	Delete(ctx context.Context, id string) error
}

// NewProjectID 生成项目ID，形如 proj_a1b2c3d4e5f6
func NewProjectID() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "proj_" + hex[:12]
}

// lockTable hands out one mutex per project id so updates on the same
// project serialize while different projects stay fully parallel. Entries
// are reference counted and removed once idle.
type lockTable struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[string]*lockEntry)}
}

// lock acquires the per-id mutex and returns its release func.
func (t *lockTable) lock(id string) func() {
	t.mu.Lock()
	e, ok := t.locks[id]
	if !ok {
		e = &lockEntry{}
		t.locks[id] = e
	}
	e.refs++
	t.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		t.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(t.locks, id)
		}
		t.mu.Unlock()
	}
}
