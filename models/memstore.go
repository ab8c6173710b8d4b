package models

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemStore 内存实现，用于测试与无数据库的开发模式
type MemStore struct {
	mu       sync.RWMutex
	projects map[string]*Project
	locks    *lockTable
}

func NewMemStore() *MemStore {
	return &MemStore{
		projects: make(map[string]*Project),
		locks:    newLockTable(),
	}
}

func (s *MemStore) Create(ctx context.Context, p *Project) (string, error) {
	now := time.Now()
	p.ID = NewProjectID()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Shots == nil {
		p.Shots = ShotList{}
	}

	s.mu.Lock()
	s.projects[p.ID] = p.Clone()
	s.mu.Unlock()
	return p.ID, nil
}

func (s *MemStore) Get(ctx context.Context, id string) (*Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	if !ok {
		return nil, ErrProjectNotFound
	}
	return p.Clone(), nil
}

func (s *MemStore) List(ctx context.Context, f ListFilter) ([]*Project, int64, error) {
	f = f.normalize()
	s.mu.RLock()
	var matched []*Project
	for _, p := range s.projects {
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		matched = append(matched, p)
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	start := (f.Page - 1) * f.PageSize
	if start >= len(matched) {
		return []*Project{}, total, nil
	}
	end := start + f.PageSize
	if end > len(matched) {
		end = len(matched)
	}

	page := make([]*Project, 0, end-start)
	for _, p := range matched[start:end] {
		page = append(page, p.Clone())
	}
	return page, total, nil
}

func (s *MemStore) Update(ctx context.Context, id string, fn func(*Project) error) (*Project, error) {
	unlock := s.locks.lock(id)
	defer unlock()

	s.mu.RLock()
	stored, ok := s.projects[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrProjectNotFound
	}

	// Mutate a copy so a failing fn leaves the stored document untouched.
	p := stored.Clone()
	if err := fn(p); err != nil {
		return nil, err
	}
	p.UpdatedAt = time.Now()

	s.mu.Lock()
	s.projects[id] = p
	s.mu.Unlock()
	return p.Clone(), nil
}

func (s *MemStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[id]; !ok {
		return ErrProjectNotFound
	}
	delete(s.projects, id)
	return nil
}
