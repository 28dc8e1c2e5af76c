package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/theirongolddev/riskboard/internal/model"
)

var _ Store = (*Memory)(nil)

// Memory is an in-process Store. Projects are deep-copied on the way in
// and out, so callers never share state with the store.
type Memory struct {
	mu       sync.Mutex
	projects map[string]model.Project
}

// NewMemory returns an empty store, optionally seeded with projects.
func NewMemory(seed ...model.Project) *Memory {
	m := &Memory{projects: make(map[string]model.Project, len(seed))}
	for _, p := range seed {
		m.projects[p.ID] = p.Clone()
	}
	return m
}

// List returns every project ordered by ID.
func (m *Memory) List(ctx context.Context) ([]model.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]model.Project, 0, len(m.projects))
	for _, p := range m.projects {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Get returns one project.
func (m *Memory) Get(ctx context.Context, id string) (model.Project, error) {
	if err := ctx.Err(); err != nil {
		return model.Project{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.projects[id]
	if !ok {
		return model.Project{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return p.Clone(), nil
}

// Append stores a new project.
func (m *Memory) Append(ctx context.Context, p model.Project) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.projects[p.ID]; ok {
		return fmt.Errorf("%s: %w", p.ID, ErrExists)
	}
	p = p.Clone()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}
	m.projects[p.ID] = p
	return nil
}

// Replace rewrites a stored project. See Store.
func (m *Memory) Replace(ctx context.Context, p model.Project) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	old, ok := m.projects[p.ID]
	if !ok {
		return fmt.Errorf("%s: %w", p.ID, ErrNotFound)
	}

	next := p.Clone()
	next.CreatedAt = old.CreatedAt
	next.UpdatedAt = time.Now().UTC()

	stored := make(map[string]struct{}, len(old.Progress))
	for _, e := range old.Progress {
		stored[e.ID] = struct{}{}
	}
	next.Progress = old.Clone().Progress
	for _, e := range p.Progress {
		if _, ok := stored[e.ID]; !ok {
			next.Progress = append(next.Progress, e.Clone())
		}
	}

	m.projects[p.ID] = next
	return nil
}

// Remove deletes a project.
func (m *Memory) Remove(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.projects[id]; !ok {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	delete(m.projects, id)
	return nil
}

// AppendProgress builds and appends an entry while holding the store lock.
func (m *Memory) AppendProgress(ctx context.Context, id string, build BuildFunc) (model.ProgressEntry, error) {
	if err := ctx.Err(); err != nil {
		return model.ProgressEntry{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.projects[id]
	if !ok {
		return model.ProgressEntry{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}

	entry, err := build(p.Clone())
	if err != nil {
		return model.ProgressEntry{}, err
	}
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}

	p = p.Clone()
	p.Progress = append(p.Progress, entry.Clone())
	p.UpdatedAt = time.Now().UTC()
	m.projects[id] = p
	return entry, nil
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }
