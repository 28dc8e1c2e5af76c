// Package store persists riskboard projects and their progress ledgers.
package store

import (
	"context"
	"errors"

	"github.com/theirongolddev/riskboard/internal/model"
)

var (
	// ErrNotFound is returned when no project has the requested ID.
	ErrNotFound = errors.New("project not found")
	// ErrExists is returned when appending a project whose ID is taken.
	ErrExists = errors.New("project already exists")
)

// BuildFunc derives the next ledger entry from the current project state.
// Returning an error aborts the append.
type BuildFunc func(p model.Project) (model.ProgressEntry, error)

// Store is the project collection used by the CLI, dashboard and daemon.
type Store interface {
	List(ctx context.Context) ([]model.Project, error)
	Get(ctx context.Context, id string) (model.Project, error)
	Append(ctx context.Context, p model.Project) error
	// Replace rewrites a project's fields, targets and budget. Ledger
	// entries are never deleted; entries in p not yet stored are appended.
	Replace(ctx context.Context, p model.Project) error
	Remove(ctx context.Context, id string) error
	// AppendProgress reads the project and appends the entry returned by
	// build as one atomic step.
	AppendProgress(ctx context.Context, id string, build BuildFunc) (model.ProgressEntry, error)
	Close() error
}
