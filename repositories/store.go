// Package repositories is the document-store boundary. Projects are whole
// documents; every change goes through Mutate so backends can apply it
// atomically.
package repositories

import (
	"context"
	"errors"

	"projectboard/model"
)

var (
	ErrNotFound = errors.New("document not found")
	// ErrConflict means a compare-and-swap write kept losing to other writers.
	ErrConflict = errors.New("concurrent update conflict")
	// ErrNoChange may be returned by a Mutate callback to skip the write.
	ErrNoChange = errors.New("no change")
)

// MutateFunc edits a private copy of the stored project in place.
type MutateFunc func(p *model.Project) error

// ProjectEvent is one emission of a live subscription. Project is nil when
// the document does not exist (or was deleted). A non-nil Err is the last
// event before the channel closes.
type ProjectEvent struct {
	Project *model.Project
	Err     error
}

type ProjectStore interface {
	Get(ctx context.Context, id string) (*model.Project, error)
	// Create stores p under a generated id and returns the stored document.
	Create(ctx context.Context, p *model.Project) (*model.Project, error)
	// Mutate reads, applies fn, and writes back atomically. The version is
	// bumped on every write.
	Mutate(ctx context.Context, id string, fn MutateFunc) (*model.Project, error)
	Delete(ctx context.Context, id string) error
	ListByMember(ctx context.Context, email string) ([]model.Project, error)
	// Watch emits the current document and then every change until ctx is
	// cancelled, after which the channel is closed.
	Watch(ctx context.Context, id string) (<-chan ProjectEvent, error)
}

type AccountStore interface {
	// UpsertUser writes the profile, keeping the original CreatedAt.
	UpsertUser(ctx context.Context, user model.User) (*model.User, error)
	GetUser(ctx context.Context, userID string) (*model.User, error)
	SearchUsers(ctx context.Context, emailPrefix string, limit int) ([]model.User, error)
	SaveRefreshToken(ctx context.Context, rec model.TokenRecord) error
	GetRefreshToken(ctx context.Context, userID string) (*model.TokenRecord, error)
	RevokeRefreshToken(ctx context.Context, userID string) error
}

// Store is what a backend driver provides.
type Store interface {
	ProjectStore
	AccountStore
	Close(ctx context.Context) error
}

const (
	projectsCollection = "projects"
	usersCollection    = "Users"
)

// apply runs fn against a copy of current and reports whether a write is due.
func apply(current *model.Project, fn MutateFunc) (*model.Project, bool, error) {
	next := current.Clone()
	if err := fn(next); err != nil {
		if errors.Is(err, ErrNoChange) {
			return current, false, nil
		}
		return nil, false, err
	}
	next.ProjectID = current.ProjectID
	next.CreatedAt = current.CreatedAt
	next.Version = current.Version + 1
	return next, true, nil
}

func send(ctx context.Context, ch chan<- ProjectEvent, ev ProjectEvent) bool {
	select {
	case ch <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
