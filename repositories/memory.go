package repositories

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"projectboard/model"
)

// MemoryStore keeps everything in process. It backs local runs and tests.
type MemoryStore struct {
	mu       sync.Mutex
	projects map[string]*model.Project
	users    map[string]model.User
	tokens   map[string]model.TokenRecord
	watchers map[string]map[*memoryWatcher]struct{}
	now      func() time.Time
}

type memoryWatcher struct {
	ch chan ProjectEvent
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		projects: make(map[string]*model.Project),
		users:    make(map[string]model.User),
		tokens:   make(map[string]model.TokenRecord),
		watchers: make(map[string]map[*memoryWatcher]struct{}),
		now:      time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, id string) (*model.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p.Clone(), nil
}

func (s *MemoryStore) Create(_ context.Context, p *model.Project) (*model.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := p.Clone()
	stored.ProjectID = uuid.New().String()
	now := s.now().UTC()
	stored.CreatedAt, stored.UpdatedAt = now, now
	stored.Version = 1
	s.projects[stored.ProjectID] = stored
	s.publish(stored.ProjectID, stored)
	return stored.Clone(), nil
}

func (s *MemoryStore) Mutate(_ context.Context, id string, fn MutateFunc) (*model.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.projects[id]
	if !ok {
		return nil, ErrNotFound
	}
	next, changed, err := apply(current, fn)
	if err != nil {
		return nil, err
	}
	if !changed {
		return current.Clone(), nil
	}
	next.UpdatedAt = s.now().UTC()
	s.projects[id] = next
	s.publish(id, next)
	return next.Clone(), nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[id]; !ok {
		return ErrNotFound
	}
	delete(s.projects, id)
	s.publish(id, nil)
	return nil
}

func (s *MemoryStore) ListByMember(_ context.Context, email string) ([]model.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Project
	for _, p := range s.projects {
		for _, m := range p.Members {
			if strings.EqualFold(strings.TrimSpace(m), email) {
				out = append(out, *p.Clone())
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) Watch(ctx context.Context, id string) (<-chan ProjectEvent, error) {
	w := &memoryWatcher{ch: make(chan ProjectEvent, 1)}

	s.mu.Lock()
	if s.watchers[id] == nil {
		s.watchers[id] = make(map[*memoryWatcher]struct{})
	}
	s.watchers[id][w] = struct{}{}
	w.offer(ProjectEvent{Project: s.projects[id].Clone()})
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.watchers[id], w)
		if len(s.watchers[id]) == 0 {
			delete(s.watchers, id)
		}
		close(w.ch)
		s.mu.Unlock()
	}()
	return w.ch, nil
}

// Watchers reports how many live subscriptions exist for a project.
func (s *MemoryStore) Watchers(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.watchers[id])
}

// publish must be called with s.mu held.
func (s *MemoryStore) publish(id string, p *model.Project) {
	for w := range s.watchers[id] {
		w.offer(ProjectEvent{Project: p.Clone()})
	}
}

// offer replaces any unread snapshot with ev. Only called with the store
// lock held, so the send after draining never blocks.
func (w *memoryWatcher) offer(ev ProjectEvent) {
	select {
	case w.ch <- ev:
	default:
		select {
		case <-w.ch:
		default:
		}
		w.ch <- ev
	}
}

func (s *MemoryStore) UpsertUser(_ context.Context, user model.User) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.users[user.UserID]; ok && !existing.CreatedAt.IsZero() {
		user.CreatedAt = existing.CreatedAt
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.now().UTC()
	}
	s.users[user.UserID] = user
	return &user, nil
}

func (s *MemoryStore) GetUser(_ context.Context, userID string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (s *MemoryStore) SearchUsers(_ context.Context, emailPrefix string, limit int) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.User{}
	for _, u := range s.users {
		if strings.HasPrefix(u.Email, emailPrefix) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) SaveRefreshToken(_ context.Context, rec model.TokenRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[rec.UserID] = rec
	return nil
}

func (s *MemoryStore) GetRefreshToken(_ context.Context, userID string) (*model.TokenRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.tokens[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

func (s *MemoryStore) RevokeRefreshToken(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.tokens[userID]
	if !ok {
		return ErrNotFound
	}
	rec.Revoked = true
	s.tokens[userID] = rec
	return nil
}

func (s *MemoryStore) Close(context.Context) error { return nil }
