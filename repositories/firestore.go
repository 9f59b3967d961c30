package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"projectboard/model"
)

// FirestoreStore keeps projects in the "projects" collection with tasks and
// members embedded, matching the documents the web client reads.
type FirestoreStore struct {
	client *firestore.Client
}

func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

func (s *FirestoreStore) projects() *firestore.CollectionRef {
	return s.client.Collection(projectsCollection)
}

func decodeProject(snap *firestore.DocumentSnapshot) (*model.Project, error) {
	var p model.Project
	if err := snap.DataTo(&p); err != nil {
		return nil, fmt.Errorf("decode project %s: %w", snap.Ref.ID, err)
	}
	p.ProjectID = snap.Ref.ID
	return &p, nil
}

func (s *FirestoreStore) Get(ctx context.Context, id string) (*model.Project, error) {
	snap, err := s.projects().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return decodeProject(snap)
}

func (s *FirestoreStore) Create(ctx context.Context, p *model.Project) (*model.Project, error) {
	ref := s.projects().NewDoc()
	doc := p.Clone()
	doc.Version = 1
	// Zero timestamps are filled in by the server (serverTimestamp tag).
	doc.CreatedAt, doc.UpdatedAt = time.Time{}, time.Time{}
	if _, err := ref.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return s.Get(ctx, ref.ID)
}

func (s *FirestoreStore) Mutate(ctx context.Context, id string, fn MutateFunc) (*model.Project, error) {
	ref := s.projects().Doc(id)
	var written bool
	var result *model.Project

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return ErrNotFound
			}
			return err
		}
		current, err := decodeProject(snap)
		if err != nil {
			return err
		}
		next, changed, err := apply(current, fn)
		if err != nil {
			return err
		}
		written, result = changed, next
		if !changed {
			return nil
		}
		next.UpdatedAt = time.Time{}
		return tx.Set(ref, next)
	})
	if err != nil {
		return nil, err
	}
	if !written {
		return result, nil
	}
	return s.Get(ctx, id)
}

func (s *FirestoreStore) Delete(ctx context.Context, id string) error {
	ref := s.projects().Doc(id)
	if _, err := ref.Delete(ctx, firestore.Exists); err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// ListByMember matches the stored member string exactly; array-contains has
// no case-insensitive form.
func (s *FirestoreStore) ListByMember(ctx context.Context, email string) ([]model.Project, error) {
	iter := s.projects().Where("members", "array-contains", email).Documents(ctx)
	defer iter.Stop()

	var out []model.Project
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		p, err := decodeProject(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, nil
}

func (s *FirestoreStore) Watch(ctx context.Context, id string) (<-chan ProjectEvent, error) {
	ctx, cancel := context.WithCancel(ctx)
	it := s.projects().Doc(id).Snapshots(ctx)
	ch := make(chan ProjectEvent)

	go func() {
		defer close(ch)
		defer cancel()
		defer it.Stop()
		for {
			snap, err := it.Next()
			if err != nil {
				if ctx.Err() != nil || status.Code(err) == codes.Canceled {
					return
				}
				send(ctx, ch, ProjectEvent{Err: err})
				return
			}
			ev := ProjectEvent{}
			if snap.Exists() {
				ev.Project, ev.Err = decodeProject(snap)
			}
			if !send(ctx, ch, ev) || ev.Err != nil {
				return
			}
		}
	}()
	return ch, nil
}

func (s *FirestoreStore) UpsertUser(ctx context.Context, user model.User) (*model.User, error) {
	ref := s.client.Collection(usersCollection).Doc(user.UserID)
	snap, err := ref.Get(ctx)
	switch {
	case err == nil:
		var existing model.User
		if err := snap.DataTo(&existing); err == nil && !existing.CreatedAt.IsZero() {
			user.CreatedAt = existing.CreatedAt
		}
	case status.Code(err) != codes.NotFound:
		return nil, err
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = user.LastLoginAt
	}
	if _, err := ref.Set(ctx, user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *FirestoreStore) GetUser(ctx context.Context, userID string) (*model.User, error) {
	snap, err := s.client.Collection(usersCollection).Doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var user model.User
	if err := snap.DataTo(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *FirestoreStore) SearchUsers(ctx context.Context, emailPrefix string, limit int) ([]model.User, error) {
	q := s.client.Collection(usersCollection).
		Where("email", ">=", emailPrefix).
		Where("email", "<=", emailPrefix+"\uf8ff")
	if limit > 0 {
		q = q.Limit(limit)
	}
	iter := q.Documents(ctx)
	defer iter.Stop()

	users := []model.User{}
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		var user model.User
		if err := doc.DataTo(&user); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func (s *FirestoreStore) tokens() *firestore.CollectionRef {
	return s.client.Collection(model.TokenRecord{}.TableName())
}

func (s *FirestoreStore) SaveRefreshToken(ctx context.Context, rec model.TokenRecord) error {
	_, err := s.tokens().Doc(rec.UserID).Set(ctx, rec)
	return err
}

func (s *FirestoreStore) GetRefreshToken(ctx context.Context, userID string) (*model.TokenRecord, error) {
	snap, err := s.tokens().Doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var rec model.TokenRecord
	if err := snap.DataTo(&rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *FirestoreStore) RevokeRefreshToken(ctx context.Context, userID string) error {
	_, err := s.tokens().Doc(userID).Update(ctx, []firestore.Update{
		{Path: "revoked", Value: true},
	})
	if status.Code(err) == codes.NotFound {
		return ErrNotFound
	}
	return err
}

func (s *FirestoreStore) Close(context.Context) error {
	return s.client.Close()
}
