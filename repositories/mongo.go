package repositories

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"projectboard/model"
)

// maxCASAttempts bounds the optimistic retry loop in MongoStore.Mutate.
const maxCASAttempts = 5

// MongoStore is the self-hosted alternative to Firestore. Mutations are
// compare-and-swap on the version field; Watch needs a replica set because
// it is built on change streams.
type MongoStore struct {
	client   *mongo.Client
	projects *mongo.Collection
	users    *mongo.Collection
	tokens   *mongo.Collection
	now      func() time.Time
}

func NewMongoStore(client *mongo.Client, dbName string) *MongoStore {
	db := client.Database(dbName)
	return &MongoStore{
		client:   client,
		projects: db.Collection(projectsCollection),
		users:    db.Collection("users"),
		tokens:   db.Collection("refresh_tokens"),
		now:      time.Now,
	}
}

// EnsureIndexes creates the member and email indexes used by list and search.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	if _, err := s.projects.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "members", Value: 1}}}); err != nil {
		return fmt.Errorf("failed to create members index: %w", err)
	}
	if _, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "email", Value: 1}}}); err != nil {
		return fmt.Errorf("failed to create email index: %w", err)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (*model.Project, error) {
	var p model.Project
	err := s.projects.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *MongoStore) Create(ctx context.Context, p *model.Project) (*model.Project, error) {
	doc := p.Clone()
	doc.ProjectID = primitive.NewObjectID().Hex()
	now := s.now().UTC()
	doc.CreatedAt, doc.UpdatedAt = now, now
	doc.Version = 1
	if _, err := s.projects.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return doc, nil
}

func (s *MongoStore) Mutate(ctx context.Context, id string, fn MutateFunc) (*model.Project, error) {
	return casMutate(ctx, mongoDocs{s}, id, fn, s.now)
}

// versionedDocs is the read and conditional-replace pair the CAS loop needs.
type versionedDocs interface {
	load(ctx context.Context, id string) (*model.Project, error)
	// replaceIfVersion writes next only while the stored version is still
	// version and reports whether it did.
	replaceIfVersion(ctx context.Context, next *model.Project, version int64) (bool, error)
}

type mongoDocs struct{ s *MongoStore }

func (d mongoDocs) load(ctx context.Context, id string) (*model.Project, error) {
	return d.s.Get(ctx, id)
}

func (d mongoDocs) replaceIfVersion(ctx context.Context, next *model.Project, version int64) (bool, error) {
	res, err := d.s.projects.ReplaceOne(ctx, bson.M{"_id": next.ProjectID, "version": version}, next)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

func casMutate(ctx context.Context, docs versionedDocs, id string, fn MutateFunc, now func() time.Time) (*model.Project, error) {
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		current, err := docs.load(ctx, id)
		if err != nil {
			return nil, err
		}
		next, changed, err := apply(current, fn)
		if err != nil {
			return nil, err
		}
		if !changed {
			return current, nil
		}
		next.UpdatedAt = now().UTC()

		ok, err := docs.replaceIfVersion(ctx, next, current.Version)
		if err != nil {
			return nil, err
		}
		if ok {
			return next, nil
		}
	}
	return nil, ErrConflict
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	res, err := s.projects.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) ListByMember(ctx context.Context, email string) ([]model.Project, error) {
	// Members written by older clients may carry mixed case.
	filter := bson.M{"members": bson.M{"$regex": "^" + regexp.QuoteMeta(email) + "$", "$options": "i"}}
	cursor, err := s.projects.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer cursor.Close(ctx)

	var out []model.Project
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode projects: %w", err)
	}
	return out, nil
}

type changeEvent struct {
	OperationType string         `bson:"operationType"`
	FullDocument  *model.Project `bson:"fullDocument"`
}

// projectEvent maps a change to what subscribers see. emit is false for
// operations that do not affect the document; terminal ends the stream.
func (ev changeEvent) projectEvent() (out ProjectEvent, emit, terminal bool) {
	switch ev.OperationType {
	case "insert", "update", "replace":
		if ev.FullDocument == nil {
			// The document was deleted before the lookup ran.
			return ProjectEvent{}, true, false
		}
		return ProjectEvent{Project: ev.FullDocument}, true, false
	case "delete":
		return ProjectEvent{}, true, false
	case "invalidate", "drop", "dropDatabase", "rename":
		return ProjectEvent{}, true, true
	default:
		return ProjectEvent{}, false, false
	}
}

func (s *MongoStore) Watch(ctx context.Context, id string) (<-chan ProjectEvent, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "documentKey._id", Value: id}}}},
	}
	// Open the stream before the initial read so no change slips between them.
	stream, err := s.projects.Watch(ctx, pipeline, options.ChangeStream().SetFullDocument(options.UpdateLookup))
	if err != nil {
		return nil, fmt.Errorf("failed to open change stream: %w", err)
	}

	initial, err := s.Get(ctx, id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		stream.Close(context.Background())
		return nil, err
	}

	ch := make(chan ProjectEvent)
	go func() {
		defer close(ch)
		defer stream.Close(context.Background())

		if !send(ctx, ch, ProjectEvent{Project: initial}) {
			return
		}
		for stream.Next(ctx) {
			var ev changeEvent
			if err := stream.Decode(&ev); err != nil {
				send(ctx, ch, ProjectEvent{Err: err})
				return
			}
			out, emit, terminal := ev.projectEvent()
			if emit && !send(ctx, ch, out) {
				return
			}
			if terminal {
				return
			}
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			send(ctx, ch, ProjectEvent{Err: err})
		}
	}()
	return ch, nil
}

func (s *MongoStore) UpsertUser(ctx context.Context, user model.User) (*model.User, error) {
	createdAt := user.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now().UTC()
	}
	update := bson.M{
		"$set": bson.M{
			"name":        user.Name,
			"email":       user.Email,
			"avatar":      user.Avatar,
			"lastLoginAt": user.LastLoginAt,
		},
		"$setOnInsert": bson.M{"createdAt": createdAt},
	}
	if _, err := s.users.UpdateOne(ctx, bson.M{"_id": user.UserID}, update, options.Update().SetUpsert(true)); err != nil {
		return nil, err
	}
	return s.GetUser(ctx, user.UserID)
}

func (s *MongoStore) GetUser(ctx context.Context, userID string) (*model.User, error) {
	var user model.User
	if err := s.users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *MongoStore) SearchUsers(ctx context.Context, emailPrefix string, limit int) ([]model.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "email", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	filter := bson.M{"email": bson.M{"$regex": "^" + regexp.QuoteMeta(emailPrefix)}}
	cursor, err := s.users.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	users := []model.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *MongoStore) SaveRefreshToken(ctx context.Context, rec model.TokenRecord) error {
	_, err := s.tokens.ReplaceOne(ctx, bson.M{"_id": rec.UserID}, rec, options.Replace().SetUpsert(true))
	return err
}

func (s *MongoStore) GetRefreshToken(ctx context.Context, userID string) (*model.TokenRecord, error) {
	var rec model.TokenRecord
	if err := s.tokens.FindOne(ctx, bson.M{"_id": userID}).Decode(&rec); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

func (s *MongoStore) RevokeRefreshToken(ctx context.Context, userID string) error {
	res, err := s.tokens.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$set": bson.M{"revoked": true}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
