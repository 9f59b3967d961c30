package repositories

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/eapache/go-resiliency/retrier"
	"github.com/sony/gobreaker/v2"
	"go.mongodb.org/mongo-driver/mongo"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"projectboard/logging"
	"projectboard/model"
)

// IsTransient reports whether err looks like a passing backend failure that
// is worth retrying. Missing documents, conflicts and caller errors are not.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) || errors.Is(err, ErrNoChange) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	switch status.Code(err) {
	case codes.Unavailable, codes.Aborted, codes.ResourceExhausted, codes.Internal:
		return true
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

type transientClassifier struct{}

func (transientClassifier) Classify(err error) retrier.Action {
	switch {
	case err == nil:
		return retrier.Succeed
	case IsTransient(err):
		return retrier.Retry
	default:
		return retrier.Fail
	}
}

type ResilienceSettings struct {
	Name        string
	Retries     int
	Backoff     time.Duration
	OpenTimeout time.Duration
	MaxFailures uint32
}

func DefaultResilienceSettings() ResilienceSettings {
	return ResilienceSettings{
		Name:        "DocumentStoreCB",
		Retries:     3,
		Backoff:     100 * time.Millisecond,
		OpenTimeout: 5 * time.Second,
		MaxFailures: 3,
	}
}

// Resilient wraps a Store with a circuit breaker around every unary call and
// retries the calls that are safe to repeat. Watch is passed through untouched.
type Resilient struct {
	next  Store
	cb    *gobreaker.CircuitBreaker[any]
	retry *retrier.Retrier
}

func NewResilient(next Store, settings ResilienceSettings) *Resilient {
	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: 1,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > settings.MaxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !IsTransient(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Logger.Warnf("Event ID: CIRCUIT_BREAKER_STATE_CHANGE, Description: Circuit Breaker '%s' changed from '%s' to '%s'", name, from.String(), to.String())
		},
	})
	return &Resilient{
		next:  next,
		cb:    cb,
		retry: retrier.New(retrier.ConstantBackoff(settings.Retries, settings.Backoff), transientClassifier{}),
	}
}

func call[T any](ctx context.Context, r *Resilient, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	_, err := r.cb.Execute(func() (any, error) {
		return nil, r.retry.RunCtx(ctx, func(ctx context.Context) error {
			var err error
			out, err = fn(ctx)
			return err
		})
	})
	return out, err
}

func exec(ctx context.Context, r *Resilient, fn func(ctx context.Context) error) error {
	_, err := call(ctx, r, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

func (r *Resilient) Get(ctx context.Context, id string) (*model.Project, error) {
	return call(ctx, r, func(ctx context.Context) (*model.Project, error) {
		return r.next.Get(ctx, id)
	})
}

// Create is not retried: a lost acknowledgement would duplicate the project.
func (r *Resilient) Create(ctx context.Context, p *model.Project) (*model.Project, error) {
	out, err := r.cb.Execute(func() (any, error) {
		return r.next.Create(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	return out.(*model.Project), nil
}

// Mutate is not retried either: a write whose acknowledgement was lost
// would run fn a second time against the already updated document.
func (r *Resilient) Mutate(ctx context.Context, id string, fn MutateFunc) (*model.Project, error) {
	out, err := r.cb.Execute(func() (any, error) {
		return r.next.Mutate(ctx, id, fn)
	})
	if err != nil {
		return nil, err
	}
	return out.(*model.Project), nil
}

func (r *Resilient) Delete(ctx context.Context, id string) error {
	return exec(ctx, r, func(ctx context.Context) error {
		return r.next.Delete(ctx, id)
	})
}

func (r *Resilient) ListByMember(ctx context.Context, email string) ([]model.Project, error) {
	return call(ctx, r, func(ctx context.Context) ([]model.Project, error) {
		return r.next.ListByMember(ctx, email)
	})
}

func (r *Resilient) Watch(ctx context.Context, id string) (<-chan ProjectEvent, error) {
	return r.next.Watch(ctx, id)
}

func (r *Resilient) UpsertUser(ctx context.Context, user model.User) (*model.User, error) {
	return call(ctx, r, func(ctx context.Context) (*model.User, error) {
		return r.next.UpsertUser(ctx, user)
	})
}

func (r *Resilient) GetUser(ctx context.Context, userID string) (*model.User, error) {
	return call(ctx, r, func(ctx context.Context) (*model.User, error) {
		return r.next.GetUser(ctx, userID)
	})
}

func (r *Resilient) SearchUsers(ctx context.Context, emailPrefix string, limit int) ([]model.User, error) {
	return call(ctx, r, func(ctx context.Context) ([]model.User, error) {
		return r.next.SearchUsers(ctx, emailPrefix, limit)
	})
}

func (r *Resilient) SaveRefreshToken(ctx context.Context, rec model.TokenRecord) error {
	return exec(ctx, r, func(ctx context.Context) error {
		return r.next.SaveRefreshToken(ctx, rec)
	})
}

func (r *Resilient) GetRefreshToken(ctx context.Context, userID string) (*model.TokenRecord, error) {
	return call(ctx, r, func(ctx context.Context) (*model.TokenRecord, error) {
		return r.next.GetRefreshToken(ctx, userID)
	})
}

func (r *Resilient) RevokeRefreshToken(ctx context.Context, userID string) error {
	return exec(ctx, r, func(ctx context.Context) error {
		return r.next.RevokeRefreshToken(ctx, userID)
	})
}

func (r *Resilient) Close(ctx context.Context) error {
	return r.next.Close(ctx)
}

// State exposes the breaker state for health reporting.
func (r *Resilient) State() gobreaker.State {
	return r.cb.State()
}
