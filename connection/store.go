package connection

import (
	"context"
	"fmt"

	"projectboard/config"
	"projectboard/repositories"
)

// OpenStore returns the document store selected by STORE_DRIVER. Remote
// backends are wrapped with the circuit breaker and retrier.
func OpenStore(ctx context.Context, cfg *config.Config, fb *FirebaseClients) (repositories.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverFirestore:
		if fb == nil || fb.Firestore == nil {
			return nil, fmt.Errorf("firestore driver selected without a firestore client")
		}
		return repositories.NewResilient(repositories.NewFirestoreStore(fb.Firestore), repositories.DefaultResilienceSettings()), nil
	case config.DriverMongo:
		client, err := MongoConnection(ctx, cfg)
		if err != nil {
			return nil, err
		}
		store := repositories.NewMongoStore(client, cfg.MongoDBName)
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = store.Close(context.Background())
			return nil, fmt.Errorf("ensure mongo indexes: %w", err)
		}
		return repositories.NewResilient(store, repositories.DefaultResilienceSettings()), nil
	case config.DriverMemory:
		return repositories.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
