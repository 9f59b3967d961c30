package connection

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go"
	"firebase.google.com/go/auth"
	"google.golang.org/api/option"

	"projectboard/config"
	"projectboard/logging"
)

type FirebaseClients struct {
	Auth      *auth.Client
	Firestore *firestore.Client
}

// FBConnection initialises the Firebase app. The Auth client is always
// created; Firestore only when withFirestore is set.
func FBConnection(ctx context.Context, cfg *config.Config, withFirestore bool) (*FirebaseClients, error) {
	var opts []option.ClientOption
	if cfg.FirebaseCredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.FirebaseCredentialsFile))
	}
	var fbConfig *firebase.Config
	if cfg.FirebaseProjectID != "" {
		fbConfig = &firebase.Config{ProjectID: cfg.FirebaseProjectID}
	}

	app, err := firebase.NewApp(ctx, fbConfig, opts...)
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}

	clients := &FirebaseClients{}
	if clients.Auth, err = app.Auth(ctx); err != nil {
		return nil, fmt.Errorf("get firebase auth client: %w", err)
	}
	if withFirestore {
		if clients.Firestore, err = app.Firestore(ctx); err != nil {
			return nil, fmt.Errorf("get firestore client: %w", err)
		}
		logging.Logger.Info("Event ID: FIRESTORE_CONNECTED, Description: Firestore connection successful")
	}
	return clients, nil
}
