package services

import (
	"context"
	"fmt"

	"firebase.google.com/go/auth"

	"projectboard/board"
	"projectboard/model"
)

// IdentityVerifier turns an identity-provider token into the signed-in user.
type IdentityVerifier interface {
	Verify(ctx context.Context, idToken string) (model.Identity, error)
}

type idTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// FirebaseVerifier checks Firebase Auth ID tokens issued to the web client
// after the Google popup sign-in.
type FirebaseVerifier struct {
	client idTokenVerifier
}

func NewFirebaseVerifier(client *auth.Client) *FirebaseVerifier {
	return &FirebaseVerifier{client: client}
}

func (v *FirebaseVerifier) Verify(ctx context.Context, idToken string) (model.Identity, error) {
	token, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return model.Identity{}, fmt.Errorf("%w: %v", ErrInvalidIdentity, err)
	}
	claim := func(key string) string {
		s, _ := token.Claims[key].(string)
		return s
	}
	id := model.Identity{
		UserID: token.UID,
		Name:   claim("name"),
		Email:  board.NormalizeEmail(claim("email")),
		Avatar: claim("picture"),
	}
	if id.Email == "" {
		return model.Identity{}, fmt.Errorf("%w: token carries no email", ErrInvalidIdentity)
	}
	return id, nil
}
