package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"projectboard/board"
	"projectboard/logging"
	"projectboard/model"
	"projectboard/repositories"
)

const signInAction = "login"

type SignInInput struct {
	IDToken      string
	CaptchaToken string
	RemoteIP     string
	UserAgent    string
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

type SignInResult struct {
	User  *model.User
	Token TokenPair
}

// Session owns sign-in state: it verifies identity-provider tokens, keeps
// the user profile current, and issues and rotates the API's own tokens.
type Session struct {
	verifier IdentityVerifier
	accounts repositories.AccountStore
	captcha  CaptchaVerifier
	tokens   *TokenService
	now      func() time.Time
}

// NewSession builds a session. captcha may be nil to skip the check.
func NewSession(verifier IdentityVerifier, accounts repositories.AccountStore, captcha CaptchaVerifier, tokens *TokenService) *Session {
	return &Session{
		verifier: verifier,
		accounts: accounts,
		captcha:  captcha,
		tokens:   tokens,
		now:      time.Now,
	}
}

func (s *Session) SignIn(ctx context.Context, in SignInInput) (*SignInResult, error) {
	if s.captcha != nil {
		if _, err := s.captcha.Verify(ctx, CaptchaRequest{
			Token:     in.CaptchaToken,
			Action:    signInAction,
			RemoteIP:  in.RemoteIP,
			UserAgent: in.UserAgent,
		}); err != nil {
			if errors.Is(err, ErrCaptchaRejected) {
				return nil, err
			}
			return nil, fmt.Errorf("verify captcha: %w", err)
		}
	}

	id, err := s.verifier.Verify(ctx, in.IDToken)
	if err != nil {
		logging.Logger.Warnf("Event ID: SIGNIN_REJECTED, Description: identity token rejected: %v", err)
		if errors.Is(err, ErrInvalidIdentity) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidIdentity, err)
	}

	user, err := s.accounts.UpsertUser(ctx, model.User{
		UserID:      id.UserID,
		Name:        id.Name,
		Email:       board.NormalizeEmail(id.Email),
		Avatar:      id.Avatar,
		LastLoginAt: s.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}

	pair, err := s.issue(ctx, identityOf(user))
	if err != nil {
		return nil, err
	}
	logging.Logger.WithField("userId", user.UserID).
		Info("Event ID: SIGNIN_SUCCESS, Description: User signed in")
	return &SignInResult{User: user, Token: *pair}, nil
}

// Authenticate validates an access token and returns its principal.
func (s *Session) Authenticate(accessToken string) (model.Identity, error) {
	claims, err := s.tokens.ParseAccessToken(accessToken)
	if err != nil {
		return model.Identity{}, err
	}
	return claims.Identity(), nil
}

// Refresh exchanges a live refresh token for a new pair. The old refresh
// token stops working.
func (s *Session) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokens.ParseRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}
	rec, err := s.accounts.GetRefreshToken(ctx, claims.UserID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("load refresh token: %w", err)
	}
	if rec.Revoked {
		return nil, fmt.Errorf("%w: revoked", ErrInvalidToken)
	}
	if err := CompareRefreshToken(rec.RefreshToken, refreshToken); err != nil {
		return nil, err
	}

	user, err := s.accounts.GetUser(ctx, claims.UserID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return s.issue(ctx, identityOf(user))
}

// SignOut revokes the stored refresh token. Signing out twice is fine.
func (s *Session) SignOut(ctx context.Context, userID string) error {
	err := s.accounts.RevokeRefreshToken(ctx, userID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	logging.Logger.WithField("userId", userID).
		Info("Event ID: SIGNOUT, Description: Refresh token revoked")
	return nil
}

func (s *Session) Close() error {
	if s.captcha == nil {
		return nil
	}
	return s.captcha.Close()
}

func (s *Session) issue(ctx context.Context, id model.Identity) (*TokenPair, error) {
	accessToken, err := s.tokens.CreateAccessToken(id)
	if err != nil {
		return nil, fmt.Errorf("create access token: %w", err)
	}
	refreshToken, err := s.tokens.CreateRefreshToken(id.UserID)
	if err != nil {
		return nil, fmt.Errorf("create refresh token: %w", err)
	}
	hashed, err := HashRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("hash refresh token: %w", err)
	}

	now := s.now()
	if err := s.accounts.SaveRefreshToken(ctx, model.TokenRecord{
		UserID:       id.UserID,
		RefreshToken: hashed,
		CreatedAt:    now.Unix(),
		Revoked:      false,
		ExpiresIn:    int64(s.tokens.cfg.RefreshTTL.Seconds()),
	}); err != nil {
		return nil, fmt.Errorf("save refresh token: %w", err)
	}
	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.tokens.cfg.AccessTTL.Seconds()),
	}, nil
}

func identityOf(u *model.User) model.Identity {
	return model.Identity{UserID: u.UserID, Name: u.Name, Email: u.Email, Avatar: u.Avatar}
}
