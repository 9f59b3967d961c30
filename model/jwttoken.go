package model

import "github.com/golang-jwt/jwt/v5"

type TokenRecord struct {
	UserID       string `firestore:"userId" bson:"_id" json:"userId"`
	RefreshToken string `firestore:"refreshToken" bson:"refreshToken" json:"refreshToken"`
	CreatedAt    int64  `firestore:"createdAt" bson:"createdAt" json:"createdAt"` // creation time in seconds
	Revoked      bool   `firestore:"revoked" bson:"revoked" json:"revoked"`
	ExpiresIn    int64  `firestore:"expiresIn" bson:"expiresIn" json:"expiresIn"` // lifetime in seconds
}

func (TokenRecord) TableName() string {
	return "refreshTokens"
}

type AccessClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name,omitempty"`
	Avatar string `json:"avatar,omitempty"`
	jwt.RegisteredClaims
}

func (c AccessClaims) Identity() Identity {
	return Identity{UserID: c.UserID, Name: c.Name, Email: c.Email, Avatar: c.Avatar}
}

type RefreshClaims struct {
	UserID  string `json:"userId"`
	TokenID string `json:"tokenId,omitempty"`
	jwt.RegisteredClaims
}
