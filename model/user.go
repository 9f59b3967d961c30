package model

import "time"

type User struct {
	UserID      string    `firestore:"userid,omitempty" bson:"_id" json:"userId"`
	Name        string    `firestore:"name,omitempty" bson:"name" json:"name"`
	Email       string    `firestore:"email,omitempty" bson:"email" json:"email"`
	Avatar      string    `firestore:"avatar,omitempty" bson:"avatar" json:"avatar"`
	CreatedAt   time.Time `firestore:"createdat,omitempty" bson:"createdAt" json:"createdAt"`
	LastLoginAt time.Time `firestore:"lastloginat,omitempty" bson:"lastLoginAt" json:"lastLoginAt"`
}

// Identity is the signed-in principal as reported by the identity provider.
type Identity struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar"`
}

func (i Identity) TaskUser() TaskUser {
	return TaskUser{Name: i.Name, Email: i.Email, Avatar: i.Avatar}
}
