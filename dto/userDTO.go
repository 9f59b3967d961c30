package dto

import (
	"time"

	"projectboard/model"
)

type UserResponse struct {
	UserID      string `json:"userId"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Avatar      string `json:"avatar"`
	CreatedAt   string `json:"createdAt,omitempty"`
	LastLoginAt string `json:"lastLoginAt,omitempty"`
}

type SearchEmailRequest struct {
	Email string `json:"email"`
}

func NewUserResponse(u *model.User) UserResponse {
	return UserResponse{
		UserID:      u.UserID,
		Name:        u.Name,
		Email:       u.Email,
		Avatar:      u.Avatar,
		CreatedAt:   formatTime(u.CreatedAt),
		LastLoginAt: formatTime(u.LastLoginAt),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
