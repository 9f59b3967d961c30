package services

import "errors"

var (
	ErrProjectNotFound      = errors.New("project not found")
	ErrAccessDenied         = errors.New("you do not have permission to access this project")
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrEmptyName            = errors.New("project name is required")
	ErrInvalidDueDate       = errors.New("due date must be formatted as YYYY-MM-DD")

	ErrInvalidToken    = errors.New("token is expired or invalid")
	ErrInvalidIdentity = errors.New("identity token rejected")
	ErrCaptchaRejected = errors.New("reCAPTCHA verification failed")
	ErrUserNotFound    = errors.New("user not found")
)
