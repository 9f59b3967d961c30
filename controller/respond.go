// Package controller holds the response helpers shared by the route
// packages beneath it.
package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"

	"projectboard/board"
	"projectboard/logging"
	"projectboard/repositories"
	"projectboard/services"
)

var errorStatus = []struct {
	err     error
	status  int
	message string
}{
	{services.ErrProjectNotFound, http.StatusNotFound, "Project not found"},
	{services.ErrAccessDenied, http.StatusForbidden, "You do not have permission to access this project"},
	{services.ErrConfirmationRequired, http.StatusPreconditionRequired, "Confirmation required, repeat the request with ?confirm=true"},
	{services.ErrEmptyName, http.StatusBadRequest, "Project name is required"},
	{services.ErrInvalidDueDate, http.StatusBadRequest, "Due date must be formatted as YYYY-MM-DD"},
	{services.ErrInvalidToken, http.StatusUnauthorized, "Token is expired or invalid"},
	{services.ErrInvalidIdentity, http.StatusUnauthorized, "Sign-in failed, identity token rejected"},
	{services.ErrCaptchaRejected, http.StatusForbidden, "reCAPTCHA verification failed"},
	{services.ErrUserNotFound, http.StatusNotFound, "User not found"},
	{board.ErrEmailRequired, http.StatusBadRequest, "Email is required"},
	{board.ErrInvalidEmail, http.StatusBadRequest, "Please enter a valid email address"},
	{board.ErrAlreadyMember, http.StatusConflict, "This email is already a team member"},
	{board.ErrEmptyTaskName, http.StatusBadRequest, "Task name is required"},
	{board.ErrInvalidStatus, http.StatusBadRequest, "Invalid task status"},
	{repositories.ErrConflict, http.StatusConflict, "The project was changed by someone else, please retry"},
	{gobreaker.ErrOpenState, http.StatusServiceUnavailable, "Service temporarily unavailable"},
	{gobreaker.ErrTooManyRequests, http.StatusServiceUnavailable, "Service temporarily unavailable"},
}

// Fail writes the JSON error for err. Unknown errors become a 500 with a
// generic message and the cause goes to the log.
func Fail(c *gin.Context, err error) {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			c.AbortWithStatusJSON(e.status, gin.H{"error": e.message})
			return
		}
	}
	logging.Logger.WithFields(logrus.Fields{
		"method": c.Request.Method,
		"path":   c.Request.URL.Path,
	}).Errorf("Event ID: REQUEST_FAILED, Description: %v", err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

func BadRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": message})
}

// Confirmed reports whether the request carries ?confirm=true.
func Confirmed(c *gin.Context) bool {
	ok, _ := strconv.ParseBool(c.Query("confirm"))
	return ok
}
