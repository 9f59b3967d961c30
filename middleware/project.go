package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"projectboard/logging"
	"projectboard/model"
	"projectboard/services"
)

const projectKey = "project"

type ProjectAccessor interface {
	Access(ctx context.Context, id, email string) (*model.Project, error)
}

// ProjectAccess admits only members of the project named by the :id path
// parameter and stores the loaded project on the context.
func ProjectAccess(projects ProjectAccessor) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := CurrentIdentity(c)
		p, err := projects.Access(c.Request.Context(), c.Param("id"), id.Email)
		switch {
		case err == nil:
			c.Set(projectKey, p)
			c.Next()
		case errors.Is(err, services.ErrProjectNotFound):
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		case errors.Is(err, services.ErrAccessDenied):
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "You do not have permission to access this project"})
		default:
			logging.Logger.Errorf("Event ID: PROJECT_ACCESS_FAILED, Description: %v", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to load project"})
		}
	}
}

func CurrentProject(c *gin.Context) *model.Project {
	v, _ := c.Get(projectKey)
	p, _ := v.(*model.Project)
	return p
}
