package project

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"projectboard/controller"
	"projectboard/dto"
	"projectboard/logging"
	"projectboard/middleware"
	"projectboard/services"
)

// heartbeat keeps idle live streams from being cut by proxies.
const heartbeat = 25 * time.Second

func ProjectController(router *gin.Engine, auth middleware.Authenticator, projects *services.ProjectService) {
	routes := router.Group("/projects", middleware.AccessTokenMiddleware(auth))
	{
		routes.GET("", func(c *gin.Context) {
			ListProjects(c, projects)
		})
		routes.POST("", func(c *gin.Context) {
			CreateProject(c, projects)
		})
	}

	guarded := routes.Group("/:id", middleware.ProjectAccess(projects))
	{
		guarded.GET("", GetProject)
		guarded.PATCH("", func(c *gin.Context) {
			UpdateProject(c, projects)
		})
		guarded.DELETE("", func(c *gin.Context) {
			DeleteProject(c, projects)
		})
		guarded.GET("/watch", func(c *gin.Context) {
			WatchProject(c, projects)
		})
		guarded.POST("/members", func(c *gin.Context) {
			InviteMember(c, projects)
		})
	}
}

func ListProjects(c *gin.Context, projects *services.ProjectService) {
	id := middleware.CurrentIdentity(c)
	list, summary, err := projects.List(c.Request.Context(), id.Email)
	if err != nil {
		controller.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewProjectListResponse(list, summary))
}

func CreateProject(c *gin.Context, projects *services.ProjectService) {
	var req dto.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		controller.BadRequest(c, "Invalid request format")
		return
	}
	p, err := projects.Create(c.Request.Context(), middleware.CurrentIdentity(c), services.CreateInput{
		Name:        req.Name,
		Description: req.Description,
		Github:      req.Github,
		DueDate:     req.DueDate,
	})
	if err != nil {
		controller.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewProjectResponse(p, true))
}

func GetProject(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewProjectResponse(middleware.CurrentProject(c), true))
}

func UpdateProject(c *gin.Context, projects *services.ProjectService) {
	var req dto.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		controller.BadRequest(c, "Invalid request format")
		return
	}
	p, err := projects.Update(c.Request.Context(), c.Param("id"), middleware.CurrentIdentity(c).Email, services.UpdateInput{
		Name:        req.Name,
		Description: req.Description,
		Github:      req.Github,
		DueDate:     req.DueDate,
	})
	if err != nil {
		controller.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewProjectResponse(p, true))
}

func DeleteProject(c *gin.Context, projects *services.ProjectService) {
	err := projects.Delete(c.Request.Context(), c.Param("id"), middleware.CurrentIdentity(c).Email, controller.Confirmed(c))
	if err != nil {
		controller.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Project deleted"})
}

func InviteMember(c *gin.Context, projects *services.ProjectService) {
	var req dto.InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		controller.BadRequest(c, "Invalid request format")
		return
	}
	p, err := projects.Invite(c.Request.Context(), c.Param("id"), middleware.CurrentIdentity(c).Email, req.Email)
	if err != nil {
		controller.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewProjectResponse(p, true))
}

// WatchProject streams the project as Server-Sent Events until the client
// disconnects or the stream reaches a terminal event.
func WatchProject(c *gin.Context, projects *services.ProjectService) {
	projectID := c.Param("id")
	events, err := projects.Watch(c.Request.Context(), projectID, middleware.CurrentIdentity(c).Email)
	if err != nil {
		controller.Fail(c, err)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ticker.C:
			c.SSEvent("ping", time.Now().UTC().Format(time.RFC3339))
			return true
		case ev, ok := <-events:
			if !ok {
				return false
			}
			switch ev.Type {
			case services.WatchSnapshot:
				c.SSEvent(string(ev.Type), dto.NewProjectResponse(ev.Project, true))
				return true
			case services.WatchNotFound:
				c.SSEvent(string(ev.Type), gin.H{"error": "Project not found"})
			case services.WatchAccessRevoked:
				c.SSEvent(string(ev.Type), gin.H{"error": "You do not have permission to access this project"})
			default:
				logging.Logger.WithField("projectId", projectID).
					Errorf("Event ID: WATCH_FAILED, Description: %v", ev.Err)
				c.SSEvent(string(services.WatchError), gin.H{"error": "Live updates stopped"})
			}
			return false
		}
	})
}
