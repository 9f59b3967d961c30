package task

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"projectboard/controller"
	"projectboard/dto"
	"projectboard/middleware"
	"projectboard/model"
	"projectboard/services"
)

func TaskController(router *gin.Engine, auth middleware.Authenticator, projects *services.ProjectService) {
	routes := router.Group("/projects/:id/tasks", middleware.AccessTokenMiddleware(auth), middleware.ProjectAccess(projects))
	{
		routes.POST("", func(c *gin.Context) {
			CreateTask(c, projects)
		})
		routes.DELETE("/:taskId", func(c *gin.Context) {
			DeleteTask(c, projects)
		})
		routes.POST("/:taskId/move", func(c *gin.Context) {
			MoveTask(c, projects)
		})
	}
}

func CreateTask(c *gin.Context, projects *services.ProjectService) {
	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		controller.BadRequest(c, "Task name is required and status must be pending, ongoing or completed")
		return
	}
	p, err := projects.AddTask(c.Request.Context(), c.Param("id"), middleware.CurrentIdentity(c), req.Name, model.TaskStatus(req.Status))
	if err != nil {
		controller.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewProjectResponse(p, true))
}

func DeleteTask(c *gin.Context, projects *services.ProjectService) {
	p, err := projects.DeleteTask(c.Request.Context(), c.Param("id"), middleware.CurrentIdentity(c).Email, c.Param("taskId"), controller.Confirmed(c))
	if err != nil {
		controller.Fail(c, err)
		return
	}
	if p == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, dto.NewProjectResponse(p, true))
}

func MoveTask(c *gin.Context, projects *services.ProjectService) {
	var req dto.MoveTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		controller.BadRequest(c, "targetStatus must be pending, ongoing or completed")
		return
	}
	p, err := projects.MoveTask(c.Request.Context(), c.Param("id"), middleware.CurrentIdentity(c).Email, services.MoveInput{
		TaskID:       c.Param("taskId"),
		SourceStatus: model.TaskStatus(req.SourceStatus),
		TargetStatus: model.TaskStatus(req.TargetStatus),
		SourceIndex:  req.SourceIndex,
		TargetIndex:  req.TargetIndex,
	})
	if err != nil {
		controller.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewProjectResponse(p, true))
}
