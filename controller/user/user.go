package user

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"projectboard/controller"
	"projectboard/dto"
	"projectboard/middleware"
	"projectboard/services"
)

func UserController(router *gin.Engine, auth middleware.Authenticator, users *services.UserService) {
	routes := router.Group("/user", middleware.AccessTokenMiddleware(auth))
	{
		routes.GET("/me", func(c *gin.Context) {
			Me(c, users)
		})
		routes.POST("/search", func(c *gin.Context) {
			SearchUser(c, users)
		})
	}
}

func Me(c *gin.Context, users *services.UserService) {
	id := middleware.CurrentIdentity(c)
	u, err := users.Profile(c.Request.Context(), id.UserID)
	if err != nil {
		controller.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewUserResponse(u))
}

// SearchUser backs the invite dialog's email autocomplete.
func SearchUser(c *gin.Context, users *services.UserService) {
	var req dto.SearchEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		controller.BadRequest(c, "Invalid request format")
		return
	}
	found, err := users.Search(c.Request.Context(), req.Email)
	if err != nil {
		controller.Fail(c, err)
		return
	}
	out := make([]dto.UserResponse, 0, len(found))
	for i := range found {
		out = append(out, dto.NewUserResponse(&found[i]))
	}
	c.JSON(http.StatusOK, gin.H{"users": out})
}
