package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"projectboard/controller"
	"projectboard/dto"
	"projectboard/middleware"
	"projectboard/services"
)

func AuthController(router *gin.Engine, session *services.Session) {
	routes := router.Group("/auth")
	{
		routes.POST("/google", func(c *gin.Context) {
			GoogleSignIn(c, session)
		})
		routes.POST("/refresh", middleware.RefreshTokenMiddleware(), func(c *gin.Context) {
			Refresh(c, session)
		})
		routes.POST("/signout", middleware.AccessTokenMiddleware(session), func(c *gin.Context) {
			SignOut(c, session)
		})
	}
}

func GoogleSignIn(c *gin.Context, session *services.Session) {
	var req dto.GoogleSignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		controller.BadRequest(c, "idToken is required")
		return
	}

	result, err := session.SignIn(c.Request.Context(), services.SignInInput{
		IDToken:      req.IDToken,
		CaptchaToken: req.CaptchaToken,
		RemoteIP:     c.ClientIP(),
		UserAgent:    c.Request.UserAgent(),
	})
	if err != nil {
		controller.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SignInResponse{
		Message: "Signed in successfully",
		User:    dto.NewUserResponse(result.User),
		Token: dto.TokenBody{
			AccessToken:  result.Token.AccessToken,
			RefreshToken: result.Token.RefreshToken,
			ExpiresIn:    result.Token.ExpiresIn,
		},
	})
}

func Refresh(c *gin.Context, session *services.Session) {
	pair, err := session.Refresh(c.Request.Context(), middleware.RefreshToken(c))
	if err != nil {
		controller.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.TokenBody{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	})
}

func SignOut(c *gin.Context, session *services.Session) {
	id := middleware.CurrentIdentity(c)
	if err := session.SignOut(c.Request.Context(), id.UserID); err != nil {
		controller.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Signed out"})
}
