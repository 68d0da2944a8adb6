package routes

import (
	"github.com/gin-gonic/gin"

	"stayfinder-service/handlers"
)

type UserRouteHandler struct {
	userHandler handlers.UserHandler
	auth        gin.HandlerFunc
}

func NewUserRouteHandler(userHandler handlers.UserHandler, auth gin.HandlerFunc) UserRouteHandler {
	return UserRouteHandler{userHandler, auth}
}

func (rc *UserRouteHandler) UserRoute(rg *gin.RouterGroup) {
	router := rg.Group("/user")
	router.Use(handlers.ExtractTraceInfoMiddleware())

	router.POST("/register", rc.userHandler.Register)
	router.POST("/login", rc.userHandler.Login)
	router.POST("/refresh-token", rc.userHandler.RefreshToken)

	router.POST("/logout", rc.auth, rc.userHandler.Logout)
	router.POST("/reset-password", rc.auth, rc.userHandler.ResetPassword)
	router.GET("/me", rc.auth, rc.userHandler.Me)
	router.PUT("/update", rc.auth, rc.userHandler.UpdateProfile)
}
