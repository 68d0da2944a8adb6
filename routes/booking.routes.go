package routes

import (
	"github.com/gin-gonic/gin"

	"stayfinder-service/authorization"
	"stayfinder-service/handlers"
)

type BookingRouteHandler struct {
	bookingHandler handlers.BookingHandler
	auth           gin.HandlerFunc
	authorizer     handlers.RoleAuthorizer
}

func NewBookingRouteHandler(bookingHandler handlers.BookingHandler, auth gin.HandlerFunc, authorizer handlers.RoleAuthorizer) BookingRouteHandler {
	return BookingRouteHandler{bookingHandler, auth, authorizer}
}

func (rc *BookingRouteHandler) BookingRoute(rg *gin.RouterGroup) {
	router := rg.Group("/booking")
	router.Use(handlers.ExtractTraceInfoMiddleware())

	router.POST("/create", rc.auth, rc.bookingHandler.Create)
	router.POST("/verify", rc.auth, rc.bookingHandler.Verify)
	router.GET("/quote", rc.bookingHandler.Quote)
	router.GET("/own", rc.auth, handlers.RoleGate(rc.authorizer, authorization.ResourceBooking, authorization.ActionHostView), rc.bookingHandler.Own)
	router.GET("/guest", rc.auth, rc.bookingHandler.Guest)
}
