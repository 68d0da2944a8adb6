package routes

import (
	"github.com/gin-gonic/gin"

	"stayfinder-service/authorization"
	"stayfinder-service/handlers"
)

type ListingRouteHandler struct {
	listingHandler handlers.ListingHandler
	auth           gin.HandlerFunc
	authorizer     handlers.RoleAuthorizer
}

func NewListingRouteHandler(listingHandler handlers.ListingHandler, auth gin.HandlerFunc, authorizer handlers.RoleAuthorizer) ListingRouteHandler {
	return ListingRouteHandler{listingHandler, auth, authorizer}
}

func (rc *ListingRouteHandler) ListingRoute(rg *gin.RouterGroup) {
	router := rg.Group("/listing")
	router.Use(handlers.ExtractTraceInfoMiddleware())
	hostOnly := handlers.RoleGate(rc.authorizer, authorization.ResourceListing, authorization.ActionWrite)

	router.POST("/create", rc.auth, hostOnly, rc.listingHandler.Create)
	router.GET("/all", rc.listingHandler.All)
	router.GET("/own", rc.auth, hostOnly, rc.listingHandler.Own)
	router.GET("/host/:hostId", rc.auth, rc.listingHandler.ByHost)
	router.GET("/search", rc.listingHandler.Search)

	router.GET("/liked", rc.auth, rc.listingHandler.Liked)
	router.GET("/saved", rc.auth, rc.listingHandler.Saved)
	router.POST("/like/:id", rc.auth, rc.listingHandler.Like)
	router.POST("/save/:id", rc.auth, rc.listingHandler.Save)
	router.POST("/review/:id", rc.auth, rc.listingHandler.Review)

	router.PUT("/update/:id", rc.auth, hostOnly, rc.listingHandler.Update)
	router.DELETE("/delete/:id", rc.auth, hostOnly, rc.listingHandler.Delete)

	router.GET("/:id", rc.listingHandler.Get)
}
