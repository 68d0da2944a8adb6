package routes

import (
	"github.com/gin-gonic/gin"

	"stayfinder-service/handlers"
)

type PaymentRouteHandler struct {
	paymentHandler handlers.PaymentHandler
	auth           gin.HandlerFunc
}

func NewPaymentRouteHandler(paymentHandler handlers.PaymentHandler, auth gin.HandlerFunc) PaymentRouteHandler {
	return PaymentRouteHandler{paymentHandler, auth}
}

func (rc *PaymentRouteHandler) PaymentRoute(rg *gin.RouterGroup) {
	router := rg.Group("/payment")
	router.Use(handlers.ExtractTraceInfoMiddleware())

	router.POST("/order", rc.auth, rc.paymentHandler.CreateOrder)
}
