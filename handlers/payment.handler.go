package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"stayfinder-service/domain"
	"stayfinder-service/services"
)

type PaymentHandler struct {
	paymentService services.PaymentService
	Tracer         trace.Tracer
}

func NewPaymentHandler(paymentService services.PaymentService, tr trace.Tracer) PaymentHandler {
	return PaymentHandler{paymentService, tr}
}

func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	ctx, span := h.Tracer.Start(c.Request.Context(), "PaymentHandler.CreateOrder")
	defer span.End()

	var input domain.OrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		abort(c, span, invalidBody())
		return
	}
	order, err := h.paymentService.CreateOrder(ctx, &input)
	if err != nil {
		abort(c, span, err)
		return
	}
	respond(c, http.StatusOK, "Razorpay order created successfully", order)
}
