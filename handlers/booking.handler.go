package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"stayfinder-service/domain"
	"stayfinder-service/services"
)

type BookingHandler struct {
	bookingService services.BookingService
	Tracer         trace.Tracer
}

func NewBookingHandler(bookingService services.BookingService, tr trace.Tracer) BookingHandler {
	return BookingHandler{bookingService, tr}
}

func (h *BookingHandler) Create(c *gin.Context) {
	ctx, span := h.Tracer.Start(c.Request.Context(), "BookingHandler.Create")
	defer span.End()

	var req domain.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, span, invalidBody())
		return
	}
	guest, _ := CurrentUser(c)
	booking, err := h.bookingService.CreateBooking(ctx, guest, &req)
	if err != nil {
		abort(c, span, err)
		return
	}
	respond(c, http.StatusCreated, "Booking created", booking)
}

func (h *BookingHandler) Verify(c *gin.Context) {
	ctx, span := h.Tracer.Start(c.Request.Context(), "BookingHandler.Verify")
	defer span.End()

	var req domain.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, span, invalidBody())
		return
	}
	guest, _ := CurrentUser(c)
	check, err := h.bookingService.VerifyBooking(ctx, guest, &req)
	if err != nil {
		abort(c, span, err)
		return
	}
	respond(c, http.StatusOK, "Listing can be booked", check)
}

func (h *BookingHandler) Quote(c *gin.Context) {
	ctx, span := h.Tracer.Start(c.Request.Context(), "BookingHandler.Quote")
	defer span.End()

	var req domain.QuoteRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		abort(c, span, domain.InvalidRequest("Invalid quote query"))
		return
	}
	check, err := h.bookingService.Quote(ctx, &req)
	if err != nil {
		abort(c, span, err)
		return
	}
	respond(c, http.StatusOK, "Price calculated", check)
}

func (h *BookingHandler) Own(c *gin.Context) {
	ctx, span := h.Tracer.Start(c.Request.Context(), "BookingHandler.Own")
	defer span.End()

	host, _ := CurrentUser(c)
	bookings, err := h.bookingService.GetHostBookings(ctx, host)
	if err != nil {
		abort(c, span, err)
		return
	}
	respond(c, http.StatusOK, "Bookings retrieved successfully", bookings)
}

func (h *BookingHandler) Guest(c *gin.Context) {
	ctx, span := h.Tracer.Start(c.Request.Context(), "BookingHandler.Guest")
	defer span.End()

	guest, _ := CurrentUser(c)
	bookings, err := h.bookingService.GetGuestBookings(ctx, guest)
	if err != nil {
		abort(c, span, err)
		return
	}
	respond(c, http.StatusOK, "Bookings retrieved successfully", bookings)
}
