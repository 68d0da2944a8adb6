package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"stayfinder-service/domain"
	"stayfinder-service/services"
)

type ListingHandler struct {
	listingService services.ListingService
	Tracer         trace.Tracer
}

func NewListingHandler(listingService services.ListingService, tr trace.Tracer) ListingHandler {
	return ListingHandler{listingService, tr}
}

func (h *ListingHandler) Create(c *gin.Context) {
	ctx, span := h.Tracer.Start(c.Request.Context(), "ListingHandler.Create")
	defer span.End()

	input, images, closeImages, err := bindListing(c)
	if err != nil {
		abort(c, span, err)
		return
	}
	defer closeImages()

	host, _ := CurrentUser(c)
	listing, err := h.listingService.CreateListing(ctx, host, input, images)
	if err != nil {
		abort(c, span, err)
		return
	}
	respond(c, http.StatusCreated, "Listing created successfully", listing)
}

func (h *ListingHandler) Get(c *gin.Context) {
	ctx, span := h.Tracer.Start(c.Request.Context(), "ListingHandler.Get")
	defer span.End()

	listing, err := h.listingService.GetListing(ctx, c.Param("id"))
	if err != nil {
		abort(c, span, err)
		return
	}
	respond(c, http.StatusOK, "Listing retrieved successfully", listing)
}

func (h *ListingHandler) All(c *gin.Context) {
	ctx, span := h.Tracer.Start(c.Request.Context(), "ListingHandler.All")
	defer span.End()

	listings, err := h.listingService.GetAllListings(ctx)
	if err != nil {
		abort(c, span, err)
		return
	}
	respond(c, http.StatusOK, "Listings retrieved successfully", listings)
}

func (h *ListingHandler) Own(c *gin.Context) {
	ctx, span := h.Tracer.Start(c.Request.Context(), "ListingHandler.Own")
	defer span.End()

	host, _ := CurrentUser(c)
	listings, err := h.listingService.GetOwnListings(ctx, host)
	if err != nil {
		abort(c, span, err)
		return
	}
	respond(c, http.StatusOK, "Listings retrieved successfully", listings)
}

func (h *ListingHandler) ByHost(c *gin.Context) {
	ctx, span := h.Tracer.Start(c.Request.Context(), "ListingHandler.ByHost")
	defer span.End()

	listings, err := h.listingService.GetListingsByHost(ctx, c.Param("hostId"))
	if err != nil {
		abort(c, span, err)
		return
	}
	respond(c, http.StatusOK, "Listings retrieved successfully", listings)
}

func (h *ListingHandler) Search(c *gin.Context) {
	ctx, span := h.Tracer.Start(c.Request.Context(), "ListingHandler.Search")
	defer span.End()

	var query domain.SearchQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		abort(c, span, domain.InvalidRequest("Invalid search query"))
		return
	}
	listings, err := h.listingService.SearchListings(ctx, &query)
	if err != nil {
		abort(c, span, err)
		return
	}
	respond(c, http.StatusOK, "Listings retrieved successfully", listings)
}

func (h *ListingHandler) Update(c *gin.Context) {
	ctx, span := h.Tracer.Start(c.Request.Context(), "ListingHandler.Update")
	defer span.End()

	input, images, closeImages, err := bindListing(c)
	if err != nil {
		abort(c, span, err)
		return
	}
	defer closeImages()

	host, _ := CurrentUser(c)
	listing, err := h.listingService.UpdateListing(ctx, host, c.Param("id"), input, images)
	if err != nil {
		abort(c, span, err)
		return
	}
	respond(c, http.StatusOK, "Listing updated successfully", listing)
}

func (h *ListingHandler) Delete(c *gin.Context) {
	ctx, span := h.Tracer.Start(c.Request.Context(), "ListingHandler.Delete")
	defer span.End()

	host, _ := CurrentUser(c)
	if err := h.listingService.DeleteListing(ctx, host, c.Param("id")); err != nil {
		abort(c, span, err)
		return
	}
	respond(c, http.StatusOK, "Listing deleted successfully", nil)
}

func (h *ListingHandler) Like(c *gin.Context) {
	ctx, span := h.Tracer.Start(c.Request.Context(), "ListingHandler.Like")
	defer span.End()

	user, _ := CurrentUser(c)
	liked, err := h.listingService.ToggleLike(ctx, user, c.Param("id"))
	if err != nil {
		abort(c, span, err)
		return
	}
	message := "Listing unliked"
	if liked {
		message = "Listing liked"
	}
	respond(c, http.StatusOK, message, gin.H{"liked": liked})
}

func (h *ListingHandler) Save(c *gin.Context) {
	ctx, span := h.Tracer.Start(c.Request.Context(), "ListingHandler.Save")
	defer span.End()

	user, _ := CurrentUser(c)
	saved, err := h.listingService.ToggleSave(ctx, user, c.Param("id"))
	if err != nil {
		abort(c, span, err)
		return
	}
	message := "Listing removed from saved"
	if saved {
		message = "Listing saved"
	}
	respond(c, http.StatusOK, message, gin.H{"saved": saved})
}

func (h *ListingHandler) Liked(c *gin.Context) {
	ctx, span := h.Tracer.Start(c.Request.Context(), "ListingHandler.Liked")
	defer span.End()

	user, _ := CurrentUser(c)
	listings, err := h.listingService.GetLikedListings(ctx, user)
	if err != nil {
		abort(c, span, err)
		return
	}
	respond(c, http.StatusOK, "Liked listings retrieved successfully", listings)
}

func (h *ListingHandler) Saved(c *gin.Context) {
	ctx, span := h.Tracer.Start(c.Request.Context(), "ListingHandler.Saved")
	defer span.End()

	user, _ := CurrentUser(c)
	listings, err := h.listingService.GetSavedListings(ctx, user)
	if err != nil {
		abort(c, span, err)
		return
	}
	respond(c, http.StatusOK, "Saved listings retrieved successfully", listings)
}

func (h *ListingHandler) Review(c *gin.Context) {
	ctx, span := h.Tracer.Start(c.Request.Context(), "ListingHandler.Review")
	defer span.End()

	var input domain.ReviewInput
	if err := c.ShouldBindJSON(&input); err != nil {
		abort(c, span, domain.InvalidRequest("Rating must be between 1 and 5"))
		return
	}
	user, _ := CurrentUser(c)
	listing, err := h.listingService.AddReview(ctx, user, c.Param("id"), &input)
	if err != nil {
		abort(c, span, err)
		return
	}
	respond(c, http.StatusCreated, "Review added successfully", listing)
}

// bindListing reads a listing body sent either as JSON or as a multipart form
// whose location, availableDates and amenities fields hold JSON text.
func bindListing(c *gin.Context) (*domain.ListingInput, []*services.FileUpload, func(), error) {
	noop := func() {}
	if !isMultipart(c) {
		var input domain.ListingInput
		if err := c.ShouldBindJSON(&input); err != nil {
			return nil, nil, noop, invalidBody()
		}
		return &input, nil, noop, nil
	}

	input := &domain.ListingInput{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
	}
	if raw := strings.TrimSpace(c.PostForm("pricePerNight")); raw != "" {
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, nil, noop, domain.InvalidRequest("pricePerNight must be a number")
		}
		input.PricePerNight = price
	}
	fields := []struct {
		name string
		dst  interface{}
	}{
		{"location", &input.Location},
		{"availableDates", &input.AvailableDates},
		{"amenities", &input.Amenities},
		{"existingImages", &input.Images},
	}
	for _, f := range fields {
		raw := strings.TrimSpace(c.PostForm(f.name))
		if raw == "" {
			continue
		}
		if err := json.Unmarshal([]byte(raw), f.dst); err != nil {
			return nil, nil, noop, domain.InvalidRequest(f.name + " must be valid JSON")
		}
	}

	images, closeImages, err := formFiles(c, "images")
	if err != nil {
		return nil, nil, noop, err
	}
	return input, images, closeImages, nil
}
