package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/trace"

	"stayfinder-service/domain"
	"stayfinder-service/utils"
)

const (
	maxListingImages = 5
	maxReviewComment = 1000
	defaultRadiusKm  = 10
	defaultPage      = 1
	defaultPageLimit = 20
	maxPageLimit     = 100
)

type ListingServiceImpl struct {
	listings domain.ListingRepo
	users    domain.UserRepo
	bookings domain.BookingRepo
	txn      domain.Transactor
	images   ImageStore
	cache    ListingCache
	now      Clock
	logger   *logrus.Logger
	Tracer   trace.Tracer
}

func NewListingServiceImpl(listings domain.ListingRepo, users domain.UserRepo, bookings domain.BookingRepo, txn domain.Transactor,
	images ImageStore, cache ListingCache, now Clock, logger *logrus.Logger, tr trace.Tracer) ListingService {
	return &ListingServiceImpl{
		listings: listings,
		users:    users,
		bookings: bookings,
		txn:      txn,
		images:   images,
		cache:    cache,
		now:      now,
		logger:   logger,
		Tracer:   tr,
	}
}

func (s *ListingServiceImpl) CreateListing(ctx context.Context, host *domain.User, input *domain.ListingInput, images []*FileUpload) (*domain.ListingResponse, error) {
	ctx, span := s.Tracer.Start(ctx, "ListingService.CreateListing")
	defer span.End()

	ranges, err := validateListingInput(input)
	if err != nil {
		return nil, fail(span, err)
	}
	if n := len(input.Images) + len(images); n < 1 || n > maxListingImages {
		return nil, fail(span, domain.InvalidRequest(fmt.Sprintf("A listing needs between 1 and %d images", maxListingImages)))
	}

	uploaded, err := s.uploadImages(ctx, images)
	if err != nil {
		return nil, fail(span, err)
	}

	now := s.now().UTC()
	listing := &domain.Listing{
		Host:           host.ID,
		Reviews:        []domain.Review{},
		CreatedAt:      now,
		UpdatedAt:      now,
		AvailableDates: ranges,
	}
	applyListingInput(listing, input, append(cleanURLs(input.Images), uploaded...))

	if err := s.listings.Insert(ctx, listing); err != nil {
		s.destroyImages(ctx, uploaded)
		return nil, fail(span, domain.Internal("failed to create listing", err))
	}
	s.cache.Invalidate(ctx)

	return &domain.ListingResponse{Listing: listing, Host: host.Response()}, nil
}

func (s *ListingServiceImpl) GetListing(ctx context.Context, id string) (*domain.ListingResponse, error) {
	ctx, span := s.Tracer.Start(ctx, "ListingService.GetListing")
	defer span.End()

	oid, err := parseListingID(id)
	if err != nil {
		return nil, fail(span, err)
	}
	if cached, ok := s.cache.GetListing(ctx, oid.Hex()); ok {
		return cached, nil
	}

	listing, err := s.listings.FindByID(ctx, oid)
	if err != nil {
		return nil, fail(span, listingLookupError(err))
	}
	responses, err := s.withHosts(ctx, []*domain.Listing{listing})
	if err != nil {
		return nil, fail(span, err)
	}
	s.cache.SetListing(ctx, oid.Hex(), responses[0])
	return responses[0], nil
}

func (s *ListingServiceImpl) GetAllListings(ctx context.Context) ([]*domain.ListingResponse, error) {
	ctx, span := s.Tracer.Start(ctx, "ListingService.GetAllListings")
	defer span.End()

	if cached, ok := s.cache.GetAll(ctx); ok {
		return cached, nil
	}
	listings, err := s.listings.FindAll(ctx)
	if err != nil {
		return nil, fail(span, domain.Internal("failed to load listings", err))
	}
	responses, err := s.withHosts(ctx, listings)
	if err != nil {
		return nil, fail(span, err)
	}
	s.cache.SetAll(ctx, responses)
	return responses, nil
}

func (s *ListingServiceImpl) GetOwnListings(ctx context.Context, host *domain.User) ([]*domain.Listing, error) {
	ctx, span := s.Tracer.Start(ctx, "ListingService.GetOwnListings")
	defer span.End()

	listings, err := s.listings.FindByHost(ctx, host.ID)
	if err != nil {
		return nil, fail(span, domain.Internal("failed to load listings", err))
	}
	if len(listings) == 0 {
		return nil, fail(span, domain.NotFound("No listings found for this host"))
	}
	return listings, nil
}

func (s *ListingServiceImpl) GetListingsByHost(ctx context.Context, hostID string) ([]*domain.ListingResponse, error) {
	ctx, span := s.Tracer.Start(ctx, "ListingService.GetListingsByHost")
	defer span.End()

	oid, err := primitive.ObjectIDFromHex(hostID)
	if err != nil {
		return nil, fail(span, domain.InvalidRequest("Invalid host id"))
	}
	listings, err := s.listings.FindByHost(ctx, oid)
	if err != nil {
		return nil, fail(span, domain.Internal("failed to load listings", err))
	}
	responses, err := s.withHosts(ctx, listings)
	if err != nil {
		return nil, fail(span, err)
	}
	return responses, nil
}

func (s *ListingServiceImpl) SearchListings(ctx context.Context, query *domain.SearchQuery) ([]*domain.ListingResponse, error) {
	ctx, span := s.Tracer.Start(ctx, "ListingService.SearchListings")
	defer span.End()

	search, err := parseSearchQuery(query)
	if err != nil {
		return nil, fail(span, err)
	}
	listings, err := s.listings.Search(ctx, search)
	if err != nil {
		return nil, fail(span, domain.Internal("failed to search listings", err))
	}
	responses, err := s.withHosts(ctx, listings)
	if err != nil {
		return nil, fail(span, err)
	}
	return responses, nil
}

func (s *ListingServiceImpl) UpdateListing(ctx context.Context, host *domain.User, id string, input *domain.ListingInput, images []*FileUpload) (*domain.ListingResponse, error) {
	ctx, span := s.Tracer.Start(ctx, "ListingService.UpdateListing")
	defer span.End()

	listing, err := s.ownedListing(ctx, host, id)
	if err != nil {
		return nil, fail(span, err)
	}
	ranges, err := validateListingInput(input)
	if err != nil {
		return nil, fail(span, err)
	}

	replaceImages := len(input.Images) > 0 || len(images) > 0
	if replaceImages {
		if n := len(input.Images) + len(images); n > maxListingImages {
			return nil, fail(span, domain.InvalidRequest(fmt.Sprintf("A listing needs between 1 and %d images", maxListingImages)))
		}
	}
	uploaded, err := s.uploadImages(ctx, images)
	if err != nil {
		return nil, fail(span, err)
	}

	oldImages := listing.Images
	newImages := oldImages
	if replaceImages {
		newImages = append(cleanURLs(input.Images), uploaded...)
	}
	applyListingInput(listing, input, newImages)
	listing.AvailableDates = ranges

	if err := s.listings.Update(ctx, listing); err != nil {
		s.destroyImages(ctx, uploaded)
		switch {
		case errors.Is(err, domain.ErrStaleListing()):
			return nil, fail(span, domain.Conflict("Listing was modified concurrently, please retry"))
		case errors.Is(err, domain.ErrListingNotFound()):
			return nil, fail(span, domain.NotFound("Listing not found"))
		}
		return nil, fail(span, domain.Internal("failed to update listing", err))
	}
	s.cache.Invalidate(ctx, listing.ID.Hex())

	if replaceImages {
		s.destroyImages(ctx, removed(oldImages, newImages))
	}
	return &domain.ListingResponse{Listing: listing, Host: host.Response(), AverageRating: listing.AverageRating()}, nil
}

// DeleteListing refuses while guests still hold upcoming stays. Otherwise
// the listing and every user reference to it go in one transaction.
func (s *ListingServiceImpl) DeleteListing(ctx context.Context, host *domain.User, id string) error {
	ctx, span := s.Tracer.Start(ctx, "ListingService.DeleteListing")
	defer span.End()

	listing, err := s.ownedListing(ctx, host, id)
	if err != nil {
		return fail(span, err)
	}

	err = s.txn.WithTransaction(ctx, func(ctx context.Context) error {
		upcoming, err := s.bookings.CountCheckingOutAfter(ctx, listing.ID, s.now().UTC())
		if err != nil {
			return domain.Internal("failed to check bookings", err)
		}
		if upcoming > 0 {
			return domain.Conflict("Listing has upcoming bookings and cannot be deleted")
		}
		if err := s.listings.Delete(ctx, listing.ID); err != nil {
			if errors.Is(err, domain.ErrListingNotFound()) {
				return domain.NotFound("Listing not found")
			}
			return domain.Internal("failed to delete listing", err)
		}
		if err := s.users.PullListingRefs(ctx, listing.ID); err != nil {
			return domain.Internal("failed to update user references", err)
		}
		return nil
	})
	if err != nil {
		return fail(span, internal("failed to delete listing", err))
	}

	s.cache.Invalidate(ctx, listing.ID.Hex())
	s.destroyImages(ctx, listing.Images)
	return nil
}

func (s *ListingServiceImpl) ToggleLike(ctx context.Context, user *domain.User, id string) (bool, error) {
	ctx, span := s.Tracer.Start(ctx, "ListingService.ToggleLike")
	defer span.End()

	liked, err := s.toggle(ctx, user, id, domain.LikedListings)
	if err != nil {
		return false, fail(span, err)
	}
	return liked, nil
}

func (s *ListingServiceImpl) ToggleSave(ctx context.Context, user *domain.User, id string) (bool, error) {
	ctx, span := s.Tracer.Start(ctx, "ListingService.ToggleSave")
	defer span.End()

	saved, err := s.toggle(ctx, user, id, domain.SavedListings)
	if err != nil {
		return false, fail(span, err)
	}
	return saved, nil
}

func (s *ListingServiceImpl) toggle(ctx context.Context, user *domain.User, id string, field domain.ListingRefField) (bool, error) {
	oid, err := parseListingID(id)
	if err != nil {
		return false, err
	}
	if _, err := s.listings.FindByID(ctx, oid); err != nil {
		return false, listingLookupError(err)
	}
	present, err := s.users.ToggleListingRef(ctx, user.ID, field, oid)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound()) {
			return false, domain.NotFound("User not found")
		}
		return false, domain.Internal("failed to update "+string(field), err)
	}
	return present, nil
}

func (s *ListingServiceImpl) GetLikedListings(ctx context.Context, user *domain.User) ([]*domain.Listing, error) {
	ctx, span := s.Tracer.Start(ctx, "ListingService.GetLikedListings")
	defer span.End()

	listings, err := s.listings.FindByIDs(ctx, user.LikedListings)
	if err != nil {
		return nil, fail(span, domain.Internal("failed to load liked listings", err))
	}
	return listings, nil
}

func (s *ListingServiceImpl) GetSavedListings(ctx context.Context, user *domain.User) ([]*domain.Listing, error) {
	ctx, span := s.Tracer.Start(ctx, "ListingService.GetSavedListings")
	defer span.End()

	listings, err := s.listings.FindByIDs(ctx, user.SavedListings)
	if err != nil {
		return nil, fail(span, domain.Internal("failed to load saved listings", err))
	}
	return listings, nil
}

// AddReview accepts a review only from a guest whose stay at the listing is over.
func (s *ListingServiceImpl) AddReview(ctx context.Context, user *domain.User, id string, input *domain.ReviewInput) (*domain.ListingResponse, error) {
	ctx, span := s.Tracer.Start(ctx, "ListingService.AddReview")
	defer span.End()

	if input.Rating < 1 || input.Rating > 5 {
		return nil, fail(span, domain.InvalidRequest("Rating must be between 1 and 5"))
	}
	comment := strings.TrimSpace(input.Comment)
	if utf8.RuneCountInString(comment) > maxReviewComment {
		return nil, fail(span, domain.InvalidRequest("Comment must be at most 1000 characters"))
	}

	oid, err := parseListingID(id)
	if err != nil {
		return nil, fail(span, err)
	}
	listing, err := s.listings.FindByID(ctx, oid)
	if err != nil {
		return nil, fail(span, listingLookupError(err))
	}
	if listing.Host == user.ID {
		return nil, fail(span, domain.Forbidden("You cannot review your own listing"))
	}

	now := s.now().UTC()
	stayed, err := s.bookings.HasStayEndedBefore(ctx, listing.ID, user.ID, now)
	if err != nil {
		return nil, fail(span, domain.Internal("failed to check bookings", err))
	}
	if !stayed {
		return nil, fail(span, domain.Forbidden("Only guests with a completed stay can review this listing"))
	}

	review := domain.Review{User: user.ID, Rating: input.Rating, Comment: comment, CreatedAt: now}
	if err := s.listings.AddReview(ctx, listing.ID, review); err != nil {
		return nil, fail(span, listingLookupError(err))
	}
	s.cache.Invalidate(ctx, listing.ID.Hex())

	listing.Reviews = append(listing.Reviews, review)
	responses, err := s.withHosts(ctx, []*domain.Listing{listing})
	if err != nil {
		return nil, fail(span, err)
	}
	return responses[0], nil
}

func (s *ListingServiceImpl) ownedListing(ctx context.Context, host *domain.User, id string) (*domain.Listing, error) {
	oid, err := parseListingID(id)
	if err != nil {
		return nil, err
	}
	listing, err := s.listings.FindByID(ctx, oid)
	if err != nil {
		return nil, listingLookupError(err)
	}
	if listing.Host != host.ID {
		return nil, domain.Forbidden("You are not the owner of this listing")
	}
	return listing, nil
}

// withHosts attaches each listing's host profile, loading every host once.
func (s *ListingServiceImpl) withHosts(ctx context.Context, listings []*domain.Listing) ([]*domain.ListingResponse, error) {
	seen := map[primitive.ObjectID]bool{}
	var ids []primitive.ObjectID
	for _, l := range listings {
		if !seen[l.Host] {
			seen[l.Host] = true
			ids = append(ids, l.Host)
		}
	}
	hosts, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, domain.Internal("failed to load hosts", err)
	}
	byID := make(map[primitive.ObjectID]*domain.UserResponse, len(hosts))
	for _, h := range hosts {
		byID[h.ID] = h.Response()
	}

	responses := make([]*domain.ListingResponse, 0, len(listings))
	for _, l := range listings {
		responses = append(responses, &domain.ListingResponse{
			Listing:       l,
			Host:          byID[l.Host],
			AverageRating: l.AverageRating(),
		})
	}
	return responses, nil
}

func (s *ListingServiceImpl) uploadImages(ctx context.Context, files []*FileUpload) ([]string, error) {
	urls := make([]string, 0, len(files))
	for _, f := range files {
		url, err := s.images.Upload(ctx, f.Content, f.Name)
		if err != nil {
			s.destroyImages(ctx, urls)
			return nil, domain.Internal("failed to upload images", err)
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func (s *ListingServiceImpl) destroyImages(ctx context.Context, urls []string) {
	for _, url := range urls {
		if err := s.images.Delete(ctx, url); err != nil {
			s.logger.WithFields(logrus.Fields{"path": "services/listing"}).Warn("image cleanup failed: ", err)
		}
	}
}

func validateListingInput(input *domain.ListingInput) ([]domain.DateRange, error) {
	if err := validate.Struct(input); err != nil {
		return nil, validationError(err)
	}

	ranges := make([]domain.DateRange, 0, len(input.AvailableDates))
	for _, r := range input.AvailableDates {
		from, err := utils.ParseDay(r.From)
		if err != nil {
			return nil, domain.InvalidRequest("Invalid date in availableDates: " + r.From)
		}
		to, err := utils.ParseDay(r.To)
		if err != nil {
			return nil, domain.InvalidRequest("Invalid date in availableDates: " + r.To)
		}
		if !from.Before(to) {
			return nil, domain.InvalidRequest("Each available range must end after it starts")
		}
		ranges = append(ranges, domain.DateRange{From: from, To: to})
	}
	sorted, ok := domain.NormalizeRanges(ranges)
	if !ok {
		return nil, domain.InvalidRequest("Available date ranges must not overlap")
	}
	return sorted, nil
}

func applyListingInput(listing *domain.Listing, input *domain.ListingInput, images []string) {
	loc := input.Location
	listing.Title = strings.TrimSpace(input.Title)
	listing.Description = strings.TrimSpace(input.Description)
	listing.City = strings.TrimSpace(loc.City)
	listing.Country = strings.TrimSpace(loc.Country)
	listing.Address = strings.TrimSpace(loc.Address)
	listing.Location = domain.NewGeoPoint(*loc.Coordinates.Lat, *loc.Coordinates.Lng)
	listing.PricePerNight = input.PricePerNight
	listing.Images = images

	amenities := make([]domain.Amenity, 0, len(input.Amenities))
	seen := map[string]bool{}
	for _, a := range input.Amenities {
		if !seen[a] {
			seen[a] = true
			amenities = append(amenities, domain.Amenity(a))
		}
	}
	listing.Amenities = amenities
}

func parseSearchQuery(q *domain.SearchQuery) (domain.ListingSearch, error) {
	search := domain.ListingSearch{
		Query:   strings.TrimSpace(q.Q),
		City:    strings.TrimSpace(q.City),
		Country: strings.TrimSpace(q.Country),
		Page:    defaultPage,
		Limit:   defaultPageLimit,
	}

	var err error
	if search.MinPrice, err = optionalFloat(q.MinPrice, "minPrice"); err != nil {
		return search, err
	}
	if search.MaxPrice, err = optionalFloat(q.MaxPrice, "maxPrice"); err != nil {
		return search, err
	}
	if search.MinPrice < 0 || search.MaxPrice < 0 || (search.MaxPrice > 0 && search.MinPrice > search.MaxPrice) {
		return search, domain.InvalidRequest("Invalid price range")
	}

	for _, a := range strings.Split(q.Amenities, ",") {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		if !domain.IsAmenity(a) {
			return search, domain.InvalidRequest(fmt.Sprintf("%q is not a supported amenity", a))
		}
		search.Amenities = append(search.Amenities, domain.Amenity(a))
	}

	if q.Lat != "" || q.Lng != "" {
		lat, err := strconv.ParseFloat(q.Lat, 64)
		if err != nil || lat < -90 || lat > 90 {
			return search, domain.InvalidRequest("Invalid lat")
		}
		lng, err := strconv.ParseFloat(q.Lng, 64)
		if err != nil || lng < -180 || lng > 180 {
			return search, domain.InvalidRequest("Invalid lng")
		}
		point := domain.NewGeoPoint(lat, lng)
		search.Near = &point
		search.RadiusKm = defaultRadiusKm
		if q.Radius != "" {
			r, err := strconv.ParseFloat(q.Radius, 64)
			if err != nil || r <= 0 {
				return search, domain.InvalidRequest("Invalid radius")
			}
			search.RadiusKm = r
		}
	}

	if q.From != "" || q.To != "" {
		from, err := utils.ParseDay(q.From)
		if err != nil {
			return search, domain.InvalidRequest("Invalid from date")
		}
		to, err := utils.ParseDay(q.To)
		if err != nil {
			return search, domain.InvalidRequest("Invalid to date")
		}
		if !from.Before(to) {
			return search, domain.InvalidRequest("from must be before to")
		}
		search.From, search.To = from, to
	}

	if q.Page != "" {
		page, err := strconv.Atoi(q.Page)
		if err != nil || page < 1 {
			return search, domain.InvalidRequest("Invalid page")
		}
		search.Page = page
	}
	if q.Limit != "" {
		limit, err := strconv.Atoi(q.Limit)
		if err != nil || limit < 1 {
			return search, domain.InvalidRequest("Invalid limit")
		}
		if limit > maxPageLimit {
			limit = maxPageLimit
		}
		search.Limit = limit
	}
	return search, nil
}

func optionalFloat(s, field string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, domain.InvalidRequest("Invalid " + field)
	}
	return f, nil
}

func parseListingID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, domain.InvalidRequest("Invalid listing id")
	}
	return oid, nil
}

func listingLookupError(err error) error {
	if errors.Is(err, domain.ErrListingNotFound()) {
		return domain.NotFound("Listing not found")
	}
	return domain.Internal("failed to load listing", err)
}

func cleanURLs(urls []string) []string {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	return out
}

// removed lists the entries of before that are absent from after.
func removed(before, after []string) []string {
	keep := make(map[string]bool, len(after))
	for _, u := range after {
		keep[u] = true
	}
	var out []string
	for _, u := range before {
		if !keep[u] {
			out = append(out, u)
		}
	}
	return out
}
