package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/trace"

	"stayfinder-service/domain"
	"stayfinder-service/utils"
)

type BookingServiceImpl struct {
	bookings domain.BookingRepo
	listings domain.ListingRepo
	txn      domain.Transactor
	gateway  PaymentGateway
	cache    ListingCache
	notifier Notifier
	pricer   Pricer
	currency string
	now      Clock
	logger   *logrus.Logger
	Tracer   trace.Tracer
}

func NewBookingServiceImpl(bookings domain.BookingRepo, listings domain.ListingRepo, txn domain.Transactor, gateway PaymentGateway,
	cache ListingCache, notifier Notifier, pricer Pricer, currency string, now Clock, logger *logrus.Logger, tr trace.Tracer) BookingService {
	return &BookingServiceImpl{
		bookings: bookings,
		listings: listings,
		txn:      txn,
		gateway:  gateway,
		cache:    cache,
		notifier: notifier,
		pricer:   pricer,
		currency: currency,
		now:      now,
		logger:   logger,
		Tracer:   tr,
	}
}

// stayRequest is a booking request after the field and date checks.
type stayRequest struct {
	listingID primitive.ObjectID
	checkIn   time.Time
	checkOut  time.Time
	guests    int
}

// CreateBooking runs the listing checks inside the transaction that writes
// the booking and trims the listing's availability.
func (s *BookingServiceImpl) CreateBooking(ctx context.Context, guest *domain.User, req *domain.BookingRequest) (*domain.Booking, error) {
	ctx, span := s.Tracer.Start(ctx, "BookingService.CreateBooking")
	defer span.End()

	stay, err := s.parseRequest(req, true)
	if err != nil {
		return nil, fail(span, err)
	}

	var booking *domain.Booking
	var listing *domain.Listing
	err = s.txn.WithTransaction(ctx, func(ctx context.Context) error {
		l, price, err := s.check(ctx, guest, stay)
		if err != nil {
			return err
		}
		if !SameAmount(*req.Amount, price.Total) {
			return amountMismatch(*req.Amount, price.Total)
		}
		if !s.gateway.VerifySignature(req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature) {
			return domain.InvalidRequest("Invalid payment signature")
		}

		now := s.now().UTC()
		b := &domain.Booking{
			Listing:        l.ID,
			Guest:          guest.ID,
			CheckIn:        stay.checkIn,
			CheckOut:       stay.checkOut,
			Nights:         price.Nights,
			Guests:         stay.guests,
			TotalPrice:     price.Total,
			PaymentOrderID: req.RazorpayOrderID,
			PaymentID:      req.RazorpayPaymentID,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := s.bookings.Insert(ctx, b); err != nil {
			return domain.Internal("failed to save booking", err)
		}
		remaining := l.AvailabilityAfterBooking(stay.checkIn, stay.checkOut)
		if err := s.listings.ReplaceAvailability(ctx, l.ID, l.AvailabilityVersion, remaining); err != nil {
			if errors.Is(err, domain.ErrStaleListing()) {
				return domain.Conflict("These dates were just booked by someone else")
			}
			return domain.Internal("failed to update availability", err)
		}
		booking, listing = b, l
		return nil
	})
	if err != nil {
		return nil, fail(span, internal("failed to create booking", err))
	}

	s.cache.Invalidate(ctx, listing.ID.Hex())
	s.sendConfirmation(guest, listing, booking)
	return booking, nil
}

func (s *BookingServiceImpl) VerifyBooking(ctx context.Context, guest *domain.User, req *domain.BookingRequest) (*domain.BookingCheck, error) {
	ctx, span := s.Tracer.Start(ctx, "BookingService.VerifyBooking")
	defer span.End()

	stay, err := s.parseRequest(req, false)
	if err != nil {
		return nil, fail(span, err)
	}
	_, price, err := s.check(ctx, guest, stay)
	if err != nil {
		return nil, fail(span, err)
	}
	if !SameAmount(*req.Amount, price.Total) {
		return nil, fail(span, amountMismatch(*req.Amount, price.Total))
	}
	return &domain.BookingCheck{
		ListingID: stay.listingID,
		CheckIn:   stay.checkIn,
		CheckOut:  stay.checkOut,
		Guests:    stay.guests,
		Price:     price,
	}, nil
}

// Quote prices a stay without checking availability, ownership or payment.
func (s *BookingServiceImpl) Quote(ctx context.Context, req *domain.QuoteRequest) (*domain.BookingCheck, error) {
	ctx, span := s.Tracer.Start(ctx, "BookingService.Quote")
	defer span.End()

	guests := req.Guests
	if guests == 0 {
		guests = 1
	}
	if guests < 1 || guests > s.pricer.MaxGuests() {
		return nil, fail(span, domain.InvalidRequest(fmt.Sprintf("Guests must be between 1 and %d", s.pricer.MaxGuests())))
	}
	listingID, checkIn, checkOut, err := parseStay(req.ListingID, req.StartDate, req.EndDate)
	if err != nil {
		return nil, fail(span, err)
	}
	listing, err := s.listings.FindByID(ctx, listingID)
	if err != nil {
		return nil, fail(span, listingLookupError(err))
	}

	price := s.pricer.Quote(listing.PricePerNight, utils.Nights(checkIn, checkOut), guests)
	return &domain.BookingCheck{
		ListingID: listingID,
		CheckIn:   checkIn,
		CheckOut:  checkOut,
		Guests:    guests,
		Price:     price,
	}, nil
}

func (s *BookingServiceImpl) GetHostBookings(ctx context.Context, host *domain.User) ([]*domain.BookingView, error) {
	ctx, span := s.Tracer.Start(ctx, "BookingService.GetHostBookings")
	defer span.End()

	listings, err := s.listings.FindByHost(ctx, host.ID)
	if err != nil {
		return nil, fail(span, domain.Internal("failed to load listings", err))
	}
	ids := make([]primitive.ObjectID, 0, len(listings))
	for _, l := range listings {
		ids = append(ids, l.ID)
	}
	bookings, err := s.bookings.FindByListings(ctx, ids)
	if err != nil {
		return nil, fail(span, domain.Internal("failed to load bookings", err))
	}
	return s.views(bookings, listings), nil
}

func (s *BookingServiceImpl) GetGuestBookings(ctx context.Context, guest *domain.User) ([]*domain.BookingView, error) {
	ctx, span := s.Tracer.Start(ctx, "BookingService.GetGuestBookings")
	defer span.End()

	bookings, err := s.bookings.FindByGuest(ctx, guest.ID)
	if err != nil {
		return nil, fail(span, domain.Internal("failed to load bookings", err))
	}
	seen := map[primitive.ObjectID]bool{}
	var ids []primitive.ObjectID
	for _, b := range bookings {
		if !seen[b.Listing] {
			seen[b.Listing] = true
			ids = append(ids, b.Listing)
		}
	}
	listings, err := s.listings.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fail(span, domain.Internal("failed to load listings", err))
	}
	return s.views(bookings, listings), nil
}

func (s *BookingServiceImpl) views(bookings []*domain.Booking, listings []*domain.Listing) []*domain.BookingView {
	byID := make(map[primitive.ObjectID]*domain.Listing, len(listings))
	for _, l := range listings {
		byID[l.ID] = l
	}
	sort.SliceStable(bookings, func(i, j int) bool {
		return bookings[i].CreatedAt.After(bookings[j].CreatedAt)
	})

	now := s.now().UTC()
	views := make([]*domain.BookingView, 0, len(bookings))
	for _, b := range bookings {
		view := &domain.BookingView{Booking: b, Status: b.StatusAt(now)}
		if l, ok := byID[b.Listing]; ok {
			view.ListingInfo = l.Summary()
		}
		views = append(views, view)
	}
	return views
}

// parseRequest covers the checks that need no datastore: required fields,
// date parsing, ordering and the past-date rule.
func (s *BookingServiceImpl) parseRequest(req *domain.BookingRequest, reserve bool) (*stayRequest, error) {
	if req.ListingID == "" || req.StartDate == "" || req.EndDate == "" {
		return nil, domain.InvalidRequest("listingId, startDate and endDate are required")
	}
	if req.Guests < 1 || req.Guests > s.pricer.MaxGuests() {
		return nil, domain.InvalidRequest(fmt.Sprintf("Guests must be between 1 and %d", s.pricer.MaxGuests()))
	}
	if req.Amount == nil {
		return nil, domain.InvalidRequest("amount is required")
	}
	if reserve && (req.RazorpayOrderID == "" || req.RazorpayPaymentID == "" || req.RazorpaySignature == "") {
		return nil, domain.InvalidRequest("Payment details are required")
	}

	listingID, checkIn, checkOut, err := parseStay(req.ListingID, req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	if checkIn.Before(utils.Today(s.now())) {
		return nil, domain.InvalidRequest("Check-in date cannot be in the past")
	}
	return &stayRequest{listingID: listingID, checkIn: checkIn, checkOut: checkOut, guests: req.Guests}, nil
}

func parseStay(listingID, startDate, endDate string) (primitive.ObjectID, time.Time, time.Time, error) {
	checkIn, err := utils.ParseDay(startDate)
	if err != nil {
		return primitive.NilObjectID, time.Time{}, time.Time{}, domain.InvalidRequest("Invalid startDate")
	}
	checkOut, err := utils.ParseDay(endDate)
	if err != nil {
		return primitive.NilObjectID, time.Time{}, time.Time{}, domain.InvalidRequest("Invalid endDate")
	}
	oid, err := parseListingID(strings.TrimSpace(listingID))
	if err != nil {
		return primitive.NilObjectID, time.Time{}, time.Time{}, err
	}
	if !checkIn.Before(checkOut) {
		return primitive.NilObjectID, time.Time{}, time.Time{}, domain.InvalidRequest("Check-out must be after check-in")
	}
	return oid, checkIn, checkOut, nil
}

// check runs the listing-dependent rules in order: existence, ownership,
// availability, overlap and a positive night count. It returns the listing
// as read, which carries the version the commit must match.
func (s *BookingServiceImpl) check(ctx context.Context, guest *domain.User, stay *stayRequest) (*domain.Listing, domain.PriceBreakdown, error) {
	listing, err := s.listings.FindByID(ctx, stay.listingID)
	if err != nil {
		return nil, domain.PriceBreakdown{}, listingLookupError(err)
	}
	if listing.Host == guest.ID {
		return nil, domain.PriceBreakdown{}, domain.Forbidden("You cannot book your own listing")
	}

	overlapping, err := s.bookings.FindOverlapping(ctx, listing.ID, stay.checkIn, stay.checkOut)
	if err != nil {
		return nil, domain.PriceBreakdown{}, domain.Internal("failed to check bookings", err)
	}
	if !listing.FitsAvailability(stay.checkIn, stay.checkOut) {
		if overlapping != nil {
			return nil, domain.PriceBreakdown{}, domain.Conflict("Listing is already booked for these dates")
		}
		return nil, domain.PriceBreakdown{}, domain.InvalidRequest("Listing is not available for these dates")
	}
	if overlapping != nil {
		return nil, domain.PriceBreakdown{}, domain.Conflict("Listing is already booked for these dates")
	}

	nights := utils.Nights(stay.checkIn, stay.checkOut)
	if nights <= 0 {
		return nil, domain.PriceBreakdown{}, domain.InvalidRequest("A stay must be at least one night")
	}
	return listing, s.pricer.Quote(listing.PricePerNight, nights, stay.guests), nil
}

func amountMismatch(claimed, total float64) error {
	return domain.InvalidRequest(fmt.Sprintf("Amount %.2f does not match the booking total %.2f", claimed, total))
}

func (s *BookingServiceImpl) sendConfirmation(guest *domain.User, listing *domain.Listing, booking *domain.Booking) {
	err := s.notifier.Send(&utils.EmailData{
		To:      guest.Email,
		Name:    guest.Name,
		Subject: "Your StayFinder booking is confirmed",
		Lines: []string{
			fmt.Sprintf("Your stay at %s, %s is confirmed.", listing.Title, listing.City),
			fmt.Sprintf("Check-in: %s", utils.FormatDay(booking.CheckIn)),
			fmt.Sprintf("Check-out: %s", utils.FormatDay(booking.CheckOut)),
			fmt.Sprintf("Guests: %d", booking.Guests),
			fmt.Sprintf("Total paid: %.2f %s", booking.TotalPrice, s.currency),
		},
	})
	if err != nil {
		s.logger.WithFields(logrus.Fields{"path": "services/booking"}).Warn("booking confirmation email failed: ", err)
	}
}
