package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"stayfinder-service/domain"
	"stayfinder-service/utils"
)

var testNow = time.Date(2025, 5, 20, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func day(month time.Month, d int) time.Time {
	return time.Date(2025, month, d, 0, 0, 0, 0, time.UTC)
}

func testTracer() trace.Tracer {
	return noop.NewTracerProvider().Tracer("")
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// memStore backs the in-memory repositories. Transactions run one at a time
// and roll every collection back when fn fails.
type memStore struct {
	mu       sync.Mutex
	txMu     sync.Mutex
	users    map[primitive.ObjectID]domain.User
	listings map[primitive.ObjectID]domain.Listing
	bookings map[primitive.ObjectID]domain.Booking
	failOn   map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[primitive.ObjectID]domain.User{},
		listings: map[primitive.ObjectID]domain.Listing{},
		bookings: map[primitive.ObjectID]domain.Booking{},
		failOn:   map[string]error{},
	}
}

func (m *memStore) injected(op string) error {
	return m.failOn[op]
}

func (m *memStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	users := make(map[primitive.ObjectID]domain.User, len(m.users))
	for k, v := range m.users {
		users[k] = v
	}
	listings := make(map[primitive.ObjectID]domain.Listing, len(m.listings))
	for k, v := range m.listings {
		listings[k] = v
	}
	bookings := make(map[primitive.ObjectID]domain.Booking, len(m.bookings))
	for k, v := range m.bookings {
		bookings[k] = v
	}
	m.mu.Unlock()

	if err := fn(ctx); err != nil {
		m.mu.Lock()
		m.users, m.listings, m.bookings = users, listings, bookings
		m.mu.Unlock()
		return err
	}
	return nil
}

type memUsers struct{ *memStore }

func (r memUsers) Insert(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return domain.ErrDuplicateEmail()
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	r.users[user.ID] = *user
	return nil
}

func (r memUsers) FindByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound()
	}
	return &u, nil
}

func (r memUsers) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, domain.ErrUserNotFound()
}

func (r memUsers) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*domain.User{}
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out = append(out, &u)
		}
	}
	return out, nil
}

func (r memUsers) UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound()
	}
	u.Password = hash
	r.users[id] = u
	return nil
}

func (r memUsers) UpdateProfile(ctx context.Context, id primitive.ObjectID, name, phone, avatar string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound()
	}
	u.Name, u.Phone, u.Avatar = name, phone, avatar
	r.users[id] = u
	return &u, nil
}

func (r memUsers) ToggleListingRef(ctx context.Context, id primitive.ObjectID, field domain.ListingRefField, listingID primitive.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return false, domain.ErrUserNotFound()
	}
	list := &u.LikedListings
	if field == domain.SavedListings {
		list = &u.SavedListings
	}
	next := []primitive.ObjectID{}
	present := false
	for _, ref := range *list {
		if ref == listingID {
			present = true
			continue
		}
		next = append(next, ref)
	}
	if !present {
		next = append(next, listingID)
	}
	*list = next
	r.users[id] = u
	return !present, nil
}

func (r memUsers) PullListingRefs(ctx context.Context, listingID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.injected("PullListingRefs"); err != nil {
		return err
	}
	for id, u := range r.users {
		u.LikedListings = without(u.LikedListings, listingID)
		u.SavedListings = without(u.SavedListings, listingID)
		r.users[id] = u
	}
	return nil
}

func without(ids []primitive.ObjectID, drop primitive.ObjectID) []primitive.ObjectID {
	out := []primitive.ObjectID{}
	for _, id := range ids {
		if id != drop {
			out = append(out, id)
		}
	}
	return out
}

type memListings struct {
	*memStore
	lastSearch domain.ListingSearch
}

func (r *memListings) Insert(ctx context.Context, listing *domain.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if listing.ID.IsZero() {
		listing.ID = primitive.NewObjectID()
	}
	r.listings[listing.ID] = *listing
	return nil
}

func (r *memListings) FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.listings[id]
	if !ok {
		return nil, domain.ErrListingNotFound()
	}
	return &l, nil
}

func (r *memListings) FindAll(ctx context.Context) ([]*domain.Listing, error) {
	return r.filter(func(domain.Listing) bool { return true }), nil
}

func (r *memListings) FindByHost(ctx context.Context, hostID primitive.ObjectID) ([]*domain.Listing, error) {
	return r.filter(func(l domain.Listing) bool { return l.Host == hostID }), nil
}

func (r *memListings) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*domain.Listing, error) {
	want := map[primitive.ObjectID]bool{}
	for _, id := range ids {
		want[id] = true
	}
	return r.filter(func(l domain.Listing) bool { return want[l.ID] }), nil
}

func (r *memListings) Search(ctx context.Context, search domain.ListingSearch) ([]*domain.Listing, error) {
	r.lastSearch = search
	return r.filter(func(l domain.Listing) bool { return search.City == "" || l.City == search.City }), nil
}

func (r *memListings) filter(keep func(domain.Listing) bool) []*domain.Listing {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*domain.Listing{}
	for _, l := range r.listings {
		if keep(l) {
			l := l
			out = append(out, &l)
		}
	}
	return out
}

func (r *memListings) Update(ctx context.Context, listing *domain.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.listings[listing.ID]
	if !ok {
		return domain.ErrListingNotFound()
	}
	if stored.AvailabilityVersion != listing.AvailabilityVersion {
		return domain.ErrStaleListing()
	}
	listing.AvailabilityVersion++
	r.listings[listing.ID] = *listing
	return nil
}

func (r *memListings) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.listings[id]; !ok {
		return domain.ErrListingNotFound()
	}
	delete(r.listings, id)
	return nil
}

func (r *memListings) ReplaceAvailability(ctx context.Context, id primitive.ObjectID, expectedVersion int64, ranges []domain.DateRange) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.injected("ReplaceAvailability"); err != nil {
		return err
	}
	l, ok := r.listings[id]
	if !ok || l.AvailabilityVersion != expectedVersion {
		return domain.ErrStaleListing()
	}
	l.AvailableDates = append([]domain.DateRange{}, ranges...)
	l.AvailabilityVersion++
	r.listings[id] = l
	return nil
}

func (r *memListings) AddReview(ctx context.Context, id primitive.ObjectID, review domain.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.listings[id]
	if !ok {
		return domain.ErrListingNotFound()
	}
	l.Reviews = append(append([]domain.Review{}, l.Reviews...), review)
	r.listings[id] = l
	return nil
}

type memBookings struct{ *memStore }

func (r memBookings) Insert(ctx context.Context, booking *domain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.injected("InsertBooking"); err != nil {
		return err
	}
	if booking.ID.IsZero() {
		booking.ID = primitive.NewObjectID()
	}
	r.bookings[booking.ID] = *booking
	return nil
}

func (r memBookings) FindOverlapping(ctx context.Context, listingID primitive.ObjectID, checkIn, checkOut time.Time) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bookings {
		if b.Listing == listingID && b.Overlaps(checkIn, checkOut) {
			b := b
			return &b, nil
		}
	}
	return nil, nil
}

func (r memBookings) FindByListings(ctx context.Context, listingIDs []primitive.ObjectID) ([]*domain.Booking, error) {
	want := map[primitive.ObjectID]bool{}
	for _, id := range listingIDs {
		want[id] = true
	}
	return r.filter(func(b domain.Booking) bool { return want[b.Listing] }), nil
}

func (r memBookings) FindByGuest(ctx context.Context, guestID primitive.ObjectID) ([]*domain.Booking, error) {
	return r.filter(func(b domain.Booking) bool { return b.Guest == guestID }), nil
}

func (r memBookings) filter(keep func(domain.Booking) bool) []*domain.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*domain.Booking{}
	for _, b := range r.bookings {
		if keep(b) {
			b := b
			out = append(out, &b)
		}
	}
	return out
}

func (r memBookings) CountCheckingOutAfter(ctx context.Context, listingID primitive.ObjectID, t time.Time) (int64, error) {
	found := r.filter(func(b domain.Booking) bool { return b.Listing == listingID && !b.CheckOut.Before(t) })
	return int64(len(found)), nil
}

func (r memBookings) HasStayEndedBefore(ctx context.Context, listingID, guestID primitive.ObjectID, t time.Time) (bool, error) {
	found := r.filter(func(b domain.Booking) bool {
		return b.Listing == listingID && b.Guest == guestID && b.CheckOut.Before(t)
	})
	return len(found) > 0, nil
}

func (m *memStore) bookingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.bookings)
}

func (m *memStore) listing(id primitive.ObjectID) domain.Listing {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listings[id]
}

func (m *memStore) user(id primitive.ObjectID) domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id]
}

func (m *memStore) addUser(name string, role domain.UserRole) *domain.User {
	hash, _ := utils.HashPassword("secret123")
	u := domain.User{
		ID:            primitive.NewObjectID(),
		Name:          name,
		Email:         fmt.Sprintf("%s@example.com", name),
		Password:      hash,
		Avatar:        domain.DefaultAvatar,
		Role:          role,
		LikedListings: []primitive.ObjectID{},
		SavedListings: []primitive.ObjectID{},
	}
	m.mu.Lock()
	m.users[u.ID] = u
	m.mu.Unlock()
	return &u
}

func (m *memStore) addListing(host *domain.User, price float64, ranges ...domain.DateRange) *domain.Listing {
	l := domain.Listing{
		ID:             primitive.NewObjectID(),
		Title:          "Beach house",
		City:           "Goa",
		Country:        "India",
		Location:       domain.NewGeoPoint(15.5, 73.8),
		PricePerNight:  price,
		Images:         []string{"https://res.cloudinary.com/demo/image/upload/v1/stayfinder/a.jpg"},
		Host:           host.ID,
		AvailableDates: ranges,
		Amenities:      []domain.Amenity{"WiFi"},
		Reviews:        []domain.Review{},
		CreatedAt:      testNow,
	}
	m.mu.Lock()
	m.listings[l.ID] = l
	m.mu.Unlock()
	return &l
}

func (m *memStore) addBooking(listing *domain.Listing, guest *domain.User, checkIn, checkOut time.Time, created time.Time) *domain.Booking {
	b := domain.Booking{
		ID:        primitive.NewObjectID(),
		Listing:   listing.ID,
		Guest:     guest.ID,
		CheckIn:   checkIn,
		CheckOut:  checkOut,
		Nights:    utils.Nights(checkIn, checkOut),
		Guests:    1,
		CreatedAt: created,
	}
	m.mu.Lock()
	m.bookings[b.ID] = b
	m.mu.Unlock()
	return &b
}

type fakeCache struct {
	mu          sync.Mutex
	listings    map[string]*domain.ListingResponse
	all         []*domain.ListingResponse
	invalidated []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{listings: map[string]*domain.ListingResponse{}}
}

func (c *fakeCache) GetListing(ctx context.Context, id string) (*domain.ListingResponse, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.listings[id]
	return l, ok
}

func (c *fakeCache) SetListing(ctx context.Context, id string, listing *domain.ListingResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listings[id] = listing
}

func (c *fakeCache) GetAll(ctx context.Context) ([]*domain.ListingResponse, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.all, c.all != nil
}

func (c *fakeCache) SetAll(ctx context.Context, listings []*domain.ListingResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.all = listings
}

func (c *fakeCache) Invalidate(ctx context.Context, ids ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.all = nil
	for _, id := range ids {
		delete(c.listings, id)
		c.invalidated = append(c.invalidated, id)
	}
}

type fakeImages struct {
	mu        sync.Mutex
	uploaded  []string
	deleted   []string
	uploadErr error
}

func (f *fakeImages) Upload(ctx context.Context, file io.Reader, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	url := "https://res.cloudinary.com/demo/image/upload/v1/stayfinder/" + name
	f.uploaded = append(f.uploaded, url)
	return url, nil
}

func (f *fakeImages) Delete(ctx context.Context, imageURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, imageURL)
	return nil
}

const validSignature = "valid-signature"

type fakeGateway struct {
	lastAmount   int64
	lastCurrency string
	err          error
}

func (g *fakeGateway) CreateOrder(ctx context.Context, amount int64, currency string) (*domain.Order, error) {
	if g.err != nil {
		return nil, g.err
	}
	g.lastAmount, g.lastCurrency = amount, currency
	return &domain.Order{ID: "order_1", Amount: amount, Currency: currency, Status: "created"}, nil
}

func (g *fakeGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return signature == validSignature
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []*utils.EmailData
	err  error
}

func (n *fakeNotifier) Send(data *utils.EmailData) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, data)
	return nil
}

var errBoom = errors.New("boom")
