package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"stayfinder-service/domain"
	error2 "stayfinder-service/error"
	"stayfinder-service/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testTracer() trace.Tracer {
	return noop.NewTracerProvider().Tracer("")
}

var (
	hostUser  = &domain.User{ID: primitive.NewObjectID(), Name: "Hema", Email: "hema@example.com", Role: domain.Host}
	guestUser = &domain.User{ID: primitive.NewObjectID(), Name: "Gita", Email: "gita@example.com", Role: domain.Guest}
)

// stubSessions maps bearer tokens to users.
type stubSessions map[string]*domain.User

func (s stubSessions) ResolveSession(ctx context.Context, token string) (*domain.User, error) {
	if u, ok := s[token]; ok {
		return u, nil
	}
	return nil, domain.Unauthorized("Invalid or expired access token")
}

var sessions = stubSessions{"host-token": hostUser, "guest-token": guestUser}

type roleTable map[domain.UserRole]bool

func (r roleTable) Allowed(role domain.UserRole, resource, action string) (bool, error) {
	return r[role], nil
}

type stubAuth struct {
	stubSessions
	register func(input *domain.RegisterInput, avatar *services.FileUpload) (*domain.AuthResult, error)
	login    func(input *domain.LoginInput) (*domain.AuthResult, error)
	refresh  func(token string) (string, error)
	reset    func(caller *domain.User, input *domain.ResetPasswordInput) error
}

func (s *stubAuth) Register(ctx context.Context, input *domain.RegisterInput, avatar *services.FileUpload) (*domain.AuthResult, error) {
	return s.register(input, avatar)
}

func (s *stubAuth) Login(ctx context.Context, input *domain.LoginInput) (*domain.AuthResult, error) {
	return s.login(input)
}

func (s *stubAuth) RefreshAccessToken(ctx context.Context, token string) (string, error) {
	return s.refresh(token)
}

func (s *stubAuth) ResetPassword(ctx context.Context, caller *domain.User, input *domain.ResetPasswordInput) error {
	return s.reset(caller, input)
}

type stubUsers struct {
	update func(caller *domain.User, input *domain.UpdateProfileInput, avatar *services.FileUpload) (*domain.UserResponse, error)
}

func (s *stubUsers) UpdateProfile(ctx context.Context, caller *domain.User, input *domain.UpdateProfileInput, avatar *services.FileUpload) (*domain.UserResponse, error) {
	return s.update(caller, input, avatar)
}

// stubListings embeds the interface so tests only implement what they call.
type stubListings struct {
	services.ListingService
	create func(host *domain.User, input *domain.ListingInput, images []*services.FileUpload) (*domain.ListingResponse, error)
	get    func(id string) (*domain.ListingResponse, error)
	search func(query *domain.SearchQuery) ([]*domain.ListingResponse, error)
	like   func(user *domain.User, id string) (bool, error)
}

func (s *stubListings) CreateListing(ctx context.Context, host *domain.User, input *domain.ListingInput, images []*services.FileUpload) (*domain.ListingResponse, error) {
	return s.create(host, input, images)
}

func (s *stubListings) GetListing(ctx context.Context, id string) (*domain.ListingResponse, error) {
	return s.get(id)
}

func (s *stubListings) SearchListings(ctx context.Context, query *domain.SearchQuery) ([]*domain.ListingResponse, error) {
	return s.search(query)
}

func (s *stubListings) ToggleLike(ctx context.Context, user *domain.User, id string) (bool, error) {
	return s.like(user, id)
}

type stubBookings struct {
	services.BookingService
	create func(guest *domain.User, req *domain.BookingRequest) (*domain.Booking, error)
	quote  func(req *domain.QuoteRequest) (*domain.BookingCheck, error)
	own    func(host *domain.User) ([]*domain.BookingView, error)
}

func (s *stubBookings) CreateBooking(ctx context.Context, guest *domain.User, req *domain.BookingRequest) (*domain.Booking, error) {
	return s.create(guest, req)
}

func (s *stubBookings) Quote(ctx context.Context, req *domain.QuoteRequest) (*domain.BookingCheck, error) {
	return s.quote(req)
}

func (s *stubBookings) GetHostBookings(ctx context.Context, host *domain.User) ([]*domain.BookingView, error) {
	return s.own(host)
}

type stubPayments struct {
	create func(input *domain.OrderInput) (*domain.Order, error)
}

func (s *stubPayments) CreateOrder(ctx context.Context, input *domain.OrderInput) (*domain.Order, error) {
	return s.create(input)
}

func newEngine() *gin.Engine {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	r := gin.New()
	r.Use(error2.Recovery(logger), error2.ErrorTranslator(logger))
	return r
}

var testCookies = CookieConfig{Secure: true, AccessTTL: 15 * time.Minute, RefreshTTL: time.Hour}

func perform(r http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Status     int             `json:"status"`
	StatusCode int             `json:"statusCode"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	Success    bool            `json:"success"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return env
}
