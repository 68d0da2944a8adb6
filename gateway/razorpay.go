package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"stayfinder-service/domain"
)

var ErrGatewayUnavailable = errors.New("payment gateway is not available")

// ClientError is a 4xx answer from the gateway. The circuit breaker does not
// count it as a failure.
type ClientError struct {
	StatusCode  int
	Description string
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("create order: status %d: %s", e.StatusCode, e.Description)
}

type orderRequest struct {
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	Receipt        string `json:"receipt"`
	PaymentCapture int    `json:"payment_capture"`
}

type gatewayError struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// Razorpay talks to the Razorpay orders API and checks its payment signatures.
type Razorpay struct {
	keyID          string
	keySecret      string
	baseURL        string
	client         *http.Client
	CircuitBreaker *gobreaker.CircuitBreaker
	logger         *logrus.Logger
	Tracer         trace.Tracer
}

func NewRazorpay(keyID, keySecret, baseURL string, logger *logrus.Logger, tracer trace.Tracer) *Razorpay {
	circuitBreaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "RazorpayOrders",
		Timeout: 30 * time.Second,
		IsSuccessful: func(err error) bool {
			var clientErr *ClientError
			return err == nil || errors.As(err, &clientErr)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{"path": "gateway/razorpay"}).
				Warnf("Circuit Breaker %s state changed from %s to %s", name, from, to)
		},
	})

	return &Razorpay{
		keyID:          keyID,
		keySecret:      keySecret,
		baseURL:        strings.TrimRight(baseURL, "/"),
		client:         &http.Client{Timeout: 10 * time.Second},
		CircuitBreaker: circuitBreaker,
		logger:         logger,
		Tracer:         tracer,
	}
}

// CreateOrder registers an order for amount minor units of currency.
func (r *Razorpay) CreateOrder(ctx context.Context, amount int64, currency string) (*domain.Order, error) {
	ctx, span := r.Tracer.Start(ctx, "Razorpay.CreateOrder")
	defer span.End()

	body, err := json.Marshal(orderRequest{
		Amount:         amount,
		Currency:       currency,
		Receipt:        NewReceipt(),
		PaymentCapture: 1,
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	result, err := r.CircuitBreaker.Execute(func() (interface{}, error) {
		return r.postOrder(ctx, body)
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, ErrGatewayUnavailable
		}
		return nil, err
	}

	order, ok := result.(*domain.Order)
	if !ok {
		return nil, errors.New("unexpected response type from Circuit Breaker")
	}
	return order, nil
}

func (r *Razorpay) postOrder(ctx context.Context, body []byte) (*domain.Order, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(r.keyID, r.keySecret)
	req.Header.Set("Content-Type", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read order response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var ge gatewayError
		_ = json.Unmarshal(payload, &ge)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return nil, &ClientError{StatusCode: resp.StatusCode, Description: ge.Error.Description}
		}
		return nil, fmt.Errorf("create order: status %d: %s", resp.StatusCode, ge.Error.Description)
	}

	var order domain.Order
	if err := json.Unmarshal(payload, &order); err != nil {
		return nil, fmt.Errorf("decode order: %w", err)
	}
	return &order, nil
}

// VerifySignature checks hex(HMAC-SHA256(orderID|paymentID)) in constant time.
// Without a key secret nothing verifies.
func (r *Razorpay) VerifySignature(orderID, paymentID, signature string) bool {
	if r.keySecret == "" {
		return false
	}
	expected := Sign(r.keySecret, orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}

func Sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// NewReceipt returns a receipt id within the gateway's 40 character limit.
func NewReceipt() string {
	return "receipt_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
