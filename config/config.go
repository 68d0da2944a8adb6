package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	AppEnv      string
	CorsOrigins []string

	MongoURI string
	MongoDB  string

	AccessTokenSecret  string
	AccessTokenExpiry  time.Duration
	RefreshTokenSecret string
	RefreshTokenExpiry time.Duration

	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	CloudinaryFolder    string

	RazorpayKeyID     string
	RazorpayKeySecret string
	RazorpayBaseURL   string
	PaymentCurrency   string

	RedisAddr string

	SMTPHost  string
	SMTPPort  int
	SMTPUser  string
	SMTPPass  string
	EmailFrom string

	JaegerAddress string
	ServiceName   string
	LogFile       string

	Pricing Pricing
}

// Pricing holds the fee schedule applied on top of the nightly rate.
type Pricing struct {
	CleaningFee    float64
	ServiceFee     float64
	ExtraGuestFee  float64
	GuestThreshold int
	MaxGuests      int
}

func DefaultPricing() Pricing {
	return Pricing{
		CleaningFee:    50,
		ServiceFee:     75,
		ExtraGuestFee:  500,
		GuestThreshold: 4,
		MaxGuests:      8,
	}
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func LoadConfig() (*Config, error) {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	var errs []error
	cfg := &Config{
		Port:        getEnv("PORT", "8000"),
		AppEnv:      getEnv("APP_ENV", "development"),
		CorsOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),

		MongoURI: os.Getenv("MONGODB_URI"),
		MongoDB:  getEnv("MONGODB_DB", "stayfinder"),

		AccessTokenSecret:  os.Getenv("ACCESS_TOKEN_SECRET"),
		RefreshTokenSecret: os.Getenv("REFRESH_TOKEN_SECRET"),

		CloudinaryCloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:    os.Getenv("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret: os.Getenv("CLOUDINARY_API_SECRET"),
		CloudinaryFolder:    getEnv("CLOUDINARY_FOLDER", "stayfinder"),

		RazorpayKeyID:     os.Getenv("RAZORPAY_KEY_ID"),
		RazorpayKeySecret: os.Getenv("RAZORPAY_KEY_SECRET"),
		RazorpayBaseURL:   getEnv("RAZORPAY_BASE_URL", "https://api.razorpay.com"),
		PaymentCurrency:   getEnv("PAYMENT_CURRENCY", "INR"),

		RedisAddr: os.Getenv("REDIS_ADDR"),

		SMTPHost:  os.Getenv("SMTP_HOST"),
		SMTPUser:  os.Getenv("SMTP_USER"),
		SMTPPass:  os.Getenv("SMTP_PASS"),
		EmailFrom: getEnv("EMAIL_FROM", "no-reply@stayfinder.app"),

		JaegerAddress: os.Getenv("JAEGER_ADDRESS"),
		ServiceName:   getEnv("SERVICE_NAME", "stayfinder-service"),
		LogFile:       getEnv("LOG_FILE", "logs/stayfinder.log"),
	}

	var err error
	if cfg.AccessTokenExpiry, err = time.ParseDuration(getEnv("ACCESS_TOKEN_EXPIRY", "15m")); err != nil {
		errs = append(errs, fmt.Errorf("ACCESS_TOKEN_EXPIRY: %w", err))
	}
	if cfg.RefreshTokenExpiry, err = time.ParseDuration(getEnv("REFRESH_TOKEN_EXPIRY", "168h")); err != nil {
		errs = append(errs, fmt.Errorf("REFRESH_TOKEN_EXPIRY: %w", err))
	}
	if cfg.SMTPPort, err = strconv.Atoi(getEnv("SMTP_PORT", "587")); err != nil {
		errs = append(errs, fmt.Errorf("couldn't convert SMTP_PORT to int: %w", err))
	}

	def := DefaultPricing()
	cfg.Pricing = Pricing{
		CleaningFee:    getFloat("CLEANING_FEE", def.CleaningFee, &errs),
		ServiceFee:     getFloat("SERVICE_FEE", def.ServiceFee, &errs),
		ExtraGuestFee:  getFloat("EXTRA_GUEST_FEE", def.ExtraGuestFee, &errs),
		GuestThreshold: getInt("GUEST_THRESHOLD", def.GuestThreshold, &errs),
		MaxGuests:      getInt("MAX_GUESTS", def.MaxGuests, &errs),
	}

	if cfg.MongoURI == "" {
		errs = append(errs, errors.New("MONGODB_URI is not set"))
	}
	if cfg.AccessTokenSecret == "" || cfg.RefreshTokenSecret == "" {
		errs = append(errs, errors.New("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET are required"))
	}
	if cfg.RazorpayKeyID == "" || cfg.RazorpayKeySecret == "" {
		errs = append(errs, errors.New("RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET are required"))
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getFloat(key string, fallback float64, errs *[]error) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return f
}

func getInt(key string, fallback int, errs *[]error) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return i
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
