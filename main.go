package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"gopkg.in/natefinch/lumberjack.v2"

	"stayfinder-service/authorization"
	"stayfinder-service/cache"
	"stayfinder-service/config"
	error2 "stayfinder-service/error"
	"stayfinder-service/gateway"
	"stayfinder-service/handlers"
	"stayfinder-service/repository"
	"stayfinder-service/routes"
	"stayfinder-service/services"
	"stayfinder-service/storage"
	"stayfinder-service/utils"
)

var (
	server *gin.Engine
	ctx    context.Context
	cfg    *config.Config
	logger *logrus.Logger

	store          *repository.Store
	listingCache   *cache.ListingCache
	tracerProvider *sdktrace.TracerProvider
	lumberjackLog  *lumberjack.Logger

	UserRouteHandler    routes.UserRouteHandler
	ListingRouteHandler routes.ListingRouteHandler
	BookingRouteHandler routes.BookingRouteHandler
	PaymentRouteHandler routes.PaymentRouteHandler
)

func init() {
	ctx = context.Background()

	//logging
	logger = logrus.New()
	logger.SetLevel(logrus.DebugLevel)
	logger.SetFormatter(&logrus.JSONFormatter{})

	var err error
	cfg, err = config.LoadConfig()
	if err != nil {
		logger.WithFields(logrus.Fields{"path": "stayfinder/main"}).Fatal(err)
	}

	lumberjackLog = &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    10,
		MaxBackups: 3,
		LocalTime:  true,
	}
	logger.SetOutput(io.MultiWriter(os.Stdout, lumberjackLog))
	//logging

	tracerProvider, err = NewTracerProvider(cfg.ServiceName, cfg.JaegerAddress, cfg.AppEnv)
	if err != nil {
		logger.Fatalf("JaegerTraceProvider failed to Initialize. Error :%s", err)
	}
	tracer := tracerProvider.Tracer(cfg.ServiceName)

	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	store, err = repository.New(connectCtx, cfg.MongoURI, cfg.MongoDB, logger)
	if err != nil {
		logger.WithFields(logrus.Fields{"path": "stayfinder/main"}).Fatal(err)
	}
	if err := store.EnsureIndexes(connectCtx); err != nil {
		logger.WithFields(logrus.Fields{"path": "stayfinder/main"}).Fatal(err)
	}

	listingCache = cache.New(cfg.RedisAddr, logger, tracer)
	if err := listingCache.Ping(connectCtx); err != nil {
		logger.WithFields(logrus.Fields{"path": "stayfinder/main"}).Warn("redis unavailable, serving from the local cache only: ", err)
	}

	images, err := storage.New(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder, logger, tracer)
	if err != nil {
		logger.WithFields(logrus.Fields{"path": "stayfinder/main"}).Fatal(err)
	}
	enforcer, err := authorization.NewEnforcer()
	if err != nil {
		logger.WithFields(logrus.Fields{"path": "stayfinder/main"}).Fatal(err)
	}
	razorpay := gateway.NewRazorpay(cfg.RazorpayKeyID, cfg.RazorpayKeySecret, cfg.RazorpayBaseURL, logger, tracer)
	mailer := utils.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.EmailFrom)
	tokens := utils.NewTokenIssuer(cfg.AccessTokenSecret, cfg.RefreshTokenSecret, cfg.AccessTokenExpiry, cfg.RefreshTokenExpiry)

	db := store.Database()
	userRepository := repository.NewUserRepository(db)
	listingRepository := repository.NewListingRepository(db)
	bookingRepository := repository.NewBookingRepository(db)
	clock := services.Clock(time.Now)

	authService := services.NewAuthServiceImpl(userRepository, tokens, images, clock, tracer)
	userService := services.NewUserServiceImpl(userRepository, images, logger, tracer)
	listingService := services.NewListingServiceImpl(listingRepository, userRepository, bookingRepository, store,
		images, listingCache, clock, logger, tracer)
	bookingService := services.NewBookingServiceImpl(bookingRepository, listingRepository, store, razorpay,
		listingCache, mailer, services.NewPricer(cfg.Pricing), cfg.PaymentCurrency, clock, logger, tracer)
	paymentService := services.NewPaymentServiceImpl(razorpay, tracer)

	auth := handlers.AuthMiddleware(authService)
	cookies := handlers.CookieConfig{
		Secure:     cfg.IsProduction(),
		AccessTTL:  tokens.AccessTTL(),
		RefreshTTL: tokens.RefreshTTL(),
	}
	UserRouteHandler = routes.NewUserRouteHandler(handlers.NewUserHandler(authService, userService, cookies, tracer), auth)
	ListingRouteHandler = routes.NewListingRouteHandler(handlers.NewListingHandler(listingService, tracer), auth, enforcer)
	BookingRouteHandler = routes.NewBookingRouteHandler(handlers.NewBookingHandler(bookingService, tracer), auth, enforcer)
	PaymentRouteHandler = routes.NewPaymentRouteHandler(handlers.NewPaymentHandler(paymentService, tracer), auth)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	server = gin.New()
	server.MaxMultipartMemory = 32 << 20
}

func main() {
	defer func() {
		if err := lumberjackLog.Close(); err != nil {
			fmt.Println("Error closing log file:", err)
		}
	}()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CorsOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")

	server.Use(gin.Logger(), error2.Recovery(logger), error2.ErrorTranslator(logger), cors.New(corsConfig))

	router := server.Group("/api/v1")
	router.GET("/healthchecker", func(c *gin.Context) {
		if err := store.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "fail", "message": "Database unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "success", "message": "StayFinder API is running"})
	})

	UserRouteHandler.UserRoute(router)
	ListingRouteHandler.ListingRoute(router)
	BookingRouteHandler.BookingRoute(router)
	PaymentRouteHandler.PaymentRoute(router)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      server,
		IdleTimeout:  120 * time.Second,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.WithFields(logrus.Fields{"path": "stayfinder/main"}).Info("Server listening on port ", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"path": "stayfinder/main"}).Fatal(err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh
	logger.WithFields(logrus.Fields{"path": "stayfinder/main"}).Info("Received terminate, graceful shutdown ", sig)

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"path": "stayfinder/main"}).Error("Cannot gracefully shutdown: ", err)
	}
	if err := listingCache.Close(); err != nil {
		logger.WithFields(logrus.Fields{"path": "stayfinder/main"}).Error("closing cache: ", err)
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"path": "stayfinder/main"}).Error("flushing traces: ", err)
	}
	if err := store.Disconnect(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"path": "stayfinder/main"}).Error("disconnecting MongoDB: ", err)
	}
	logger.WithFields(logrus.Fields{"path": "stayfinder/main"}).Info("Server stopped")
}

// NewTracerProvider exports to Jaeger when collectorEndpoint is set and
// otherwise only records spans in process.
func NewTracerProvider(serviceName, collectorEndpoint, environment string) (*sdktrace.TracerProvider, error) {
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(serviceName),
			semconv.DeploymentEnvironmentKey.String(environment),
		)),
	}
	if collectorEndpoint != "" {
		exporter, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(collectorEndpoint)))
		if err != nil {
			return nil, fmt.Errorf("unable to initialize exporter due: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}
	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return tp, nil
}
