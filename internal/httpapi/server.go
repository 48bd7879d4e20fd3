package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/MarkoPoloResearchLab/prestations/internal/accounts"
	"github.com/MarkoPoloResearchLab/prestations/pkg/booking"
	"github.com/MarkoPoloResearchLab/prestations/pkg/catalog"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tyemirov/tauth/pkg/sessionvalidator"
	"go.uber.org/zap"
)

const claimsContextKey = "auth_claims"

// BookingService is the reservation workflow consumed by the handlers.
type BookingService interface {
	CreateReservation(ctx context.Context, userID booking.UserID, items []booking.CartItem) (booking.ReservationID, error)
	CreateUserPaymentSession(ctx context.Context, userID booking.UserID, ids []booking.ReservationID) (booking.CheckoutSession, error)
	HandlePaymentConfirmation(ctx context.Context, payload []byte, signature string) (booking.ConfirmationResult, error)
	GetReservation(ctx context.Context, userID booking.UserID, id booking.ReservationID) (booking.Reservation, error)
	ListUserReservations(ctx context.Context, userID booking.UserID, status *booking.ReservationStatus) ([]booking.Reservation, error)
	ListReservations(ctx context.Context) ([]booking.Reservation, error)
	CancelReservation(ctx context.Context, id booking.ReservationID) error
}

// CatalogService manages prestations.
type CatalogService interface {
	List(ctx context.Context) ([]catalog.Prestation, error)
	Get(ctx context.Context, id string) (catalog.Prestation, error)
	GetBySlug(ctx context.Context, nameOrSlug string) (catalog.Prestation, error)
	Create(ctx context.Context, input catalog.Input) (catalog.Prestation, error)
	Update(ctx context.Context, id string, input catalog.Input) (catalog.Prestation, error)
	Delete(ctx context.Context, id string) error
}

// AccountService manages users.
type AccountService interface {
	Register(ctx context.Context, input accounts.RegisterInput) (accounts.User, error)
	Profile(ctx context.Context, userID string) (accounts.User, error)
	List(ctx context.Context) ([]accounts.User, error)
}

// Dependencies are the services exposed over HTTP.
type Dependencies struct {
	Bookings BookingService
	Catalog  CatalogService
	Accounts AccountService
	Gatherer prometheus.Gatherer
}

// Run boots the HTTP server and blocks until ctx is cancelled.
func Run(ctx context.Context, cfg Config, deps Dependencies, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	router, err := NewRouter(cfg, deps, logger)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("bookings api listening", zap.String("addr", cfg.ListenAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Warn("server shutdown error", zap.Error(shutdownErr))
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// NewRouter builds the gin engine with every route mounted.
func NewRouter(cfg Config, deps Dependencies, logger *zap.Logger) (*gin.Engine, error) {
	if deps.Bookings == nil || deps.Catalog == nil || deps.Accounts == nil {
		return nil, fmt.Errorf("http dependencies are required")
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	validator, err := sessionvalidator.New(sessionvalidator.Config{
		SigningKey: []byte(cfg.SessionSigningKey),
		Issuer:     cfg.SessionIssuer,
		CookieName: cfg.SessionCookieName,
	})
	if err != nil {
		return nil, fmt.Errorf("session validator: %w", err)
	}

	handler := &httpHandler{
		logger:          logger,
		bookings:        deps.Bookings,
		catalog:         deps.Catalog,
		accounts:        deps.Accounts,
		webhookMaxBytes: cfg.WebhookMaxBytes,
	}
	if handler.webhookMaxBytes <= 0 {
		handler.webhookMaxBytes = defaultWebhookMaxBytes
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Origin", "Accept", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))

	api := router.Group("/api")
	api.POST("/auth/signup", handler.handleSignup)
	api.GET("/prestations", handler.handleListPrestations)
	api.GET("/prestations/:id", handler.handleGetPrestation)
	api.GET("/prestations/name/:name", handler.handleGetPrestationByName)
	api.POST("/reservations/webhook", handler.handleWebhook)

	session := api.Group("")
	session.Use(validator.GinMiddleware(claimsContextKey))
	session.GET("/auth/profile", handler.handleProfile)
	session.POST("/reservations", handler.handleCreateReservation)
	session.GET("/reservations/user", handler.handleListUserReservations)
	session.GET("/reservations/user/paid", handler.handleListPaidReservations)
	session.GET("/reservations/:id", handler.handleGetReservation)
	session.POST("/reservations/create-checkout-session", handler.handleCreateCheckoutSession)

	admin := session.Group("/admin")
	admin.Use(requireAdmin(cfg.AdminUserIDs))
	admin.GET("/users", handler.handleListUsers)
	admin.GET("/reservations", handler.handleListReservations)
	admin.POST("/reservations/:id/cancel", handler.handleCancelReservation)
	admin.POST("/prestations", handler.handleCreatePrestation)
	admin.PUT("/prestations/:id", handler.handleUpdatePrestation)
	admin.DELETE("/prestations/:id", handler.handleDeletePrestation)

	return router, nil
}

type httpHandler struct {
	logger          *zap.Logger
	bookings        BookingService
	catalog         CatalogService
	accounts        AccountService
	webhookMaxBytes int64
}

func requireAdmin(adminUserIDs []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(adminUserIDs))
	for _, id := range adminUserIDs {
		allowed[id] = struct{}{}
	}
	return func(ctx *gin.Context) {
		claims := getClaims(ctx)
		if claims == nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse(errorCodeUnauthorized, "missing session"))
			return
		}
		if _, ok := allowed[claims.GetUserID()]; !ok {
			ctx.AbortWithStatusJSON(http.StatusForbidden, errorResponse(errorCodeForbidden, "admin access required"))
			return
		}
		ctx.Next()
	}
}

func getClaims(ctx *gin.Context) *sessionvalidator.Claims {
	claimsValue, ok := ctx.Get(claimsContextKey)
	if !ok {
		return nil
	}
	claims, _ := claimsValue.(*sessionvalidator.Claims)
	return claims
}

// sessionUser resolves the caller or writes a 401.
func sessionUser(ctx *gin.Context) (booking.UserID, bool) {
	claims := getClaims(ctx)
	if claims == nil {
		ctx.JSON(http.StatusUnauthorized, errorResponse(errorCodeUnauthorized, "missing session"))
		return booking.UserID{}, false
	}
	userID, err := booking.NewUserID(claims.GetUserID())
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, errorResponse(errorCodeUnauthorized, "missing session user"))
		return booking.UserID{}, false
	}
	return userID, true
}
