package stripegw

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/MarkoPoloResearchLab/prestations/pkg/booking"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"
)

const (
	defaultTimeout      = 10 * time.Second
	paymentMethodCard   = "card"
	defaultCheckoutMode = stripe.CheckoutSessionModePayment
)

// ErrInvalidConfig reports a gateway constructed without its secrets.
var ErrInvalidConfig = errors.New("invalid stripe gateway config")

// Config carries the injected Stripe credentials.
type Config struct {
	SecretKey     string
	WebhookSecret string
	Timeout       time.Duration
	// BackendURL overrides the Stripe API base URL.
	BackendURL string
	Logger     *zap.Logger
}

// Gateway implements booking.Gateway with Stripe Checkout.
type Gateway struct {
	api           *client.API
	webhookSecret string
}

// New returns a Gateway bound to the given credentials.
func New(cfg Config) (*Gateway, error) {
	secretKey := strings.TrimSpace(cfg.SecretKey)
	if secretKey == "" {
		return nil, fmt.Errorf("%w: secret key is required", ErrInvalidConfig)
	}
	webhookSecret := strings.TrimSpace(cfg.WebhookSecret)
	if webhookSecret == "" {
		return nil, fmt.Errorf("%w: webhook secret is required", ErrInvalidConfig)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	backendConfig := &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: timeout},
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     logger.Sugar(),
	}
	if cfg.BackendURL != "" {
		backendConfig.URL = stripe.String(cfg.BackendURL)
	}
	api := client.New(secretKey, &stripe.Backends{
		API: stripe.GetBackendWithConfig(stripe.APIBackend, backendConfig),
	})
	return &Gateway{api: api, webhookSecret: webhookSecret}, nil
}

// CreateCheckoutSession opens a hosted payment page for the request's line items.
func (gateway *Gateway) CreateCheckoutSession(ctx context.Context, request booking.CheckoutRequest) (booking.CheckoutSession, error) {
	if len(request.LineItems) == 0 {
		return booking.CheckoutSession{}, errors.New("checkout request has no line items")
	}
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(defaultCheckoutMode)),
		PaymentMethodTypes: stripe.StringSlice([]string{paymentMethodCard}),
		SuccessURL:         stripe.String(request.SuccessURL),
		CancelURL:          stripe.String(request.CancelURL),
	}
	params.Context = ctx
	for _, lineItem := range request.LineItems {
		productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(lineItem.Name),
		}
		if lineItem.Description != "" {
			productData.Description = stripe.String(lineItem.Description)
		}
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(request.Currency),
				ProductData: productData,
				UnitAmount:  stripe.Int64(lineItem.UnitAmountMinor),
			},
			Quantity: stripe.Int64(lineItem.Quantity),
		})
	}
	for key, value := range request.Metadata {
		params.AddMetadata(key, value)
	}
	session, err := gateway.api.CheckoutSessions.New(params)
	if err != nil {
		return booking.CheckoutSession{}, fmt.Errorf("create checkout session: %w", err)
	}
	return booking.CheckoutSession{ID: session.ID, URL: session.URL}, nil
}

// VerifyEvent checks the Stripe-Signature header over the untouched payload and decodes the event.
func (gateway *Gateway) VerifyEvent(payload []byte, signature string) (booking.PaymentEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, gateway.webhookSecret, webhook.ConstructEventOptions{
		Tolerance:                webhook.DefaultTolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return booking.PaymentEvent{}, fmt.Errorf("%w: %v", booking.ErrAuthenticationFailed, err)
	}
	paymentEvent := booking.PaymentEvent{ID: event.ID, Type: string(event.Type)}
	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted, stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
	default:
		return paymentEvent, nil
	}
	if event.Data == nil {
		return paymentEvent, fmt.Errorf("%w: event %s carries no data", booking.ErrMalformedMetadata, event.ID)
	}
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return paymentEvent, fmt.Errorf("%w: decode checkout session: %v", booking.ErrMalformedMetadata, err)
	}
	paymentEvent.SessionID = session.ID
	paymentEvent.Metadata = session.Metadata
	paymentEvent.Paid = session.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid ||
		session.PaymentStatus == stripe.CheckoutSessionPaymentStatusNoPaymentRequired
	return paymentEvent, nil
}
