package booking

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// WithCheckoutURLs sets the redirect targets of hosted checkout sessions.
func WithCheckoutURLs(successURL string, cancelURL string) ServiceOption {
	return func(service *Service) {
		service.successURL = strings.TrimSpace(successURL)
		service.cancelURL = strings.TrimSpace(cancelURL)
	}
}

// WithCurrency sets the ISO currency code used for line items.
func WithCurrency(code string) ServiceOption {
	return func(service *Service) {
		normalized := strings.ToLower(strings.TrimSpace(code))
		if normalized != "" {
			service.currency = normalized
		}
	}
}

// WithPriceValidation checks submitted cart prices against the catalog within tolerance.
func WithPriceValidation(tolerance decimal.Decimal) ServiceOption {
	return func(service *Service) {
		service.validatePrices = true
		service.priceTolerance = tolerance.Abs()
	}
}

// WithoutPriceValidation accepts submitted cart prices as-is.
func WithoutPriceValidation() ServiceOption {
	return func(service *Service) {
		service.validatePrices = false
	}
}

// WithGatewayTimeout bounds every checkout session request.
func WithGatewayTimeout(timeout time.Duration) ServiceOption {
	return func(service *Service) {
		if timeout > 0 {
			service.gatewayTimeout = timeout
		}
	}
}

// WithNotifyTimeout bounds the paid-reservation notifications sent while acknowledging a payment event.
func WithNotifyTimeout(timeout time.Duration) ServiceOption {
	return func(service *Service) {
		if timeout > 0 {
			service.notifyTimeout = timeout
		}
	}
}
