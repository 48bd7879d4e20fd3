package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/MarkoPoloResearchLab/prestations/internal/httpapi"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type baseConfig struct {
	DatabaseURL string
	LogDev      bool
}

type seedConfig struct {
	baseConfig
	File string
}

type serveConfig struct {
	baseConfig
	HTTP                httpapi.Config
	StoreDriver         string
	StripeSecretKey     string
	StripeWebhookSecret string
	StripeTimeout       time.Duration
	ClientURL           string
	Currency            string
	PriceTolerance      decimal.Decimal
	SkipPriceValidation bool
	RedisAddr           string
	RedisPassword       string
	RedisDB             int
	CatalogCacheTTL     time.Duration
	KafkaBrokers        []string
	KafkaTopic          string
	GRPCHealthAddr      string
}

func loadBaseConfig(v *viper.Viper, cfg *baseConfig) error {
	cfg.DatabaseURL = strings.TrimSpace(v.GetString(flagDatabaseURL))
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = defaultDatabaseURL
	}
	cfg.LogDev = v.GetBool(flagLogDev)
	return nil
}

func loadServeConfig(cmd *cobra.Command, cfg *serveConfig) error {
	v := newViper(cmd)
	if err := loadBaseConfig(v, &cfg.baseConfig); err != nil {
		return err
	}

	cfg.HTTP = httpapi.Config{
		ListenAddr:        strings.TrimSpace(v.GetString(flagListenAddr)),
		AllowedOrigins:    httpapi.ParseAllowedOrigins(v.GetString(flagAllowedOrigins)),
		SessionSigningKey: v.GetString(flagJWTSigningKey),
		SessionIssuer:     strings.TrimSpace(v.GetString(flagJWTIssuer)),
		SessionCookieName: strings.TrimSpace(v.GetString(flagJWTCookieName)),
		AdminUserIDs:      httpapi.ParseList(v.GetString(flagAdminUserIDs)),
	}
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(v.GetString(flagStoreDriver)))
	cfg.StripeSecretKey = strings.TrimSpace(v.GetString(flagStripeSecretKey))
	cfg.StripeWebhookSecret = strings.TrimSpace(v.GetString(flagStripeWebhookSecret))
	cfg.StripeTimeout = v.GetDuration(flagStripeTimeout)
	cfg.ClientURL = strings.TrimRight(strings.TrimSpace(v.GetString(flagClientURL)), "/")
	cfg.Currency = strings.TrimSpace(v.GetString(flagCurrency))
	cfg.SkipPriceValidation = v.GetBool(flagSkipPriceValidation)
	cfg.RedisAddr = strings.TrimSpace(v.GetString(flagRedisAddr))
	cfg.RedisPassword = v.GetString(flagRedisPassword)
	cfg.RedisDB = v.GetInt(flagRedisDB)
	cfg.CatalogCacheTTL = v.GetDuration(flagCatalogCacheTTL)
	cfg.KafkaBrokers = httpapi.ParseList(v.GetString(flagKafkaBrokers))
	cfg.KafkaTopic = strings.TrimSpace(v.GetString(flagKafkaTopic))
	cfg.GRPCHealthAddr = strings.TrimSpace(v.GetString(flagGRPCHealthAddr))

	tolerance, err := decimal.NewFromString(strings.TrimSpace(v.GetString(flagPriceTolerance)))
	if err != nil {
		return fmt.Errorf("%s: %w", flagPriceTolerance, err)
	}
	cfg.PriceTolerance = tolerance
	return cfg.Validate()
}

// Validate rejects missing secrets and unknown drivers.
func (cfg *serveConfig) Validate() error {
	switch cfg.StoreDriver {
	case "":
		cfg.StoreDriver = storeDriverGorm
	case storeDriverGorm, storeDriverPgx:
	default:
		return fmt.Errorf("unsupported %s %q", flagStoreDriver, cfg.StoreDriver)
	}
	if cfg.StripeSecretKey == "" {
		return fmt.Errorf("%s is required", flagStripeSecretKey)
	}
	if cfg.StripeWebhookSecret == "" {
		return fmt.Errorf("%s is required", flagStripeWebhookSecret)
	}
	if cfg.ClientURL == "" {
		return fmt.Errorf("%s is required", flagClientURL)
	}
	if cfg.PriceTolerance.IsNegative() {
		return fmt.Errorf("%s must not be negative", flagPriceTolerance)
	}
	return cfg.HTTP.Validate()
}
