package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	envPrefix = "BOOKINGD"

	flagDatabaseURL         = "database-url"
	flagLogDev              = "log-dev"
	flagListenAddr          = "listen-addr"
	flagStoreDriver         = "store-driver"
	flagAllowedOrigins      = "allowed-origins"
	flagJWTSigningKey       = "jwt-signing-key"
	flagJWTIssuer           = "jwt-issuer"
	flagJWTCookieName       = "jwt-cookie-name"
	flagAdminUserIDs        = "admin-user-ids"
	flagStripeSecretKey     = "stripe-secret-key"
	flagStripeWebhookSecret = "stripe-webhook-secret"
	flagStripeTimeout       = "stripe-timeout"
	flagClientURL           = "client-url"
	flagCurrency            = "currency"
	flagPriceTolerance      = "price-tolerance"
	flagSkipPriceValidation = "skip-price-validation"
	flagRedisAddr           = "redis-addr"
	flagRedisPassword       = "redis-password"
	flagRedisDB             = "redis-db"
	flagCatalogCacheTTL     = "catalog-cache-ttl"
	flagKafkaBrokers        = "kafka-brokers"
	flagKafkaTopic          = "kafka-topic"
	flagGRPCHealthAddr      = "grpc-health-addr"
	flagSeedFile            = "file"

	storeDriverGorm = "gorm"
	storeDriverPgx  = "pgx"

	defaultDatabaseURL = "sqlite:///tmp/bookings.db"
	defaultListenAddr  = ":8080"
	defaultClientURL   = "http://localhost:3000"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "bookingd: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "bookingd",
		Short:         "Prestation booking and payment backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().String(flagDatabaseURL, defaultDatabaseURL, "database URL (postgres:// or sqlite://)")
	cmd.PersistentFlags().Bool(flagLogDev, false, "use the development logger")

	cmd.AddCommand(newServeCommand(), newMigrateCommand(), newSeedCommand())
	return cmd
}

func newServeCommand() *cobra.Command {
	cfg := &serveConfig{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadServeConfig(cmd, cfg)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}

	flags := cmd.Flags()
	flags.String(flagListenAddr, defaultListenAddr, "HTTP listen address")
	flags.String(flagStoreDriver, storeDriverGorm, "reservation store driver (gorm|pgx)")
	flags.String(flagAllowedOrigins, "", "comma-separated list of allowed CORS origins")
	flags.String(flagJWTSigningKey, "", "TAuth JWT signing key (required)")
	flags.String(flagJWTIssuer, "tauth", "expected JWT issuer")
	flags.String(flagJWTCookieName, "app_session", "JWT cookie name")
	flags.String(flagAdminUserIDs, "", "comma-separated user ids allowed on admin routes")
	flags.String(flagStripeSecretKey, "", "Stripe secret key (required)")
	flags.String(flagStripeWebhookSecret, "", "Stripe webhook signing secret (required)")
	flags.Duration(flagStripeTimeout, 10*time.Second, "Stripe request timeout")
	flags.String(flagClientURL, defaultClientURL, "client base URL for checkout redirects")
	flags.String(flagCurrency, "eur", "checkout currency")
	flags.String(flagPriceTolerance, "0", "accepted difference between cart and catalog prices")
	flags.Bool(flagSkipPriceValidation, false, "accept client prices without a catalog check")
	flags.String(flagRedisAddr, "", "Redis address for the catalog cache (disabled when empty)")
	flags.String(flagRedisPassword, "", "Redis password")
	flags.Int(flagRedisDB, 0, "Redis database index")
	flags.Duration(flagCatalogCacheTTL, 5*time.Minute, "catalog cache TTL")
	flags.String(flagKafkaBrokers, "", "comma-separated Kafka brokers for paid notifications (disabled when empty)")
	flags.String(flagKafkaTopic, "bookings.reservations", "Kafka topic for paid notifications")
	flags.String(flagGRPCHealthAddr, "", "gRPC health listen address (disabled when empty)")
	return cmd
}

func newMigrateCommand() *cobra.Command {
	cfg := &baseConfig{}
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadBaseConfig(newViper(cmd), cfg)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context(), cfg)
		},
	}
}

func newSeedCommand() *cobra.Command {
	cfg := &seedConfig{}
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert the catalog prestations",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			v := newViper(cmd)
			if err := loadBaseConfig(v, &cfg.baseConfig); err != nil {
				return err
			}
			cfg.File = strings.TrimSpace(v.GetString(flagSeedFile))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}
	cmd.Flags().String(flagSeedFile, "", "YAML catalog file (defaults to the built-in prestations)")
	return cmd
}

func newViper(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	for _, flags := range []*pflag.FlagSet{cmd.Flags(), cmd.InheritedFlags()} {
		_ = v.BindPFlags(flags)
	}
	return v
}
