package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/MarkoPoloResearchLab/prestations/internal/accounts"
	"github.com/MarkoPoloResearchLab/prestations/internal/cache/rediscache"
	"github.com/MarkoPoloResearchLab/prestations/internal/gateway/stripegw"
	"github.com/MarkoPoloResearchLab/prestations/internal/grpcserver"
	"github.com/MarkoPoloResearchLab/prestations/internal/httpapi"
	"github.com/MarkoPoloResearchLab/prestations/internal/metrics"
	"github.com/MarkoPoloResearchLab/prestations/internal/notify/kafkanotify"
	"github.com/MarkoPoloResearchLab/prestations/internal/oplog"
	"github.com/MarkoPoloResearchLab/prestations/internal/store/gormstore"
	"github.com/MarkoPoloResearchLab/prestations/internal/store/pgstore"
	"github.com/MarkoPoloResearchLab/prestations/pkg/booking"
	"github.com/MarkoPoloResearchLab/prestations/pkg/catalog"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func nowUTC() time.Time {
	return time.Now().UTC()
}

func newLogger(development bool) (*zap.Logger, error) {
	if development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func runServe(ctx context.Context, cfg *serveConfig) error {
	logger, err := newLogger(cfg.LogDev)
	if err != nil {
		return fmt.Errorf("logger init: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	gormDB, cleanup, driver, err := openDatabase(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("database open: %w", err)
	}
	defer func() { _ = cleanup() }()

	store := gormstore.New(gormDB)
	if driver == driverSQLite {
		if err := store.Migrate(ctx); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
	}

	var reservations booking.Store = store
	var pgStore *pgstore.Store
	if cfg.StoreDriver == storeDriverPgx {
		if driver != driverPostgres {
			return fmt.Errorf("%s %q requires a postgres database url", flagStoreDriver, storeDriverPgx)
		}
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("pgx pool: %w", err)
		}
		defer pool.Close()
		pgStore = pgstore.New(pool)
		reservations = pgStore
	}

	catalogOptions := []catalog.ServiceOption{catalog.WithLogger(logger.Named("catalog"))}
	var cache *rediscache.Cache
	if cfg.RedisAddr != "" {
		cache = rediscache.New(rediscache.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.CatalogCacheTTL,
		})
		defer func() { _ = cache.Close() }()
		catalogOptions = append(catalogOptions, catalog.WithCache(cache))
	}
	catalogService, err := catalog.NewService(store, catalogOptions...)
	if err != nil {
		return fmt.Errorf("catalog service init: %w", err)
	}

	accountService, err := accounts.NewService(store, nowUTC)
	if err != nil {
		return fmt.Errorf("accounts service init: %w", err)
	}

	gateway, err := stripegw.New(stripegw.Config{
		SecretKey:     cfg.StripeSecretKey,
		WebhookSecret: cfg.StripeWebhookSecret,
		Timeout:       cfg.StripeTimeout,
		Logger:        logger.Named("stripe"),
	})
	if err != nil {
		return fmt.Errorf("stripe gateway init: %w", err)
	}

	bookingOptions := []booking.ServiceOption{
		booking.WithCheckoutURLs(cfg.ClientURL+"/Success", cfg.ClientURL+"/Cancel"),
		booking.WithCurrency(cfg.Currency),
		booking.WithGatewayTimeout(cfg.StripeTimeout),
		booking.WithMetrics(metrics.NewBookingMetrics(prometheus.DefaultRegisterer)),
		booking.WithOperationLogger(oplog.New(logger)),
	}
	if cfg.SkipPriceValidation {
		bookingOptions = append(bookingOptions, booking.WithoutPriceValidation())
	} else {
		bookingOptions = append(bookingOptions, booking.WithPriceValidation(cfg.PriceTolerance))
	}
	if len(cfg.KafkaBrokers) > 0 {
		publisher, err := kafkanotify.New(kafkanotify.Config{Brokers: cfg.KafkaBrokers, Topic: cfg.KafkaTopic})
		if err != nil {
			return fmt.Errorf("kafka notifier init: %w", err)
		}
		defer func() { _ = publisher.Close() }()
		bookingOptions = append(bookingOptions, booking.WithNotifier(publisher))
	}
	bookingService, err := booking.NewService(reservations, catalogService, gateway, nowUTC, bookingOptions...)
	if err != nil {
		return fmt.Errorf("booking service init: %w", err)
	}

	serveCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	healthErrCh := make(chan error, 1)
	if cfg.GRPCHealthAddr != "" {
		healthOptions := []grpcserver.HealthOption{
			grpcserver.WithCheck("database", store),
			grpcserver.WithLogger(logger.Named("health")),
		}
		if cache != nil {
			healthOptions = append(healthOptions, grpcserver.WithCheck("cache", cache))
		}
		if pgStore != nil {
			healthOptions = append(healthOptions, grpcserver.WithCheck("reservations", pgStore))
		}
		healthServer := grpcserver.NewHealthServer(healthOptions...)
		go func() {
			healthErrCh <- grpcserver.Serve(serveCtx, cfg.GRPCHealthAddr, healthServer, logger)
		}()
	} else {
		healthErrCh <- nil
	}

	httpErr := httpapi.Run(serveCtx, cfg.HTTP, httpapi.Dependencies{
		Bookings: bookingService,
		Catalog:  catalogService,
		Accounts: accountService,
		Gatherer: prometheus.DefaultGatherer,
	}, logger)
	cancel()
	return errors.Join(httpErr, <-healthErrCh)
}

func runMigrate(ctx context.Context, cfg *baseConfig) error {
	logger, err := newLogger(cfg.LogDev)
	if err != nil {
		return fmt.Errorf("logger init: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	gormDB, cleanup, driver, err := openDatabase(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("database open: %w", err)
	}
	defer func() { _ = cleanup() }()

	if err := gormstore.New(gormDB).Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	logger.Info("schema migrated", zap.String("driver", driver))
	return nil
}

func runSeed(ctx context.Context, cfg *seedConfig, out io.Writer) error {
	inputs := catalog.DefaultSeed()
	if cfg.File != "" {
		file, err := os.Open(cfg.File)
		if err != nil {
			return fmt.Errorf("open seed file: %w", err)
		}
		defer file.Close()
		inputs, err = catalog.LoadSeed(file)
		if err != nil {
			return err
		}
	}

	gormDB, cleanup, _, err := openDatabase(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("database open: %w", err)
	}
	defer func() { _ = cleanup() }()

	store := gormstore.New(gormDB)
	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	catalogService, err := catalog.NewService(store)
	if err != nil {
		return err
	}
	report, err := catalogService.Seed(ctx, inputs)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "seeded prestations: %d created, %d skipped\n", report.Created, report.Skipped)
	return err
}
