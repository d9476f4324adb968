package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/example/lab-booking/internal/application"
	"github.com/example/lab-booking/internal/config"
	httptransport "github.com/example/lab-booking/internal/http"
	"github.com/example/lab-booking/internal/lock"
	"github.com/example/lab-booking/internal/notify"
	"github.com/example/lab-booking/internal/persistence/sqlstore"
	"github.com/example/lab-booking/internal/scheduler"
)

func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (*sqlstore.Store, error) {
	dialect, err := sqlstore.ParseDialect(cfg.DBDriver)
	if err != nil {
		return nil, err
	}

	logger.Info("opening storage", "db_driver", string(dialect))
	store, err := sqlstore.Open(ctx, dialect, cfg.DBDSN, sqlstore.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	logger.Info("database migrations completed")
	return store, nil
}

func newLocker(ctx context.Context, cfg config.Config, logger *slog.Logger) (lock.Locker, func() error, error) {
	if cfg.RedisAddr == "" {
		logger.Info("using in-process slot lock")
		return lock.NewLocal(), nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("ping redis %s: %w", cfg.RedisAddr, err)
	}

	logger.Info("using redis slot lock", "redis_addr", cfg.RedisAddr)
	return lock.NewRedis(client), client.Close, nil
}

func newNotifier(cfg config.Config, logger *slog.Logger) (notify.Notifier, func() error) {
	if cfg.AMQPURL == "" {
		logger.Info("booking events are logged only")
		return notify.NewLogNotifier(logger), nil
	}
	publisher := notify.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPQueue)
	logger.Info("publishing booking events", "queue", cfg.AMQPQueue)
	return publisher, publisher.Close
}

func newRouter(cfg config.Config, store *sqlstore.Store, locker lock.Locker, notifier notify.Notifier, logger *slog.Logger, now func() time.Time) (*echo.Echo, error) {
	resolver, err := scheduler.NewResolver(scheduler.PeriodRange{
		Min: scheduler.Period(cfg.PeriodMin),
		Max: scheduler.Period(cfg.PeriodMax),
	})
	if err != nil {
		return nil, err
	}

	rooms := application.NewRoomServiceWithLogger(store, uuid.NewString, now, logger)
	fixedSchedules := application.NewFixedScheduleService(store, store, resolver, uuid.NewString, now, logger)
	availability := application.NewAvailabilityService(store, store, store, resolver, logger)
	bookings := application.NewBookingService(application.BookingServiceConfig{
		Rooms:       store,
		Schedules:   store,
		Bookings:    store,
		Resolver:    resolver,
		Locker:      locker,
		Notifier:    notifier,
		IDGenerator: uuid.NewString,
		Now:         now,
		Location:    cfg.Location,
		LockTTL:     cfg.LockTTL,
		Logger:      logger,
	})

	return httptransport.NewRouter(httptransport.RouterConfig{
		Rooms:          httptransport.NewRoomHandler(rooms, logger),
		Availability:   httptransport.NewAvailabilityHandler(availability, logger),
		FixedSchedules: httptransport.NewFixedScheduleHandler(fixedSchedules, logger),
		Bookings:       httptransport.NewBookingHandler(bookings, logger),
		JWTSecret:      cfg.JWTSecret,
		Logger:         logger,
	}), nil
}
