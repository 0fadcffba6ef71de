package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fjod/storefront/internal/account"
	"github.com/fjod/storefront/internal/backend"
	"github.com/fjod/storefront/internal/cart"
	"github.com/fjod/storefront/internal/catalog"
	"github.com/fjod/storefront/internal/checkout"
	"github.com/fjod/storefront/internal/config"
	"github.com/fjod/storefront/internal/events"
	h "github.com/fjod/storefront/internal/http"
	"github.com/fjod/storefront/internal/logger"
	"github.com/fjod/storefront/internal/orders"
	"github.com/fjod/storefront/internal/storage"
	"github.com/fjod/storefront/internal/wallet"
	"github.com/fjod/storefront/internal/wishlist"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	log = log.With(zap.String("app", cfg.App.Name), zap.String("env", cfg.App.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("storefront stopped with error", zap.Error(err))
	}
	log.Info("storefront exited")
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	health := map[string]h.HealthCheck{}
	var closers []func() error
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				log.Warn("shutdown step failed", zap.Error(err))
			}
		}
	}()

	snapshots, closeSnapshots, err := snapshotStore(ctx, cfg.Storage, health, log)
	if err != nil {
		return err
	}
	closers = append(closers, closeSnapshots)

	repo, err := checkoutRepository(ctx, cfg.Checkout, health, log)
	if err != nil {
		return err
	}
	closers = append(closers, repo.Close)

	client, err := backend.NewClient(backend.Config{
		BaseURL:         cfg.Backend.BaseURL,
		Timeout:         cfg.Backend.Timeout,
		MaxResponseSize: cfg.Backend.MaxResponseSize,
		BreakerFailures: cfg.Backend.BreakerFailures,
		BreakerCooldown: cfg.Backend.BreakerCooldown,
	}, log.Named("backend"))
	if err != nil {
		return err
	}

	carts := cart.NewStore(snapshots, log.Named("cart"))
	methods := make([]checkout.ShippingMethod, 0, len(cfg.Checkout.ShippingMethods))
	for _, m := range cfg.Checkout.ShippingMethods {
		methods = append(methods, checkout.ShippingMethod{ID: m.ID, Label: m.Label, Cost: m.ShippingCost()})
	}
	checkoutSvc := checkout.NewService(repo, carts, client, checkout.Config{
		TaxRate:         cfg.Checkout.TaxRate,
		ShippingMethods: methods,
		PaymentTimeout:  cfg.Checkout.PaymentTimeout,
	}, log.Named("checkout"))

	var publisher events.Publisher = events.NopPublisher{Logger: log.Named("events")}
	if len(cfg.Events.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.Events.Topic, cfg.Events.Brokers...)
		log.Info("publishing order events to kafka",
			zap.Strings("brokers", cfg.Events.Brokers), zap.String("topic", cfg.Events.Topic))
	}
	closers = append(closers, publisher.Close)

	relay := events.NewRelay(repo, publisher, log.Named("relay"), cfg.Events.RelayInterval)
	closers = append(closers, background(ctx, relay.Run))

	// Checkout clears the cart itself; the consumer catches carts whose
	// clear failed at the time.
	if len(cfg.Events.Brokers) > 0 {
		consumerLog := log.Named("consumer")
		consumer := events.NewConsumer(cfg.Events.Topic, cfg.Events.ConsumerGroup,
			func(ctx context.Context, e events.OrderCompleted) error {
				cleared, err := carts.ClearPlaced(ctx, e.SessionID, e.CompletedAt)
				if cleared {
					consumerLog.Info("cart cleared after order",
						zap.String("session_id", e.SessionID), zap.String("checkout_id", e.CheckoutID))
				}
				return err
			}, consumerLog, cfg.Events.Brokers...)
		closers = append(closers, consumer.Close)
		closers = append(closers, background(ctx, consumer.Run))
	}

	router := h.NewRouter(h.Services{
		Cart:     carts,
		Checkout: checkoutSvc,
		Wallet:   wallet.NewService(client, log.Named("wallet")),
		Catalog:  catalog.NewService(client, cfg.Catalog.SearchTTL, log.Named("catalog")),
		Orders:   orders.NewService(client, log.Named("orders")),
		Account:  account.NewService(client),
		Wishlist: wishlist.NewService(client, log.Named("wishlist")),
		Health:   health,
	}, h.RouterConfig{
		RequestTimeout: cfg.HTTP.RequestTimeout,
		PaymentTimeout: cfg.Checkout.PaymentTimeout,
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		TaxRate:        cfg.Checkout.TaxRate,
	}, log.Named("http"))

	srv := h.NewServer(cfg.HTTP.Addr(), router, cfg.HTTP.ReadTimeout, cfg.HTTP.WriteTimeout, cfg.HTTP.IdleTimeout)

	errCh := make(chan error, 1)
	go func() {
		log.Info("storefront listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

// background runs fn until the returned stop function cancels it.
func background(ctx context.Context, fn func(context.Context)) func() error {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn(ctx)
	}()
	return func() error {
		cancel()
		<-done
		return nil
	}
}

func snapshotStore(ctx context.Context, cfg config.StorageConfig, health map[string]h.HealthCheck, log *zap.Logger) (storage.SnapshotStore, func() error, error) {
	switch cfg.Driver {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("redis connection failed: %w", err)
		}
		health["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		log.Info("cart snapshots in redis", zap.String("addr", cfg.Redis.Addr))
		return storage.NewRedisStore(client, cfg.Redis.Prefix, cfg.CartTTL), client.Close, nil

	case "mongo":
		db, err := storage.ConnectMongoDB(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return nil, nil, err
		}
		store := storage.NewMongoStore(db, cfg.Mongo.Collection, cfg.CartTTL)
		if err := store.CreateIndexes(ctx); err != nil {
			_ = db.Client().Disconnect(context.Background())
			return nil, nil, err
		}
		health["mongo"] = func(ctx context.Context) error { return db.Client().Ping(ctx, nil) }
		log.Info("cart snapshots in mongodb", zap.String("database", cfg.Mongo.Database))
		return store, func() error { return db.Client().Disconnect(context.Background()) }, nil

	default:
		log.Info("cart snapshots in memory")
		store := storage.NewMemoryStore(cfg.CartTTL)
		return store, store.Close, nil
	}
}

func checkoutRepository(ctx context.Context, cfg config.CheckoutConfig, health map[string]h.HealthCheck, log *zap.Logger) (checkout.Repository, error) {
	if cfg.Driver != "postgres" {
		log.Info("checkout sessions in memory")
		return checkout.NewMemoryRepository(), nil
	}

	repo, err := checkout.NewPostgresRepository(ctx, checkout.Credentials{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		return nil, err
	}
	if err := repo.RunMigrations(); err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	health["postgres"] = repo.Ping
	log.Info("checkout sessions in postgres", zap.String("host", cfg.Database.Host))
	return repo, nil
}
