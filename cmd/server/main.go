package main // Entry point package

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/hostel-booking/internal/config"
	"github.com/iliyamo/hostel-booking/internal/database"
	"github.com/iliyamo/hostel-booking/internal/handler"
	"github.com/iliyamo/hostel-booking/internal/logging"
	"github.com/iliyamo/hostel-booking/internal/middleware"
	"github.com/iliyamo/hostel-booking/internal/payment"
	"github.com/iliyamo/hostel-booking/internal/queue"
	"github.com/iliyamo/hostel-booking/internal/repository"
	"github.com/iliyamo/hostel-booking/internal/router"
	"github.com/iliyamo/hostel-booking/internal/service"
)

func main() {
	config.LoadDotEnv(os.Getenv("ENV_FILE"))
	cfg := config.Load()
	payCfg := config.LoadPaymentConfig()
	queueCfg := config.LoadQueueConfig()

	log := logging.Setup(logging.Options{
		Service: "hostel-booking",
		Env:     cfg.Env,
		Level:   logging.ParseLevel(cfg.LogLevel),
		File:    cfg.LogFile,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, database.DSN(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName),
		database.Pool{MaxOpen: cfg.DBMaxOpen, MaxLifetime: cfg.DBMaxLife})
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if cfg.Migrate {
		if err := database.Migrate(ctx, db); err != nil {
			log.Error("database migration failed", "error", err)
			os.Exit(1)
		}
	}

	// Redis backs rate limiting and the listing cache; both degrade to
	// pass-through when it is unreachable.
	rdb := config.NewRedisClient(config.LoadRedisConfig(), log)
	rlCfg := config.LoadRateLimitConfig()
	cacheCfg := config.LoadCacheConfig()

	var gateway payment.Gateway
	var fake *payment.FakeGateway
	switch payCfg.Provider {
	case "fake":
		fake = payment.NewFakeGateway()
		gateway = fake
		log.Warn("using in-memory payment gateway")
	default:
		gateway = payment.NewStripeGateway(payCfg.StripeKey)
	}

	var notifier service.Notifier = service.LogNotifier{Log: log}
	if queueCfg.Enabled {
		notifier = service.NewAMQPNotifier(queueCfg.URL, queueCfg.Queue)
	}
	dispatcher := service.NewDispatcher(notifier, time.Duration(queueCfg.NotifyTimeout)*time.Second, log)

	store := repository.NewStore(db)
	coordinator := service.NewCoordinator(store, gateway, dispatcher, service.CoordinatorConfig{
		Currency:       payCfg.Currency,
		GatewayTimeout: payCfg.GatewayTimeout,
		HoldTTL:        payCfg.HoldTTL,
	}, log)
	canceller := service.NewCanceller(store, gateway, dispatcher, payCfg.GatewayTimeout, log)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewRequestValidator()
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(log))
	e.Use(middleware.Metrics())

	router.RegisterRoutes(e, db)
	router.RegisterPublic(e, &handler.PublicHandler{Hostels: store.Hostels, Rooms: store.Rooms},
		middleware.NewRedisCache(cacheCfg, rdb))
	router.RegisterBookings(e,
		handler.NewBookingHandler(coordinator, canceller, store.Reservations, store.Hostels, cfg.Debug),
		cfg.JWTSecret, middleware.NewTokenBucket(rlCfg, rdb, log))
	invalidate := func(ctx context.Context) error { return middleware.InvalidateCache(ctx, cacheCfg, rdb) }
	router.RegisterOwner(e, handler.NewOwnerHandler(store.Hostels, store.Rooms, store.Reservations, invalidate),
		cfg.JWTSecret)
	router.RegisterAdmin(e, &handler.AdminHandler{
		Reservations: store.Reservations,
		Hostels:      store.Hostels,
		Invalidate:   invalidate,
	}, cfg.JWTSecret)
	if payCfg.WebhookSecret != "" {
		router.RegisterWebhooks(e, &handler.WebhookHandler{
			Secret:   payCfg.WebhookSecret,
			Bookings: settlementService{coordinator, canceller},
			Log:      log,
		})
	}
	if fake != nil && cfg.Env != "prod" {
		router.RegisterDev(e, &handler.DevHandler{Payments: fake})
	}

	if queueCfg.Enabled && queueCfg.StartConsumer {
		out := logging.RotatingFile(queueCfg.ConsumerLog)
		defer out.Close()
		go func() {
			err := queue.StartNotificationConsumer(ctx, queue.ConsumerOptions{
				URL: queueCfg.URL, Queue: queueCfg.Queue, Out: out, Logger: log,
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Error("notification consumer stopped", "error", err)
			}
		}()
	}

	addr := ":" + cfg.Port
	go func() {
		log.Info("listening", "addr", addr, "env", cfg.Env, "payment_provider", payCfg.Provider)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdown(e, coordinator, log)
}

// shutdown stops accepting requests, then waits for in-flight
// notifications before the process exits.
func shutdown(e *echo.Echo, c *service.Coordinator, log *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Error("http shutdown failed", "error", err)
	}
	c.Wait()
	log.Info("server stopped")
}

// settlementService joins the two services the webhook drives.
type settlementService struct {
	*service.Coordinator
	*service.Canceller
}
