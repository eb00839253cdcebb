// cmd/server/main.go
// This is the entry point for the Prime Esports API server.
// The cmd/ folder holds executable binaries, and internal/ holds the packages
// they are built from. main only wires those packages together: it reads the
// config, builds every component once, mounts the routes and then waits for a
// shutdown signal.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	// cors lets the browser app call the API from its own origin.
	"github.com/gofiber/fiber/v2/middleware/cors"
	// recover turns a panicking handler into a 500 instead of a dead process.
	"github.com/gofiber/fiber/v2/middleware/recover"
	// requestid stamps every request with X-Request-ID for the logs.
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/muhammadsaim216/prime-esports/internal/baas"
	"github.com/muhammadsaim216/prime-esports/internal/config"
	"github.com/muhammadsaim216/prime-esports/internal/database"
	"github.com/muhammadsaim216/prime-esports/internal/events"
	"github.com/muhammadsaim216/prime-esports/internal/handlers"
	"github.com/muhammadsaim216/prime-esports/internal/logging"
	"github.com/muhammadsaim216/prime-esports/internal/metrics"
	"github.com/muhammadsaim216/prime-esports/internal/middleware"
	"github.com/muhammadsaim216/prime-esports/internal/models"
	"github.com/muhammadsaim216/prime-esports/internal/realtime"
	"github.com/muhammadsaim216/prime-esports/internal/session"
	"github.com/muhammadsaim216/prime-esports/internal/store"
	"github.com/muhammadsaim216/prime-esports/internal/validation"
	"github.com/muhammadsaim216/prime-esports/internal/websocket"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration from environment variables (and optionally a .env file).
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	log := logging.New(cfg.LogLevel, cfg.Env)

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

func run(cfg *config.Config, log *logrus.Logger) error {
	started := time.Now()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := baas.New(baas.Options{
		URL:        cfg.BaaS.URL,
		AnonKey:    cfg.BaaS.AnonKey,
		ServiceKey: cfg.BaaS.ServiceKey,
		JWTSecret:  cfg.BaaS.JWTSecret,
		Timeout:    cfg.BaaS.Timeout,
		Retries:    cfg.BaaS.Retries,
	}, log)

	// --- Store ---
	backend, db, err := openBackend(cfg, client, log)
	if err != nil {
		return err
	}
	if db != nil {
		defer func() {
			if err := database.Close(db); err != nil {
				log.WithError(err).Warn("closing database")
			}
		}()
	}
	s := store.New(backend)

	// --- Identity ---
	resolver := session.NewResolver(s.Roles, s.Profiles, log)
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			// The cache is an optimization; run without it.
			log.WithError(err).Warn("redis unreachable, identity cache disabled")
		} else {
			resolver = resolver.WithCache(session.NewRedisCache(rdb, cfg.Identity.CacheTTL, log))
		}
	}

	// --- Domain events ---
	var pub events.Publisher = events.NewLogPublisher(log)
	if len(cfg.Kafka.Brokers) > 0 {
		pub = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		log.WithField("brokers", cfg.Kafka.Brokers).Info("publishing domain events to kafka")
	}
	defer func() {
		if err := pub.Close(); err != nil {
			log.WithError(err).Warn("closing event publisher")
		}
	}()

	// --- Realtime ---
	m := metrics.New()
	hub := websocket.NewHub()
	feed := realtime.NewFeed(store.TableAnnouncements, s.Announcements.Published, client, log).WithRecorder(m)
	feed.Listen(func(u realtime.Update[models.Announcement]) {
		frame, err := handlers.EncodeFrame(handlers.AnnouncementsTopic, u)
		if err != nil {
			log.WithError(err).Error("encoding announcement update")
			return
		}
		hub.Publish(handlers.AnnouncementsTopic, frame)
	})

	feedCtx, stopFeed := context.WithCancel(ctx)
	defer stopFeed()
	go hub.Run(feedCtx)
	go func() {
		if err := feed.Run(feedCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Error("announcement feed stopped")
		}
	}()

	// --- HTTP ---
	app := fiber.New(fiber.Config{
		AppName:      "Prime Esports API",
		ErrorHandler: handlers.ErrorHandler(log),
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(middleware.RequestLogger(log))
	app.Use(middleware.Metrics(m))
	app.Get("/metrics", m.Handler())

	handlers.Register(app, handlers.Deps{
		Store:     s,
		Auth:      client,
		Identity:  resolver,
		Validator: validation.New(),
		Feed:      feed,
		Hub:       hub,
		Notifier:  events.NewNotifier(pub, log),
		Sockets:   m,
		Log:       log,
		Started:   started,
	})

	errc := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{"port": cfg.Port, "store": cfg.Store.Backend}).Info("starting server")
		errc <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	// Stop taking requests first, then let the deferred closes run.
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		log.WithError(err).Warn("http shutdown")
	}
	stopFeed()
	return nil
}

// openBackend picks the store backend. The gorm handle is returned so main can
// close it; it is nil for the REST backend.
func openBackend(cfg *config.Config, client *baas.Client, log *logrus.Logger) (store.Backend, *gorm.DB, error) {
	switch strings.ToLower(cfg.Store.Backend) {
	case config.BackendPostgres:
		if cfg.Store.MigrateOnStart {
			if err := database.RunMigrations(cfg.Store.DatabaseURL); err != nil {
				return nil, nil, err
			}
		}
		db, err := database.Connect(cfg.Store.DatabaseURL, log)
		if err != nil {
			return nil, nil, err
		}
		return store.NewGormBackend(db), db, nil
	default:
		return store.NewRestBackend(client), nil, nil
	}
}
