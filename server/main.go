package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/roomiesofficial522-svg/Tkitmaster/api/routes"
	"github.com/roomiesofficial522-svg/Tkitmaster/internal/auth"
	"github.com/roomiesofficial522-svg/Tkitmaster/internal/notifications"
	"github.com/roomiesofficial522-svg/Tkitmaster/internal/seats"
	"github.com/roomiesofficial522-svg/Tkitmaster/internal/shared/config"
	"github.com/roomiesofficial522-svg/Tkitmaster/internal/shared/database"
	"github.com/roomiesofficial522-svg/Tkitmaster/internal/workers"
	"github.com/roomiesofficial522-svg/Tkitmaster/pkg/logger"
	"github.com/roomiesofficial522-svg/Tkitmaster/pkg/ratelimit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := config.Load()

	gin.SetMode(cfg.GinMode)

	appLogger := logger.New()
	logger.SetDefault(appLogger)

	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db.GetPostgreSQL()); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Preload Lua scripts so the hot path never pays the EVAL parse cost
	seatOps := seats.NewAtomicSeatOps(db.GetRedis())
	if err := seatOps.PreloadScripts(context.Background()); err != nil {
		appLogger.Warn("failed to preload redis scripts", "error", err.Error())
	}

	rateLimiter := ratelimit.NewRateLimiter(db.GetRedis(), &ratelimit.Config{
		Enabled: cfg.RateLimit.Enabled,
		Buckets: map[ratelimit.Bucket]ratelimit.Limit{
			ratelimit.BucketHold: {Requests: cfg.RateLimit.HoldRequests, Window: cfg.RateLimit.HoldWindow},
			ratelimit.BucketAuth: {Requests: cfg.RateLimit.AuthRequests, Window: cfg.RateLimit.AuthWindow},
		},
		Default: ratelimit.Limit{Requests: 100, Window: time.Minute},
	})

	notifier := buildNotifier(cfg, db, appLogger)

	engine := setupGinEngine(cfg, appLogger)

	router := routes.NewRouter(cfg, db, rateLimiter, notifier)
	router.SetupRoutes(engine)

	// Background repair of booked seats whose hot-state marker was lost
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	reconciler := workers.NewReconciler(
		seats.NewRepository(db.GetPostgreSQL(), db.GetRedis()),
		cfg.Reservation.SweepPeriod,
	)
	go reconciler.Run(workerCtx)

	server := &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        engine,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
	}

	go func() {
		appLogger.Info("Starting server", "address", cfg.GetServerAddress(), "mode", cfg.GinMode)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	stopWorkers()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	appLogger.Info("Server exited")
}

// buildNotifier wires the notification facade. Kafka is optional; without it
// the facade falls back to direct SMTP delivery.
func buildNotifier(cfg *config.Config, db *database.DB, appLogger *logger.Logger) *notifications.Service {
	mailer := notifications.NewMailer(cfg.Email)
	users := auth.NewUserDirectoryAdapter(auth.NewRepository(db.GetPostgreSQL(), db.GetRedis()))

	var producer notifications.Producer
	if cfg.Kafka.Enabled {
		kafkaProducer, err := notifications.NewKafkaProducer(cfg.Kafka)
		if err != nil {
			appLogger.Warn("kafka producer unavailable, using direct delivery", "error", err.Error())
		} else {
			producer = kafkaProducer

			consumer, err := notifications.NewConsumer(cfg.Kafka, mailer)
			if err != nil {
				appLogger.Warn("kafka consumer unavailable", "error", err.Error())
			} else {
				go func() {
					if err := consumer.Run(context.Background()); err != nil {
						appLogger.Error("notification consumer stopped", "error", err.Error())
					}
				}()
			}
		}
	}

	return notifications.NewService(producer, mailer, users)
}

// setupGinEngine configures the Gin engine with middleware
func setupGinEngine(cfg *config.Config, appLogger *logger.Logger) *gin.Engine {
	engine := gin.New()

	engine.Use(gin.Recovery())

	engine.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		appLogger.LogHTTPRequest(c, time.Since(start))
	})

	corsConfig := cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key"},
		ExposeHeaders:    []string{"Content-Length", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(cors.New(corsConfig))

	return engine
}
