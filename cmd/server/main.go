package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/freightlink/backend/internal/audit"
	"github.com/freightlink/backend/internal/config"
	"github.com/freightlink/backend/internal/conversion"
	"github.com/freightlink/backend/internal/database"
	"github.com/freightlink/backend/internal/handlers"
	"github.com/freightlink/backend/internal/jobs"
	"github.com/freightlink/backend/internal/loyalty"
	"github.com/freightlink/backend/internal/models"
	"github.com/freightlink/backend/internal/queue"
	"github.com/freightlink/backend/internal/referral"
	"github.com/freightlink/backend/internal/repository"
	"github.com/freightlink/backend/internal/routes"
	"github.com/freightlink/backend/internal/settings"
	"github.com/gin-gonic/gin"
	"github.com/go-co-op/gocron"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.LoadConfig()
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.InitDB(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	redisClient, err := newRedisClient(cfg.Redis)
	if err != nil {
		log.Fatalf("Invalid Redis configuration: %v", err)
	}
	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	if _, err := redisClient.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	repo := repository.New(db, repository.WithCurrency(models.Currency(cfg.Loyalty.WalletCurrency)))
	settingsService := settings.NewService(repo, cfg.Loyalty)

	engineConfig := loyalty.DefaultConfig()
	engineConfig.VerifyOnWrite = cfg.Loyalty.VerifyOnWrite
	engineConfig.ReadRetries = cfg.Loyalty.BalanceReadRetries
	ledger := loyalty.NewEngine(repo, engineConfig)

	resolver := referral.NewResolver(repo, ledger,
		referral.WithCodeAttempts(cfg.Loyalty.CodeAttempts),
		referral.WithSignupWindow(time.Duration(cfg.Loyalty.ReferralWindowDays)*24*time.Hour),
	)
	conversionService := conversion.NewService(repo, ledger, conversion.WithLimits(settingsService))

	redisQueue := queue.NewRedisQueue(redisClient, db, "freightlink:")

	var (
		jobProcessor *queue.JobProcessor
		scheduler    *gocron.Scheduler
	)
	if cfg.Jobs.Enabled {
		jobProcessor = queue.NewJobProcessor(redisQueue, cfg.Jobs.WorkerCount)
		jobs.RegisterAllJobHandlers(jobProcessor, jobs.NewShipmentDeliveredJob(ledger, resolver, settingsService))
		jobProcessor.Start(ctx)

		scheduler, err = jobs.ScheduleRecurringJobs(ctx, jobs.NewReconciliationJob(repo), cfg.Jobs.ReconciliationInterval)
		if err != nil {
			log.Fatalf("Failed to schedule recurring jobs: %v", err)
		}
		if err := jobs.ScheduleStaleSweep(ctx, scheduler, redisQueue, cfg.Jobs.StaleAfter, queue.QueueShipmentDelivered); err != nil {
			log.Fatalf("Failed to schedule stale job sweep: %v", err)
		}
	}

	limiters := routes.NewLimiters(cfg.Security)
	router := routes.SetupRouter(cfg, routes.Handlers{
		Loyalty:  handlers.NewLoyaltyHandler(ledger, conversionService, repo, settingsService),
		Referral: handlers.NewReferralHandler(resolver, repo),
		Admin:    handlers.NewAdminHandler(ledger, settingsService, audit.NewLogger(db)),
		Events:   handlers.NewEventsHandler(redisQueue, cfg.Jobs.MaxRetries),
		Health:   handlers.NewHealthHandler(db, redisClient),
	}, limiters)

	srv := startServer(router, cfg.Server)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	if scheduler != nil {
		scheduler.Stop()
	}
	if jobProcessor != nil {
		jobProcessor.Stop()
	}
	stop()
	limiters.Stop()

	if err := redisClient.Close(); err != nil {
		log.Printf("Error closing Redis client: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	log.Println("Server exiting")
}

func newRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if cfg.DB != 0 {
		opts.DB = cfg.DB
	}
	return redis.NewClient(opts), nil
}

// startServer starts the HTTP server
func startServer(router *gin.Engine, cfg config.ServerConfig) *http.Server {
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	log.Printf("Server started on port %s", cfg.Port)
	return srv
}
