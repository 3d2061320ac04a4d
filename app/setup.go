package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gamifylearn/gamification-api/api"
	"github.com/gamifylearn/gamification-api/config"
	"github.com/gamifylearn/gamification-api/database"
	"github.com/gamifylearn/gamification-api/router"
	"github.com/gamifylearn/gamification-api/services"
	"github.com/gamifylearn/gamification-api/services/cron"
	"github.com/gamifylearn/gamification-api/services/payment"
	"github.com/gamifylearn/gamification-api/services/storage"
	"github.com/gamifylearn/gamification-api/utils/auth"
	"github.com/gamifylearn/gamification-api/utils/cache"
	"github.com/gamifylearn/gamification-api/utils/middleware"
	"github.com/gofiber/fiber/v2/log"
)

func SetupAndRunServer() error {

	// Load ENV
	if err := config.LoadENV(); err != nil {
		return err
	}

	env, err := config.Get()
	if err != nil {
		return err
	}

	if env.JWT_SECRET == "" {
		return errors.New("JWT_SECRET environment variable is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Document store
	store, err := openStore(ctx, env)
	if err != nil {
		return err
	}
	defer store.Close(context.Background())

	deps := router.Dependencies{
		Store: store,
		JWTManager: auth.NewJWTManager(auth.JWTConfig{
			Secret: env.JWT_SECRET,
			Expiry: 24 * time.Hour,
			Issuer: env.JWT_ISSUER,
		}),
		FanoutLimit: env.FANOUT_LIMIT,
		Security: &middleware.SecurityConfig{
			AllowedOrigins:    env.ALLOWED_ORIGINS,
			RateLimitRequests: 100,             // 100 requests
			RateLimitWindow:   1 * time.Minute, // per minute
		},
	}

	// Ledger database (notifications, token blacklist, payments, cron logs)
	var cronManager *cron.CronManager
	if env.DB_NAME != "" {
		ledger, err := database.StartGORM(env)
		if err != nil {
			print("Check whether the Postgres is running or not\n")
			return err
		}
		defer ledger.Close()

		if err := ledger.Init(); err != nil {
			print("Failed to initialize ledger tables\n")
			return err
		}

		blacklist := auth.NewBlacklistService(ledger.GetDB())
		deps.Blacklist = blacklist
		deps.Notifications = services.NewNotificationService(ledger.GetDB(), store, newMailer(env))

		paymentLedger := payment.NewLedgerService(ledger.GetDB())
		deps.Ledger = paymentLedger

		if env.CRON_ENABLED {
			cronManager = cron.NewCronManager(ledger.GetDB(), cron.Jobs{
				Tokens:        blacklist,
				Notifications: deps.Notifications,
				Payments:      paymentLedger,
			})
			if err := cronManager.Start(); err != nil {
				// Don't fail the app, just log the warning
				log.Warnf("Failed to start cron jobs: %v", err)
				cronManager = nil
			}
		}
	} else {
		log.Warn("DB_NAME not set: notifications, token revocation and payment ledger are disabled")
	}
	defer func() {
		if cronManager != nil {
			cronManager.Stop()
		}
	}()

	// Redis for brute force protection
	redisCache, err := cache.NewRedisCache(env.REDIS_URL)
	if err != nil {
		log.Warnf("Failed to connect to Redis: %v. Brute force protection will be disabled.", err)
	} else {
		defer redisCache.Close()
		deps.BruteForce = middleware.NewBruteForceProtection(redisCache)
	}

	// Object storage
	if env.SPACES_BUCKET != "" {
		spaces, err := storage.NewSpacesClient(storage.SpacesConfig{
			AccessKey: env.SPACES_ACCESS_KEY,
			SecretKey: env.SPACES_SECRET_KEY,
			Bucket:    env.SPACES_BUCKET,
			Region:    env.SPACES_REGION,
			Endpoint:  env.SPACES_ENDPOINT,
			CDNURL:    env.SPACES_CDN_URL,
		})
		if err != nil {
			log.Warnf("Object storage disabled: %v", err)
		} else {
			deps.Uploader = spaces
		}
	}

	// Payment gateway
	if env.FLUTTERWAVE_SECRET_KEY != "" {
		deps.Payments = payment.NewService(payment.Config{
			BaseURL:     env.FLUTTERWAVE_BASE_URL,
			SecretKey:   env.FLUTTERWAVE_SECRET_KEY,
			RedirectURL: env.PAYMENT_REDIRECT_URL,
			Currency:    env.PAYMENT_CURRENCY,
		})
	}

	// Init API
	server := api.NewAPIServer(fmt.Sprintf(":%d", env.PORT), env.MAX_UPLOAD_MB)
	router.SetupRoutes(server.GetEngine(), deps)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Info("Shutting down server...")
		if err := server.Shutdown(); err != nil {
			log.Errorf("Server shutdown failed: %v", err)
		}
	}()

	return server.Run()
}

// openStore connects the document store selected by DB_DRIVER
func openStore(ctx context.Context, env *config.EnviornmentVariable) (database.Storage, error) {
	switch env.DB_DRIVER {
	case "memory":
		log.Warn("Using the in-memory store; data is lost on restart")
		return database.NewMemoryStore(), nil
	case "mongo", "":
		store, err := database.StartMongo(ctx, env)
		if err != nil {
			print("Check whether MongoDB is running and MONGO_URI is correct\n")
			return nil, err
		}
		if err := store.Init(ctx); err != nil {
			store.Close(context.Background())
			return nil, fmt.Errorf("failed to create indexes: %w", err)
		}
		return store, nil
	}
	return nil, fmt.Errorf("unsupported DB_DRIVER %q", env.DB_DRIVER)
}

// newMailer returns nil unless SendGrid is configured
func newMailer(env *config.EnviornmentVariable) services.Mailer {
	mailer := services.NewEmailService(env.SENDGRID_API_KEY, env.MAIL_FROM_NAME, env.MAIL_FROM_ADDRESS)
	if !mailer.IsConfigured() {
		return nil
	}
	return mailer
}
