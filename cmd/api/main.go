// cmd/api/main.go
// Main entry point for the matchmaking API
// This file bootstraps all components and starts the server

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/vettly/vettly-backend/internal/auth"
	"github.com/vettly/vettly-backend/internal/common/database"
	"github.com/vettly/vettly-backend/internal/common/logger"
	"github.com/vettly/vettly-backend/internal/config"
	"github.com/vettly/vettly-backend/internal/explanation"
	"github.com/vettly/vettly-backend/internal/llm"
	"github.com/vettly/vettly-backend/internal/matching"
	"github.com/vettly/vettly-backend/internal/notification"
	"github.com/vettly/vettly-backend/internal/payment"
	"github.com/vettly/vettly-backend/internal/profile"
	"github.com/vettly/vettly-backend/internal/tips"
)

var startTime = time.Now()

func main() {
	// 1. Load environment variables and configuration
	envErr := godotenv.Load()
	cfg := config.Load()

	log, err := logger.New(cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("========================================")
	log.Info("🚀 Starting Vettly Matchmaking API")
	log.Info("========================================")

	log.Info("📁 Step 1: Loading configuration...")
	if envErr != nil {
		log.Warn("   ⚠️  No .env file found, using environment variables only")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("❌ Invalid configuration", zap.Error(err))
	}
	log.Info("   ✅ Configuration loaded",
		zap.String("environment", cfg.Environment),
		zap.String("llm_provider", cfg.LLMProvider),
	)

	jobsCtx, cancelJobs := context.WithCancel(context.Background())
	defer cancelJobs()

	// 2. Database
	log.Info("🗄️  Step 2: Connecting to PostgreSQL...")
	db, err := database.NewPostgresDBFromURL(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("❌ Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	log.Info("   ✅ PostgreSQL connected")

	// 3. Redis is optional; without it locks are local and explanations are not cached
	log.Info("📮 Step 3: Connecting to Redis...")
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.NewRedisClientFromURL(cfg.RedisURL)
		if err != nil {
			log.Warn("   ⚠️  Redis unavailable, continuing without it", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
			log.Info("   ✅ Redis connected")
		}
	} else {
		log.Info("   ⚠️  REDIS_URL not set, skipping")
	}
	locker := database.NewLocker(redisClient)

	// 4. Migrations
	log.Info("🔨 Step 4: Running database migrations...")
	if err := database.RunMigrations(jobsCtx, db, log); err != nil {
		log.Fatal("❌ Failed to run migrations", zap.Error(err))
	}
	log.Info("   ✅ Migrations completed")

	// 5. LLM
	log.Info("🤖 Step 5: Initializing LLM client...")
	llmClient, err := llm.New(jobsCtx, llm.Config{
		Provider:     cfg.LLMProvider,
		OpenAIAPIKey: cfg.OpenAIAPIKey,
		OpenAIModel:  cfg.OpenAIModel,
		GeminiAPIKey: cfg.GeminiAPIKey,
		GeminiModel:  cfg.GeminiModel,
		Timeout:      cfg.LLMTimeout,
	}, log)
	if err != nil {
		log.Fatal("❌ Failed to initialize LLM client", zap.Error(err))
	}
	log.Info("   ✅ LLM client ready", zap.String("provider", cfg.LLMProvider))

	// 6. Auth and profiles
	log.Info("👤 Step 6: Initializing profile system...")
	authMiddleware := auth.NewMiddleware(cfg.JWTSecret)
	profileService := profile.NewService(profile.NewPostgresRepository(db), log)
	profileHandler := profile.NewHandler(profileService)
	log.Info("   ✅ Profile system initialized")

	// 7. Notifications
	log.Info("🔔 Step 7: Initializing notifications...")
	hub := notification.NewHub(log)
	go hub.Run()

	notificationRepo := notification.NewPostgresRepository(db)
	notificationService := notification.NewService(notificationRepo, log)
	notificationHandler := notification.NewHandler(notificationService, hub)
	dispatcher := notification.NewDispatcher(
		notificationRepo,
		profileService,
		hub,
		newPushService(jobsCtx, cfg, log),
		newEmailService(cfg, log),
		newSMSService(cfg, log),
		notification.DispatcherConfig{
			Interval:    cfg.NotificationDispatchInterval,
			BatchSize:   cfg.NotificationBatchSize,
			MaxAttempts: cfg.NotificationMaxAttempts,
			StuckAfter:  5 * time.Minute,
		},
		log,
	)
	go dispatcher.Start(jobsCtx)
	log.Info("   ✅ Notifications initialized",
		zap.String("push", cfg.PushProvider),
		zap.String("email", cfg.EmailProvider),
		zap.String("sms", cfg.SMSProvider),
	)

	// 8. Matching
	log.Info("💞 Step 8: Initializing matching workflow...")
	var explanationCache matching.ExplanationCache
	if redisClient != nil {
		explanationCache = matching.NewRedisExplanationCache(redisClient, cfg.ExplanationCacheTTL, log)
	}
	matchingService := matching.NewService(
		matching.NewPostgresRepository(db),
		profileService,
		explanation.NewGenerator(llmClient, log),
		explanationCache,
		matching.Options{
			PaymentRequired: cfg.MatchPaymentRequired,
			SuggestionLimit: cfg.MatchSuggestionLimit,
		},
		log,
	)
	matchingHandler := matching.NewHandler(matchingService)
	matching.NewScheduler(matchingService, locker, cfg.MatchExpiry, log).Start(jobsCtx)
	log.Info("   ✅ Matching initialized", zap.Bool("payment_required", cfg.MatchPaymentRequired))

	// 9. Payments
	var paymentHandler *payment.Handler
	if cfg.StripeSecretKey != "" {
		log.Info("💳 Step 9: Initializing payments...")
		paymentService := payment.NewService(matchingService, payment.NewStripeGateway(cfg.StripeSecretKey), payment.Options{
			AmountCents:   cfg.MatchPaymentAmountCents,
			Currency:      cfg.MatchPaymentCurrency,
			WebhookSecret: cfg.StripeWebhookSecret,
		}, log)
		paymentHandler = payment.NewHandler(paymentService)
		log.Info("   ✅ Stripe payments enabled")
	} else {
		log.Info("💳 Step 9: STRIPE_SECRET_KEY not set, payment endpoints disabled")
	}

	// 10. Weekly tips
	log.Info("💡 Step 10: Initializing weekly tips...")
	tipsService := tips.NewService(tips.NewPostgresRepository(db), llmClient, tips.Options{
		AutoActivate: cfg.WeeklyTipAutoActivate,
	}, log)
	tipsHandler := tips.NewHandler(tipsService)
	tips.NewScheduler(tipsService, locker, cfg.WeeklyTipWeekday, cfg.WeeklyTipHour, log).Start(jobsCtx)
	log.Info("   ✅ Weekly tips initialized",
		zap.Stringer("weekday", cfg.WeeklyTipWeekday),
		zap.Int("hour", cfg.WeeklyTipHour),
	)

	// 11. Routes
	log.Info("🛣️  Step 11: Setting up routes...")
	router := mux.NewRouter()
	router.Use(loggingMiddleware(log))

	router.HandleFunc("/", apiInfo).Methods(http.MethodGet)
	router.HandleFunc("/health", healthCheck(db)).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	profileRouter := profile.NewRouter(profileHandler, authMiddleware)
	router.PathPrefix("/api/v1/profile").Handler(profileRouter)
	router.PathPrefix("/api/v1/users").Handler(profileRouter)

	// payment-intent lives under /api/v1/matches; register it first
	if paymentHandler != nil {
		payment.RegisterRoutes(router, paymentHandler, authMiddleware)
	}
	matching.RegisterRoutes(router, matchingHandler, authMiddleware)
	notification.RegisterRoutes(router, notificationHandler, authMiddleware)
	tips.RegisterRoutes(router, tipsHandler, authMiddleware)

	handler := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}).Handler(router)
	log.Info("   ✅ Routes configured")

	// 12. Start HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("========================================")
		log.Info("🚀 Server starting", zap.String("addr", srv.Addr), zap.String("environment", cfg.Environment))
		log.Info("========================================")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("❌ Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("⚠️  Shutdown signal received...")

	cancelJobs()
	dispatcher.Stop()
	hub.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("❌ Server forced to shutdown", zap.Error(err))
		return
	}

	log.Info("✅ Server exited gracefully")
}

func newPushService(ctx context.Context, cfg *config.Config, log *zap.Logger) notification.PushService {
	if cfg.PushProvider == "fcm" {
		push, err := notification.NewFCMPushService(ctx, cfg.FirebaseCredentialsPath, cfg.FirebaseCredentialsJSON, log)
		if err == nil {
			return push
		}
		log.Warn("   ⚠️  FCM unavailable, using mock push service", zap.Error(err))
	}
	return notification.NewMockPushService(log)
}

func newEmailService(cfg *config.Config, log *zap.Logger) notification.EmailService {
	if cfg.EmailProvider == "sendgrid" {
		email, err := notification.NewSendGridEmailService(cfg.SendGridAPIKey, cfg.EmailFrom, cfg.EmailFromName)
		if err == nil {
			return email
		}
		log.Warn("   ⚠️  SendGrid unavailable, using mock email service", zap.Error(err))
	}
	return notification.NewMockEmailService(log)
}

func newSMSService(cfg *config.Config, log *zap.Logger) notification.SMSService {
	if cfg.SMSProvider == "twilio" {
		sms, err := notification.NewTwilioSMSService(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, log)
		if err == nil {
			return sms
		}
		log.Warn("   ⚠️  Twilio unavailable, using mock SMS service", zap.Error(err))
	}
	return notification.NewMockSMSService(log)
}
