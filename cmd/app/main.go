package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/waste3d/learning-platform/config"
	"github.com/waste3d/learning-platform/internal/application/usecase"
	"github.com/waste3d/learning-platform/internal/infrastructure/cache"
	"github.com/waste3d/learning-platform/internal/infrastructure/email"
	"github.com/waste3d/learning-platform/internal/infrastructure/oauth"
	"github.com/waste3d/learning-platform/internal/infrastructure/repository"
	"github.com/waste3d/learning-platform/internal/infrastructure/security"
	"github.com/waste3d/learning-platform/internal/infrastructure/storage"
	"github.com/waste3d/learning-platform/internal/middleware"
	"github.com/waste3d/learning-platform/internal/platform/logger"
	"github.com/waste3d/learning-platform/internal/platform/observability"
	"github.com/waste3d/learning-platform/internal/policy"
	grpc_server "github.com/waste3d/learning-platform/internal/transport/grpc"
	handlers "github.com/waste3d/learning-platform/internal/transport/http"
)

const mb = 1 << 20

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer appLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing := observability.InitOTel(ctx, appLogger, observability.OtelConfig{
		Enabled:     cfg.OtelEnabled,
		ServiceName: cfg.OtelServiceName,
		Environment: cfg.OtelEnvironment,
		Endpoint:    cfg.OtelEndpoint,
		Insecure:    cfg.OtelInsecure,
		SampleRatio: cfg.OtelSampleRatio,
	})

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{TranslateError: true})
	if err != nil {
		appLogger.Fatal("Failed to connect to DB", "error", err)
	}
	if err := repository.Migrate(db); err != nil {
		appLogger.Fatal("Failed to migrate DB", "error", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		appLogger.Fatal("Failed to get DB handle", "error", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		appLogger.Fatal("Failed to connect to Redis", "error", err)
	}

	uploader, err := storage.NewGCSUploader(ctx, appLogger, storage.Config{
		Bucket:       cfg.GCSBucket,
		CDNDomain:    cfg.GCSCDNDomain,
		EmulatorHost: cfg.GCSEmulatorHost,
	})
	if err != nil {
		appLogger.Fatal("Failed to init storage", "error", err)
	}

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	quizRepo := repository.NewQuizRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)

	tokenCache := cache.NewTokenCache(rdb)
	hasher := security.NewPasswordHasher()
	tokenManager := security.NewTokenManager(cfg.AccessSecret, cfg.RefreshSecret, cfg.AccessTTL, cfg.RefreshTTL)
	mailer := email.NewEmailSender(cfg.APIKey, cfg.SMTPEmail, cfg.FrontendURL)
	if !mailer.Enabled() {
		appLogger.Warn("SENDGRID_API_KEY is empty, emails will not be sent")
	}
	engine := policy.NewEngine()

	resolver := usecase.NewIdentityResolver(tokenManager, userRepo)
	authUseCase := usecase.NewAuthUseCase(appLogger, userRepo, tokenCache, hasher, tokenManager, mailer).
		WithGoogle(oauth.NewGoogleProvider(oauth.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			CallbackURL:  cfg.GoogleCallbackURL,
		}))
	if cfg.GoogleClientID == "" {
		appLogger.Warn("Google sign-in disabled: GOOGLE_CLIENT_ID is empty")
	}
	userUseCase := usecase.NewUserUseCase(appLogger, userRepo, engine, uploader)
	courseUseCase := usecase.NewCourseUseCase(appLogger, courseRepo, engine, uploader)
	lessonUseCase := usecase.NewLessonUseCase(appLogger, courseRepo, lessonRepo, engine, uploader)
	quizUseCase := usecase.NewQuizUseCase(appLogger, courseRepo, lessonRepo, quizRepo, enrollmentRepo, engine)
	enrollmentUseCase := usecase.NewEnrollmentUseCase(appLogger, courseRepo, lessonRepo, enrollmentRepo, engine)

	checks := map[string]handlers.HealthCheck{
		"postgres": sqlDB.PingContext,
		"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	}
	probes := map[string]grpc_server.Probe{}
	for name, check := range checks {
		probes[name] = grpc_server.Probe(check)
	}

	router := handlers.NewRouter(appLogger,
		handlers.RouterConfig{ServiceName: cfg.OtelServiceName, AllowedOrigins: cfg.Origins()},
		handlers.Handlers{
			Auth:        handlers.NewAuthHandler(appLogger, authUseCase, int(cfg.RefreshTTL.Seconds()), cfg.CookieSecure),
			Users:       handlers.NewUserHandler(appLogger, userUseCase, cfg.MaxAvatarMB*mb),
			Courses:     handlers.NewCourseHandler(appLogger, courseUseCase, cfg.MaxAvatarMB*mb),
			Lessons:     handlers.NewLessonHandler(appLogger, lessonUseCase, cfg.MaxVideoMB*mb),
			Quizzes:     handlers.NewQuizHandler(appLogger, quizUseCase),
			Enrollments: handlers.NewEnrollmentHandler(appLogger, enrollmentUseCase),
			Health:      handlers.NewHealthHandler(checks),
		},
		resolver,
		middleware.NewRateLimiter(rdb),
	)

	httpServer := &http.Server{
		Addr:              cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	healthServer := grpc_server.NewHealthServer(appLogger, probes)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		appLogger.Info("HTTP server is running", "addr", cfg.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		lis, err := net.Listen("tcp", cfg.GRPCPort)
		if err != nil {
			return err
		}
		appLogger.Info("gRPC health server is running", "addr", cfg.GRPCPort)
		return healthServer.Server().Serve(lis)
	})
	g.Go(func() error {
		healthServer.Watch(gctx, 15*time.Second)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		appLogger.Info("Shutting down servers...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		healthServer.Shutdown()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		appLogger.Error("Server stopped with error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(shutdownCtx); err != nil {
		appLogger.Warn("Tracer shutdown failed", "error", err)
	}
	if err := uploader.Close(); err != nil {
		appLogger.Warn("Storage client close failed", "error", err)
	}
	_ = rdb.Close()
	_ = sqlDB.Close()
}
