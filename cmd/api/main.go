package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/watchtogether/server/internal/auth"
	"github.com/watchtogether/server/internal/config"
	"github.com/watchtogether/server/internal/logger"
	"github.com/watchtogether/server/internal/metrics"
	"github.com/watchtogether/server/internal/profile"
	"github.com/watchtogether/server/internal/server"
	"github.com/watchtogether/server/internal/storage"
	"github.com/watchtogether/server/internal/token"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logg, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logg.Sync()
	zap.ReplaceGlobals(logg)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := storage.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logg.Fatal("connect postgres", zap.Error(err))
	}
	defer dbPool.Close()

	if err := storage.Migrate(ctx, dbPool); err != nil {
		logg.Fatal("migrate postgres", zap.Error(err))
	}

	minioClient, err := storage.NewMinIOClient(cfg.MinIO)
	if err != nil {
		logg.Fatal("connect minio", zap.Error(err))
	}

	if err := storage.EnsureBucket(ctx, minioClient, cfg.MinIO.Bucket, cfg.MinIO.Region); err != nil {
		logg.Fatal("ensure bucket", zap.Error(err))
	}

	metrics.InitMetrics()

	codec := token.NewCodec(cfg.Auth.Secret)
	authService := auth.NewService(auth.NewRepository(dbPool), codec, cfg.Auth)
	profileService := profile.NewService(
		profile.NewRepository(dbPool),
		profile.NewMinIOStore(minioClient),
		cfg.MinIO.Bucket,
		profile.WithAvatarURLTTL(cfg.MinIO.PresignTTL),
	)

	router := server.NewRouter(server.Dependencies{
		Config:         cfg,
		DB:             dbPool,
		ObjectStore:    minioClient,
		Logger:         logg,
		AuthService:    authService,
		ProfileService: profileService,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logg.Info("Watch Together API listening", zap.String("address", cfg.Server.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		logg.Info("shutting down gracefully")
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logg.Error("server stopped", zap.Error(err))
	}
}
