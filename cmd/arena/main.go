package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"coliseum/internal/config"
	cronrunner "coliseum/internal/cron"
	"coliseum/internal/db"
	"coliseum/internal/handler"
	"coliseum/internal/logger"
	"coliseum/internal/metrics"
	"coliseum/internal/narrator"
	gormrepository "coliseum/internal/repository/gorm"
	"coliseum/internal/service"
	"coliseum/internal/stream"

	_ "coliseum/docs"
)

func main() {
	cfgPath := os.Getenv("ARENA_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("ARENA_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	store := gormrepository.New(dbConn.Gorm)
	arenaMetrics := metrics.New()

	var oddsHub *stream.Hub
	if cfg.Stream.Enabled {
		oddsHub = stream.NewHub(logger, cfg.Stream.SubBuffer)
	}

	marketSvc := &service.MarketService{
		Repo:    store,
		Logger:  logger,
		Metrics: arenaMetrics,
		Stream:  oddsHub,
	}
	fightSvc := &service.FightService{
		Repo:           store,
		Logger:         logger,
		Metrics:        arenaMetrics,
		Narrator:       narrator.Static{},
		PlatformFeePct: cfg.Betting.PlatformFeePct,
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(handler.CORSMiddleware())
	engine.Use(handler.RequestIDMiddleware())

	admin := handler.AdminAuthMiddleware(cfg.Server.AdminTokenEnv)
	betLimit := handler.RateLimitMiddleware(cfg.Betting.RateLimit, cfg.Betting.RateBurst)

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm}
	healthHandler.Register(engine)
	agentHandler := &handler.AgentHandler{Repo: store}
	agentHandler.Register(engine)
	fightHandler := &handler.FightHandler{Service: fightSvc, Admin: admin}
	fightHandler.Register(engine)
	marketHandler := &handler.MarketHandler{
		Service:   marketSvc,
		Admin:     admin,
		RateLimit: betLimit,
	}
	marketHandler.Register(engine)

	if oddsHub != nil {
		streamHandler := &handler.StreamHandler{
			Hub:          oddsHub,
			Service:      marketSvc,
			Logger:       logger,
			WriteTimeout: cfg.Stream.WriteTimeout,
			PingInterval: cfg.Stream.PingInterval,
		}
		streamHandler.Register(engine)
	}

	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(
		arenaMetrics.Registry(),
		promhttp.HandlerOpts{},
	)))
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Cron.Enabled {
		cronRunner := cronrunner.New(logger, ctx)
		_, err := cronRunner.AddJob("stale-fight-sweep", cfg.Cron.StaleFightSweep, func(ctx context.Context) error {
			n, err := fightSvc.CancelStaleFights(ctx, cfg.Betting.StaleFightMaxAge, 100)
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Info("cancelled stale fights", zap.Int64("count", n))
			}
			return nil
		})
		if err != nil {
			logger.Warn("cron register stale fight sweep failed", zap.Error(err))
		}
		cronRunner.Start()
		defer cronRunner.Stop()
	}

	errCh := make(chan error, 2)

	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
