package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"experience_booking/internal/pkg/config"
	"experience_booking/internal/pkg/mailer"
	"experience_booking/internal/pkg/middleware"
	"experience_booking/internal/pkg/registry"
	"experience_booking/internal/pkg/uploader"
	"experience_booking/internal/pkg/worker"
	"experience_booking/pkg/database"
	"experience_booking/pkg/logger"

	// 模块注册（按优先级初始化：user → experience → order）
	_ "experience_booking/internal/domain/experience"
	_ "experience_booking/internal/domain/order"
	_ "experience_booking/internal/domain/user"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// 1. 配置与日志
	config.LoadConfig()
	logger.InitLogger(config.GlobalConfig.App.Debug)
	defer logger.Sync()

	// 2. 外部依赖：全部在这里显式构造，模块内不做懒初始化
	db := database.InitDatabase()
	rdb := database.InitRedis()

	smtpMailer := mailer.NewSMTPMailer()
	dispatcher := worker.NewMailDispatcher(smtpMailer, 4, 256)
	dispatcher.Start()

	ossUploader, err := uploader.NewAliyunOSSUploader()
	if err != nil {
		logger.Log.Fatal("Failed to init OSS uploader", zap.Error(err))
	}

	// 3. HTTP 引擎与全局中间件
	gin.SetMode(config.GlobalConfig.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.TraceMiddleware())
	router.Use(middleware.LoggerMiddleware())
	router.Use(middleware.RateLimitMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{config.GlobalConfig.App.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 4. 按优先级初始化业务模块
	moduleCtx := &registry.ModuleContext{
		DB:         db,
		Redis:      rdb,
		Router:     router,
		Mailer:     smtpMailer,
		Dispatcher: dispatcher,
		Uploader:   ossUploader,
	}
	if err := registry.InitModules(moduleCtx); err != nil {
		logger.Log.Fatal("Failed to init modules", zap.Error(err))
	}

	// 5. 启动 HTTP 服务
	srv := &http.Server{
		Addr:         ":" + config.GlobalConfig.Server.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("Server failed", zap.Error(err))
		}
	}()

	// 6. 优雅停机：先停收新请求，再排空邮件队列，最后关连接
	<-ctx.Done()
	logger.Log.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server shutdown failed", zap.Error(err))
	}

	dispatcher.Stop()

	if err := rdb.Close(); err != nil {
		logger.Log.Error("Redis close failed", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	logger.Log.Info("Server stopped")
}
