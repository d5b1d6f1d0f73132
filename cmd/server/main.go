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

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"shiftdesk/backend/config"
	"shiftdesk/backend/internal/api/handler"
	"shiftdesk/backend/internal/api/router"
	"shiftdesk/backend/internal/repository"
	"shiftdesk/backend/internal/service"
	"shiftdesk/backend/pkg/database"
	"shiftdesk/backend/pkg/jwt"
	applogger "shiftdesk/backend/pkg/logger"
	"shiftdesk/backend/pkg/mq"
	"shiftdesk/backend/pkg/redis"
)

func main() {
	// 0. 本地开发时从 .env 注入环境变量（文件不存在时忽略）
	_ = godotenv.Load()

	// 1. 加载配置
	cfg, err := config.Load(os.Getenv("SHIFTDESK_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log, "shiftdesk-api")
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. 连接数据库并执行迁移
	db, err := database.NewDB(&cfg.Database, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. 连接 Redis（可选：失败时降级运行）
	var (
		rdb       *redis.Client
		blacklist service.TokenBlacklist
	)
	if cfg.Redis.Addr != "" {
		rdb, err = redis.NewClient(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("Redis 连接失败，Token 黑名单与限流将不可用", zap.Error(err))
			rdb = nil
		} else {
			blacklist = rdb
		}
	}

	// 5. 连接 RabbitMQ（可选：未配置或失败时不发布事件）
	var publisher mq.Publisher = mq.NopPublisher{}
	if cfg.MQ.URL != "" {
		p, err := mq.NewAMQPPublisher(cfg.MQ.URL, cfg.MQ.Exchange, logger)
		if err != nil {
			logger.Warn("RabbitMQ 连接失败，排班事件将不会发布", zap.Error(err))
		} else {
			publisher = p
		}
	}

	// 6. 依赖注入: Repository → Service → Handler
	jwtMgr := jwt.NewManager(&cfg.Auth)
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, jwtMgr, blacklist, publisher, logger)
	h := handler.NewHandler(svc)

	// 7. 初始化路由
	engine := router.Setup(cfg, h, jwtMgr, rdb, logger)

	// 8. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 9. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	if err := publisher.Close(); err != nil {
		logger.Warn("关闭 RabbitMQ 连接失败", zap.Error(err))
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	_ = sqlDB.Close()

	logger.Info("服务器已关闭")
}
