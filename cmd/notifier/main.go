package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"shiftdesk/backend/config"
	"shiftdesk/backend/internal/notify"
	"shiftdesk/backend/internal/repository"
	"shiftdesk/backend/pkg/database"
	applogger "shiftdesk/backend/pkg/logger"
	"shiftdesk/backend/pkg/mq"
)

// notifier 消费排班事件并给员工发送邮件通知
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("SHIFTDESK_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	logger, err := applogger.NewLogger(&cfg.Log, "shiftdesk-notifier")
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if cfg.MQ.URL == "" {
		logger.Fatal("未配置 mq.url，通知服务无法启动")
	}

	db, err := database.NewDB(&cfg.Database, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	repo := repository.NewRepository(db)

	sender, err := notify.NewSMTPSender(&cfg.Mail)
	if err != nil {
		logger.Fatal("初始化 SMTP 客户端失败", zap.Error(err))
	}
	defer sender.Close()

	consumer, err := mq.NewConsumer(cfg.MQ.URL, cfg.MQ.Exchange, cfg.MQ.Queue, notify.RoutingKeys, logger)
	if err != nil {
		logger.Fatal("连接 RabbitMQ 失败", zap.Error(err))
	}
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	notifier := notify.NewNotifier(repo.User, sender, logger)

	logger.Info("通知服务已启动",
		zap.String("exchange", cfg.MQ.Exchange),
		zap.String("queue", cfg.MQ.Queue),
	)
	if err := consumer.Run(ctx, notifier.Handle); err != nil {
		logger.Error("消费中断", zap.Error(err))
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logger.Info("通知服务已关闭")
}
