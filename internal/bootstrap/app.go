package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"portfolio-backend/internal/config"
	"portfolio-backend/internal/logging"
	"portfolio-backend/internal/model"
	mysqlClient "portfolio-backend/internal/platform/mysql"
	rabbitmqClient "portfolio-backend/internal/platform/rabbitmq"
	redisClient "portfolio-backend/internal/platform/redis"
	"portfolio-backend/internal/repository"
	"portfolio-backend/internal/worker"
)

type App struct {
	Config     *config.Config
	Logger     *zap.Logger
	MySQL      *gorm.DB
	Redis      *redis.Client
	MQConn     *amqp.Connection
	TurnWorker *worker.TurnArchiveWorker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	logger, err := logging.New(cfg.App.Env)
	if err != nil {
		return nil, err
	}

	mysqlDB, err := mysqlClient.New(ctx, cfg.MySQLDSN())
	if err != nil {
		return nil, err
	}
	if err := mysqlDB.AutoMigrate(&model.Project{}, &model.Skill{}, &model.ProjectSkill{}, &model.Turn{}); err != nil {
		return nil, fmt.Errorf("auto migrate tables failed: %w", err)
	}

	redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}

	mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
	if err != nil {
		return nil, err
	}

	turnRepo := repository.NewTurnRepository(mysqlDB)
	turnWorker := worker.NewTurnArchiveWorker(mqConn, turnRepo, cfg.RabbitMQ.TurnArchiveQueue, logger)
	if err := turnWorker.Start(ctx); err != nil {
		return nil, fmt.Errorf("start turn archive worker failed: %w", err)
	}

	return &App{
		Config:     cfg,
		Logger:     logger,
		MySQL:      mysqlDB,
		Redis:      redisCli,
		MQConn:     mqConn,
		TurnWorker: turnWorker,
		StartedAt:  time.Now(),
	}, nil
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.TurnWorker != nil {
		a.TurnWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
	return closeErr
}
