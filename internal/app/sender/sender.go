// Package sender собирает приложение доставки push-уведомлений:
// потребитель очереди, web push транспорт и чистка мёртвых подписок.
package sender

import (
	"context"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/xqopxcat/food-keeper-sub000/internal/config"
	"github.com/xqopxcat/food-keeper-sub000/internal/lib/webpush"
	"github.com/xqopxcat/food-keeper-sub000/internal/rabbitmq"
	senderservice "github.com/xqopxcat/food-keeper-sub000/internal/services/sender"
	"github.com/xqopxcat/food-keeper-sub000/internal/storage/repository"
)

type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	db            *repository.Storage
	senderService *senderservice.SenderService
	logger        *slog.Logger
}

func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}

	ch, err := rabbitmq.SetupChannel(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}

	newTransport := webpush.NewTransport(cfg, logger)
	senderService := senderservice.NewSenderService(db, newTransport, logger, cfg.Push.SendTimeout)

	return &App{
		conn:          conn,
		ch:            ch,
		db:            db,
		senderService: senderService,
		logger:        logger,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	done, err := rabbitmq.ConsumerMessage(ctx, a.ch, rabbitmq.PushQueue, a.senderService.HandleNotificationJob)
	if err != nil {
		a.logger.Error("failed to start push queue consumer", slog.Any("err", err))
		return err
	}

	<-ctx.Done()
	a.logger.Info("sender service shutting down gracefully")

	// ждём завершения уже взятых в работу сообщений, иначе их ack
	// уйдёт в закрытый канал и брокер доставит их повторно
	<-done

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", slog.Any("err", err))
	}

	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", slog.Any("err", err))
	}

	if err := a.db.DB.Close(); err != nil {
		a.logger.Error("failed to close storage", slog.Any("err", err))
	}

	return nil
}
