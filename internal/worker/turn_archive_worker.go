package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"portfolio-backend/internal/model"
	"portfolio-backend/internal/repository"
)

// TurnArchiveWorker drains the turn-archive queue into MySQL so the chat log
// survives Redis expiry.
type TurnArchiveWorker struct {
	conn      *amqp.Connection
	repo      *repository.TurnRepository
	queueName string
	logger    *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewTurnArchiveWorker(conn *amqp.Connection, repo *repository.TurnRepository, queueName string, logger *zap.Logger) *TurnArchiveWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TurnArchiveWorker{
		conn:      conn,
		repo:      repo,
		queueName: queueName,
		logger:    logger,
	}
}

func (w *TurnArchiveWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	_, err = ch.QueueDeclare(
		w.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("declare worker queue failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}

				var turn model.Turn
				if err := json.Unmarshal(d.Body, &turn); err != nil {
					w.logger.Warn("drop malformed turn payload", zap.Error(err))
					_ = d.Reject(false)
					continue
				}

				if err := w.repo.Create(&turn); err != nil {
					w.logger.Error("archive turn failed",
						zap.String("session_id", turn.SessionID),
						zap.Error(err),
					)
					_ = d.Nack(false, true)
					continue
				}

				_ = d.Ack(false)
			}
		}
	}()

	return nil
}

func (w *TurnArchiveWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
