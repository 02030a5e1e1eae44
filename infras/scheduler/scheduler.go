package scheduler

//go:generate go run go.uber.org/mock/mockgen -source=./scheduler.go -destination=./mocks/scheduler_mock.go -package=mocks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"nibog/config"
	"nibog/infras/otel"
	"nibog/shared/constant"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"
)

const (
	TypePendingBookingExpire = "pending_booking:expire"
	TypePaymentReconcile     = "payment:reconcile"

	QueueDefault  = "default"
	QueueCritical = "critical"

	expireMaxRetry    = 5
	reconcileMaxRetry = 3
)

// TransactionPayload is the body of every task keyed by a transaction.
type TransactionPayload struct {
	TransactionID string `json:"transaction_id"`
	Attempt       int    `json:"attempt,omitempty"`
}

// Scheduler enqueues delayed work onto the asynq queues.
type Scheduler interface {
	ScheduleExpiry(ctx context.Context, transactionID string, at time.Time) error
	ScheduleReconcile(ctx context.Context, transactionID string, attempt int, delay time.Duration) error
	Close() error
}

type schedulerImpl struct {
	client *asynq.Client
	otel   otel.Otel
}

// RedisOpt returns the asynq connection, sharing the cache host on a separate DB.
func RedisOpt(cfg *config.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     net.JoinHostPort(cfg.Cache.Redis.Primary.Host, cfg.Cache.Redis.Primary.Port),
		Password: cfg.Cache.Redis.Primary.Password,
		DB:       cfg.Queue.RedisDB,
	}
}

func New(cfg *config.Config, ot otel.Otel) Scheduler {
	return &schedulerImpl{
		client: asynq.NewClient(RedisOpt(cfg)),
		otel:   ot,
	}
}

func (s *schedulerImpl) ScheduleExpiry(ctx context.Context, transactionID string, at time.Time) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelTaskScopeName, constant.OtelTaskScopeName+".ScheduleExpiry")
	defer scope.End()
	defer scope.TraceIfError(err)

	scope.SetAttribute(constant.OtelTransactionIDAttributeKey, transactionID)

	return s.enqueue(ctx, TypePendingBookingExpire, TransactionPayload{TransactionID: transactionID},
		asynq.ProcessAt(at),
		asynq.TaskID(TypePendingBookingExpire+":"+transactionID),
		asynq.MaxRetry(expireMaxRetry),
		asynq.Queue(QueueDefault),
	)
}

func (s *schedulerImpl) ScheduleReconcile(ctx context.Context, transactionID string, attempt int, delay time.Duration) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelTaskScopeName, constant.OtelTaskScopeName+".ScheduleReconcile")
	defer scope.End()
	defer scope.TraceIfError(err)

	scope.SetAttribute(constant.OtelTransactionIDAttributeKey, transactionID)

	return s.enqueue(ctx, TypePaymentReconcile, TransactionPayload{TransactionID: transactionID, Attempt: attempt},
		asynq.ProcessIn(delay),
		asynq.TaskID(fmt.Sprintf("%s:%s:%d", TypePaymentReconcile, transactionID, attempt)),
		asynq.MaxRetry(reconcileMaxRetry),
		asynq.Queue(QueueCritical),
	)
}

func (s *schedulerImpl) Close() error {
	return s.client.Close() //nolint:wrapcheck
}

func (s *schedulerImpl) enqueue(ctx context.Context, taskType string, payload TransactionPayload, opts ...asynq.Option) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal task payload: %w", err)
	}

	info, err := s.client.EnqueueContext(ctx, asynq.NewTask(taskType, body), opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		log.Debug().Str("type", taskType).Str("transaction_id", payload.TransactionID).Msg("task already scheduled")

		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to enqueue %s task: %w", taskType, err)
	}

	log.Info().Str("type", taskType).Str("task_id", info.ID).Str("queue", info.Queue).
		Time("process_at", info.NextProcessAt).Msg("task scheduled")

	return nil
}

// DecodePayload reads a TransactionPayload from a task body.
func DecodePayload(task *asynq.Task) (TransactionPayload, error) {
	var payload TransactionPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal task payload: %w", err)
	}

	if payload.TransactionID == "" {
		return payload, errors.New("task payload is missing transaction_id")
	}

	return payload, nil
}
