package task

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"nibog/config"
	"nibog/infras/otel"
	"nibog/infras/scheduler"
	paymentService "nibog/internal/domains/payment/service"
	pendingService "nibog/internal/domains/pendingbooking/service"
	"nibog/shared/constant"
	"nibog/shared/failure"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"
)

const (
	criticalQueuePriority = 6
	defaultQueuePriority  = 3
)

// Task runs the delayed jobs scheduled by the booking flow.
type Task struct {
	cfg     *config.Config
	pending pendingService.PendingBooking
	payment paymentService.Payment
	otel    otel.Otel
	server  *asynq.Server
}

func New(
	cfg *config.Config,
	pending pendingService.PendingBooking,
	payment paymentService.Payment,
	otel otel.Otel,
) *Task {
	return &Task{
		cfg:     cfg,
		pending: pending,
		payment: payment,
		otel:    otel,
	}
}

// Mux routes task types to their handlers.
func (t *Task) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(scheduler.TypePendingBookingExpire, t.HandleExpirePendingBooking)
	mux.HandleFunc(scheduler.TypePaymentReconcile, t.HandleReconcilePayment)

	return mux
}

// Start begins processing in the background. Call Shutdown to drain in-flight tasks.
func (t *Task) Start() error {
	t.server = asynq.NewServer(scheduler.RedisOpt(t.cfg), asynq.Config{
		Concurrency: t.cfg.Queue.Concurrency,
		Queues: map[string]int{
			scheduler.QueueCritical: criticalQueuePriority,
			scheduler.QueueDefault:  defaultQueuePriority,
		},
		Logger:   logger{},
		LogLevel: asynq.InfoLevel,
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			log.Error().Err(err).Str("type", task.Type()).Int("retried", retried).Msg("task failed")
		}),
	})

	log.Info().Int("concurrency", t.cfg.Queue.Concurrency).Msg("Starting up task server.")

	if err := t.server.Start(t.Mux()); err != nil {
		return fmt.Errorf("failed to start task server: %w", err)
	}

	return nil
}

func (t *Task) Shutdown() {
	if t.server == nil {
		return
	}

	t.server.Shutdown()
	log.Info().Msg("Task server stopped.")
}

// HandleExpirePendingBooking removes a pending booking that was never paid for.
func (t *Task) HandleExpirePendingBooking(ctx context.Context, task *asynq.Task) (err error) {
	ctx, scope := t.otel.NewScope(ctx, constant.OtelTaskScopeName, constant.OtelTaskScopeName+".HandleExpirePendingBooking")
	defer scope.End()
	defer scope.TraceIfError(err)

	payload, err := scheduler.DecodePayload(task)
	if err != nil {
		log.Error().Err(err).Str("type", task.Type()).Msg("dropping task with invalid payload")

		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}

	scope.SetAttribute(constant.OtelTransactionIDAttributeKey, payload.TransactionID)

	if err = t.pending.Expire(ctx, payload.TransactionID); err != nil {
		return permanentIfClientError(err)
	}

	return nil
}

// HandleReconcilePayment re-checks a payment whose outcome or booking is still open.
func (t *Task) HandleReconcilePayment(ctx context.Context, task *asynq.Task) (err error) {
	ctx, scope := t.otel.NewScope(ctx, constant.OtelTaskScopeName, constant.OtelTaskScopeName+".HandleReconcilePayment")
	defer scope.End()
	defer scope.TraceIfError(err)

	payload, err := scheduler.DecodePayload(task)
	if err != nil {
		log.Error().Err(err).Str("type", task.Type()).Msg("dropping task with invalid payload")

		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}

	scope.SetAttributes(map[string]any{
		constant.OtelTransactionIDAttributeKey: payload.TransactionID,
		"task.attempt":                         payload.Attempt,
	})

	if err = t.payment.Reconcile(ctx, payload.TransactionID, payload.Attempt); err != nil {
		return permanentIfClientError(err)
	}

	return nil
}

// permanentIfClientError stops asynq from retrying errors that another run cannot fix.
func permanentIfClientError(err error) error {
	var f *failure.Failure
	if errors.As(err, &f) && f.Code >= http.StatusBadRequest && f.Code < http.StatusInternalServerError {
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}

	return err
}

// logger routes asynq's internal logs through zerolog.
type logger struct{}

func (logger) Debug(args ...any) { log.Debug().Msg(fmt.Sprint(args...)) }
func (logger) Info(args ...any)  { log.Info().Msg(fmt.Sprint(args...)) }
func (logger) Warn(args ...any)  { log.Warn().Msg(fmt.Sprint(args...)) }
func (logger) Error(args ...any) { log.Error().Msg(fmt.Sprint(args...)) }
func (logger) Fatal(args ...any) { log.Fatal().Msg(fmt.Sprint(args...)) }
