package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"salesflow_backend/internal/notification/inapp"
	"salesflow_backend/platform/apperr"
	"salesflow_backend/platform/config"
	"salesflow_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// NotificationSender persists a delivered notification.
type NotificationSender interface {
	Send(ctx context.Context, p inapp.SendParams) (inapp.Notification, error)
}

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	sender NotificationSender
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, sender NotificationSender, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	w := &Worker{
		server: server,
		mux:    asynq.NewServeMux(),
		sender: sender,
		log:    log,
	}
	w.mux.HandleFunc(TaskDeliverNotification, w.handleDeliverNotification)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleDeliverNotification(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseDeliverNotificationPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	n, err := w.sender.Send(ctx, payload.Notification)
	if apperr.Is(err, apperr.KindValidation) {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	if err != nil {
		return err
	}

	w.log.WithContext(ctx).Debug("notification delivered",
		slog.String("notification_id", n.ID.String()),
		slog.String("kind", n.Kind),
	)
	return nil
}
