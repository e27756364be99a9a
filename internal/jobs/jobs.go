// Package jobs delivers email in the background, through asynq when Redis is
// configured and through an in-process worker pool otherwise.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/neetprep/backend/internal/mailer"
)

const TypeSendEmail = "email:send"

// Dispatcher hands an email to background delivery.
type Dispatcher interface {
	Dispatch(ctx context.Context, m mailer.Message) error
}

// Queue priority per email kind. Receipts go first.
func queueFor(kind string) (queue string, retries int, timeout time.Duration) {
	switch kind {
	case "receipt":
		return "critical", 5, 2 * time.Minute
	case "followup":
		return "low", 2, 30 * time.Second
	default:
		return "default", 3, time.Minute
	}
}

// NewEmailTask wraps a message as an asynq task with its queue options.
func NewEmailTask(m mailer.Message) (*asynq.Task, error) {
	payload, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal email payload: %w", err)
	}
	queue, retries, timeout := queueFor(m.Kind)
	return asynq.NewTask(TypeSendEmail, payload,
		asynq.Queue(queue),
		asynq.MaxRetry(retries),
		asynq.Timeout(timeout),
	), nil
}

// HandleSendEmail returns the asynq handler that delivers email tasks.
func HandleSendEmail(sender mailer.Sender, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var m mailer.Message
		if err := json.Unmarshal(task.Payload(), &m); err != nil {
			return fmt.Errorf("unmarshal email payload: %v: %w", err, asynq.SkipRetry)
		}
		if err := sender.Send(ctx, m); err != nil {
			return fmt.Errorf("send %s email to %s: %w", m.Kind, m.To, err)
		}
		logger.Info("email sent", zap.String("kind", m.Kind), zap.String("to", m.To))
		return nil
	}
}

// Queue is the Redis-backed dispatcher.
type Queue struct {
	client *asynq.Client
	server *asynq.Server
	mux    *asynq.ServeMux
	logger *zap.Logger
}

func NewQueue(redisURL string, sender mailer.Sender, logger *zap.Logger) (*Queue, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: 10,
		Queues: map[string]int{
			"critical": 6,
			"default":  3,
			"low":      1,
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			logger.Error("job failed", zap.String("type", task.Type()), zap.Error(err))
		}),
		Logger: logger.Sugar(),
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeSendEmail, HandleSendEmail(sender, logger))

	return &Queue{
		client: asynq.NewClient(opt),
		server: server,
		mux:    mux,
		logger: logger,
	}, nil
}

func (q *Queue) Dispatch(ctx context.Context, m mailer.Message) error {
	task, err := NewEmailTask(m)
	if err != nil {
		return err
	}
	info, err := q.client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("enqueue email task: %w", err)
	}
	q.logger.Debug("email queued", zap.String("id", info.ID), zap.String("queue", info.Queue))
	return nil
}

// Start runs the asynq workers in the background.
func (q *Queue) Start() error {
	q.logger.Info("starting job queue worker")
	return q.server.Start(q.mux)
}

func (q *Queue) Stop() {
	q.logger.Info("stopping job queue")
	q.server.Shutdown()
	q.client.Close()
}
