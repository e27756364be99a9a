package jobs

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/neetprep/backend/internal/mailer"
	"github.com/neetprep/backend/internal/worker"
)

// LocalDispatcher sends email on an in-process worker pool. Failed sends are
// logged, not retried.
type LocalDispatcher struct {
	pool   *worker.Pool[error]
	sender mailer.Sender
	logger *zap.Logger
	done   sync.WaitGroup
}

func NewLocalDispatcher(workers int, sender mailer.Sender, logger *zap.Logger) *LocalDispatcher {
	d := &LocalDispatcher{
		pool:   worker.NewPool[error](context.Background(), workers, 64),
		sender: sender,
		logger: logger,
	}
	d.done.Add(1)
	go d.collect()
	return d
}

func (d *LocalDispatcher) collect() {
	defer d.done.Done()
	for r := range d.pool.Results() {
		err := r.Output
		if r.Err != nil {
			err = r.Err
		}
		if err != nil {
			d.logger.Error("email delivery failed", zap.String("to", r.JobID), zap.Error(err))
		}
	}
}

func (d *LocalDispatcher) Dispatch(ctx context.Context, m mailer.Message) error {
	return d.pool.Submit(ctx, m.To, func(ctx context.Context) error {
		return d.sender.Send(ctx, m)
	})
}

// Stop waits for queued email to be sent.
func (d *LocalDispatcher) Stop() {
	d.pool.Close()
	d.done.Wait()
}
