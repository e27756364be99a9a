package scheduler_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/neetprep/backend/internal/scheduler"
)

func TestDaily_RunNow(t *testing.T) {
	s := scheduler.New(zap.NewNop())
	ran := make(chan struct{}, 1)

	require.NoError(t, s.Daily("followups", 3, func(ctx context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return errors.New("logged, not fatal")
	}))
	s.Start()
	defer s.Stop()

	require.NoError(t, s.RunNow("followups"))
	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("job did not run")
	}
}

func TestDaily_InvalidHour(t *testing.T) {
	s := scheduler.New(zap.NewNop())
	assert.Error(t, s.Daily("x", 24, func(context.Context) error { return nil }))
}

func TestRunNow_UnknownJob(t *testing.T) {
	s := scheduler.New(zap.NewNop())
	s.Start()
	defer s.Stop()
	assert.Error(t, s.RunNow("missing"))
}
