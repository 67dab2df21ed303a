package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingWorker struct {
	runs   atomic.Int32
	failAt int32
}

func (w *countingWorker) Run(ctx context.Context) error {
	n := w.runs.Add(1)
	if n <= w.failAt {
		return fmt.Errorf("planned failure %d", n)
	}
	<-ctx.Done()
	return nil
}

func TestSupervisor_Restarts_Failed_Worker(t *testing.T) {
	req := require.New(t)
	sup := NewSupervisor(slog.Default(), 10*time.Millisecond)
	worker := &countingWorker{failAt: 2}
	sup.Add(worker)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(done)
	}()

	req.Eventually(func() bool {
		return worker.runs.Load() >= 3
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		req.Fail("supervisor did not stop in time")
	}
}

type panickyWorker struct {
	runs atomic.Int32
}

func (w *panickyWorker) Run(ctx context.Context) error {
	if w.runs.Add(1) == 1 {
		panic("boom")
	}
	<-ctx.Done()
	return nil
}

func TestSupervisor_Recovers_Panic(t *testing.T) {
	req := require.New(t)
	sup := NewSupervisor(slog.Default(), 10*time.Millisecond)
	worker := &panickyWorker{}
	sup.Add(worker)

	ctx := context.Background()
	go sup.Run(ctx)

	req.Eventually(func() bool {
		return worker.runs.Load() >= 2
	}, time.Second, 10*time.Millisecond)

	sup.Stop()
}
