package schedule

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rileyhilliard/karasu/internal/logger"
	"github.com/stretchr/testify/assert"
)

func TestTask_RunsOnInterval(t *testing.T) {
	var n atomic.Int32
	task := Every("tick", 10*time.Millisecond, func(ctx context.Context) { n.Add(1) }).
		Start(context.Background())
	defer task.Stop()

	assert.True(t, task.Running())
	assert.Eventually(t, func() bool { return n.Load() >= 3 }, time.Second, 5*time.Millisecond)
}

func TestTask_StopHaltsCycles(t *testing.T) {
	var n atomic.Int32
	task := Every("tick", 5*time.Millisecond, func(ctx context.Context) { n.Add(1) }).
		Start(context.Background())

	assert.Eventually(t, func() bool { return n.Load() >= 1 }, time.Second, time.Millisecond)
	task.Stop()
	assert.False(t, task.Running())

	after := n.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, n.Load(), "no cycles after Stop returns")

	task.Stop() // idempotent
}

func TestTask_ContextCancelEndsLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var n atomic.Int32
	task := Every("tick", 5*time.Millisecond, func(ctx context.Context) { n.Add(1) }).Start(ctx)

	cancel()
	task.Stop()
	after := n.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, n.Load())
}

func TestTask_Immediately(t *testing.T) {
	ran := make(chan struct{}, 1)
	task := Every("slow", time.Hour, func(ctx context.Context) {
		select {
		case ran <- struct{}{}:
		default:
		}
	}, Immediately()).Start(context.Background())
	defer task.Stop()

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("immediate cycle did not run")
	}
}

func TestTask_StartTwiceIsNoop(t *testing.T) {
	var n atomic.Int32
	task := Every("once", time.Hour, func(ctx context.Context) { n.Add(1) }, Immediately())
	task.Start(context.Background())
	task.Start(context.Background())
	defer task.Stop()

	assert.Eventually(t, func() bool { return n.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(1), n.Load())
}

func TestTask_PanicDoesNotStopLoop(t *testing.T) {
	log := logger.NewBufferLogger()
	var n atomic.Int32
	task := Every("flaky", 5*time.Millisecond, func(ctx context.Context) {
		if n.Add(1) == 1 {
			panic("first cycle")
		}
	}, WithLogger(log)).Start(context.Background())
	defer task.Stop()

	assert.Eventually(t, func() bool { return n.Load() >= 3 }, time.Second, time.Millisecond)
	assert.True(t, log.HasLevel("error"))
	assert.True(t, log.Contains("first cycle"))
}

func TestTask_RunNow(t *testing.T) {
	var n int
	task := Every("manual", time.Hour, func(ctx context.Context) { n++ })

	task.RunNow(context.Background())
	task.RunNow(context.Background())
	assert.Equal(t, 2, n)
	assert.False(t, task.Running())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	task.RunNow(ctx)
	assert.Equal(t, 2, n, "cancelled context skips the cycle")
}

func TestTask_Accessors(t *testing.T) {
	task := Every("health", 10*time.Second, func(context.Context) {})
	assert.Equal(t, "health", task.Name())
	assert.Equal(t, 10*time.Second, task.Interval())
}
