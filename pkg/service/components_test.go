package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

type countingTask struct {
	runs int32
	err  error
}

func (t *countingTask) RunTask(ctx context.Context) error {
	atomic.AddInt32(&t.runs, 1)
	return t.err
}

func TestTaskComponent_RunsImmediatelyAndOnEveryTick(t *testing.T) {
	task := &countingTask{}
	cm := NewComponentManager(context.Background())
	cm.MustUse(NewTaskComponent("count", 10*time.Millisecond, zapcore.DebugLevel, task))

	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NoError(t, cm.Run())
	}()

	require.Eventually(t, func() bool { return atomic.LoadInt32(&task.runs) >= 3 }, time.Second, 5*time.Millisecond)
	cm.Shutdown()
	<-done
	assert.False(t, cm.Active())
}

func TestTaskComponent_KeepsRunningAfterFailures(t *testing.T) {
	task := &countingTask{err: errors.New("boom")}
	cm := NewComponentManager(context.Background())
	cm.MustUse(NewTaskComponent("fail", 5*time.Millisecond, zapcore.DebugLevel, task))

	go cm.Run()
	require.Eventually(t, func() bool { return atomic.LoadInt32(&task.runs) >= 2 }, time.Second, 5*time.Millisecond)
	cm.Shutdown()
}

func TestTaskComponent_WarmupInterruptedByShutdown(t *testing.T) {
	task := &countingTask{}
	tc := NewTaskComponent("slow", time.Hour, zapcore.DebugLevel, task)
	tc.Warmup = time.Hour
	cm := NewComponentManager(context.Background())
	cm.MustUse(tc)

	done := make(chan struct{})
	go func() {
		defer close(done)
		cm.Run()
	}()

	require.Eventually(t, cm.Active, time.Second, time.Millisecond)
	cm.Shutdown()
	<-done
	assert.Equal(t, int32(0), atomic.LoadInt32(&task.runs))
}

func TestComponentManager_ShutdownIsIdempotent(t *testing.T) {
	cm := NewComponentManager(context.Background())
	cm.MustUse(NewTaskComponent("noop", time.Hour, zapcore.DebugLevel, &countingTask{}))

	done := make(chan struct{})
	go func() {
		defer close(done)
		cm.Run()
	}()

	require.Eventually(t, cm.Active, time.Second, time.Millisecond)
	cm.Shutdown()
	cm.Shutdown()
	<-done
}

type panickyComponent struct{}

func (panickyComponent) ComponentName() string { return "panicky" }

func (panickyComponent) Run(ctx ComponentRunContext) error { panic("bad component") }

func TestComponentManager_RecoversPanics(t *testing.T) {
	cm := NewComponentManager(context.Background())
	cm.MustUse(panickyComponent{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NoError(t, cm.Run())
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("component manager did not return after panic")
	}
}

func TestComponentManager_MustUseWhileRunningPanics(t *testing.T) {
	cm := NewComponentManager(context.Background())
	cm.MustUse(NewTaskComponent("noop", time.Hour, zapcore.DebugLevel, &countingTask{}))
	go cm.Run()
	defer cm.Shutdown()

	require.Eventually(t, cm.Active, time.Second, time.Millisecond)
	assert.Panics(t, func() { cm.MustUse(panickyComponent{}) })
}

func TestComponentManager_ShutdownDuringStartup(t *testing.T) {
	for i := 0; i < 50; i++ {
		cm := NewComponentManager(context.Background())
		cm.MustUse(NewTaskComponent("noop", time.Hour, zapcore.DebugLevel, &countingTask{}))
		cm.MustUse(NewTaskComponent("other", time.Hour, zapcore.DebugLevel, &countingTask{}))

		done := make(chan struct{})
		go func() {
			defer close(done)
			cm.Run()
		}()

		cm.Shutdown()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("component manager kept running after shutdown")
		}
	}
}
