package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/danielkrainas/lapse/pkg/util/log"
)

type Component interface {
	ComponentName() string
	Run(ctx ComponentRunContext) error
}

func ComponentField(c Component) zap.Field {
	return zap.String("component", c.ComponentName())
}

func runComponent(ctx ComponentRunContext, c Component) {
	log.Info("component started", ComponentField(c))
	defer func() {
		defer ctx.Done()
		log.Info("component stopped", ComponentField(c))
		if pobj := recover(); pobj != nil {
			log.Error("component failure", ComponentField(c), zap.Any("reason", pobj))
		}
	}()

	if err := c.Run(ctx); err != nil {
		log.Error("component error", ComponentField(c), zap.Error(err))
	}
}

// ComponentRunContext is handed to a running component. QuitCh is closed
// when the manager shuts down and Context is cancelled at the same time.
type ComponentRunContext struct {
	Context context.Context
	QuitCh  <-chan struct{}
	wg      *sync.WaitGroup
}

func (ctx ComponentRunContext) Done() {
	ctx.wg.Done()
}

type ComponentManager struct {
	ctx        context.Context
	cancel     context.CancelFunc
	components []Component
	quitCh     chan struct{}
	activeFlag int32
	wg         *sync.WaitGroup
	quitOnce   sync.Once
	lock       sync.Mutex
}

func NewComponentManager(ctx context.Context) *ComponentManager {
	ctx, cancel := context.WithCancel(ctx)
	cm := &ComponentManager{
		ctx:        ctx,
		cancel:     cancel,
		components: make([]Component, 0),
		quitCh:     make(chan struct{}),
		activeFlag: 0,
		wg:         &sync.WaitGroup{},
	}

	return cm
}

func (cm *ComponentManager) Active() bool {
	return atomic.LoadInt32(&cm.activeFlag) != 0
}

func (cm *ComponentManager) MustUse(c Component) {
	if cm.Active() {
		panic(errors.New("cannot modify running component manager"))
	}

	cm.lock.Lock()
	defer cm.lock.Unlock()
	cm.components = append(cm.components, c)
}

// Run starts every component and blocks until all of them have returned.
func (cm *ComponentManager) Run() error {
	if !atomic.CompareAndSwapInt32(&cm.activeFlag, 0, 1) {
		return errors.New("component manager already running")
	}

	defer atomic.StoreInt32(&cm.activeFlag, 0)
	defer log.Info("component manager stopped")
	log.Info("component manager started")
	func() {
		cm.lock.Lock()
		defer cm.lock.Unlock()
		cm.wg.Add(len(cm.components))
		for _, c := range cm.components {
			ctx := ComponentRunContext{
				Context: cm.ctx,
				QuitCh:  cm.quitCh,
				wg:      cm.wg,
			}

			go runComponent(ctx, c)
		}
	}()

	cm.wg.Wait()
	return nil
}

// Shutdown signals every component to stop and waits for them. Calling it
// more than once is safe, and so is calling it while Run is still starting
// components.
func (cm *ComponentManager) Shutdown() {
	cm.quitOnce.Do(func() {
		close(cm.quitCh)
		cm.cancel()
	})

	// Run adds to wg under lock, so Wait never races the Add.
	cm.lock.Lock()
	defer cm.lock.Unlock()
	cm.wg.Wait()
}

type RunTasker interface {
	RunTask(ctx context.Context) error
}

type TaskComponent struct {
	name     string
	taskName string
	LogLevel zapcore.Level
	Interval time.Duration
	Warmup   time.Duration
	Tasker   RunTasker
}

var _ Component = (*TaskComponent)(nil)

func NewTaskComponent(name string, interval time.Duration, logLevel zapcore.Level, tasker RunTasker) *TaskComponent {
	return &TaskComponent{
		name:     "task_" + name,
		taskName: name,
		Interval: interval,
		Tasker:   tasker,
		LogLevel: logLevel,
	}
}

func (tc *TaskComponent) ComponentName() string {
	return tc.name
}

func (tc *TaskComponent) Run(ctx ComponentRunContext) error {
	if tc.Warmup > 0 {
		select {
		case <-ctx.QuitCh:
			return nil
		case <-time.After(tc.Warmup):
		}
	}

	timer := time.NewTicker(tc.Interval)
	defer timer.Stop()
	for {
		tc.execute(ctx.Context)
		select {
		case <-ctx.QuitCh:
			return nil
		case <-timer.C:
		}
	}
}

func (tc *TaskComponent) execute(ctx context.Context) {
	log.At(tc.LogLevel, "task execute", zap.String("task", tc.taskName))
	if err := tc.Tasker.RunTask(ctx); err != nil {
		log.Error("task fail", zap.String("task", tc.taskName), zap.Error(err))
	} else {
		log.At(tc.LogLevel, "task success", zap.String("task", tc.taskName))
	}
}
