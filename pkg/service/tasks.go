package service

import (
	"context"
	"time"

	"github.com/danielkrainas/lapse/pkg/util/log"
)

// SweepTask runs one sweep per tick. Deadline bounds a single sweep so it
// finishes or is abandoned before the next tick fires.
type SweepTask struct {
	Sweeper  *Sweeper
	Deadline time.Duration
}

var _ RunTasker = (*SweepTask)(nil)

func (task *SweepTask) RunTask(ctx context.Context) error {
	if task.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, task.Deadline)
		defer cancel()
	}

	report, err := task.Sweeper.Sweep(ctx)
	if err != nil {
		return err
	}

	if report.Failed > 0 {
		log.Warn("sweep finished with failures", SweepFields(report)...)
	} else {
		log.Info("sweep finished", SweepFields(report)...)
	}

	return nil
}
