package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/danielkrainas/lapse/pkg/util/log"
)

const DefaultSweepConcurrency = 8

// SweepReport summarizes one sweep. Err aggregates the per-poll update
// failures; it never includes the query failure, which Sweep returns directly.
type SweepReport struct {
	Started     time.Time     `json:"started"`
	Duration    time.Duration `json:"duration"`
	Scanned     int           `json:"scanned"`
	Expired     int           `json:"expired"`
	Deactivated int           `json:"deactivated"`
	Failed      int           `json:"failed"`
	Err         error         `json:"-"`
}

func (r *SweepReport) Errors() []error {
	return multierr.Errors(r.Err)
}

type Sweeper struct {
	Store       PollStore
	Now         func() time.Time
	Concurrency int
}

func NewSweeper(store PollStore, concurrency int) *Sweeper {
	if concurrency <= 0 {
		concurrency = DefaultSweepConcurrency
	}

	return &Sweeper{
		Store:       store,
		Now:         time.Now,
		Concurrency: concurrency,
	}
}

// Sweep deactivates every active poll whose end time has passed. Each update
// is independent: a failed update is recorded in the report and the rest
// still run.
func (s *Sweeper) Sweep(ctx context.Context) (*SweepReport, error) {
	now := s.now()
	report := &SweepReport{Started: now}
	polls, err := s.Store.FindActive(ctx)
	if err != nil {
		return report, fmt.Errorf("query active polls: %w", err)
	}

	report.Scanned = len(polls)
	expired := make([]*Poll, 0, len(polls))
	for _, p := range polls {
		if p.IsActive && p.ExpiredAt(now) {
			expired = append(expired, p)
		}
	}

	report.Expired = len(expired)
	limit := s.Concurrency
	if limit <= 0 {
		limit = DefaultSweepConcurrency
	}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, limit)
	)

	for _, p := range expired {
		wg.Add(1)
		sem <- struct{}{}
		go func(p *Poll) {
			defer func() {
				<-sem
				wg.Done()
			}()

			err := s.Store.Deactivate(ctx, p.ID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed++
				report.Err = multierr.Append(report.Err, fmt.Errorf("deactivate poll %s: %w", p.ID, err))
				log.Warn("poll deactivation failed", PollFields(p, zap.Error(err))...)
				return
			}

			report.Deactivated++
			log.Debug("poll deactivated", PollFields(p)...)
		}(p)
	}

	wg.Wait()
	report.Duration = s.now().Sub(now)
	return report, nil
}

func (s *Sweeper) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}

	return s.Now()
}
