package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler runs Run on a standard five-field cron expression.
type Scheduler struct {
	cron    *cron.Cron
	uc      *Usecase
	repair  bool
	timeout time.Duration
	log     *zap.Logger
}

func NewScheduler(uc *Usecase, spec string, repair bool, log *zap.Logger) (*Scheduler, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Scheduler{cron: cron.New(), uc: uc, repair: repair, timeout: 5 * time.Minute, log: log}
	if _, err := s.cron.AddFunc(spec, s.runOnce); err != nil {
		return nil, fmt.Errorf("invalid reconcile schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	rep, err := s.uc.Run(ctx, s.repair)
	if err != nil {
		s.log.Error("reconcile run failed", zap.Error(err))
		return
	}
	s.log.Info("reconcile run finished", zap.Int("scanned", rep.Scanned), zap.Int("drifts", len(rep.Drifts)))
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}
