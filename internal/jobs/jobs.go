// Package jobs runs the periodic maintenance tasks of the API process.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// jobTimeout bounds a single run of any job.
const jobTimeout = 2 * time.Minute

// PaymentExpirer fails pending payments older than a cutoff.
type PaymentExpirer interface {
	ExpireStale(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Sweeper drops idle in-memory state, such as per-address rate limiters.
type Sweeper interface {
	Sweep() int
}

type Scheduler struct {
	cron   *cron.Cron
	logger zerolog.Logger
}

func NewScheduler(loc *time.Location, logger zerolog.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(loc), cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		logger: logger.With().Str("component", "jobs").Logger(),
	}
}

// AddPaymentSweep periodically marks stale pending payments as failed.
func (s *Scheduler) AddPaymentSweep(spec string, payments PaymentExpirer, olderThan time.Duration) error {
	if _, err := s.cron.AddFunc(spec, func() { s.sweepPayments(payments, olderThan) }); err != nil {
		return fmt.Errorf("schedule payment sweep %q: %w", spec, err)
	}
	s.logger.Info().Str("spec", spec).Dur("older_than", olderThan).Msg("Payment sweep scheduled")
	return nil
}

func (s *Scheduler) sweepPayments(payments PaymentExpirer, olderThan time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	n, err := payments.ExpireStale(ctx, olderThan)
	if err != nil {
		s.logger.Error().Err(err).Msg("Payment sweep failed")
		return
	}
	if n > 0 {
		s.logger.Info().Int64("expired", n).Msg("Expired stale pending payments")
	}
}

// AddSweep runs sw.Sweep on spec.
func (s *Scheduler) AddSweep(spec, name string, sw Sweeper) error {
	_, err := s.cron.AddFunc(spec, func() {
		if n := sw.Sweep(); n > 0 {
			s.logger.Debug().Str("job", name).Int("removed", n).Msg("Sweep finished")
		}
	})
	if err != nil {
		return fmt.Errorf("schedule %s %q: %w", name, spec, err)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.logger.Warn().Msg("Jobs still running at shutdown")
	}
}
