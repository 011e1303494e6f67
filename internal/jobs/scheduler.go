// Package jobs runs the periodic background work, currently the weekly streak finalization.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/gymstreak/internal/streaks"
	"github.com/2beens/gymstreak/internal/weeks"
)

const DefaultFinalizeSpec = "5 0 * * 1"

//go:generate mockgen -source=$GOFILE -destination=scheduler_mocks_test.go -package=jobs_test

type finalizer interface {
	Finalize(ctx context.Context, userID string, now time.Time) (*streaks.FinalizeResult, error)
}

type SchedulerParams struct {
	Finalizer finalizer
	UserIDs   []string
	// Spec is a standard 5 field cron expression, evaluated in Timezone.
	Spec     string
	Timezone string
	Now      func() time.Time
}

type Scheduler struct {
	cron      *cron.Cron
	finalizer finalizer
	userIDs   []string
	spec      string
	now       func() time.Time
}

func NewScheduler(params SchedulerParams) (*Scheduler, error) {
	loc, err := weeks.LoadLocation(params.Timezone)
	if err != nil {
		return nil, fmt.Errorf("scheduler location: %w", err)
	}
	if params.Spec == "" {
		params.Spec = DefaultFinalizeSpec
	}
	if params.Now == nil {
		params.Now = time.Now
	}

	return &Scheduler{
		cron:      cron.New(cron.WithLocation(loc)),
		finalizer: params.Finalizer,
		userIDs:   params.UserIDs,
		spec:      params.Spec,
		now:       params.Now,
	}, nil
}

// Start finalizes once right away, so weeks that ended while the service was down are
// settled on load, and then keeps finalizing on schedule until Stop.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() {
		log.Info("[CRON] weekly streak finalization")
		s.FinalizeAll(ctx)
	}); err != nil {
		return fmt.Errorf("schedule finalization [%s]: %w", s.spec, err)
	}

	s.FinalizeAll(ctx)
	s.cron.Start()
	log.Infof("scheduler started, finalization spec: %s", s.spec)
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("scheduler stopped")
}

// FinalizeAll runs finalization for every user. Failures are logged, one user never blocks another.
// It returns the number of users finalized without error.
func (s *Scheduler) FinalizeAll(ctx context.Context) int {
	ok := 0
	for _, userID := range s.userIDs {
		result, err := s.finalizer.Finalize(ctx, userID, s.now())
		switch {
		case errors.Is(err, weeks.ErrWeekRangeTooLong):
			log.Errorf("[CRON] finalize [%s]: too many weeks to catch up, manual fix needed: %s", userID, err)
		case err != nil:
			log.Errorf("[CRON] finalize [%s]: %s", userID, err)
		default:
			ok++
			logger := log.WithFields(log.Fields{
				"user":    userID,
				"week":    result.CurrentWeekID,
				"settled": len(result.Weeks),
			})
			if result.PendingRescue != nil {
				logger.Warnf("[CRON] finalization waits for a rescue decision on %s/%s",
					result.PendingRescue.WeekID, result.PendingRescue.Track)
				continue
			}
			logger.Debug("[CRON] finalized")
		}
	}
	return ok
}
