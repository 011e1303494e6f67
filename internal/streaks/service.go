package streaks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/gymstreak/internal/telemetry/metrics"
	"github.com/2beens/gymstreak/internal/telemetry/tracing"
	"github.com/2beens/gymstreak/internal/weeks"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

type RescuePolicy string

const (
	// RescuePolicyAuto spends save tokens on failed weeks automatically and only notifies.
	RescuePolicyAuto RescuePolicy = "auto"
	// RescuePolicyPrompt stops finalization at a failed week until the user confirms or declines.
	RescuePolicyPrompt RescuePolicy = "prompt"
)

type Policy struct {
	Rescue     RescuePolicy
	RescueCost int
	// CarryoverWeightsOnly forbids spending carryover credits on the abs track.
	CarryoverWeightsOnly bool
	MaxFinalizeWeeks     int
}

func DefaultPolicy() Policy {
	return Policy{
		Rescue:           RescuePolicyAuto,
		RescueCost:       1,
		MaxFinalizeWeeks: weeks.DefaultMaxRangeWeeks,
	}
}

type NewServiceParams struct {
	Repo      *Repo
	Notifier  Notifier
	Timezones TimezoneResolver
	Policy    Policy
	Metrics   *metrics.Manager
}

// Service is the streak engine. All mutating operations of a user are serialized,
// while finalization progress is tracked only by the persisted last finalized week.
type Service struct {
	repo      *Repo
	notifier  Notifier
	timezones TimezoneResolver
	policy    Policy
	metrics   *metrics.Manager
	locks     *userLocks
}

func NewService(params NewServiceParams) *Service {
	policy := params.Policy
	if policy.Rescue == "" {
		policy.Rescue = RescuePolicyAuto
	}
	if policy.RescueCost < 1 {
		policy.RescueCost = 1
	}
	if policy.MaxFinalizeWeeks < 1 {
		policy.MaxFinalizeWeeks = weeks.DefaultMaxRangeWeeks
	}

	notifier := params.Notifier
	if notifier == nil {
		notifier = LogNotifier{}
	}
	timezones := params.Timezones
	if timezones == nil {
		timezones = StaticTimezone("UTC")
	}
	metricsManager := params.Metrics
	if metricsManager == nil {
		metricsManager = metrics.NewManager("gymstreak", "streaks", prometheus.NewRegistry())
	}

	return &Service{
		repo:      params.Repo,
		notifier:  notifier,
		timezones: timezones,
		policy:    policy,
		metrics:   metricsManager,
		locks:     newUserLocks(),
	}
}

func (s *Service) Policy() Policy {
	return s.policy
}

// Finalize rolls every unfinalized week before the current one into the streak counters,
// in chronological order. Running it again without a new elapsed week is a no-op.
func (s *Service) Finalize(ctx context.Context, userID string, now time.Time) (_ *FinalizeResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.streaks.finalize")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()
	span.SetAttributes(attribute.String("user", userID))

	unlock := s.locks.lock(userID)
	defer unlock()

	start := time.Now()
	defer func() {
		s.metrics.HistFinalizeDuration.Observe(time.Since(start).Seconds())
	}()

	return s.finalize(ctx, userID, now)
}

func (s *Service) finalize(ctx context.Context, userID string, now time.Time) (*FinalizeResult, error) {
	currentWeekID, err := s.currentWeekID(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	lastToFinalize, err := weeks.Previous(currentWeekID)
	if err != nil {
		return nil, fmt.Errorf("previous week of [%s]: %w", currentWeekID, err)
	}

	state, err := s.repo.LoadState(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}

	result := &FinalizeResult{
		CurrentWeekID: currentWeekID,
		Weeks:         []WeekOutcome{},
	}
	if state.LastFinalizedWeekID != "" && weeks.Compare(state.LastFinalizedWeekID, lastToFinalize) >= 0 {
		result.State = *state
		return result, nil
	}

	pending, err := weeks.Between(state.LastFinalizedWeekID, lastToFinalize, s.policy.MaxFinalizeWeeks)
	if err != nil {
		if errors.Is(err, weeks.ErrWeekRangeTooLong) {
			s.notify(ctx, Notification{
				Kind:   NotificationIntegrityProblem,
				UserID: userID,
				WeekID: state.LastFinalizedWeekID,
				Message: fmt.Sprintf(
					"Streaks were not updated: more than %d weeks passed since week %s was finalized.",
					s.policy.MaxFinalizeWeeks, state.LastFinalizedWeekID,
				),
			})
		}
		return nil, fmt.Errorf("list weeks to finalize: %w", err)
	}

	summaries, err := s.repo.LoadSummaries(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load summaries: %w", err)
	}

	for _, weekID := range pending {
		summary := summaries.GetOrCreate(weekID)
		if summary.Finalized {
			state.LastFinalizedWeekID = weekID
			if err := s.repo.SaveState(ctx, state); err != nil {
				return nil, fmt.Errorf("save state after week [%s]: %w", weekID, err)
			}
			result.Weeks = append(result.Weeks, WeekOutcome{WeekID: weekID, AlreadyFinalized: true})
			continue
		}

		if s.policy.Rescue == RescuePolicyPrompt {
			if req := s.rescueNeeded(state, summary); req != nil {
				s.notify(ctx, Notification{
					Kind:    NotificationRescueNeeded,
					UserID:  userID,
					WeekID:  req.WeekID,
					Track:   string(req.Track),
					Message: fmt.Sprintf("Your %s streak missed week %s. Spend %d save token(s) to keep it?", req.Track, req.WeekID, req.Cost),
				})
				result.PendingRescue = req
				result.State = *state
				return result, nil
			}
		}

		outcome := s.applyWeek(state, summary)

		// the state goes first: once it points at this week, a reload never replays it
		state.LastFinalizedWeekID = weekID
		if err := s.repo.SaveState(ctx, state); err != nil {
			return nil, fmt.Errorf("save state after week [%s]: %w", weekID, err)
		}
		summary.Finalized = true
		if err := s.repo.SaveSummaries(ctx, summaries); err != nil {
			return nil, fmt.Errorf("save summary of week [%s]: %w", weekID, err)
		}

		s.report(ctx, userID, outcome)
		result.Weeks = append(result.Weeks, outcome)
	}

	result.State = *state
	return result, nil
}

// applyWeek runs the transition rule of a single week over state.
func (s *Service) applyWeek(state *State, summary *WeekSummary) WeekOutcome {
	outcome := WeekOutcome{WeekID: summary.WeekID}

	for _, track := range Tracks {
		f := state.fields(track)
		switch {
		case summary.Qualifies(track):
			*f.current++
			outcome.Qualified = append(outcome.Qualified, track)
		case s.shouldRescue(summary, track, *f.tokens):
			*f.tokens -= s.policy.RescueCost
			*f.current++
			outcome.Rescued = append(outcome.Rescued, track)
			outcome.TokensSpent += s.policy.RescueCost
		default:
			if *f.current > 0 {
				outcome.Reset = append(outcome.Reset, track)
			}
			*f.current = 0
		}
		if *f.current > *f.best {
			*f.best = *f.current
		}
	}

	// granted only now, so a credit can never be spent on the week that earned it
	if summary.CarryoverEarnedThisWeek {
		state.GeneralCarryoverCredits++
		outcome.CreditEarned = true
	}

	for _, track := range Tracks {
		f := state.fields(track)
		for _, milestone := range Milestones {
			if milestone > *f.milestone && *f.best >= milestone {
				*f.milestone = milestone
				*f.tokens++
				outcome.TokensAwarded = append(outcome.TokensAwarded, Award{Track: track, Milestone: milestone})
			}
		}
	}

	return outcome
}

func (s *Service) shouldRescue(summary *WeekSummary, track Track, balance int) bool {
	if balance < s.policy.RescueCost {
		return false
	}
	switch summary.resolution(track) {
	case RescueConfirmed:
		return true
	case RescueDeclined:
		return false
	}
	return s.policy.Rescue == RescuePolicyAuto
}

// rescueNeeded returns the first failed, affordable and still unresolved track of the week.
func (s *Service) rescueNeeded(state *State, summary *WeekSummary) *RescueRequest {
	for _, track := range Tracks {
		if summary.Qualifies(track) || summary.resolution(track) != "" {
			continue
		}
		balance := state.SaveTokens(track)
		if balance < s.policy.RescueCost {
			continue
		}
		return &RescueRequest{
			WeekID:  summary.WeekID,
			Track:   track,
			Cost:    s.policy.RescueCost,
			Balance: balance,
			Current: state.Current(track),
		}
	}
	return nil
}

func (s *Service) report(ctx context.Context, userID string, outcome WeekOutcome) {
	s.metrics.CounterWeeksFinalized.Inc()
	log.Debugf("streaks: finalized week [%s] of [%s]: %+v", outcome.WeekID, userID, outcome)

	for _, track := range outcome.Rescued {
		s.metrics.CounterTokensSpent.WithLabelValues(string(track)).Add(float64(s.policy.RescueCost))
		s.notify(ctx, Notification{
			Kind:    NotificationTokenSpent,
			UserID:  userID,
			WeekID:  outcome.WeekID,
			Track:   string(track),
			Message: fmt.Sprintf("Used %d %s save token(s) to keep your streak alive in week %s.", s.policy.RescueCost, track, outcome.WeekID),
		})
	}
	for _, track := range outcome.Reset {
		s.notify(ctx, Notification{
			Kind:    NotificationStreakReset,
			UserID:  userID,
			WeekID:  outcome.WeekID,
			Track:   string(track),
			Message: fmt.Sprintf("Your %s streak ended in week %s.", track, outcome.WeekID),
		})
	}
	for _, award := range outcome.TokensAwarded {
		s.metrics.CounterTokensAwarded.WithLabelValues(string(award.Track)).Inc()
		s.notify(ctx, Notification{
			Kind:    NotificationTokenAwarded,
			UserID:  userID,
			WeekID:  outcome.WeekID,
			Track:   string(award.Track),
			Message: fmt.Sprintf("%d week %s streak! You earned a save token.", award.Milestone, award.Track),
		})
	}
	if outcome.CreditEarned {
		s.metrics.CounterCreditsEarned.Inc()
		s.notify(ctx, Notification{
			Kind:    NotificationCreditEarned,
			UserID:  userID,
			WeekID:  outcome.WeekID,
			Message: fmt.Sprintf("Week %s earned you a carryover credit.", outcome.WeekID),
		})
	}
}

// RecordWorkout counts a completed session into the week it was performed in.
func (s *Service) RecordWorkout(ctx context.Context, userID string, completion WorkoutCompletion) (_ *QualificationChange, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.streaks.record-workout")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()
	span.SetAttributes(attribute.String("user", userID))

	tz := completion.TZ
	if tz == "" {
		if tz, err = s.timezones.Timezone(ctx, userID); err != nil {
			return nil, fmt.Errorf("resolve timezone: %w", err)
		}
	}
	weekID, err := weeks.IDInZone(completion.CompletedAt, tz)
	if err != nil {
		return nil, fmt.Errorf("resolve week of completed workout: %w", err)
	}

	unlock := s.locks.lock(userID)
	defer unlock()

	state, err := s.repo.LoadState(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	summaries, err := s.repo.LoadSummaries(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load summaries: %w", err)
	}

	if isFinalized(state, summaries.Find(weekID), weekID) {
		log.Warnf("streaks: workout of [%s] completed at %s falls in finalized week [%s], dropping it",
			userID, completion.CompletedAt.Format(time.RFC3339), weekID)
		return nil, fmt.Errorf("record workout in week [%s]: %w", weekID, ErrWeekFinalized)
	}

	summary := summaries.GetOrCreate(weekID)
	change := &QualificationChange{
		WeekID:         weekID,
		Before:         summary.Qualification(),
		NewlyQualified: []Track{},
	}
	if completion.DidWeights {
		summary.WeightsCount++
	}
	if completion.DidAbs {
		summary.AbsCount++
	}
	if summary.WeightsCount >= carryoverEarnThreshold && !summary.CarryoverEarnedThisWeek {
		summary.CarryoverEarnedThisWeek = true
		change.CarryoverEarned = true
	}
	change.After = summary.Qualification()
	for _, track := range Tracks {
		if !change.Before.Get(track) && change.After.Get(track) {
			change.NewlyQualified = append(change.NewlyQualified, track)
		}
	}

	if err := s.repo.SaveSummaries(ctx, summaries); err != nil {
		return nil, fmt.Errorf("save summary of week [%s]: %w", weekID, err)
	}

	s.metrics.CounterWorkoutsCompleted.Inc()
	if change.CarryoverEarned {
		s.notify(ctx, Notification{
			Kind:    NotificationCreditEarned,
			UserID:  userID,
			WeekID:  weekID,
			Message: fmt.Sprintf("%d weight sessions this week! A carryover credit is yours once the week ends.", carryoverEarnThreshold),
		})
	}

	return change, nil
}

// ApplyCarryover spends one carryover credit to add +1 to the weights or abs count
// of the current or the next week.
func (s *Service) ApplyCarryover(
	ctx context.Context,
	userID string,
	target CarryoverTarget,
	track CarryoverTrack,
	now time.Time,
) (_ *WeekSummary, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.streaks.apply-carryover")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()
	span.SetAttributes(
		attribute.String("user", userID),
		attribute.String("target", string(target)),
		attribute.String("track", string(track)),
	)

	switch track {
	case CarryoverWeights:
	case CarryoverAbs:
		if s.policy.CarryoverWeightsOnly {
			return nil, ErrCarryoverTrackNotAllowed
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownTrack, track)
	}

	weekID, err := s.currentWeekID(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	switch target {
	case TargetCurrentWeek:
	case TargetNextWeek:
		if weekID, err = weeks.Next(weekID); err != nil {
			return nil, fmt.Errorf("next week: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownTarget, target)
	}

	unlock := s.locks.lock(userID)
	defer unlock()

	state, err := s.repo.LoadState(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	summaries, err := s.repo.LoadSummaries(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load summaries: %w", err)
	}

	if isFinalized(state, summaries.Find(weekID), weekID) {
		log.Warnf("streaks: carryover of [%s] targets finalized week [%s], dropping it", userID, weekID)
		return nil, fmt.Errorf("apply carryover to week [%s]: %w", weekID, ErrWeekFinalized)
	}

	summary := summaries.GetOrCreate(weekID)
	applied := &summary.WeightsCarryoverApplied
	if track == CarryoverAbs {
		applied = &summary.AbsCarryoverApplied
	}
	if *applied {
		return nil, fmt.Errorf("apply %s carryover to week [%s]: %w", track, weekID, ErrCarryoverAlreadyApplied)
	}
	if state.GeneralCarryoverCredits <= 0 {
		s.notify(ctx, Notification{
			Kind:    NotificationInsufficient,
			UserID:  userID,
			WeekID:  weekID,
			Track:   string(track),
			Message: "No carryover credits left.",
		})
		return nil, fmt.Errorf("apply %s carryover to week [%s]: %w", track, weekID, ErrInsufficientBalance)
	}

	state.GeneralCarryoverCredits--
	if err := s.repo.SaveState(ctx, state); err != nil {
		return nil, fmt.Errorf("save state: %w", err)
	}
	*applied = true
	if err := s.repo.SaveSummaries(ctx, summaries); err != nil {
		return nil, fmt.Errorf("save summary of week [%s]: %w", weekID, err)
	}

	s.metrics.CounterCreditsSpent.WithLabelValues(string(track)).Inc()
	s.notify(ctx, Notification{
		Kind:    NotificationCreditSpent,
		UserID:  userID,
		WeekID:  weekID,
		Track:   string(track),
		Message: fmt.Sprintf("Carryover credit applied: +1 %s session in week %s.", track, weekID),
	})

	result := *summary
	return &result, nil
}

// PendingRescue finalizes what it can and returns the rescue decision finalization waits on, if any.
func (s *Service) PendingRescue(ctx context.Context, userID string, now time.Time) (_ *RescueRequest, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.streaks.pending-rescue")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	if s.policy.Rescue != RescuePolicyPrompt {
		return nil, nil
	}

	unlock := s.locks.lock(userID)
	defer unlock()

	result, err := s.finalize(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	return result.PendingRescue, nil
}

func (s *Service) ConfirmRescue(ctx context.Context, userID, weekID string, track Track, now time.Time) (_ *FinalizeResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.streaks.confirm-rescue")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	return s.resolveRescue(ctx, userID, weekID, track, RescueConfirmed, now)
}

func (s *Service) DeclineRescue(ctx context.Context, userID, weekID string, track Track, now time.Time) (_ *FinalizeResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.streaks.decline-rescue")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	return s.resolveRescue(ctx, userID, weekID, track, RescueDeclined, now)
}

// resolveRescue records the decision on the week summary, so it is never asked again,
// and resumes finalization. Tokens are spent by finalization itself, together with the state update.
// Only affordable weeks are ever pending, an unaffordable one is reset without a prompt.
func (s *Service) resolveRescue(
	ctx context.Context,
	userID, weekID string,
	track Track,
	resolution RescueResolution,
	now time.Time,
) (*FinalizeResult, error) {
	unlock := s.locks.lock(userID)
	defer unlock()

	result, err := s.finalize(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	req := result.PendingRescue
	if req == nil || req.WeekID != weekID || req.Track != track {
		return nil, fmt.Errorf("resolve %s rescue of week [%s]: %w", track, weekID, ErrNoPendingRescue)
	}

	summaries, err := s.repo.LoadSummaries(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load summaries: %w", err)
	}
	summaries.GetOrCreate(weekID).setResolution(track, resolution)
	if err := s.repo.SaveSummaries(ctx, summaries); err != nil {
		return nil, fmt.Errorf("save rescue resolution of week [%s]: %w", weekID, err)
	}
	log.Debugf("streaks: %s rescue of [%s] week [%s]: %s", track, userID, weekID, resolution)

	return s.finalize(ctx, userID, now)
}

// Snapshot catches finalization up and returns the state together with the open weeks.
func (s *Service) Snapshot(ctx context.Context, userID string, now time.Time) (_ *Snapshot, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.streaks.snapshot")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	unlock := s.locks.lock(userID)
	defer unlock()

	result, err := s.finalize(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	nextWeekID, err := weeks.Next(result.CurrentWeekID)
	if err != nil {
		return nil, fmt.Errorf("next week: %w", err)
	}

	summaries, err := s.repo.LoadSummaries(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load summaries: %w", err)
	}

	current := summaries.Get(result.CurrentWeekID)
	return &Snapshot{
		CurrentWeekID: result.CurrentWeekID,
		State:         result.State,
		CurrentWeek:   current,
		NextWeek:      summaries.Get(nextWeekID),
		Provisional:   current.Qualification(),
		PendingRescue: result.PendingRescue,
	}, nil
}

func (s *Service) currentWeekID(ctx context.Context, userID string, now time.Time) (string, error) {
	tz, err := s.timezones.Timezone(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("resolve timezone: %w", err)
	}
	weekID, err := weeks.IDInZone(now, tz)
	if err != nil {
		return "", fmt.Errorf("resolve current week: %w", err)
	}
	return weekID, nil
}

// notify never fails the caller.
func (s *Service) notify(ctx context.Context, n Notification) {
	if err := s.notifier.Notify(ctx, n); err != nil {
		log.Errorf("streaks: deliver [%s] notification to [%s]: %s", n.Kind, n.UserID, err)
	}
}

func isFinalized(state *State, summary *WeekSummary, weekID string) bool {
	if summary != nil && summary.Finalized {
		return true
	}
	return state.LastFinalizedWeekID != "" && weeks.Compare(weekID, state.LastFinalizedWeekID) <= 0
}
