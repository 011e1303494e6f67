// Package progress derives strength progress from completed workout sessions.
package progress

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/gymstreak/internal/strength"
	"github.com/2beens/gymstreak/internal/telemetry/tracing"
	"github.com/2beens/gymstreak/internal/weeks"
	"github.com/2beens/gymstreak/internal/workouts"
)

const dayLayout = "2006-01-02"

//go:generate mockgen -source=$GOFILE -destination=analyzer_mocks_test.go -package=progress_test

type sessionsRepo interface {
	CompletedSessions(ctx context.Context, userID string) ([]workouts.Session, error)
}

// ExerciseHistory holds, for each training day, the stats of one exercise.
type ExerciseHistory struct {
	Exercise string     `json:"exercise"`
	Days     []DayStats `json:"days"`
}

type DayStats struct {
	Day     string       `json:"day"`
	BestSet strength.Set `json:"bestSet"`
	// Estimated1RM is the Epley estimate of the best set of the day.
	Estimated1RM  float64 `json:"estimated1RM"`
	Estimated10RM float64 `json:"estimated10RM"`
	Volume        float64 `json:"volume"`
	Sets          int     `json:"sets"`
}

type WeekVolume struct {
	WeekID   string  `json:"weekId"`
	Volume   float64 `json:"volume"`
	Sessions int     `json:"sessions"`
	Sets     int     `json:"sets"`
}

type Analyzer struct {
	repo sessionsRepo
	tz   string
}

func NewAnalyzer(repo sessionsRepo, tz string) *Analyzer {
	return &Analyzer{
		repo: repo,
		tz:   tz,
	}
}

// ExerciseHistory goes over completed sets of the exercise (name matched case-insensitively),
// grouped by the local day of the session start.
func (a *Analyzer) ExerciseHistory(ctx context.Context, userID, exercise string) (_ *ExerciseHistory, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.progress.exerciseHistory")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()
	span.SetAttributes(attribute.String("exercise", exercise))

	sessions, err := a.repo.CompletedSessions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load completed sessions: %w", err)
	}

	day2sets := make(map[string][]strength.Set)
	for _, session := range sessions {
		loc, err := weeks.LoadLocation(a.sessionTZ(session))
		if err != nil {
			return nil, err
		}
		day := session.StartTime.In(loc).Format(dayLayout)
		for _, set := range session.Sets {
			if !set.Completed || !strings.EqualFold(set.Exercise, exercise) {
				continue
			}
			day2sets[day] = append(day2sets[day], strength.Set{Kilos: set.Kilos, Reps: set.Reps})
		}
	}

	history := &ExerciseHistory{
		Exercise: exercise,
		Days:     make([]DayStats, 0, len(day2sets)),
	}
	for day, sets := range day2sets {
		best, oneRM := strength.BestSet(sets)
		history.Days = append(history.Days, DayStats{
			Day:           day,
			BestSet:       best,
			Estimated1RM:  round2(oneRM),
			Estimated10RM: round2(strength.Estimate10RM(oneRM)),
			Volume:        strength.SessionVolume(sets),
			Sets:          len(sets),
		})
	}
	sort.Slice(history.Days, func(i, j int) bool {
		return history.Days[i].Day < history.Days[j].Day
	})

	return history, nil
}

// WeeklyVolume sums session volume per week, oldest week first.
func (a *Analyzer) WeeklyVolume(ctx context.Context, userID string) (_ []WeekVolume, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.progress.weeklyVolume")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	sessions, err := a.repo.CompletedSessions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load completed sessions: %w", err)
	}

	week2volume := make(map[string]*WeekVolume)
	for _, session := range sessions {
		weekID, err := weeks.IDInZone(session.StartTime, a.sessionTZ(session))
		if err != nil {
			return nil, err
		}
		wv, ok := week2volume[weekID]
		if !ok {
			wv = &WeekVolume{WeekID: weekID}
			week2volume[weekID] = wv
		}

		var sets []strength.Set
		for _, set := range session.Sets {
			if set.Completed {
				sets = append(sets, strength.Set{Kilos: set.Kilos, Reps: set.Reps})
			}
		}
		wv.Sessions++
		wv.Sets += len(sets)
		wv.Volume += strength.SessionVolume(sets)
	}

	result := make([]WeekVolume, 0, len(week2volume))
	for _, wv := range week2volume {
		result = append(result, *wv)
	}
	sort.Slice(result, func(i, j int) bool {
		return weeks.Compare(result[i].WeekID, result[j].WeekID) < 0
	})
	return result, nil
}

func (a *Analyzer) sessionTZ(session workouts.Session) string {
	if session.TZ != "" {
		return session.TZ
	}
	return a.tz
}

// leave only 2 decimals
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
