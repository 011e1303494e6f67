package workouts

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrTemplateNotFound     = errors.New("template not found")
	ErrSessionNotFound      = errors.New("session not found")
	ErrNoActiveSession      = errors.New("no active session")
	ErrSessionAlreadyActive = errors.New("another session is already active")
	ErrInvalidTransition    = errors.New("invalid session status transition")
)

type Status string

const (
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusDiscarded Status = "discarded"
)

// absMuscleGroup sets of this muscle group count as abs work, all others as weights.
const absMuscleGroup = "abs"

type TemplateExercise struct {
	Name        string  `json:"name" validate:"required,max=100"`
	MuscleGroup string  `json:"muscleGroup" validate:"required,max=50"`
	TargetSets  int     `json:"targetSets" validate:"gte=0,lte=50"`
	TargetReps  int     `json:"targetReps" validate:"gte=0,lte=500"`
	TargetKilos float64 `json:"targetKilos" validate:"gte=0,lte=1000"`
}

type Template struct {
	ID         string             `json:"id"`
	Name       string             `json:"name" validate:"required,max=100"`
	Exercises  []TemplateExercise `json:"exercises" validate:"dive"`
	DidWeights bool               `json:"didWeights"`
	DidAbs     bool               `json:"didAbs"`
	CreatedAt  time.Time          `json:"createdAt"`
	UpdatedAt  time.Time          `json:"updatedAt"`
}

type SetLog struct {
	ID          string    `json:"id"`
	Exercise    string    `json:"exercise" validate:"required,max=100"`
	MuscleGroup string    `json:"muscleGroup" validate:"required,max=50"`
	Kilos       float64   `json:"kilos" validate:"gte=0,lte=1000"`
	Reps        int       `json:"reps" validate:"gte=0,lte=500"`
	Completed   bool      `json:"completed"`
	LoggedAt    time.Time `json:"loggedAt"`
}

type Session struct {
	ID         string     `json:"id"`
	TemplateID string     `json:"templateId,omitempty"`
	Name       string     `json:"name"`
	Status     Status     `json:"status"`
	StartTime  time.Time  `json:"startTime"`
	EndTime    *time.Time `json:"endTime,omitempty"`
	// CompletedAt is only set for completed sessions.
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	PausedAt    *time.Time `json:"pausedAt,omitempty"`
	// PausedSeconds accumulates all finished pauses.
	PausedSeconds int64    `json:"pausedSeconds"`
	TZ            string   `json:"tz"`
	DidWeights    bool     `json:"didWeights"`
	DidAbs        bool     `json:"didAbs"`
	Sets          []SetLog `json:"sets"`
	Notes         string   `json:"notes,omitempty"`
	// StreakPending marks a completed session the streak engine has not counted yet.
	StreakPending bool `json:"streakPending,omitempty"`
}

// Open reports whether the session is the active one (running or paused).
func (s *Session) Open() bool {
	return s.Status == StatusActive || s.Status == StatusPaused
}

// Duration is the time spent training: end (or now) minus start, without the pauses.
func (s *Session) Duration(now time.Time) time.Duration {
	end := now
	if s.EndTime != nil {
		end = *s.EndTime
	}
	paused := time.Duration(s.PausedSeconds) * time.Second
	if s.PausedAt != nil && s.Status == StatusPaused {
		paused += end.Sub(*s.PausedAt)
	}

	d := end.Sub(s.StartTime) - paused
	if d < 0 {
		return 0
	}
	return d
}

// WorkedWeights is true if flagged, or if any completed set is not abs work.
func (s *Session) WorkedWeights() bool {
	if s.DidWeights {
		return true
	}
	for _, set := range s.Sets {
		if set.Completed && !strings.EqualFold(set.MuscleGroup, absMuscleGroup) {
			return true
		}
	}
	return false
}

func (s *Session) WorkedAbs() bool {
	if s.DidAbs {
		return true
	}
	for _, set := range s.Sets {
		if set.Completed && strings.EqualFold(set.MuscleGroup, absMuscleGroup) {
			return true
		}
	}
	return false
}

// transition moves the session to status `to`, keeping pause bookkeeping consistent.
// Allowed: active <-> paused, active|paused -> completed|discarded.
func (s *Session) transition(to Status, now time.Time) error {
	switch {
	case s.Status == StatusActive && to == StatusPaused:
		s.PausedAt = &now
	case s.Status == StatusPaused && to == StatusActive:
		s.endPause(now)
	case s.Open() && (to == StatusCompleted || to == StatusDiscarded):
		s.endPause(now)
		s.EndTime = &now
		if to == StatusCompleted {
			s.CompletedAt = &now
		}
	default:
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.Status, to)
	}
	s.Status = to
	return nil
}

func (s *Session) endPause(now time.Time) {
	if s.PausedAt == nil {
		return
	}
	if now.After(*s.PausedAt) {
		s.PausedSeconds += int64(now.Sub(*s.PausedAt) / time.Second)
	}
	s.PausedAt = nil
}
