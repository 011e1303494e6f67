package activities

import (
	"errors"
	"time"
)

var ErrActivityNotFound = errors.New("activity not found")

type Kind string

const (
	KindCardio Kind = "cardio"
	KindSquash Kind = "squash"
)

// Activity is a non-gym training: a run, a ride, or a squash match.
// Activities never count toward the weekly streak tracks.
type Activity struct {
	ID              string    `json:"id"`
	Kind            Kind      `json:"kind" validate:"required,oneof=cardio squash"`
	Name            string    `json:"name" validate:"max=100"`
	DurationMinutes int       `json:"durationMinutes" validate:"gt=0,lte=1440"`
	DistanceKm      float64   `json:"distanceKm,omitempty" validate:"gte=0,lte=1000"`
	Calories        int       `json:"calories,omitempty" validate:"gte=0,lte=20000"`
	Opponent        string    `json:"opponent,omitempty" validate:"max=100"`
	Result          string    `json:"result,omitempty" validate:"max=50"`
	PerformedAt     time.Time `json:"performedAt" validate:"required"`
	Notes           string    `json:"notes,omitempty" validate:"max=1000"`
}

type WeekSummary struct {
	WeekID       string       `json:"weekId"`
	Count        int          `json:"count"`
	TotalMinutes int          `json:"totalMinutes"`
	MinutesBy    map[Kind]int `json:"minutesBy"`
	DistanceKm   float64      `json:"distanceKm"`
	Calories     int          `json:"calories"`
}
