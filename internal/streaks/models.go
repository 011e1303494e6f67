package streaks

import (
	"fmt"
	"time"
)

// Track is one of the three independent streak counters.
type Track string

const (
	TrackWeight2 Track = "weight2"
	TrackWeight3 Track = "weight3"
	TrackAbs     Track = "abs"
)

// Tracks lists the streak tracks in the order they are evaluated.
var Tracks = []Track{TrackWeight2, TrackWeight3, TrackAbs}

func ParseTrack(s string) (Track, error) {
	switch t := Track(s); t {
	case TrackWeight2, TrackWeight3, TrackAbs:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownTrack, s)
	}
}

// CarryoverTrack is the logged count a carryover credit boosts.
type CarryoverTrack string

const (
	CarryoverWeights CarryoverTrack = "weights"
	CarryoverAbs     CarryoverTrack = "abs"
)

// CarryoverTarget is the week a carryover credit is applied to, relative to now.
type CarryoverTarget string

const (
	TargetCurrentWeek CarryoverTarget = "current"
	TargetNextWeek    CarryoverTarget = "next"
)

type RescueResolution string

const (
	RescueConfirmed RescueResolution = "confirmed"
	RescueDeclined  RescueResolution = "declined"
)

const (
	weight2Threshold = 2
	weight3Threshold = 3
	absThreshold     = 1
	// carryoverEarnThreshold weight sessions in a week earn one carryover credit
	carryoverEarnThreshold = 4
)

// Milestones are best-streak lengths paying out one save token each, once per track.
var Milestones = []int{4, 8, 12, 16, 24, 36, 52}

// WeekSummary holds the logged counts of a single ISO week.
// Once Finalized, a summary is frozen.
type WeekSummary struct {
	UserID                  string                     `json:"userId"`
	WeekID                  string                     `json:"weekId"`
	WeightsCount            int                        `json:"weightsCount"`
	AbsCount                int                        `json:"absCount"`
	WeightsCarryoverApplied bool                       `json:"weightsCarryoverApplied"`
	AbsCarryoverApplied     bool                       `json:"absCarryoverApplied"`
	CarryoverEarnedThisWeek bool                       `json:"carryoverEarnedThisWeek"`
	Finalized               bool                       `json:"finalized"`
	Rescues                 map[Track]RescueResolution `json:"rescues,omitempty"`
}

func (w *WeekSummary) EffectiveWeights() int {
	if w.WeightsCarryoverApplied {
		return w.WeightsCount + 1
	}
	return w.WeightsCount
}

func (w *WeekSummary) EffectiveAbs() int {
	if w.AbsCarryoverApplied {
		return w.AbsCount + 1
	}
	return w.AbsCount
}

func (w *WeekSummary) Qualifies(track Track) bool {
	switch track {
	case TrackWeight2:
		return w.EffectiveWeights() >= weight2Threshold
	case TrackWeight3:
		return w.EffectiveWeights() >= weight3Threshold
	case TrackAbs:
		return w.EffectiveAbs() >= absThreshold
	}
	return false
}

func (w *WeekSummary) Qualification() Qualification {
	return Qualification{
		Weight2: w.Qualifies(TrackWeight2),
		Weight3: w.Qualifies(TrackWeight3),
		Abs:     w.Qualifies(TrackAbs),
	}
}

func (w *WeekSummary) resolution(track Track) RescueResolution {
	if w.Rescues == nil {
		return ""
	}
	return w.Rescues[track]
}

func (w *WeekSummary) setResolution(track Track, resolution RescueResolution) {
	if w.Rescues == nil {
		w.Rescues = make(map[Track]RescueResolution)
	}
	w.Rescues[track] = resolution
}

type Qualification struct {
	Weight2 bool `json:"weight2"`
	Weight3 bool `json:"weight3"`
	Abs     bool `json:"abs"`
}

func (q Qualification) Get(track Track) bool {
	switch track {
	case TrackWeight2:
		return q.Weight2
	case TrackWeight3:
		return q.Weight3
	case TrackAbs:
		return q.Abs
	}
	return false
}

// State is the single per-user streak record.
type State struct {
	UserID string `json:"userId"`

	Weight2Current int `json:"weight2Current"`
	Weight2Best    int `json:"weight2Best"`
	Weight3Current int `json:"weight3Current"`
	Weight3Best    int `json:"weight3Best"`
	AbsCurrent     int `json:"absCurrent"`
	AbsBest        int `json:"absBest"`

	Weight2SaveTokens int `json:"weight2SaveTokens"`
	Weight3SaveTokens int `json:"weight3SaveTokens"`
	AbsSaveTokens     int `json:"absSaveTokens"`

	GeneralCarryoverCredits int `json:"generalCarryoverCredits"`

	Weight2MilestoneAwarded int `json:"weight2MilestoneAwarded"`
	Weight3MilestoneAwarded int `json:"weight3MilestoneAwarded"`
	AbsMilestoneAwarded     int `json:"absMilestoneAwarded"`

	LastFinalizedWeekID string `json:"lastFinalizedWeekId,omitempty"`
}

// trackFields points at the State fields of a single track.
type trackFields struct {
	current   *int
	best      *int
	tokens    *int
	milestone *int
}

func (s *State) fields(track Track) trackFields {
	switch track {
	case TrackWeight2:
		return trackFields{&s.Weight2Current, &s.Weight2Best, &s.Weight2SaveTokens, &s.Weight2MilestoneAwarded}
	case TrackWeight3:
		return trackFields{&s.Weight3Current, &s.Weight3Best, &s.Weight3SaveTokens, &s.Weight3MilestoneAwarded}
	case TrackAbs:
		return trackFields{&s.AbsCurrent, &s.AbsBest, &s.AbsSaveTokens, &s.AbsMilestoneAwarded}
	}
	panic("unknown streak track: " + string(track))
}

func (s *State) Current(track Track) int {
	return *s.fields(track).current
}

func (s *State) Best(track Track) int {
	return *s.fields(track).best
}

func (s *State) SaveTokens(track Track) int {
	return *s.fields(track).tokens
}

func (s *State) MilestoneAwarded(track Track) int {
	return *s.fields(track).milestone
}

// WorkoutCompletion is what the streak engine needs to know about a completed session.
type WorkoutCompletion struct {
	DidWeights  bool      `json:"didWeights"`
	DidAbs      bool      `json:"didAbs"`
	CompletedAt time.Time `json:"completedAt"`
	// TZ the session was performed in; empty means the user's resolved timezone.
	TZ string `json:"tz"`
}

// QualificationChange is the provisional signal for the current, unfinalized week.
type QualificationChange struct {
	WeekID          string        `json:"weekId"`
	Before          Qualification `json:"before"`
	After           Qualification `json:"after"`
	NewlyQualified  []Track       `json:"newlyQualified"`
	CarryoverEarned bool          `json:"carryoverEarned"`
}

// RescueRequest asks the user whether to spend Cost save tokens to keep a streak alive.
type RescueRequest struct {
	WeekID  string `json:"weekId"`
	Track   Track  `json:"track"`
	Cost    int    `json:"cost"`
	Balance int    `json:"balance"`
	Current int    `json:"current"`
}

// WeekOutcome describes what finalization did with a single week.
type WeekOutcome struct {
	WeekID        string  `json:"weekId"`
	Qualified     []Track `json:"qualified,omitempty"`
	Rescued       []Track `json:"rescued,omitempty"`
	Reset         []Track `json:"reset,omitempty"`
	TokensSpent   int     `json:"tokensSpent"`
	TokensAwarded []Award `json:"tokensAwarded,omitempty"`
	CreditEarned  bool    `json:"creditEarned"`
	// AlreadyFinalized is set when the summary was found finalized and only the cursor moved.
	AlreadyFinalized bool `json:"alreadyFinalized,omitempty"`
}

type Award struct {
	Track     Track `json:"track"`
	Milestone int   `json:"milestone"`
}

type FinalizeResult struct {
	CurrentWeekID string        `json:"currentWeekId"`
	Weeks         []WeekOutcome `json:"weeks"`
	// PendingRescue is set when finalization stopped at a week waiting for a rescue decision.
	PendingRescue *RescueRequest `json:"pendingRescue,omitempty"`
	State         State          `json:"state"`
}

type Snapshot struct {
	CurrentWeekID string        `json:"currentWeekId"`
	State         State         `json:"state"`
	CurrentWeek   WeekSummary   `json:"currentWeek"`
	NextWeek      WeekSummary   `json:"nextWeek"`
	Provisional   Qualification `json:"provisional"`
	// PendingRescue is only ever set under the prompt rescue policy.
	PendingRescue *RescueRequest `json:"pendingRescue,omitempty"`
}
