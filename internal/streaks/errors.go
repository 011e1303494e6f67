package streaks

import "errors"

var (
	ErrWeekFinalized            = errors.New("week already finalized")
	ErrInsufficientBalance      = errors.New("insufficient balance")
	ErrCarryoverAlreadyApplied  = errors.New("carryover already applied to this week")
	ErrCarryoverTrackNotAllowed = errors.New("carryover credits can only be applied to weights")
	ErrNoPendingRescue          = errors.New("no pending rescue for this week and track")
	ErrUnknownTrack             = errors.New("unknown track")
	ErrUnknownTarget            = errors.New("unknown carryover target")
)
