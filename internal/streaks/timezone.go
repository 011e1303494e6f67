package streaks

import "context"

// TimezoneResolver returns the IANA timezone week boundaries are computed in.
type TimezoneResolver interface {
	Timezone(ctx context.Context, userID string) (string, error)
}

// StaticTimezone resolves the same timezone for every user.
type StaticTimezone string

func (s StaticTimezone) Timezone(_ context.Context, _ string) (string, error) {
	return string(s), nil
}
