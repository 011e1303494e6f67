package streaks

import (
	"encoding/json"
	"sort"

	"github.com/2beens/gymstreak/internal/weeks"
	log "github.com/sirupsen/logrus"
)

// SchemaVersion of the persisted documents.
// Version 1 is the legacy layout: a bare state object and a bare summaries array.
// Version 2 wraps both in a versioned document and adds per-week rescue resolutions.
const SchemaVersion = 2

type stateDocument struct {
	SchemaVersion int   `json:"schemaVersion"`
	State         State `json:"state"`
}

type summariesDocument struct {
	SchemaVersion int           `json:"schemaVersion"`
	Summaries     []WeekSummary `json:"summaries"`
}

// decodeState runs migrate-or-default over raw persisted bytes.
// The returned flag reports whether the document has to be rewritten in the current version.
func decodeState(userID string, raw []byte) (_ State, migrated bool) {
	defaultState := State{UserID: userID}
	if len(raw) == 0 {
		return defaultState, false
	}

	var doc stateDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		log.Warnf("streaks: malformed state document for [%s], using defaults: %s", userID, err)
		return defaultState, false
	}

	if doc.SchemaVersion == 0 {
		var legacy State
		if err := json.Unmarshal(raw, &legacy); err != nil {
			log.Warnf("streaks: malformed legacy state for [%s], using defaults: %s", userID, err)
			return defaultState, false
		}
		doc.State = legacy
		migrated = true
	} else if doc.SchemaVersion > SchemaVersion {
		log.Warnf("streaks: state for [%s] has newer schema version %d, reading it as %d",
			userID, doc.SchemaVersion, SchemaVersion)
	}

	state := sanitizeState(doc.State)
	state.UserID = userID
	return state, migrated
}

// sanitizeState drops values no rule can produce: negative balances and an unparsable cursor.
func sanitizeState(s State) State {
	for _, track := range Tracks {
		f := s.fields(track)
		for _, v := range []*int{f.current, f.best, f.tokens, f.milestone} {
			if *v < 0 {
				*v = 0
			}
		}
		if *f.best < *f.current {
			*f.best = *f.current
		}
	}
	if s.GeneralCarryoverCredits < 0 {
		s.GeneralCarryoverCredits = 0
	}
	if s.LastFinalizedWeekID != "" && !weeks.Valid(s.LastFinalizedWeekID) {
		log.Warnf("streaks: invalid last finalized week [%s], resetting cursor", s.LastFinalizedWeekID)
		s.LastFinalizedWeekID = ""
	}
	return s
}

func decodeSummaries(userID string, raw []byte) (_ []WeekSummary, migrated bool) {
	if len(raw) == 0 {
		return []WeekSummary{}, false
	}

	var summaries []WeekSummary
	var doc summariesDocument
	if err := json.Unmarshal(raw, &doc); err == nil {
		summaries = doc.Summaries
		if doc.SchemaVersion > SchemaVersion {
			log.Warnf("streaks: summaries for [%s] have newer schema version %d", userID, doc.SchemaVersion)
		}
	} else if legacyErr := json.Unmarshal(raw, &summaries); legacyErr == nil {
		migrated = true
	} else {
		log.Warnf("streaks: malformed summaries for [%s], using empty list: %s", userID, err)
		return []WeekSummary{}, false
	}

	cleaned := make([]WeekSummary, 0, len(summaries))
	seen := make(map[string]bool, len(summaries))
	for _, s := range summaries {
		if !weeks.Valid(s.WeekID) {
			log.Warnf("streaks: dropping summary with invalid week id [%s]", s.WeekID)
			continue
		}
		if seen[s.WeekID] {
			log.Warnf("streaks: dropping duplicate summary of week [%s]", s.WeekID)
			continue
		}
		seen[s.WeekID] = true
		s.UserID = userID
		if s.WeightsCount < 0 {
			s.WeightsCount = 0
		}
		if s.AbsCount < 0 {
			s.AbsCount = 0
		}
		cleaned = append(cleaned, s)
	}
	sort.Slice(cleaned, func(i, j int) bool {
		return weeks.Compare(cleaned[i].WeekID, cleaned[j].WeekID) < 0
	})

	return cleaned, migrated
}

func encodeState(s State) ([]byte, error) {
	return json.Marshal(stateDocument{
		SchemaVersion: SchemaVersion,
		State:         s,
	})
}

func encodeSummaries(summaries []WeekSummary) ([]byte, error) {
	return json.Marshal(summariesDocument{
		SchemaVersion: SchemaVersion,
		Summaries:     summaries,
	})
}
