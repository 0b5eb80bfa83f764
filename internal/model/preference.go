package model

import (
	"strings"
	"time"
)

// Polarity indicates whether a preference includes or excludes products.
type Polarity string

// Polarity constants.
const (
	PolarityInclude Polarity = "include"
	PolarityExclude Polarity = "exclude"
)

// Preference is a user-supplied dietary constraint. Only the raw text
// persists; polarity is derived fresh each run by ClassifyPreference.
type Preference struct {
	CreatedAt time.Time
	UserID    string
	Text      string
	ID        int64
}

// PreferenceSet holds compiled preferences split by polarity. Order within
// each slice follows input order; it carries no ranking meaning.
type PreferenceSet struct {
	Exclusions []string
	Inclusions []string
}

// IsEmpty reports whether the set contains no usable preferences.
func (p PreferenceSet) IsEmpty() bool {
	return len(p.Exclusions) == 0 && len(p.Inclusions) == 0
}

const exclusionPrefix = "no "

// ClassifyPreference derives the polarity of a single preference string and
// returns the term to match against. Exclusions are stored with the leading
// "no " stripped; inclusions are returned verbatim (trimmed).
//
// The prefix heuristic is known to misclassify products whose names literally
// start with a "no " token (e.g. "no name crackers" becomes an exclusion for
// "name crackers"). The heuristic is kept deliberately simple and isolated
// here so it can be swapped out.
func ClassifyPreference(raw string) (string, Polarity) {
	text := strings.TrimSpace(raw)
	if len(text) > len(exclusionPrefix) && strings.EqualFold(text[:len(exclusionPrefix)], exclusionPrefix) {
		return text[len(exclusionPrefix):], PolarityExclude
	}
	return text, PolarityInclude
}

// CompilePreferences splits raw preference strings into exclusion and
// inclusion sequences. Pure function; blank strings are dropped.
func CompilePreferences(raw []string) PreferenceSet {
	var set PreferenceSet
	for _, r := range raw {
		term, polarity := ClassifyPreference(r)
		if term == "" {
			continue
		}
		switch polarity {
		case PolarityExclude:
			set.Exclusions = append(set.Exclusions, term)
		case PolarityInclude:
			set.Inclusions = append(set.Inclusions, term)
		}
	}
	return set
}
