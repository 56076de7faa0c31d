package domain

import (
	"fmt"
	"strings"
)

// DefaultSearchLimit is the number of results returned when no limit is set.
const DefaultSearchLimit = 5

// SearchOptions configures a search query.
type SearchOptions struct {
	// Limit is the maximum number of results.
	Limit int

	// Channel restricts results to one channel, by ID or by name.
	// A leading '#' is ignored.
	Channel string

	// DateFrom is the inclusive lower date bound (YYYY-MM-DD).
	DateFrom string

	// DateTo is the inclusive upper date bound (YYYY-MM-DD).
	DateTo string
}

// Normalise applies defaults and validates the options.
func (o SearchOptions) Normalise() (SearchOptions, error) {
	if o.Limit <= 0 {
		o.Limit = DefaultSearchLimit
	}
	o.Channel = strings.TrimPrefix(strings.TrimSpace(o.Channel), "#")

	if o.DateFrom != "" && !ValidDate(o.DateFrom) {
		return o, fmt.Errorf("date_from %q is not YYYY-MM-DD: %w", o.DateFrom, ErrInvalidInput)
	}
	if o.DateTo != "" && !ValidDate(o.DateTo) {
		return o, fmt.Errorf("date_to %q is not YYYY-MM-DD: %w", o.DateTo, ErrInvalidInput)
	}
	if o.DateFrom != "" && o.DateTo != "" && o.DateFrom > o.DateTo {
		return o, fmt.Errorf("date_from %s is after date_to %s: %w", o.DateFrom, o.DateTo, ErrInvalidInput)
	}
	return o, nil
}

// ChannelFilterField picks the payload field a channel filter applies to.
// Values shaped like channel IDs (starting with 'C') match channel_id,
// anything else matches channel_name.
func ChannelFilterField(channel string) string {
	if strings.HasPrefix(channel, "C") {
		return FieldChannelID
	}
	return FieldChannelName
}

// MatchesFilters reports whether a document satisfies the channel and
// date filters of the options. Dates compare as ISO-8601 strings with
// both bounds inclusive.
func (o SearchOptions) MatchesFilters(doc Document) bool {
	if o.Channel != "" {
		if ChannelFilterField(o.Channel) == FieldChannelID {
			if doc.ChannelID != o.Channel {
				return false
			}
		} else if doc.ChannelName != o.Channel {
			return false
		}
	}
	if o.DateFrom != "" && doc.Date < o.DateFrom {
		return false
	}
	if o.DateTo != "" && doc.Date > o.DateTo {
		return false
	}
	return true
}

// SearchHit represents a single search result.
type SearchHit struct {
	// Document is the matched document.
	Document Document

	// Score is the similarity score reported by the index.
	Score float64
}
