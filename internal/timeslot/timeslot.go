// Package timeslot implements the venue's display-hour convention: a business
// day runs past midnight until 05:59, so wall-clock hours 0-5 are renumbered
// 24-29 and stay attached to the previous calendar date.
package timeslot

import (
	"errors"
	"fmt"
	"time"
)

// Raw hours below this value belong to the previous business day.
const LateNightCutoff = 6

var (
	// ErrHourOutOfRange reports a raw hour outside [0, 24).
	ErrHourOutOfRange = errors.New("timeslot: hour out of range")
	// ErrEmptyRange reports a range that is empty after normalization.
	ErrEmptyRange = errors.New("timeslot: empty time range")
)

// DisplayHour is an hour-of-day in display space, in [0, 30).
// Values 24-29 correspond to wall-clock 00:00-05:59 of the next calendar day.
type DisplayHour int

// ToDisplayHour converts a wall-clock hour to display space.
func ToDisplayHour(raw int) (DisplayHour, error) {
	if raw < 0 || raw >= 24 {
		return 0, fmt.Errorf("%w: %d", ErrHourOutOfRange, raw)
	}
	if raw < LateNightCutoff {
		return DisplayHour(raw + 24), nil
	}
	return DisplayHour(raw), nil
}

// At returns "now" in display-hour space for comparison against stored ranges.
// The caller is responsible for passing a venue-local timestamp.
func At(now time.Time) DisplayHour {
	h := now.Hour()
	if h < LateNightCutoff {
		return DisplayHour(h + 24)
	}
	return DisplayHour(h)
}

// BusinessDate returns the calendar date a venue-local instant belongs to:
// anything before the late-night cutoff still counts as the previous day.
func BusinessDate(now time.Time) string {
	if now.Hour() < LateNightCutoff {
		now = now.AddDate(0, 0, -1)
	}
	return now.Format(DateLayout)
}

// DateLayout is the wire/storage format for venue-local calendar dates.
const DateLayout = "2006-01-02"

// TimeRange is a half-open interval [Start, End) in display-hour space.
type TimeRange struct {
	Start DisplayHour `json:"start"`
	End   DisplayHour `json:"end"`
}

// NormalizeRange converts both raw endpoints to display space. When the end
// lands at or before the start after conversion the window crosses midnight,
// so 24 hours are added to the end. The result always satisfies End > Start.
func NormalizeRange(startRaw, endRaw int) (TimeRange, error) {
	start, err := ToDisplayHour(startRaw)
	if err != nil {
		return TimeRange{}, err
	}
	// The end hour 24 ("until midnight") is expressed as raw 0.
	end, err := ToDisplayHour(endRaw)
	if err != nil {
		return TimeRange{}, err
	}
	if end <= start {
		end += 24
	}
	if end <= start {
		return TimeRange{}, ErrEmptyRange
	}
	return TimeRange{Start: start, End: end}, nil
}

// NewRange builds a range directly from display-hour endpoints.
func NewRange(start, end DisplayHour) (TimeRange, error) {
	if end <= start {
		return TimeRange{}, ErrEmptyRange
	}
	return TimeRange{Start: start, End: end}, nil
}

// Overlaps reports whether two half-open ranges intersect.
func (r TimeRange) Overlaps(other TimeRange) bool {
	return r.Start < other.End && other.Start < r.End
}

// Contains reports whether h falls inside [Start, End).
func (r TimeRange) Contains(h DisplayHour) bool {
	return h >= r.Start && h < r.End
}

// Duration returns the range length in hours.
func (r TimeRange) Duration() int {
	return int(r.End - r.Start)
}

// String renders the range in the display-hour notation used across the
// admin UI, e.g. "24:00-29:00".
func (r TimeRange) String() string {
	return fmt.Sprintf("%02d:00-%02d:00", int(r.Start), int(r.End))
}
