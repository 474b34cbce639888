// Package schedule derives calendar schedule events from approved
// reservations and recurring business rules. Generation is pure: callers
// supply the existing events for the horizon and persist the result.
package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/hohihiho/gameplaza-booking-v2-sub014/internal/model"
	"github.com/hohihiho/gameplaza-booking-v2-sub014/internal/timeslot"
)

// ErrInvalidRule reports a recurrence rule that fails validation.
var ErrInvalidRule = errors.New("schedule: invalid recurrence rule")

// FromApprovedReservation derives the venue-wide business-hours block implied
// by an approved reservation. Ordinary daytime rentals need no block and
// yield nil. The event's range is the reservation's normalized range with
// provenance tying it back to the reservation.
func FromApprovedReservation(r model.Reservation) (*model.ScheduleEvent, error) {
	if r.Status != model.ReservationApproved {
		return nil, nil
	}

	var category model.EventCategory
	switch r.SlotType {
	case model.SlotEarly:
		category = model.EventEarlyBusiness
	case model.SlotOvernight:
		category = model.EventOvernightBusiness
	default:
		return nil, nil
	}

	rng, err := timeslot.NormalizeRange(r.StartHour, r.EndHour)
	if err != nil {
		return nil, fmt.Errorf("reservation %d: %w", r.ID, err)
	}

	return &model.ScheduleEvent{
		Date:       r.Date,
		StartHour:  int(rng.Start),
		EndHour:    int(rng.End),
		Category:   category,
		Title:      fmt.Sprintf("%s (reservation #%d)", categoryTitle(category), r.ID),
		Provenance: model.ReservationProvenance(r.ID),
	}, nil
}

func categoryTitle(c model.EventCategory) string {
	switch c {
	case model.EventEarlyBusiness:
		return "Early business"
	case model.EventOvernightBusiness:
		return "Overnight business"
	default:
		return "Business hours"
	}
}

// Rule describes a standing business-hours pattern, e.g. "every Saturday and
// Sunday, overnight block 24:00-29:00".
type Rule struct {
	Name        string               `yaml:"name" json:"name"`
	Weekdays    []time.Weekday       `yaml:"weekdays" json:"weekdays"`
	Start       timeslot.DisplayHour `yaml:"start" json:"start"`
	End         timeslot.DisplayHour `yaml:"end" json:"end"`
	Category    model.EventCategory  `yaml:"category" json:"category"`
	Occurrences int                  `yaml:"occurrences" json:"occurrences"`
}

// Validate fails fast before any events are computed.
func (r Rule) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidRule)
	}
	if len(r.Weekdays) == 0 {
		return fmt.Errorf("%w: empty weekday set", ErrInvalidRule)
	}
	if r.Occurrences <= 0 {
		return fmt.Errorf("%w: zero horizon", ErrInvalidRule)
	}
	if r.End <= r.Start {
		return fmt.Errorf("%w: empty time range", ErrInvalidRule)
	}
	return nil
}

// Range returns the rule's block as a display-hour range.
func (r Rule) Range() timeslot.TimeRange {
	return timeslot.TimeRange{Start: r.Start, End: r.End}
}

// SkipReason explains why a candidate date produced no event.
type SkipReason string

const (
	// SkipManualConflict marks a date blocked by an overlapping manual or
	// foreign-rule event.
	SkipManualConflict SkipReason = "manual_conflict"
	// SkipAlreadyGenerated marks a date already satisfied by a previous run
	// of the same rule.
	SkipAlreadyGenerated SkipReason = "already_generated"
)

// SkippedDate reports one candidate date the generator passed over.
type SkippedDate struct {
	Date   string     `json:"date"`
	Reason SkipReason `json:"reason"`
}

// Result is the outcome of one generation run. Created events are returned
// for the caller to persist; skipped dates are reported so batch jobs can log
// without treating them as failures.
type Result struct {
	Created []model.ScheduleEvent `json:"created"`
	Skipped []SkippedDate         `json:"skipped"`
}

// GenerateRecurringBlocks enumerates the next rule.Occurrences dates matching
// the rule's weekdays strictly after `from`, producing a candidate event for
// each. Conflicts are venue-wide: an overlapping event from the same rule
// means the date is already satisfied, any other overlapping event blocks the
// date. Running the same rule twice over the same horizon creates nothing new.
func GenerateRecurringBlocks(rule Rule, from time.Time, existing []model.ScheduleEvent) (Result, error) {
	if err := rule.Validate(); err != nil {
		return Result{}, err
	}

	wanted := make(map[time.Weekday]bool, len(rule.Weekdays))
	for _, wd := range rule.Weekdays {
		wanted[wd] = true
	}

	byDate := make(map[string][]model.ScheduleEvent, len(existing))
	for _, e := range existing {
		byDate[e.Date] = append(byDate[e.Date], e)
	}

	var result Result
	day := from.AddDate(0, 0, 1)
	for found := 0; found < rule.Occurrences; day = day.AddDate(0, 0, 1) {
		if !wanted[day.Weekday()] {
			continue
		}
		found++

		date := day.Format(timeslot.DateLayout)
		switch classifyDate(rule, byDate[date]) {
		case dateSatisfied:
			result.Skipped = append(result.Skipped, SkippedDate{Date: date, Reason: SkipAlreadyGenerated})
		case dateBlocked:
			result.Skipped = append(result.Skipped, SkippedDate{Date: date, Reason: SkipManualConflict})
		default:
			result.Created = append(result.Created, model.ScheduleEvent{
				Date:       date,
				StartHour:  int(rule.Start),
				EndHour:    int(rule.End),
				Category:   rule.Category,
				Title:      categoryTitle(rule.Category),
				Provenance: model.RuleProvenance(rule.Name),
			})
		}
	}
	return result, nil
}

type dateState int

const (
	dateFree dateState = iota
	dateSatisfied
	dateBlocked
)

func classifyDate(rule Rule, events []model.ScheduleEvent) dateState {
	for _, e := range events {
		existingRange := timeslot.TimeRange{
			Start: timeslot.DisplayHour(e.StartHour),
			End:   timeslot.DisplayHour(e.EndHour),
		}
		if !rule.Range().Overlaps(existingRange) {
			continue
		}
		if e.FromRule(rule.Name) {
			return dateSatisfied
		}
		return dateBlocked
	}
	return dateFree
}
