package model

import (
	"fmt"
	"strings"
	"time"
)

// EventCategory classifies a venue-wide business-hours block.
type EventCategory string

const (
	EventEarlyBusiness     EventCategory = "early_business"
	EventOvernightBusiness EventCategory = "overnight_business"
	EventManual            EventCategory = "manual"
)

// Provenance values. Auto-generated events carry a structured tag naming the
// reservation or recurring rule that produced them; everything else is manual.
const (
	ProvenanceManual            = "manual"
	provenanceReservationPrefix = "auto:reservation:"
	provenanceRulePrefix        = "auto:rule:"
)

// ReservationProvenance tags an event derived from an approved reservation.
func ReservationProvenance(reservationID int64) string {
	return fmt.Sprintf("%s%d", provenanceReservationPrefix, reservationID)
}

// RuleProvenance tags an event generated by a recurring business rule.
func RuleProvenance(ruleName string) string {
	return provenanceRulePrefix + ruleName
}

// ScheduleEvent is a venue-wide business-hours block on the calendar. Hours
// are stored in display space (late-night blocks read 24-29). Events are never
// auto-deleted; bulk replacement is limited to unlocked generated entries.
//
// The partial unique index on (date, provenance) backs generator idempotence
// only: a reservation or rule can open a given date once. Manual entries are
// excluded, so staff can put any number of blocks on one day.
type ScheduleEvent struct {
	ID         int64         `gorm:"primaryKey" json:"id"`
	Date       string        `gorm:"size:10;not null;uniqueIndex:idx_event_date_provenance" json:"date"`
	StartHour  int           `gorm:"not null" json:"start_hour"`
	EndHour    int           `gorm:"not null" json:"end_hour"`
	Category   EventCategory `gorm:"size:32;not null" json:"category"`
	Title      string        `gorm:"size:256" json:"title,omitempty"`
	Provenance string        `gorm:"size:128;not null;uniqueIndex:idx_event_date_provenance,where:provenance <> 'manual'" json:"provenance"`
	Locked     bool          `gorm:"not null;default:false" json:"locked"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// IsManual reports whether the event was entered by a person.
func (e ScheduleEvent) IsManual() bool {
	return e.Provenance == ProvenanceManual
}

// FromRule reports whether the event was generated by the named rule.
func (e ScheduleEvent) FromRule(ruleName string) bool {
	return e.Provenance == RuleProvenance(ruleName)
}

// Generated reports whether the event has auto provenance of any kind.
func (e ScheduleEvent) Generated() bool {
	return strings.HasPrefix(e.Provenance, provenanceReservationPrefix) ||
		strings.HasPrefix(e.Provenance, provenanceRulePrefix)
}
