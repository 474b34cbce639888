// Package events publishes reservation lifecycle and schedule-generation
// events to a message broker for the analytics pipeline. Publishing is
// best-effort: failures are logged and returned but must never interrupt the
// booking flow.
package events

import "time"

// Event types carried in the envelope.
const (
	TypeReservationApproved  = "reservation.approved"
	TypeReservationCancelled = "reservation.cancelled"
	TypeScheduleGenerated    = "schedule.generated"
)

// ReservationEvent describes a reservation lifecycle change. It carries
// enough for downstream consumers to aggregate without querying the primary
// database.
type ReservationEvent struct {
	Type          string    `json:"type"`
	ReservationID int64     `json:"reservation_id"`
	DeviceID      int64     `json:"device_id"`
	DeviceName    string    `json:"device_name,omitempty"`
	Date          string    `json:"date"`
	StartHour     int       `json:"start_hour"`
	EndHour       int       `json:"end_hour"`
	SlotType      string    `json:"slot_type"`
	Status        string    `json:"status"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// ScheduleGeneratedEvent summarizes one recurring-generation run.
type ScheduleGeneratedEvent struct {
	Type       string    `json:"type"`
	Rule       string    `json:"rule"`
	Created    int       `json:"created"`
	Skipped    int       `json:"skipped"`
	OccurredAt time.Time `json:"occurred_at"`
}
