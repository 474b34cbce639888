package store

import "errors"

// Sentinel errors returned by the store. Callers branch with errors.Is and
// map these to HTTP status codes at the API boundary.
var (
	// ErrNotFound reports a missing device, reservation or event.
	ErrNotFound = errors.New("store: not found")
	// ErrConflict reports an overlap detected inside the write transaction.
	// This is the authoritative double-booking guard; the advisory check in
	// the availability package can pass and this still fire under races.
	ErrConflict = errors.New("store: conflicting reservation")
	// ErrLocked reports an attempt to delete or replace a locked event.
	ErrLocked = errors.New("store: schedule event is locked")
	// ErrInvalidTransition reports a reservation status change the lifecycle
	// does not allow.
	ErrInvalidTransition = errors.New("store: invalid status transition")
)

// DateStats summarizes one business day for the admin dashboard.
type DateStats struct {
	Date        string           `json:"date"`
	ByStatus    map[string]int64 `json:"by_status"`
	BookedHours int              `json:"booked_hours"`
	EventCount  int64            `json:"event_count"`
	DeviceCount int64            `json:"device_count"`
}
