package model

import "time"

// ReservationStatus is the lifecycle state of a booking.
type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationApproved  ReservationStatus = "approved"
	ReservationCheckedIn ReservationStatus = "checked_in"
	ReservationCompleted ReservationStatus = "completed"
	ReservationCancelled ReservationStatus = "cancelled"
	ReservationNoShow    ReservationStatus = "no_show"
)

// OccupyingStatuses are the states that count toward device busy-time.
var OccupyingStatuses = []ReservationStatus{
	ReservationPending,
	ReservationApproved,
	ReservationCheckedIn,
}

// Occupies reports whether a reservation in this status blocks the device.
func (s ReservationStatus) Occupies() bool {
	switch s {
	case ReservationPending, ReservationApproved, ReservationCheckedIn:
		return true
	}
	return false
}

// SlotType classifies the booked window relative to regular business hours.
type SlotType string

const (
	SlotDaytime   SlotType = "daytime"
	SlotEarly     SlotType = "early"
	SlotOvernight SlotType = "overnight"
)

// Reservation is a booking of one device for an hour range on a business day.
// Hours are stored as raw wall-clock values [0, 24); display-space ranges are
// derived through the timeslot package on read.
type Reservation struct {
	ID        int64             `gorm:"primaryKey" json:"id"`
	DeviceID  int64             `gorm:"index:idx_reservation_device_date;not null" json:"device_id"`
	Date      string            `gorm:"index:idx_reservation_device_date;size:10;not null" json:"date"`
	StartHour int               `gorm:"not null" json:"start_hour"`
	EndHour   int               `gorm:"not null" json:"end_hour"`
	SlotType  SlotType          `gorm:"size:16;not null;default:daytime" json:"slot_type"`
	Status    ReservationStatus `gorm:"size:16;not null;default:pending;index" json:"status"`
	UserName  string            `gorm:"size:128;not null" json:"user_name"`
	Contact   string            `gorm:"size:256" json:"contact,omitempty"`
	Note      string            `gorm:"size:512" json:"note,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`

	// Associations
	Device Device `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
