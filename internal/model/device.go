package model

import "time"

// DeviceStatus is the administrative status stored on a device. The rental
// state is always computed from reservations and never written here.
type DeviceStatus string

const (
	DeviceAvailable   DeviceStatus = "available"
	DeviceRental      DeviceStatus = "rental"
	DeviceMaintenance DeviceStatus = "maintenance"
	DeviceDisabled    DeviceStatus = "disabled"
)

// DeviceType groups devices into a bookable category (e.g. a cabinet model).
type DeviceType struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:128;not null" json:"name"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`

	// Associations
	Devices []Device `gorm:"foreignKey:TypeID" json:"-"`
}

// Device represents a physical arcade cabinet available for rental.
type Device struct {
	ID        int64        `gorm:"primaryKey" json:"id"`
	TypeID    int64        `gorm:"index;not null" json:"type_id"`
	Name      string       `gorm:"size:128;not null" json:"name"`
	Status    DeviceStatus `gorm:"size:32;not null;default:available" json:"status"`
	Note      string       `gorm:"size:512" json:"note,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`

	// Associations
	Type DeviceType `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
