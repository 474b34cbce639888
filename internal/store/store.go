package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hohihiho/gameplaza-booking-v2-sub014/internal/availability"
	"github.com/hohihiho/gameplaza-booking-v2-sub014/internal/model"
	"github.com/hohihiho/gameplaza-booking-v2-sub014/internal/timeslot"
)

// Store defines the interface for all database operations. The scheduling
// engine itself never touches the database; handlers and background jobs go
// through this interface so tests can run against an in-memory SQLite.
type Store interface {
	DB() *gorm.DB

	ListDevices(ctx context.Context) ([]model.Device, error)
	DeviceByID(ctx context.Context, id int64) (model.Device, error)
	CreateDevice(ctx context.Context, device *model.Device) error
	UpdateDeviceStatus(ctx context.Context, id int64, status model.DeviceStatus, note string) (model.Device, error)

	ReservationByID(ctx context.Context, id int64) (model.Reservation, error)
	ReservationsForDate(ctx context.Context, date string) ([]model.Reservation, error)
	ReservationsForDeviceDate(ctx context.Context, deviceID int64, date string, statuses []model.ReservationStatus) ([]model.Reservation, error)
	CreateReservation(ctx context.Context, r *model.Reservation) error
	TransitionReservation(ctx context.Context, id int64, to model.ReservationStatus) (model.Reservation, error)

	EventsForDate(ctx context.Context, date string) ([]model.ScheduleEvent, error)
	EventsBetween(ctx context.Context, from, to string) ([]model.ScheduleEvent, error)
	CreateScheduleEvent(ctx context.Context, e *model.ScheduleEvent) error
	SaveScheduleEvents(ctx context.Context, events []model.ScheduleEvent) (int64, error)
	DeleteScheduleEvent(ctx context.Context, id int64) error
	ReplaceRuleEvents(ctx context.Context, ruleName string, events []model.ScheduleEvent) (int64, error)

	AdminByEmail(ctx context.Context, email string) (model.AdminUser, error)

	StatsForDate(ctx context.Context, date string) (DateStats, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// DB exposes the underlying handle for association-heavy handlers.
func (s *gormStore) DB() *gorm.DB {
	return s.db
}

func (s *gormStore) ListDevices(ctx context.Context) ([]model.Device, error) {
	var devices []model.Device
	if err := s.db.WithContext(ctx).Preload("Type").Order("id").Find(&devices).Error; err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	return devices, nil
}

func (s *gormStore) DeviceByID(ctx context.Context, id int64) (model.Device, error) {
	var device model.Device
	err := s.db.WithContext(ctx).Preload("Type").First(&device, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Device{}, fmt.Errorf("device %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Device{}, fmt.Errorf("device %d: %w", id, err)
	}
	return device, nil
}

func (s *gormStore) CreateDevice(ctx context.Context, device *model.Device) error {
	if device.Status == "" {
		device.Status = model.DeviceAvailable
	}
	if err := s.db.WithContext(ctx).Create(device).Error; err != nil {
		return fmt.Errorf("create device: %w", err)
	}
	return nil
}

func (s *gormStore) UpdateDeviceStatus(ctx context.Context, id int64, status model.DeviceStatus, note string) (model.Device, error) {
	device, err := s.DeviceByID(ctx, id)
	if err != nil {
		return model.Device{}, err
	}
	updates := map[string]any{"status": status}
	if note != "" {
		updates["note"] = note
	}
	if err := s.db.WithContext(ctx).Model(&device).Updates(updates).Error; err != nil {
		return model.Device{}, fmt.Errorf("update device %d: %w", id, err)
	}
	return device, nil
}

func (s *gormStore) ReservationByID(ctx context.Context, id int64) (model.Reservation, error) {
	var r model.Reservation
	err := s.db.WithContext(ctx).First(&r, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Reservation{}, fmt.Errorf("reservation %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Reservation{}, fmt.Errorf("reservation %d: %w", id, err)
	}
	return r, nil
}

func (s *gormStore) ReservationsForDate(ctx context.Context, date string) ([]model.Reservation, error) {
	var rs []model.Reservation
	if err := s.db.WithContext(ctx).
		Where("date = ?", date).
		Order("device_id, start_hour").
		Find(&rs).Error; err != nil {
		return nil, fmt.Errorf("reservations for %s: %w", date, err)
	}
	return rs, nil
}

func (s *gormStore) ReservationsForDeviceDate(ctx context.Context, deviceID int64, date string, statuses []model.ReservationStatus) ([]model.Reservation, error) {
	q := s.db.WithContext(ctx).Where("device_id = ? AND date = ?", deviceID, date)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	var rs []model.Reservation
	if err := q.Order("start_hour").Find(&rs).Error; err != nil {
		return nil, fmt.Errorf("reservations for device %d on %s: %w", deviceID, date, err)
	}
	return rs, nil
}

// CreateReservation inserts a booking after re-checking for overlap inside
// the transaction. The advisory check handlers run beforehand can race with
// a concurrent insert; this one cannot, so a clean commit means no
// double-booking.
func (s *gormStore) CreateReservation(ctx context.Context, r *model.Reservation) error {
	rng, err := timeslot.NormalizeRange(r.StartHour, r.EndHour)
	if err != nil {
		return err
	}
	if r.Status == "" {
		r.Status = model.ReservationPending
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []model.Reservation
		if err := tx.
			Where("device_id = ? AND date = ? AND status IN ?", r.DeviceID, r.Date, model.OccupyingStatuses).
			Find(&existing).Error; err != nil {
			return fmt.Errorf("fetch existing reservations: %w", err)
		}
		if availability.ConflictsWith(rng, existing) {
			return fmt.Errorf("device %d on %s %s: %w", r.DeviceID, r.Date, rng, ErrConflict)
		}
		if err := tx.Create(r).Error; err != nil {
			return fmt.Errorf("create reservation: %w", err)
		}
		return nil
	})
}

// allowedTransitions is the reservation lifecycle. Completed, cancelled and
// no-show are terminal.
var allowedTransitions = map[model.ReservationStatus][]model.ReservationStatus{
	model.ReservationPending:   {model.ReservationApproved, model.ReservationCancelled},
	model.ReservationApproved:  {model.ReservationCheckedIn, model.ReservationCancelled, model.ReservationNoShow},
	model.ReservationCheckedIn: {model.ReservationCompleted, model.ReservationCancelled},
}

func transitionAllowed(from, to model.ReservationStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s *gormStore) TransitionReservation(ctx context.Context, id int64, to model.ReservationStatus) (model.Reservation, error) {
	var r model.Reservation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&r, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("reservation %d: %w", id, ErrNotFound)
			}
			return fmt.Errorf("reservation %d: %w", id, err)
		}
		if !transitionAllowed(r.Status, to) {
			return fmt.Errorf("reservation %d: %s -> %s: %w", id, r.Status, to, ErrInvalidTransition)
		}
		if err := tx.Model(&r).Update("status", to).Error; err != nil {
			return fmt.Errorf("transition reservation %d: %w", id, err)
		}
		r.Status = to
		return nil
	})
	if err != nil {
		return model.Reservation{}, err
	}
	return r, nil
}

func (s *gormStore) EventsForDate(ctx context.Context, date string) ([]model.ScheduleEvent, error) {
	var events []model.ScheduleEvent
	if err := s.db.WithContext(ctx).
		Where("date = ?", date).
		Order("start_hour").
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("events for %s: %w", date, err)
	}
	return events, nil
}

func (s *gormStore) EventsBetween(ctx context.Context, from, to string) ([]model.ScheduleEvent, error) {
	var events []model.ScheduleEvent
	if err := s.db.WithContext(ctx).
		Where("date >= ? AND date <= ?", from, to).
		Order("date, start_hour").
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("events %s..%s: %w", from, to, err)
	}
	return events, nil
}

func (s *gormStore) CreateScheduleEvent(ctx context.Context, e *model.ScheduleEvent) error {
	if e.Provenance == "" {
		e.Provenance = model.ProvenanceManual
	}
	if err := s.db.WithContext(ctx).Create(e).Error; err != nil {
		return fmt.Errorf("create schedule event: %w", err)
	}
	return nil
}

// SaveScheduleEvents batch-inserts generated events. The partial unique
// index on (date, provenance) plus on-conflict-do-nothing makes persisting a
// generator result idempotent even if two runners race; manual events sit
// outside the index and are never affected.
func (s *gormStore) SaveScheduleEvents(ctx context.Context, events []model.ScheduleEvent) (int64, error) {
	if len(events) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		DoNothing: true,
	}).Create(&events)
	if res.Error != nil {
		return 0, fmt.Errorf("save schedule events: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *gormStore) DeleteScheduleEvent(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var e model.ScheduleEvent
		if err := tx.First(&e, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("schedule event %d: %w", id, ErrNotFound)
			}
			return fmt.Errorf("schedule event %d: %w", id, err)
		}
		if e.Locked {
			return fmt.Errorf("schedule event %d: %w", id, ErrLocked)
		}
		if err := tx.Delete(&e).Error; err != nil {
			return fmt.Errorf("delete schedule event %d: %w", id, err)
		}
		return nil
	})
}

// ReplaceRuleEvents drops the unlocked events previously generated by a rule
// and inserts the freshly generated set. Manual and locked entries are never
// touched.
func (s *gormStore) ReplaceRuleEvents(ctx context.Context, ruleName string, events []model.ScheduleEvent) (int64, error) {
	var inserted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("provenance = ? AND locked = ?", model.RuleProvenance(ruleName), false).
			Delete(&model.ScheduleEvent{}).Error; err != nil {
			return fmt.Errorf("clear events for rule %s: %w", ruleName, err)
		}
		if len(events) == 0 {
			return nil
		}
		res := tx.Clauses(clause.OnConflict{
			DoNothing: true,
		}).Create(&events)
		if res.Error != nil {
			return fmt.Errorf("insert events for rule %s: %w", ruleName, res.Error)
		}
		inserted = res.RowsAffected
		return nil
	})
	return inserted, err
}

func (s *gormStore) AdminByEmail(ctx context.Context, email string) (model.AdminUser, error) {
	var admin model.AdminUser
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&admin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.AdminUser{}, fmt.Errorf("admin %s: %w", email, ErrNotFound)
	}
	if err != nil {
		return model.AdminUser{}, fmt.Errorf("admin %s: %w", email, err)
	}
	return admin, nil
}

func (s *gormStore) StatsForDate(ctx context.Context, date string) (DateStats, error) {
	stats := DateStats{Date: date, ByStatus: make(map[string]int64)}

	type statusCount struct {
		Status string
		Count  int64
	}
	var counts []statusCount
	if err := s.db.WithContext(ctx).Model(&model.Reservation{}).
		Select("status, count(*) as count").
		Where("date = ?", date).
		Group("status").
		Scan(&counts).Error; err != nil {
		return DateStats{}, fmt.Errorf("stats for %s: %w", date, err)
	}
	for _, c := range counts {
		stats.ByStatus[c.Status] = c.Count
	}

	var rs []model.Reservation
	if err := s.db.WithContext(ctx).
		Where("date = ? AND status IN ?", date, model.OccupyingStatuses).
		Find(&rs).Error; err != nil {
		return DateStats{}, fmt.Errorf("stats for %s: %w", date, err)
	}
	for _, r := range rs {
		if rng, err := timeslot.NormalizeRange(r.StartHour, r.EndHour); err == nil {
			stats.BookedHours += rng.Duration()
		}
	}

	if err := s.db.WithContext(ctx).Model(&model.ScheduleEvent{}).
		Where("date = ?", date).
		Count(&stats.EventCount).Error; err != nil {
		return DateStats{}, fmt.Errorf("stats for %s: %w", date, err)
	}
	if err := s.db.WithContext(ctx).Model(&model.Device{}).
		Count(&stats.DeviceCount).Error; err != nil {
		return DateStats{}, fmt.Errorf("stats for %s: %w", date, err)
	}
	return stats, nil
}
