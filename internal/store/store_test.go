package store

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/hohihiho/gameplaza-booking-v2-sub014/internal/model"
)

var testDBSeq atomic.Int64

// newTestStore opens a fresh in-memory SQLite database with migrations
// applied. Each call gets its own named shared-cache DB so parallel tests do
// not see each other's rows.
func newTestStore(t *testing.T) Store {
	t.Helper()

	dsn := fmt.Sprintf("file:storetest%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	require.NoError(t, db.AutoMigrate(
		&model.DeviceType{},
		&model.Device{},
		&model.Reservation{},
		&model.ScheduleEvent{},
		&model.PushSubscription{},
		&model.AdminUser{},
	))
	return NewGormStore(db)
}

func seedDevice(t *testing.T, s Store, id int64) model.Device {
	t.Helper()
	ctx := context.Background()
	device := model.Device{ID: id, TypeID: 1, Name: fmt.Sprintf("Cabinet %d", id)}
	require.NoError(t, s.CreateDevice(ctx, &device))
	return device
}

func TestCreateReservationConflict(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedDevice(t, s, 1)

	first := model.Reservation{
		DeviceID: 1, Date: "2025-07-23",
		StartHour: 10, EndHour: 12,
		SlotType: model.SlotDaytime, UserName: "alice",
	}
	require.NoError(t, s.CreateReservation(ctx, &first))
	assert.NotZero(t, first.ID)
	assert.Equal(t, model.ReservationPending, first.Status)

	t.Run("overlapping booking is rejected", func(t *testing.T) {
		second := model.Reservation{
			DeviceID: 1, Date: "2025-07-23",
			StartHour: 11, EndHour: 13,
			SlotType: model.SlotDaytime, UserName: "bob",
		}
		err := s.CreateReservation(ctx, &second)
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("adjacent booking is accepted", func(t *testing.T) {
		second := model.Reservation{
			DeviceID: 1, Date: "2025-07-23",
			StartHour: 12, EndHour: 14,
			SlotType: model.SlotDaytime, UserName: "bob",
		}
		assert.NoError(t, s.CreateReservation(ctx, &second))
	})

	t.Run("same window on another date is accepted", func(t *testing.T) {
		second := model.Reservation{
			DeviceID: 1, Date: "2025-07-24",
			StartHour: 10, EndHour: 12,
			SlotType: model.SlotDaytime, UserName: "carol",
		}
		assert.NoError(t, s.CreateReservation(ctx, &second))
	})

	t.Run("same window on another device is accepted", func(t *testing.T) {
		seedDevice(t, s, 2)
		second := model.Reservation{
			DeviceID: 2, Date: "2025-07-23",
			StartHour: 10, EndHour: 12,
			SlotType: model.SlotDaytime, UserName: "dave",
		}
		assert.NoError(t, s.CreateReservation(ctx, &second))
	})

	t.Run("cancelled booking frees the window", func(t *testing.T) {
		blocked := model.Reservation{
			DeviceID: 1, Date: "2025-07-25",
			StartHour: 10, EndHour: 12, UserName: "erin",
		}
		require.NoError(t, s.CreateReservation(ctx, &blocked))
		_, err := s.TransitionReservation(ctx, blocked.ID, model.ReservationCancelled)
		require.NoError(t, err)

		retry := model.Reservation{
			DeviceID: 1, Date: "2025-07-25",
			StartHour: 10, EndHour: 12, UserName: "frank",
		}
		assert.NoError(t, s.CreateReservation(ctx, &retry))
	})
}

func TestCreateReservationOvernightConflict(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedDevice(t, s, 1)

	// 22:00-02:00 normalizes to display 22-26.
	overnight := model.Reservation{
		DeviceID: 1, Date: "2025-07-26",
		StartHour: 22, EndHour: 2,
		SlotType: model.SlotOvernight, UserName: "alice",
	}
	require.NoError(t, s.CreateReservation(ctx, &overnight))

	// 00:00-03:00 is display 24-27 on the same business day and must clash.
	lateNight := model.Reservation{
		DeviceID: 1, Date: "2025-07-26",
		StartHour: 0, EndHour: 3,
		SlotType: model.SlotOvernight, UserName: "bob",
	}
	assert.ErrorIs(t, s.CreateReservation(ctx, &lateNight), ErrConflict)
}

func TestTransitionReservation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedDevice(t, s, 1)

	r := model.Reservation{
		DeviceID: 1, Date: "2025-07-23",
		StartHour: 10, EndHour: 12, UserName: "alice",
	}
	require.NoError(t, s.CreateReservation(ctx, &r))

	approved, err := s.TransitionReservation(ctx, r.ID, model.ReservationApproved)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationApproved, approved.Status)

	t.Run("skipping check-in to completed is rejected", func(t *testing.T) {
		_, err := s.TransitionReservation(ctx, r.ID, model.ReservationCompleted)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("full lifecycle", func(t *testing.T) {
		_, err := s.TransitionReservation(ctx, r.ID, model.ReservationCheckedIn)
		require.NoError(t, err)
		done, err := s.TransitionReservation(ctx, r.ID, model.ReservationCompleted)
		require.NoError(t, err)
		assert.Equal(t, model.ReservationCompleted, done.Status)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := s.TransitionReservation(ctx, 9999, model.ReservationApproved)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestReservationsForDeviceDateStatusFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedDevice(t, s, 1)

	a := model.Reservation{DeviceID: 1, Date: "2025-07-23", StartHour: 10, EndHour: 12, UserName: "a"}
	require.NoError(t, s.CreateReservation(ctx, &a))
	b := model.Reservation{DeviceID: 1, Date: "2025-07-23", StartHour: 13, EndHour: 15, UserName: "b"}
	require.NoError(t, s.CreateReservation(ctx, &b))
	_, err := s.TransitionReservation(ctx, b.ID, model.ReservationCancelled)
	require.NoError(t, err)

	occupying, err := s.ReservationsForDeviceDate(ctx, 1, "2025-07-23", model.OccupyingStatuses)
	require.NoError(t, err)
	require.Len(t, occupying, 1)
	assert.Equal(t, a.ID, occupying[0].ID)

	all, err := s.ReservationsForDeviceDate(ctx, 1, "2025-07-23", nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSaveScheduleEventsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	events := []model.ScheduleEvent{
		{Date: "2025-07-26", StartHour: 24, EndHour: 29, Category: model.EventOvernightBusiness, Provenance: model.RuleProvenance("weekend-overnight")},
		{Date: "2025-07-27", StartHour: 24, EndHour: 29, Category: model.EventOvernightBusiness, Provenance: model.RuleProvenance("weekend-overnight")},
	}

	inserted, err := s.SaveScheduleEvents(ctx, events)
	require.NoError(t, err)
	assert.Equal(t, int64(2), inserted)

	// The unique (date, provenance) index absorbs a replay.
	again := []model.ScheduleEvent{
		{Date: "2025-07-26", StartHour: 24, EndHour: 29, Category: model.EventOvernightBusiness, Provenance: model.RuleProvenance("weekend-overnight")},
	}
	inserted, err = s.SaveScheduleEvents(ctx, again)
	require.NoError(t, err)
	assert.Equal(t, int64(0), inserted)

	stored, err := s.EventsBetween(ctx, "2025-07-26", "2025-07-27")
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestManualEventsUnconstrainedPerDate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Idempotence is a generated-events concern; staff can stack any number
	// of manual blocks on one day.
	morning := model.ScheduleEvent{
		Date: "2025-07-26", StartHour: 10, EndHour: 12,
		Category: model.EventManual, Provenance: model.ProvenanceManual,
	}
	require.NoError(t, s.CreateScheduleEvent(ctx, &morning))

	afternoon := model.ScheduleEvent{
		Date: "2025-07-26", StartHour: 14, EndHour: 16,
		Category: model.EventManual, Provenance: model.ProvenanceManual,
	}
	require.NoError(t, s.CreateScheduleEvent(ctx, &afternoon))

	stored, err := s.EventsForDate(ctx, "2025-07-26")
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, 10, stored[0].StartHour)
	assert.Equal(t, 14, stored[1].StartHour)
}

func TestDeleteScheduleEventGuards(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	unlocked := model.ScheduleEvent{Date: "2025-07-23", StartHour: 10, EndHour: 12, Category: model.EventManual}
	require.NoError(t, s.CreateScheduleEvent(ctx, &unlocked))
	assert.Equal(t, model.ProvenanceManual, unlocked.Provenance)

	locked := model.ScheduleEvent{Date: "2025-07-24", StartHour: 10, EndHour: 12, Category: model.EventManual, Locked: true}
	require.NoError(t, s.CreateScheduleEvent(ctx, &locked))

	assert.NoError(t, s.DeleteScheduleEvent(ctx, unlocked.ID))
	assert.ErrorIs(t, s.DeleteScheduleEvent(ctx, locked.ID), ErrLocked)
	assert.ErrorIs(t, s.DeleteScheduleEvent(ctx, 9999), ErrNotFound)
}

func TestReplaceRuleEvents(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	old := []model.ScheduleEvent{
		{Date: "2025-07-26", StartHour: 24, EndHour: 29, Category: model.EventOvernightBusiness, Provenance: model.RuleProvenance("weekend-overnight")},
	}
	_, err := s.SaveScheduleEvents(ctx, old)
	require.NoError(t, err)

	manual := model.ScheduleEvent{Date: "2025-07-26", StartHour: 10, EndHour: 12, Category: model.EventManual}
	require.NoError(t, s.CreateScheduleEvent(ctx, &manual))

	replacement := []model.ScheduleEvent{
		{Date: "2025-08-02", StartHour: 24, EndHour: 29, Category: model.EventOvernightBusiness, Provenance: model.RuleProvenance("weekend-overnight")},
	}
	inserted, err := s.ReplaceRuleEvents(ctx, "weekend-overnight", replacement)
	require.NoError(t, err)
	assert.Equal(t, int64(1), inserted)

	remaining, err := s.EventsBetween(ctx, "2025-07-01", "2025-08-31")
	require.NoError(t, err)
	require.Len(t, remaining, 2)
	dates := []string{remaining[0].Date, remaining[1].Date}
	assert.Contains(t, dates, "2025-07-26") // the manual event survives
	assert.Contains(t, dates, "2025-08-02")
	for _, e := range remaining {
		if e.Date == "2025-07-26" {
			assert.True(t, e.IsManual())
		}
	}
}

func TestStatsForDate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedDevice(t, s, 1)
	seedDevice(t, s, 2)

	a := model.Reservation{DeviceID: 1, Date: "2025-07-23", StartHour: 10, EndHour: 12, UserName: "a"}
	require.NoError(t, s.CreateReservation(ctx, &a))
	_, err := s.TransitionReservation(ctx, a.ID, model.ReservationApproved)
	require.NoError(t, err)

	b := model.Reservation{DeviceID: 2, Date: "2025-07-23", StartHour: 22, EndHour: 2, UserName: "b"}
	require.NoError(t, s.CreateReservation(ctx, &b))

	event := model.ScheduleEvent{Date: "2025-07-23", StartHour: 24, EndHour: 29, Category: model.EventOvernightBusiness, Provenance: model.RuleProvenance("weekend-overnight")}
	require.NoError(t, s.CreateScheduleEvent(ctx, &event))

	stats, err := s.StatsForDate(ctx, "2025-07-23")
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.ByStatus["approved"])
	assert.Equal(t, int64(1), stats.ByStatus["pending"])
	assert.Equal(t, 2+4, stats.BookedHours) // 10-12 plus 22-26
	assert.Equal(t, int64(1), stats.EventCount)
	assert.Equal(t, int64(2), stats.DeviceCount)
}
