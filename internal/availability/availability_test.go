package availability

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hohihiho/gameplaza-booking-v2-sub014/internal/model"
	"github.com/hohihiho/gameplaza-booking-v2-sub014/internal/timeslot"
)

func reservation(id int64, start, end int, status model.ReservationStatus) model.Reservation {
	return model.Reservation{
		ID:        id,
		DeviceID:  1,
		Date:      "2025-07-23",
		StartHour: start,
		EndHour:   end,
		Status:    status,
	}
}

func TestComputeStatus(t *testing.T) {
	device := model.Device{ID: 1, Status: model.DeviceAvailable}
	approved := []model.Reservation{reservation(10, 9, 11, model.ReservationApproved)}

	testCases := []struct {
		name     string
		device   model.Device
		rs       []model.Reservation
		now      timeslot.DisplayHour
		expected Snapshot
	}{
		{
			name:     "inside reservation window",
			device:   device,
			rs:       approved,
			now:      10,
			expected: Snapshot{Status: model.DeviceRental, ActiveReservationID: 10},
		},
		{
			name:     "after reservation ends",
			device:   device,
			rs:       approved,
			now:      12,
			expected: Snapshot{Status: model.DeviceAvailable},
		},
		{
			name:     "end hour is exclusive",
			device:   device,
			rs:       approved,
			now:      11,
			expected: Snapshot{Status: model.DeviceAvailable},
		},
		{
			name:     "cancelled reservations do not occupy",
			device:   device,
			rs:       []model.Reservation{reservation(11, 9, 11, model.ReservationCancelled)},
			now:      10,
			expected: Snapshot{Status: model.DeviceAvailable},
		},
		{
			name:     "maintenance wins over overlap",
			device:   model.Device{ID: 1, Status: model.DeviceMaintenance},
			rs:       approved,
			now:      10,
			expected: Snapshot{Status: model.DeviceMaintenance},
		},
		{
			name:     "disabled wins over overlap",
			device:   model.Device{ID: 1, Status: model.DeviceDisabled},
			rs:       approved,
			now:      10,
			expected: Snapshot{Status: model.DeviceDisabled},
		},
		{
			name:   "overnight reservation at 1am",
			device: device,
			rs:     []model.Reservation{reservation(12, 22, 5, model.ReservationCheckedIn)},
			now:    25, // 01:00 wall clock
			expected: Snapshot{
				Status:              model.DeviceRental,
				ActiveReservationID: 12,
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ComputeStatus(tc.device, tc.rs, tc.now))
		})
	}
}

func TestComputeStatusOverlapAnomaly(t *testing.T) {
	// Two occupying reservations both covering "now" is broken data; the
	// first match must win and the anomaly flag must be raised, never an error.
	device := model.Device{ID: 1, Status: model.DeviceAvailable}
	rs := []model.Reservation{
		reservation(1, 10, 12, model.ReservationApproved),
		reservation(2, 11, 13, model.ReservationPending),
	}

	snap := ComputeStatus(device, rs, 11)
	assert.Equal(t, model.DeviceRental, snap.Status)
	assert.Equal(t, int64(1), snap.ActiveReservationID, "first match in input order wins")
	assert.True(t, snap.Anomaly)
}

func TestFreeRanges(t *testing.T) {
	window := timeslot.TimeRange{Start: 10, End: 29}

	testCases := []struct {
		name     string
		rs       []model.Reservation
		expected []timeslot.TimeRange
	}{
		{
			name:     "empty snapshot leaves the whole window",
			rs:       nil,
			expected: []timeslot.TimeRange{{Start: 10, End: 29}},
		},
		{
			name: "single booking splits the window",
			rs:   []model.Reservation{reservation(1, 12, 14, model.ReservationApproved)},
			expected: []timeslot.TimeRange{
				{Start: 10, End: 12},
				{Start: 14, End: 29},
			},
		},
		{
			name: "overlapping bookings merge before complementing",
			rs: []model.Reservation{
				reservation(1, 12, 15, model.ReservationApproved),
				reservation(2, 14, 17, model.ReservationPending),
			},
			expected: []timeslot.TimeRange{
				{Start: 10, End: 12},
				{Start: 17, End: 29},
			},
		},
		{
			name: "adjacent bookings merge",
			rs: []model.Reservation{
				reservation(1, 12, 14, model.ReservationApproved),
				reservation(2, 14, 16, model.ReservationApproved),
			},
			expected: []timeslot.TimeRange{
				{Start: 10, End: 12},
				{Start: 16, End: 29},
			},
		},
		{
			name: "overnight booking clamps to window end",
			rs:   []model.Reservation{reservation(1, 0, 5, model.ReservationApproved)},
			expected: []timeslot.TimeRange{
				{Start: 10, End: 24},
			},
		},
		{
			name:     "booking covering the window leaves nothing",
			rs:       []model.Reservation{reservation(1, 10, 5, model.ReservationCheckedIn)},
			expected: []timeslot.TimeRange{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := FreeRanges(window, tc.rs)
			if len(tc.expected) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tc.expected, got)
		})
	}
}

// TestFreeRangesComplementLaw checks that free plus merged occupied time adds
// back up to the window for a non-overlapping reservation set.
func TestFreeRangesComplementLaw(t *testing.T) {
	window := timeslot.TimeRange{Start: 10, End: 29}
	rs := []model.Reservation{
		reservation(1, 11, 13, model.ReservationApproved),
		reservation(2, 15, 18, model.ReservationCheckedIn),
		reservation(3, 22, 2, model.ReservationPending), // 22:00-26:00
	}

	free := FreeRanges(window, rs)
	freeHours := 0
	for _, r := range free {
		freeHours += r.Duration()
	}

	occupiedHours := (13 - 11) + (18 - 15) + (26 - 22)
	assert.Equal(t, window.Duration(), freeHours+occupiedHours)
}

func TestDetectConflicts(t *testing.T) {
	t.Run("classic overlapping pair", func(t *testing.T) {
		rs := []model.Reservation{
			reservation(1, 10, 12, model.ReservationApproved),
			reservation(2, 11, 13, model.ReservationApproved),
		}
		conflicts := DetectConflicts(rs)
		assert.Len(t, conflicts, 1)
		assert.Equal(t, int64(1), conflicts[0].First.ID)
		assert.Equal(t, int64(2), conflicts[0].Second.ID)
	})

	t.Run("non-overlapping set is clean", func(t *testing.T) {
		rs := []model.Reservation{
			reservation(1, 10, 12, model.ReservationApproved),
			reservation(2, 12, 14, model.ReservationApproved),
		}
		assert.Empty(t, DetectConflicts(rs))
	})

	t.Run("cancelled reservations are ignored", func(t *testing.T) {
		rs := []model.Reservation{
			reservation(1, 10, 12, model.ReservationApproved),
			reservation(2, 11, 13, model.ReservationCancelled),
		}
		assert.Empty(t, DetectConflicts(rs))
	})

	t.Run("overnight wrap conflicts with late-night slot", func(t *testing.T) {
		rs := []model.Reservation{
			reservation(1, 22, 2, model.ReservationApproved), // 22:00-26:00
			reservation(2, 0, 3, model.ReservationPending),   // 24:00-27:00
		}
		assert.Len(t, DetectConflicts(rs), 1)
	})
}

func TestConflictsWith(t *testing.T) {
	rs := []model.Reservation{reservation(1, 10, 12, model.ReservationApproved)}

	proposed, err := timeslot.NormalizeRange(11, 13)
	assert.NoError(t, err)
	assert.True(t, ConflictsWith(proposed, rs))

	clear, err := timeslot.NormalizeRange(12, 14)
	assert.NoError(t, err)
	assert.False(t, ConflictsWith(clear, rs))
}
