// Package availability derives device status and free booking slots from a
// snapshot of reservations. All functions are pure; callers fetch the
// snapshot from the store and persist nothing here.
package availability

import (
	"sort"

	"github.com/hohihiho/gameplaza-booking-v2-sub014/internal/model"
	"github.com/hohihiho/gameplaza-booking-v2-sub014/internal/timeslot"
)

// Snapshot is the computed state of one device at an instant.
type Snapshot struct {
	Status model.DeviceStatus `json:"status"`
	// ActiveReservationID is the reservation occupying the device when the
	// status is rental, zero otherwise.
	ActiveReservationID int64 `json:"active_reservation_id,omitempty"`
	// Anomaly is set when the input violated an invariant (overlapping
	// occupying reservations, unparseable hours). The result is still valid;
	// callers should log and alert rather than fail the read path.
	Anomaly bool `json:"anomaly,omitempty"`
}

// ComputeStatus resolves a device's status at the given display hour.
// Maintenance and disabled flags are authoritative and win over any computed
// occupancy. When several reservations cover "now" the first in input order
// wins and the anomaly flag is raised.
func ComputeStatus(device model.Device, reservations []model.Reservation, now timeslot.DisplayHour) Snapshot {
	if device.Status == model.DeviceMaintenance || device.Status == model.DeviceDisabled {
		return Snapshot{Status: device.Status}
	}

	snap := Snapshot{Status: model.DeviceAvailable}
	matches := 0
	for _, r := range reservations {
		if !r.Status.Occupies() {
			continue
		}
		rng, err := timeslot.NormalizeRange(r.StartHour, r.EndHour)
		if err != nil {
			snap.Anomaly = true
			continue
		}
		if rng.Contains(now) {
			matches++
			if matches == 1 {
				snap.Status = model.DeviceRental
				snap.ActiveReservationID = r.ID
			}
		}
	}
	if matches > 1 {
		snap.Anomaly = true
	}
	return snap
}

// FreeRanges returns the complement of the occupying reservation ranges
// within the venue's operating window. Adjacent and overlapping occupied
// ranges are merged before complementing, so the union of the result and the
// merged occupied set is exactly the window.
func FreeRanges(window timeslot.TimeRange, reservations []model.Reservation) []timeslot.TimeRange {
	occupied := make([]timeslot.TimeRange, 0, len(reservations))
	for _, r := range reservations {
		if !r.Status.Occupies() {
			continue
		}
		rng, err := timeslot.NormalizeRange(r.StartHour, r.EndHour)
		if err != nil {
			continue
		}
		// Clamp to the window; ranges entirely outside contribute nothing.
		if !rng.Overlaps(window) {
			continue
		}
		if rng.Start < window.Start {
			rng.Start = window.Start
		}
		if rng.End > window.End {
			rng.End = window.End
		}
		occupied = append(occupied, rng)
	}

	merged := mergeRanges(occupied)

	free := make([]timeslot.TimeRange, 0, len(merged)+1)
	cursor := window.Start
	for _, occ := range merged {
		if occ.Start > cursor {
			free = append(free, timeslot.TimeRange{Start: cursor, End: occ.Start})
		}
		if occ.End > cursor {
			cursor = occ.End
		}
	}
	if cursor < window.End {
		free = append(free, timeslot.TimeRange{Start: cursor, End: window.End})
	}
	return free
}

// mergeRanges sorts by start and coalesces overlapping or touching ranges.
func mergeRanges(ranges []timeslot.TimeRange) []timeslot.TimeRange {
	if len(ranges) == 0 {
		return nil
	}
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].Start < ranges[j].Start })

	merged := []timeslot.TimeRange{ranges[0]}
	for _, r := range ranges[1:] {
		last := &merged[len(merged)-1]
		if r.Start <= last.End {
			if r.End > last.End {
				last.End = r.End
			}
			continue
		}
		merged = append(merged, r)
	}
	return merged
}

// Conflict is a pair of occupying reservations with intersecting ranges on
// the same device and date.
type Conflict struct {
	First  model.Reservation `json:"first"`
	Second model.Reservation `json:"second"`
}

// DetectConflicts scans a per-device, per-date reservation snapshot for
// overlapping occupying pairs. The check is advisory: the booking flow must
// still rely on the store's transactional insert to close the race between
// this read and the write.
func DetectConflicts(reservations []model.Reservation) []Conflict {
	type normalized struct {
		res model.Reservation
		rng timeslot.TimeRange
	}

	occupying := make([]normalized, 0, len(reservations))
	for _, r := range reservations {
		if !r.Status.Occupies() {
			continue
		}
		rng, err := timeslot.NormalizeRange(r.StartHour, r.EndHour)
		if err != nil {
			continue
		}
		occupying = append(occupying, normalized{res: r, rng: rng})
	}

	var conflicts []Conflict
	for i := 0; i < len(occupying); i++ {
		for j := i + 1; j < len(occupying); j++ {
			if occupying[i].rng.Overlaps(occupying[j].rng) {
				conflicts = append(conflicts, Conflict{
					First:  occupying[i].res,
					Second: occupying[j].res,
				})
			}
		}
	}
	return conflicts
}

// ConflictsWith reports whether a proposed range overlaps any occupying
// reservation in the snapshot. Used by the booking flow before insert.
func ConflictsWith(proposed timeslot.TimeRange, reservations []model.Reservation) bool {
	for _, r := range reservations {
		if !r.Status.Occupies() {
			continue
		}
		rng, err := timeslot.NormalizeRange(r.StartHour, r.EndHour)
		if err != nil {
			continue
		}
		if rng.Overlaps(proposed) {
			return true
		}
	}
	return false
}
