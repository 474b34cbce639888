package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hohihiho/gameplaza-booking-v2-sub014/internal/model"
)

func TestFromApprovedReservation(t *testing.T) {
	base := model.Reservation{
		ID:        42,
		DeviceID:  1,
		Date:      "2025-07-23",
		StartHour: 0,
		EndHour:   5,
		Status:    model.ReservationApproved,
	}

	t.Run("daytime slot produces no event", func(t *testing.T) {
		r := base
		r.SlotType = model.SlotDaytime
		r.StartHour, r.EndHour = 10, 12

		event, err := FromApprovedReservation(r)
		assert.NoError(t, err)
		assert.Nil(t, event)
	})

	t.Run("overnight slot produces event with provenance", func(t *testing.T) {
		r := base
		r.SlotType = model.SlotOvernight

		event, err := FromApprovedReservation(r)
		require.NoError(t, err)
		require.NotNil(t, event)
		assert.Equal(t, "2025-07-23", event.Date)
		assert.Equal(t, 24, event.StartHour)
		assert.Equal(t, 29, event.EndHour)
		assert.Equal(t, model.EventOvernightBusiness, event.Category)
		assert.Equal(t, "auto:reservation:42", event.Provenance)
		assert.True(t, event.Generated())
	})

	t.Run("early slot produces early business event", func(t *testing.T) {
		r := base
		r.SlotType = model.SlotEarly
		r.StartHour, r.EndHour = 7, 10

		event, err := FromApprovedReservation(r)
		require.NoError(t, err)
		require.NotNil(t, event)
		assert.Equal(t, model.EventEarlyBusiness, event.Category)
		assert.Equal(t, 7, event.StartHour)
		assert.Equal(t, 10, event.EndHour)
	})

	t.Run("non-approved reservation produces nothing", func(t *testing.T) {
		r := base
		r.SlotType = model.SlotOvernight
		r.Status = model.ReservationPending

		event, err := FromApprovedReservation(r)
		assert.NoError(t, err)
		assert.Nil(t, event)
	})

	t.Run("broken hours surface a validation error", func(t *testing.T) {
		r := base
		r.SlotType = model.SlotOvernight
		r.StartHour, r.EndHour = 30, 2

		_, err := FromApprovedReservation(r)
		assert.Error(t, err)
	})
}

func weekendOvernightRule(occurrences int) Rule {
	return Rule{
		Name:        "weekend-overnight",
		Weekdays:    []time.Weekday{time.Saturday, time.Sunday},
		Start:       24,
		End:         29,
		Category:    model.EventOvernightBusiness,
		Occurrences: occurrences,
	}
}

func TestRuleValidate(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(*Rule)
		wantErr bool
	}{
		{"valid rule", func(r *Rule) {}, false},
		{"missing name", func(r *Rule) { r.Name = "" }, true},
		{"empty weekday set", func(r *Rule) { r.Weekdays = nil }, true},
		{"zero horizon", func(r *Rule) { r.Occurrences = 0 }, true},
		{"empty range", func(r *Rule) { r.End = r.Start }, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rule := weekendOvernightRule(2)
			tc.mutate(&rule)
			err := rule.Validate()
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRule)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGenerateRecurringBlocks(t *testing.T) {
	// 2025-07-25 is a Friday.
	friday := time.Date(2025, 7, 25, 12, 0, 0, 0, time.Local)

	t.Run("horizon of two from a Friday hits the weekend", func(t *testing.T) {
		result, err := GenerateRecurringBlocks(weekendOvernightRule(2), friday, nil)
		require.NoError(t, err)
		require.Len(t, result.Created, 2)
		assert.Empty(t, result.Skipped)

		assert.Equal(t, "2025-07-26", result.Created[0].Date) // Saturday
		assert.Equal(t, "2025-07-27", result.Created[1].Date) // Sunday
		for _, e := range result.Created {
			assert.Equal(t, 24, e.StartHour)
			assert.Equal(t, 29, e.EndHour)
			assert.Equal(t, "auto:rule:weekend-overnight", e.Provenance)
		}
	})

	t.Run("second run over the same horizon is idempotent", func(t *testing.T) {
		first, err := GenerateRecurringBlocks(weekendOvernightRule(4), friday, nil)
		require.NoError(t, err)
		require.Len(t, first.Created, 4)

		second, err := GenerateRecurringBlocks(weekendOvernightRule(4), friday, first.Created)
		require.NoError(t, err)
		assert.Empty(t, second.Created, "no net new events on the second call")
		require.Len(t, second.Skipped, 4)
		for _, s := range second.Skipped {
			assert.Equal(t, SkipAlreadyGenerated, s.Reason)
		}
	})

	t.Run("overlapping manual event blocks the date", func(t *testing.T) {
		manual := model.ScheduleEvent{
			Date:       "2025-07-26",
			StartHour:  26,
			EndHour:    28,
			Category:   model.EventManual,
			Provenance: model.ProvenanceManual,
		}

		result, err := GenerateRecurringBlocks(weekendOvernightRule(2), friday, []model.ScheduleEvent{manual})
		require.NoError(t, err)
		require.Len(t, result.Created, 1)
		assert.Equal(t, "2025-07-27", result.Created[0].Date)
		require.Len(t, result.Skipped, 1)
		assert.Equal(t, SkippedDate{Date: "2025-07-26", Reason: SkipManualConflict}, result.Skipped[0])
	})

	t.Run("non-overlapping manual event does not block", func(t *testing.T) {
		manual := model.ScheduleEvent{
			Date:       "2025-07-26",
			StartHour:  10,
			EndHour:    12,
			Category:   model.EventManual,
			Provenance: model.ProvenanceManual,
		}

		result, err := GenerateRecurringBlocks(weekendOvernightRule(2), friday, []model.ScheduleEvent{manual})
		require.NoError(t, err)
		assert.Len(t, result.Created, 2)
		assert.Empty(t, result.Skipped)
	})

	t.Run("foreign rule overlap blocks the date", func(t *testing.T) {
		other := model.ScheduleEvent{
			Date:       "2025-07-26",
			StartHour:  24,
			EndHour:    29,
			Category:   model.EventOvernightBusiness,
			Provenance: model.RuleProvenance("holiday-special"),
		}

		result, err := GenerateRecurringBlocks(weekendOvernightRule(2), friday, []model.ScheduleEvent{other})
		require.NoError(t, err)
		require.Len(t, result.Skipped, 1)
		assert.Equal(t, SkipManualConflict, result.Skipped[0].Reason)
	})

	t.Run("invalid rule fails fast", func(t *testing.T) {
		rule := weekendOvernightRule(2)
		rule.Weekdays = nil

		_, err := GenerateRecurringBlocks(rule, friday, nil)
		assert.ErrorIs(t, err, ErrInvalidRule)
	})
}
