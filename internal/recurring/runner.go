// Package recurring runs the standing business-hour rules on a timer,
// persisting the schedule events the generator produces. The generator plus
// the store's unique (date, provenance) index make repeated runs safe.
package recurring

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/hohihiho/gameplaza-booking-v2-sub014/config"
	"github.com/hohihiho/gameplaza-booking-v2-sub014/internal/events"
	"github.com/hohihiho/gameplaza-booking-v2-sub014/internal/model"
	"github.com/hohihiho/gameplaza-booking-v2-sub014/internal/schedule"
	"github.com/hohihiho/gameplaza-booking-v2-sub014/internal/store"
	"github.com/hohihiho/gameplaza-booking-v2-sub014/internal/timeslot"
)

// Runner executes recurring schedule generation.
type Runner struct {
	cfg       *config.Config
	store     store.Store
	publisher *events.Publisher
	now       func() time.Time
}

// NewRunner creates a runner. The publisher may be disabled (empty URL).
func NewRunner(cfg *config.Config, s store.Store, pub *events.Publisher) *Runner {
	loc := cfg.Venue.Location()
	return &Runner{
		cfg:       cfg,
		store:     s,
		publisher: pub,
		now:       func() time.Time { return time.Now().In(loc) },
	}
}

// Run starts the generation loop. It generates once at startup, then on
// every interval tick until the context is cancelled.
func (r *Runner) Run(ctx context.Context) {
	if !r.cfg.Recurring.Enabled {
		log.Println("Recurring schedule generation is disabled. Not starting.")
		return
	}
	log.Println("Starting recurring schedule runner...")

	if err := r.RunOnce(ctx); err != nil {
		log.Printf("recurring: initial run failed: %v", err)
	}

	timer := time.NewTimer(r.cfg.Recurring.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Recurring schedule runner shutting down.")
			return
		case <-timer.C:
			if err := r.RunOnce(ctx); err != nil {
				log.Printf("recurring: run failed: %v", err)
			}
			timer.Reset(r.cfg.Recurring.Interval)
		}
	}
}

// RunOnce applies every configured rule once. Also called synchronously by
// the admin generate endpoint.
func (r *Runner) RunOnce(ctx context.Context) error {
	now := r.now()
	var firstErr error
	for _, rule := range r.cfg.Recurring.Rules {
		if err := r.applyRule(ctx, rule, now); err != nil {
			log.Printf("recurring: rule %q: %v", rule.Name, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// ApplyRule generates and persists blocks for a single rule.
func (r *Runner) ApplyRule(ctx context.Context, rule schedule.Rule) (schedule.Result, error) {
	return r.applyRuleResult(ctx, rule, r.now())
}

// ReplaceRule regenerates a rule's events after its definition changed:
// the rule's unlocked blocks are dropped and rebuilt in one transaction,
// while locked blocks, manual entries and other rules' events stay put.
func (r *Runner) ReplaceRule(ctx context.Context, rule schedule.Rule) (schedule.Result, error) {
	if err := rule.Validate(); err != nil {
		return schedule.Result{}, err
	}

	now := r.now()
	from := now.Format(timeslot.DateLayout)
	to := now.AddDate(0, 0, 7*(rule.Occurrences+1)).Format(timeslot.DateLayout)
	existing, err := r.store.EventsBetween(ctx, from, to)
	if err != nil {
		return schedule.Result{}, fmt.Errorf("load existing events: %w", err)
	}

	// Generate as if the rule's replaceable events were already gone, so the
	// new definition lands on the dates they held.
	kept := make([]model.ScheduleEvent, 0, len(existing))
	for _, e := range existing {
		if e.FromRule(rule.Name) && !e.Locked {
			continue
		}
		kept = append(kept, e)
	}

	result, err := schedule.GenerateRecurringBlocks(rule, now, kept)
	if err != nil {
		return schedule.Result{}, err
	}

	inserted, err := r.store.ReplaceRuleEvents(ctx, rule.Name, result.Created)
	if err != nil {
		return schedule.Result{}, fmt.Errorf("replace events for rule %s: %w", rule.Name, err)
	}
	log.Printf("recurring: rule %q replaced, %d events now on the calendar (%d skipped)", rule.Name, inserted, len(result.Skipped))

	if inserted > 0 && r.publisher.Enabled() {
		_ = r.publisher.Publish(ctx, events.ScheduleGeneratedEvent{
			Type:       events.TypeScheduleGenerated,
			Rule:       rule.Name,
			Created:    int(inserted),
			Skipped:    len(result.Skipped),
			OccurredAt: time.Now().UTC(),
		})
	}
	return result, nil
}

func (r *Runner) applyRule(ctx context.Context, rule schedule.Rule, now time.Time) error {
	_, err := r.applyRuleResult(ctx, rule, now)
	return err
}

func (r *Runner) applyRuleResult(ctx context.Context, rule schedule.Rule, now time.Time) (schedule.Result, error) {
	if err := rule.Validate(); err != nil {
		return schedule.Result{}, err
	}

	// A horizon of N weekday occurrences fits inside N+1 weeks.
	from := now.Format(timeslot.DateLayout)
	to := now.AddDate(0, 0, 7*(rule.Occurrences+1)).Format(timeslot.DateLayout)
	existing, err := r.store.EventsBetween(ctx, from, to)
	if err != nil {
		return schedule.Result{}, fmt.Errorf("load existing events: %w", err)
	}

	result, err := schedule.GenerateRecurringBlocks(rule, now, existing)
	if err != nil {
		return schedule.Result{}, err
	}

	inserted, err := r.store.SaveScheduleEvents(ctx, result.Created)
	if err != nil {
		return schedule.Result{}, fmt.Errorf("persist generated events: %w", err)
	}
	log.Printf("recurring: rule %q created %d events (%d skipped)", rule.Name, inserted, len(result.Skipped))

	if inserted > 0 && r.publisher.Enabled() {
		_ = r.publisher.Publish(ctx, events.ScheduleGeneratedEvent{
			Type:       events.TypeScheduleGenerated,
			Rule:       rule.Name,
			Created:    int(inserted),
			Skipped:    len(result.Skipped),
			OccurredAt: time.Now().UTC(),
		})
	}
	return result, nil
}
