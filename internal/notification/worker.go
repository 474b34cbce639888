// Package notification delivers web push updates about reservation lifecycle
// changes to subscribers of the affected device.
package notification

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"github.com/hohihiho/gameplaza-booking-v2-sub014/internal/model"
)

// Sender defines the interface for sending a web push notification.
type Sender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is the real implementation backed by the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// Job asks the pool to notify a device's subscribers about a reservation.
type Job struct {
	ReservationID int64
}

// WorkerPool manages a pool of workers for sending notifications.
type WorkerPool struct {
	size    int
	jobs    chan Job
	db      *gorm.DB
	webpush *webpush.Options
	sender  Sender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan Job, size),
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// SetSender swaps the delivery implementation; used by tests.
func (wp *WorkerPool) SetSender(s Sender) {
	wp.sender = s
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("notification worker %d started", id)
	for {
		select {
		case job := <-wp.jobs:
			wp.notifyForReservation(ctx, job.ReservationID)
		case <-ctx.Done():
			log.Printf("notification worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues a notification job.
func (wp *WorkerPool) Dispatch(reservationID int64) {
	wp.jobs <- Job{ReservationID: reservationID}
}

func (wp *WorkerPool) notifyForReservation(ctx context.Context, reservationID int64) {
	var r model.Reservation
	if err := wp.db.WithContext(ctx).First(&r, reservationID).Error; err != nil {
		log.Printf("notification: reservation %d lookup failed: %v", reservationID, err)
		return
	}

	var subscriptions []model.PushSubscription
	err := wp.db.WithContext(ctx).
		Joins("JOIN subscription_device_mapping sdm ON sdm.push_subscription_endpoint = push_subscriptions.endpoint").
		Where("sdm.device_id = ?", r.DeviceID).
		Find(&subscriptions).Error
	if err != nil {
		log.Printf("notification: subscriptions for device %d: %v", r.DeviceID, err)
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	deviceLabel := fmt.Sprintf("device %d", r.DeviceID)
	var device model.Device
	if err := wp.db.WithContext(ctx).Select("name").First(&device, r.DeviceID).Error; err != nil {
		log.Printf("notification: device %d lookup failed: %v", r.DeviceID, err)
	} else if device.Name != "" {
		deviceLabel = device.Name
	}

	message := messageFor(r, deviceLabel)
	log.Printf("notification: sending %d messages for reservation %d", len(subscriptions), reservationID)
	for _, sub := range subscriptions {
		wp.send(ctx, sub, []byte(message))
	}
}

func messageFor(r model.Reservation, deviceLabel string) string {
	switch r.Status {
	case model.ReservationApproved:
		return fmt.Sprintf("Reservation for %s on %s is confirmed", deviceLabel, r.Date)
	case model.ReservationCancelled:
		return fmt.Sprintf("Reservation for %s on %s was cancelled; the slot is open again", deviceLabel, r.Date)
	default:
		return fmt.Sprintf("Reservation for %s on %s is now %s", deviceLabel, r.Date, r.Status)
	}
}

func (wp *WorkerPool) send(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Printf("notification: send to %s failed: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	// A 410 means the browser dropped the subscription; prune it.
	if resp.StatusCode == http.StatusGone {
		log.Printf("notification: subscription %s expired, deleting", sub.Endpoint)
		if err := wp.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			log.Printf("notification: delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
