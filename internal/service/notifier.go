package service

import (
	"context"
	"time"

	"github.com/sepehrdad/table-reservation/internal/hub"
	"github.com/sepehrdad/table-reservation/internal/model"
	q "github.com/sepehrdad/table-reservation/internal/queue"
)

// Notifier fans booking lifecycle events out to the websocket hub and,
// best-effort, to the broker audit queue.  It implements the booking
// manager's Notifier interface.  Failures on either sink never propagate
// back to the booking call that triggered the event.
type Notifier struct {
	hub *hub.Hub
}

func NewNotifier(h *hub.Hub) *Notifier { return &Notifier{hub: h} }

func (n *Notifier) BookingCreated(ctx context.Context, b *model.Booking, slot *model.TimeSlot, branch *model.Branch) {
	n.emit(hub.EventNewBooking, b, slot, branch)
}

func (n *Notifier) BookingCancelled(ctx context.Context, b *model.Booking, slot *model.TimeSlot, branch *model.Branch) {
	n.emit(hub.EventBookingCancelled, b, slot, branch)
}

func (n *Notifier) BookingArrived(ctx context.Context, b *model.Booking, slot *model.TimeSlot, branch *model.Branch) {
	n.emit(hub.EventBookingArrived, b, slot, branch)
}

func (n *Notifier) BookingCompleted(ctx context.Context, b *model.Booking, slot *model.TimeSlot, branch *model.Branch) {
	n.emit(hub.EventBookingCompleted, b, slot, branch)
}

func (n *Notifier) emit(eventType string, b *model.Booking, slot *model.TimeSlot, branch *model.Branch) {
	payload := q.BookingLifecycleEvent{
		Type:       eventType,
		BookingID:  b.ID,
		UserID:     b.UserID,
		GuestName:  b.GuestName,
		BranchID:   branch.ID,
		BranchName: branch.Name,
		SlotID:     slot.ID,
		SlotStart:  slot.StartsAt.UTC().Format(time.RFC3339),
		SlotEnd:    slot.EndsAt.UTC().Format(time.RFC3339),
		PartySize:  b.PartySize,
		Status:     string(b.Status),
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}

	// Events are addressed, never broadcast: the owning restaurant always,
	// the owning diner when the booking has one.
	targets := []model.Identity{{Kind: model.KindRestaurant, ID: branch.RestaurantID}}
	if b.UserID != nil {
		targets = append(targets, model.Identity{Kind: model.KindDiner, ID: *b.UserID})
	}
	n.hub.Publish(hub.Event{Type: eventType, Data: payload}, targets...)

	// Broker publish is decoupled from the request that produced the event.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = PublishBookingEvent(ctx, payload)
	}()
}
