package order

import "time"

// Domain events fanned out after the durable write. Handlers drive
// best-effort side effects (notifications); the placement transaction never
// waits on them.

type PlacedEvent struct {
	OrderID     string
	UserID      string
	TotalAmount int64
	OccurredAt  time.Time
}

func (PlacedEvent) EventName() string { return "order.placed" }

func NewPlacedEvent(o *Order) PlacedEvent {
	return PlacedEvent{
		OrderID:     o.ID,
		UserID:      o.UserID,
		TotalAmount: o.TotalAmount,
		OccurredAt:  time.Now().UTC(),
	}
}

type StatusChangedEvent struct {
	OrderID    string
	UserID     string
	Status     Status
	OccurredAt time.Time
}

func (StatusChangedEvent) EventName() string { return "order.status_changed" }

func NewStatusChangedEvent(o *Order) StatusChangedEvent {
	return StatusChangedEvent{
		OrderID:    o.ID,
		UserID:     o.UserID,
		Status:     o.Status,
		OccurredAt: time.Now().UTC(),
	}
}

type TrackingUpdatedEvent struct {
	OrderID    string
	UserID     string
	Status     Status
	Location   string
	OccurredAt time.Time
}

func (TrackingUpdatedEvent) EventName() string { return "order.tracking_updated" }

func NewTrackingUpdatedEvent(o *Order) TrackingUpdatedEvent {
	return TrackingUpdatedEvent{
		OrderID:    o.ID,
		UserID:     o.UserID,
		Status:     o.Status,
		Location:   o.CurrentLocation,
		OccurredAt: time.Now().UTC(),
	}
}
