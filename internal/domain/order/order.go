package order

import (
	"errors"
	"time"
)

var (
	ErrNotFound          = errors.New("order: not found")
	ErrConflict          = errors.New("order: already exists")
	ErrEmptyCart         = errors.New("order: cannot place order with an empty cart")
	ErrUnknownStatus     = errors.New("order: unknown status")
	ErrInvalidTransition = errors.New("order: invalid status transition")
	ErrInvalidQuantity   = errors.New("order: quantity must be greater than zero")
)

// Line is an immutable snapshot of a cart line taken at placement time.
// It is never recomputed after creation; later catalog changes do not touch
// it.
type Line struct {
	ModelNo   string
	Quantity  int
	UnitPrice int64
}

func (l Line) Subtotal() int64 {
	return l.UnitPrice * int64(l.Quantity)
}

// TrackingEntry is one append-only record in an order's tracking history.
type TrackingEntry struct {
	Status    Status
	Location  string
	Timestamp time.Time
}

type Order struct {
	ID              string
	UserID          string
	Lines           []Line
	TotalAmount     int64
	DiscountAmount  int64
	Status          Status
	PaymentStatus   PaymentStatus
	ShippingAddress string
	PaymentMethod   string
	CurrentLocation string
	Tracking        []TrackingEntry
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// New builds a pending order from already-snapshotted lines. The discount is
// assumed to be clamped by the caller; totals are taken as given, not
// recomputed, because lines are frozen at this point.
func New(id, userID string, lines []Line, total, discount int64, shippingAddress, paymentMethod string) (*Order, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}
	for _, l := range lines {
		if l.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
	}
	now := time.Now().UTC()
	return &Order{
		ID:              id,
		UserID:          userID,
		Lines:           append([]Line(nil), lines...),
		TotalAmount:     total,
		DiscountAmount:  discount,
		Status:          StatusPending,
		PaymentStatus:   PaymentPending,
		ShippingAddress: shippingAddress,
		PaymentMethod:   paymentMethod,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// SetStatus moves the order along the transition table. It returns whether
// the stored status actually changed so callers can skip duplicate
// notifications.
func (o *Order) SetStatus(next Status) (changed bool, err error) {
	if !o.Status.CanTransitionTo(next) {
		return false, ErrInvalidTransition
	}
	if o.Status == next {
		return false, nil
	}
	o.Status = next
	o.touch()
	return true, nil
}

// Cancel marks the order cancelled. Terminal orders refuse the transition,
// which is what keeps repeated cancellation from restoring stock twice.
func (o *Order) Cancel() error {
	if o.Status == StatusCancelled {
		return nil
	}
	if _, err := o.SetStatus(StatusCancelled); err != nil {
		return err
	}
	return nil
}

// RecordLocation updates the current location, conditionally advances the
// status, and appends to the tracking history. History entries are never
// edited or removed.
func (o *Order) RecordLocation(location string, status Status) error {
	if status != o.Status {
		if _, err := o.SetStatus(status); err != nil {
			return err
		}
	}
	o.CurrentLocation = location
	o.Tracking = append(o.Tracking, TrackingEntry{
		Status:    status,
		Location:  location,
		Timestamp: time.Now().UTC(),
	})
	o.touch()
	return nil
}

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.Lines = append([]Line(nil), o.Lines...)
	clone.Tracking = append([]TrackingEntry(nil), o.Tracking...)
	return &clone
}

func (o *Order) touch() {
	o.UpdatedAt = time.Now().UTC()
}
