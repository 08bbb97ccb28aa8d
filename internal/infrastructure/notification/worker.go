package notification

import (
	"context"
	"errors"

	apporder "github.com/Zhima-Mochi/minishop-storefront/internal/application/order"
	domorder "github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-storefront/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
)

const workerService = "notification_worker"

var ErrUnknownRecipient = errors.New("notification: unknown recipient")

// Recipient is the contact surface a user id resolves to.
type Recipient struct {
	Email string
	Name  string
}

// UserDirectory resolves a user id to their contact details.
type UserDirectory interface {
	Lookup(ctx context.Context, userID string) (Recipient, error)
}

// Worker consumes order events off the bus and drives the notification
// sender. Everything here is already outside the placement transaction;
// errors are returned to the bus, which logs and drops them.
type Worker struct {
	subscriber domoutbox.Subscriber
	sender     apporder.NotificationSender
	users      UserDirectory
	log        observability.Logger
}

func NewWorker(subscriber domoutbox.Subscriber, sender apporder.NotificationSender, users UserDirectory, logger observability.Logger) *Worker {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Worker{
		subscriber: subscriber,
		sender:     sender,
		users:      users,
		log:        logger.With(observability.F("service", workerService)),
	}
}

func (w *Worker) Start() {
	if w.subscriber == nil || w.sender == nil {
		return
	}
	w.subscriber.Subscribe(domorder.PlacedEvent{}.EventName(), w.handlePlaced)
	w.subscriber.Subscribe(domorder.StatusChangedEvent{}.EventName(), w.handleStatusChanged)
	w.subscriber.Subscribe(domorder.TrackingUpdatedEvent{}.EventName(), w.handleTrackingUpdated)
}

func (w *Worker) handlePlaced(ctx context.Context, e domoutbox.Event) error {
	evt, ok := e.(domorder.PlacedEvent)
	if !ok {
		return nil
	}
	r, err := w.users.Lookup(ctx, evt.UserID)
	if err != nil {
		return err
	}
	return w.sender.SendOrderConfirmation(ctx, r.Email, evt.OrderID, r.Name)
}

func (w *Worker) handleStatusChanged(ctx context.Context, e domoutbox.Event) error {
	evt, ok := e.(domorder.StatusChangedEvent)
	if !ok {
		return nil
	}
	r, err := w.users.Lookup(ctx, evt.UserID)
	if err != nil {
		return err
	}
	return w.sender.SendOrderStatusUpdate(ctx, r.Email, evt.OrderID, string(evt.Status), r.Name)
}

func (w *Worker) handleTrackingUpdated(ctx context.Context, e domoutbox.Event) error {
	evt, ok := e.(domorder.TrackingUpdatedEvent)
	if !ok {
		return nil
	}
	r, err := w.users.Lookup(ctx, evt.UserID)
	if err != nil {
		return err
	}
	return w.sender.SendOrderTrackingUpdate(ctx, r.Email, evt.OrderID, string(evt.Status), evt.Location, r.Name)
}
