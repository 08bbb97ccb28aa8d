package outbox

import "context"

// Event is any domain event carrying a name identifier.
type Event interface {
	EventName() string
}

// Handler consumes a published event. Errors are logged by the bus, never
// propagated to the publisher.
type Handler func(ctx context.Context, e Event) error

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type Subscriber interface {
	Subscribe(eventName string, h Handler)
}
