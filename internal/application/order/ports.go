package order

import "context"

type IDGenerator interface {
	NewID() string
}

// CouponResult is the validator's verdict. A non-valid result means zero
// discount; Message explains why for the caller's response surface.
type CouponResult struct {
	Valid          bool
	DiscountAmount int64
	Message        string
	Code           string
}

// CouponValidator is an external collaborator. Validate errors must not fail
// placement; the use case downgrades them to zero discount with a warning.
// RecordUsage is best-effort bookkeeping after a coupon is applied.
type CouponValidator interface {
	Validate(ctx context.Context, code string, orderValue int64) (CouponResult, error)
	RecordUsage(ctx context.Context, code string) error
}

// InvoiceGenerator renders an invoice for a persisted order. Invoked
// post-placement; failures are logged only.
type InvoiceGenerator interface {
	Generate(ctx context.Context, orderID string) ([]byte, error)
}

// NotificationSender is the fire-and-forget mail surface. Implementations
// must never block placement; callers route through the event bus.
type NotificationSender interface {
	SendOrderConfirmation(ctx context.Context, recipient, orderID, recipientName string) error
	SendOrderStatusUpdate(ctx context.Context, recipient, orderID, status, recipientName string) error
	SendOrderTrackingUpdate(ctx context.Context, recipient, orderID, status, location, recipientName string) error
}
