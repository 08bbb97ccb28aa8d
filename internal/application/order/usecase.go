package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	appcart "github.com/Zhima-Mochi/minishop-storefront/internal/application/cart"
	appinventory "github.com/Zhima-Mochi/minishop-storefront/internal/application/inventory"
	domain "github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-storefront/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	orderService      = "order_service"
	useCaseOrderPlace = "order.place"
	spanPrefix        = "UC."
	publishPeer       = "outbox"
	publishTimeout    = 300 * time.Millisecond
)

var ErrRepository = errors.New("order: repository failure")

// PlaceOrderUseCase converts a user's mutable cart into an immutable order.
// The cart read, availability check, stock decrement and order insert form
// one atomic unit: any failure inside it rolls back every decrement already
// applied. Cart clearing, coupon bookkeeping, invoicing and notification are
// outside that boundary and are best-effort by design.
type PlaceOrderUseCase struct {
	carts     *appcart.Service
	orders    domain.Repository
	ledger    *appinventory.Ledger
	coupons   CouponValidator
	invoices  InvoiceGenerator
	publisher domoutbox.Publisher
	ids       IDGenerator
	tel       observability.Observability

	log          observability.Logger
	reqCounter   observability.Counter
	durHistogram observability.Histogram
	extCounter   observability.Counter
	extHistogram observability.Histogram
}

func NewPlaceOrderUseCase(
	carts *appcart.Service,
	orders domain.Repository,
	ledger *appinventory.Ledger,
	coupons CouponValidator,
	invoices InvoiceGenerator,
	publisher domoutbox.Publisher,
	ids IDGenerator,
	tel observability.Observability,
) *PlaceOrderUseCase {
	if tel == nil {
		tel = observability.Nop()
	}
	metrics := tel.Metrics()
	return &PlaceOrderUseCase{
		carts:        carts,
		orders:       orders,
		ledger:       ledger,
		coupons:      coupons,
		invoices:     invoices,
		publisher:    publisher,
		ids:          ids,
		tel:          tel,
		log:          tel.Logger().With(observability.F("service", orderService)),
		reqCounter:   metrics.Counter(observability.MUsecaseRequests),
		durHistogram: metrics.Histogram(observability.MUsecaseDuration),
		extCounter:   metrics.Counter(observability.MExternalRequests),
		extHistogram: metrics.Histogram(observability.MExternalRequestDuration),
	}
}

type PlaceOrderInput struct {
	UserID          string
	CouponCode      string
	ShippingAddress string
	PaymentMethod   string
}

type PlaceOrderResult struct {
	Order          *domain.Order
	CouponMessage  string
	DiscountAmount int64
}

// Execute performs the placement flow.
func (uc *PlaceOrderUseCase) Execute(ctx context.Context, cmd PlaceOrderInput) (_ *PlaceOrderResult, err error) {
	logger := logctx.FromOr(ctx, uc.log).With(observability.F("use_case", useCaseOrderPlace))

	ctx, span := uc.tel.Tracer().Start(ctx, spanPrefix+"PlaceOrder",
		attribute.String("use_case", useCaseOrderPlace),
		attribute.String("order.user_id", cmd.UserID),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"

	defer func() {
		lat := time.Since(start).Seconds()

		if span != nil {
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, statusText)
			} else {
				span.SetStatus(codes.Ok, statusText)
			}
			span.End()
		}

		uc.reqCounter.Add(1,
			observability.L("use_case", useCaseOrderPlace),
			observability.L("outcome", outcome),
		)
		uc.durHistogram.Observe(lat,
			observability.L("use_case", useCaseOrderPlace),
		)

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", lat),
		}
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			fields = append(fields,
				observability.F("trace_id", sc.TraceID().String()),
				observability.F("span_id", sc.SpanID().String()),
			)
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}
		logger.Info("use_case_done", fields...)
	}()

	if cmd.UserID == "" {
		outcome, statusText = "error", "USER_ID_REQUIRED"
		return nil, newValidation("user id is required")
	}
	if err := ctx.Err(); err != nil {
		outcome, statusText = "error", "CONTEXT_CANCELED"
		return nil, err
	}

	// Materialize and repair; the cart snapshot taken here is the one that
	// becomes the order.
	c, err := uc.carts.GetCart(ctx, cmd.UserID)
	if err != nil {
		outcome, statusText = "error", "CART_MATERIALIZE_FAILED"
		return nil, err
	}
	if c.IsEmpty() {
		outcome, statusText = "error", "EMPTY_CART"
		return nil, domain.ErrEmptyCart
	}

	var discount int64
	var couponMessage string
	if cmd.CouponCode != "" {
		discount, couponMessage = uc.resolveDiscount(ctx, logger, cmd.CouponCode, c.TotalAmount)
	}

	total := c.TotalAmount - discount
	if total < 0 {
		total = 0
	}

	lines := make([]domain.Line, 0, len(c.Lines))
	reservations := make([]appinventory.Reservation, 0, len(c.Lines))
	for _, l := range c.Lines {
		lines = append(lines, domain.Line{ModelNo: l.ModelNo, Quantity: l.Quantity, UnitPrice: l.UnitPrice})
		reservations = append(reservations, appinventory.Reservation{ModelNo: l.ModelNo, Quantity: l.Quantity})
	}

	// Availability check + decrement, all lines or none.
	if err := uc.ledger.Reserve(ctx, reservations); err != nil {
		outcome, statusText = "error", "INSUFFICIENT_STOCK"
		return nil, err
	}

	entity, derr := domain.New(uc.ids.NewID(), cmd.UserID, lines, total, discount, cmd.ShippingAddress, cmd.PaymentMethod)
	if derr != nil {
		uc.releaseAfterFailure(ctx, logger, reservations)
		outcome, statusText = "error", "DOMAIN_CONSTRUCTION_FAILED"
		return nil, fmt.Errorf("order: construct: %w", derr)
	}

	if err := uc.orders.Insert(ctx, entity); err != nil {
		// The decrement and the insert are one atomic unit; a failed insert
		// must leave no partial stock effects behind.
		uc.releaseAfterFailure(ctx, logger, reservations)
		outcome, statusText = "error", "REPO_INSERT_FAILED"
		return nil, fmt.Errorf("%w: %w", ErrRepository, err)
	}

	span.SetAttributes(
		attribute.String("order.id", entity.ID),
		attribute.Int64("order.total_amount", entity.TotalAmount),
	)
	span.AddEvent("order.placed",
		trace.WithAttributes(attribute.String("order.id", entity.ID)),
	)

	// Everything below is best-effort: the order is durable, failures here
	// are logged and swallowed.
	if _, err := uc.carts.Clear(ctx, cmd.UserID); err != nil {
		logger.Warn("cart_clear_failed",
			observability.F("order_id", entity.ID),
			observability.F("error", err.Error()),
		)
	}

	if uc.invoices != nil {
		if _, err := uc.invoices.Generate(ctx, entity.ID); err != nil {
			logger.Warn("invoice_generation_failed",
				observability.F("order_id", entity.ID),
				observability.F("error", err.Error()),
			)
		}
	}

	uc.publish(ctx, logger, domain.NewPlacedEvent(entity))

	return &PlaceOrderResult{
		Order:          entity.Clone(),
		CouponMessage:  couponMessage,
		DiscountAmount: discount,
	}, nil
}

// resolveDiscount consults the coupon validator. Lookup errors downgrade to
// zero discount; usage recording failures never abort placement.
func (uc *PlaceOrderUseCase) resolveDiscount(ctx context.Context, logger observability.Logger, code string, orderValue int64) (int64, string) {
	if uc.coupons == nil {
		return 0, ""
	}

	res, err := uc.coupons.Validate(ctx, code, orderValue)
	if err != nil {
		logger.Warn("coupon_validate_failed",
			observability.F("coupon_code", code),
			observability.F("error", err.Error()),
		)
		return 0, ""
	}
	if !res.Valid {
		return 0, res.Message
	}

	if err := uc.coupons.RecordUsage(ctx, code); err != nil {
		logger.Warn("coupon_usage_record_failed",
			observability.F("coupon_code", code),
			observability.F("error", err.Error()),
		)
	}
	return res.DiscountAmount, res.Message
}

func (uc *PlaceOrderUseCase) releaseAfterFailure(ctx context.Context, logger observability.Logger, reservations []appinventory.Reservation) {
	if err := uc.ledger.Release(ctx, reservations); err != nil {
		logger.Error("stock_release_failed",
			observability.F("error", err.Error()),
		)
	}
}

func (uc *PlaceOrderUseCase) publish(ctx context.Context, logger observability.Logger, e domoutbox.Event) {
	if uc.publisher == nil {
		return
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	pubStart := time.Now()
	pubOutcome := "success"

	if err := uc.publisher.Publish(pubCtx, e); err != nil {
		pubOutcome = "error"
		logger.Warn("event_publish_failed",
			observability.F("event", e.EventName()),
			observability.F("error", err.Error()),
		)
	}

	uc.extCounter.Add(1,
		observability.L("peer", publishPeer),
		observability.L("endpoint", e.EventName()),
		observability.L("outcome", pubOutcome),
	)
	uc.extHistogram.Observe(time.Since(pubStart).Seconds(),
		observability.L("peer", publishPeer),
		observability.L("endpoint", e.EventName()),
	)
}

func newValidation(msg string) error {
	return fmt.Errorf("validation: %w", errors.New(msg))
}
