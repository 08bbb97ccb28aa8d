package order_test

import (
	"context"
	order "github.com/Zhima-Mochi/minishop-storefront/internal/application/order"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appcart "github.com/Zhima-Mochi/minishop-storefront/internal/application/cart"
	appcoupon "github.com/Zhima-Mochi/minishop-storefront/internal/application/coupon"
	appinventory "github.com/Zhima-Mochi/minishop-storefront/internal/application/inventory"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/catalog"
	domcoupon "github.com/Zhima-Mochi/minishop-storefront/internal/domain/coupon"
	domain "github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/id"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/memory"
)

type fixture struct {
	products *memory.CatalogRepository
	carts    *memory.CartRepository
	orders   *memory.OrderRepository
	coupons  *memory.CouponRepository

	cartService *appcart.Service
	ledger      *appinventory.Ledger
	place       *order.PlaceOrderUseCase
	lifecycle   *order.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		products: memory.NewCatalogRepository(),
		carts:    memory.NewCartRepository(),
		orders:   memory.NewOrderRepository(),
		coupons:  memory.NewCouponRepository(),
	}
	ids := id.NewUUIDGenerator()
	f.cartService = appcart.NewService(f.carts, f.products, ids, nil)
	f.ledger = appinventory.NewLedger(f.products, nil)
	f.place = order.NewPlaceOrderUseCase(
		f.cartService, f.orders, f.ledger,
		appcoupon.NewService(f.coupons), nil, nil, ids, nil)
	f.lifecycle = order.NewService(f.orders, f.ledger, nil, nil)
	return f
}

func (f *fixture) seedProduct(t *testing.T, modelNo string, price int64, qty int) {
	t.Helper()
	p, err := catalog.NewProduct(modelNo, "Item "+modelNo, price, qty)
	require.NoError(t, err)
	require.NoError(t, f.products.Save(context.Background(), p))
}

func (f *fixture) addToCart(t *testing.T, userID, modelNo string, qty int) {
	t.Helper()
	_, err := f.cartService.AddItem(context.Background(), userID, modelNo, qty)
	require.NoError(t, err)
}

func (f *fixture) stock(t *testing.T, modelNo string) int {
	t.Helper()
	p, err := f.products.FindByModelNo(context.Background(), modelNo)
	require.NoError(t, err)
	return p.Quantity
}

func TestPlaceOrder_HappyPath(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "M-1", 100, 5)
	f.addToCart(t, "u1", "M-1", 3)

	res, err := f.place.Execute(context.Background(), order.PlaceOrderInput{
		UserID:          "u1",
		ShippingAddress: "1 Main St",
		PaymentMethod:   "card",
	})
	require.NoError(t, err)

	o := res.Order
	assert.Equal(t, int64(300), o.TotalAmount)
	assert.Equal(t, domain.StatusPending, o.Status)
	assert.Equal(t, domain.PaymentPending, o.PaymentStatus)
	require.Len(t, o.Lines, 1)
	assert.Equal(t, 3, o.Lines[0].Quantity)

	assert.Equal(t, 2, f.stock(t, "M-1"))

	c, err := f.cartService.GetCart(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())

	stored, err := f.orders.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, stored.ID)
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	f := newFixture(t)

	_, err := f.place.Execute(context.Background(), order.PlaceOrderInput{UserID: "u1"})
	assert.ErrorIs(t, err, domain.ErrEmptyCart)
}

func TestPlaceOrder_RequiresUserID(t *testing.T) {
	f := newFixture(t)

	_, err := f.place.Execute(context.Background(), order.PlaceOrderInput{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user id")
}

func TestPlaceOrder_InsufficientStockAbortsAtomically(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "M-1", 100, 10)
	f.seedProduct(t, "M-2", 200, 1)
	f.addToCart(t, "u1", "M-1", 2)
	f.addToCart(t, "u1", "M-2", 3)

	_, err := f.place.Execute(context.Background(), order.PlaceOrderInput{UserID: "u1"})
	require.ErrorIs(t, err, catalog.ErrInsufficientStock)

	// No partial decrement and the cart survives.
	assert.Equal(t, 10, f.stock(t, "M-1"))
	assert.Equal(t, 1, f.stock(t, "M-2"))

	c, err := f.cartService.GetCart(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, c.Lines, 2)

	orders, err := f.orders.All(context.Background())
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestPlaceOrder_LinesAreSnapshots(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "M-1", 100, 10)
	f.addToCart(t, "u1", "M-1", 2)

	res, err := f.place.Execute(context.Background(), order.PlaceOrderInput{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, res.Order.Lines, 1)
	assert.Equal(t, int64(100), res.Order.Lines[0].UnitPrice)

	// A later price change must not touch the placed order.
	p, err := f.products.FindByModelNo(context.Background(), "M-1")
	require.NoError(t, err)
	p.Price = 999
	require.NoError(t, f.products.Save(context.Background(), p))

	stored, err := f.orders.Get(context.Background(), res.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), stored.Lines[0].UnitPrice)
	assert.Equal(t, int64(200), stored.TotalAmount)
}

func TestPlaceOrder_CouponDiscount(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "M-1", 100, 10)
	f.addToCart(t, "u1", "M-1", 3)
	require.NoError(t, f.coupons.Save(context.Background(), &domcoupon.Coupon{
		Code: "SAVE50", DiscountAmount: 50,
	}))

	res, err := f.place.Execute(context.Background(), order.PlaceOrderInput{
		UserID:     "u1",
		CouponCode: "SAVE50",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(50), res.DiscountAmount)
	assert.Equal(t, int64(250), res.Order.TotalAmount)

	c, err := f.coupons.FindByCode(context.Background(), "SAVE50")
	require.NoError(t, err)
	assert.Equal(t, 1, c.Uses)
}

func TestPlaceOrder_UnknownCouponStillPlaces(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "M-1", 100, 10)
	f.addToCart(t, "u1", "M-1", 1)

	res, err := f.place.Execute(context.Background(), order.PlaceOrderInput{
		UserID:     "u1",
		CouponCode: "NOPE",
	})
	require.NoError(t, err)
	assert.Zero(t, res.DiscountAmount)
	assert.Equal(t, int64(100), res.Order.TotalAmount)
	assert.Equal(t, "coupon not found", res.CouponMessage)
}

func TestPlaceOrder_DiscountClampedAtZero(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "M-1", 100, 10)
	f.addToCart(t, "u1", "M-1", 1)
	require.NoError(t, f.coupons.Save(context.Background(), &domcoupon.Coupon{
		Code: "HUGE", DiscountAmount: 10000,
	}))

	res, err := f.place.Execute(context.Background(), order.PlaceOrderInput{
		UserID:     "u1",
		CouponCode: "HUGE",
	})
	require.NoError(t, err)
	assert.Zero(t, res.Order.TotalAmount)
}

func TestCancel_RestoresStockOnce(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "M-1", 100, 5)
	f.addToCart(t, "u1", "M-1", 3)

	res, err := f.place.Execute(context.Background(), order.PlaceOrderInput{UserID: "u1"})
	require.NoError(t, err)
	require.Equal(t, 2, f.stock(t, "M-1"))

	o, err := f.lifecycle.Cancel(context.Background(), res.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, o.Status)
	assert.Equal(t, 5, f.stock(t, "M-1"))

	// Cancelling again is a no-op; stock is not restored twice.
	o, err = f.lifecycle.Cancel(context.Background(), res.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, o.Status)
	assert.Equal(t, 5, f.stock(t, "M-1"))
}

func TestCancel_DeliveredRefused(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "M-1", 100, 5)
	f.addToCart(t, "u1", "M-1", 3)

	res, err := f.place.Execute(context.Background(), order.PlaceOrderInput{UserID: "u1"})
	require.NoError(t, err)
	_, err = f.lifecycle.UpdateStatus(context.Background(), res.Order.ID, domain.StatusDelivered)
	require.NoError(t, err)

	_, err = f.lifecycle.Cancel(context.Background(), res.Order.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, 2, f.stock(t, "M-1"))
}

func TestCancel_SurvivesDeletedProduct(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "M-1", 100, 5)
	f.seedProduct(t, "M-2", 200, 5)
	f.addToCart(t, "u1", "M-1", 1)
	f.addToCart(t, "u1", "M-2", 1)

	res, err := f.place.Execute(context.Background(), order.PlaceOrderInput{UserID: "u1"})
	require.NoError(t, err)

	require.NoError(t, f.products.Delete(context.Background(), "M-2"))

	_, err = f.lifecycle.Cancel(context.Background(), res.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, f.stock(t, "M-1"))
}

func TestDelete_RestoresStockUnlessCancelled(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "M-1", 100, 5)
	f.addToCart(t, "u1", "M-1", 2)

	res, err := f.place.Execute(context.Background(), order.PlaceOrderInput{UserID: "u1"})
	require.NoError(t, err)
	require.Equal(t, 3, f.stock(t, "M-1"))

	require.NoError(t, f.lifecycle.Delete(context.Background(), res.Order.ID))
	assert.Equal(t, 5, f.stock(t, "M-1"))

	_, err = f.orders.Get(context.Background(), res.Order.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDelete_CancelledOrderDoesNotRestoreAgain(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "M-1", 100, 5)
	f.addToCart(t, "u1", "M-1", 2)

	res, err := f.place.Execute(context.Background(), order.PlaceOrderInput{UserID: "u1"})
	require.NoError(t, err)
	_, err = f.lifecycle.Cancel(context.Background(), res.Order.ID)
	require.NoError(t, err)
	require.Equal(t, 5, f.stock(t, "M-1"))

	require.NoError(t, f.lifecycle.Delete(context.Background(), res.Order.ID))
	assert.Equal(t, 5, f.stock(t, "M-1"))
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "M-1", 100, 5)
	f.addToCart(t, "u1", "M-1", 1)

	res, err := f.place.Execute(context.Background(), order.PlaceOrderInput{UserID: "u1"})
	require.NoError(t, err)

	o, err := f.lifecycle.UpdateStatus(context.Background(), res.Order.ID, domain.StatusShipped)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusShipped, o.Status)

	_, err = f.lifecycle.UpdateStatus(context.Background(), res.Order.ID, domain.StatusPending)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestRecordLocationUpdate(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "M-1", 100, 5)
	f.addToCart(t, "u1", "M-1", 1)

	res, err := f.place.Execute(context.Background(), order.PlaceOrderInput{UserID: "u1"})
	require.NoError(t, err)

	o, err := f.lifecycle.RecordLocationUpdate(context.Background(), res.Order.ID, "warehouse", domain.StatusProcessing)
	require.NoError(t, err)
	o, err = f.lifecycle.RecordLocationUpdate(context.Background(), res.Order.ID, "hub", domain.StatusShipped)
	require.NoError(t, err)

	assert.Equal(t, "hub", o.CurrentLocation)
	require.Len(t, o.Tracking, 2)
	assert.Equal(t, "warehouse", o.Tracking[0].Location)

	stored, err := f.orders.Get(context.Background(), res.Order.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Tracking, 2)
}

func TestCountActiveByUser(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "M-1", 100, 50)

	var firstID string
	for i := 0; i < 3; i++ {
		f.addToCart(t, "u1", "M-1", 1)
		res, err := f.place.Execute(context.Background(), order.PlaceOrderInput{UserID: "u1"})
		require.NoError(t, err)
		if i == 0 {
			firstID = res.Order.ID
		}
	}

	n, err := f.lifecycle.CountActiveByUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = f.lifecycle.Cancel(context.Background(), firstID)
	require.NoError(t, err)

	n, err = f.lifecycle.CountActiveByUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestListByUser(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "M-1", 100, 50)
	f.addToCart(t, "u1", "M-1", 1)
	_, err := f.place.Execute(context.Background(), order.PlaceOrderInput{UserID: "u1"})
	require.NoError(t, err)
	f.addToCart(t, "u2", "M-1", 1)
	_, err = f.place.Execute(context.Background(), order.PlaceOrderInput{UserID: "u2"})
	require.NoError(t, err)

	orders, err := f.lifecycle.ListByUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "u1", orders[0].UserID)

	all, err := f.lifecycle.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestExpiredCouponGivesNoDiscount(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "M-1", 100, 10)
	f.addToCart(t, "u1", "M-1", 1)

	past := time.Now().UTC().Add(-time.Hour)
	require.NoError(t, f.coupons.Save(context.Background(), &domcoupon.Coupon{
		Code: "OLD", DiscountAmount: 50, ExpiresAt: &past,
	}))

	res, err := f.place.Execute(context.Background(), order.PlaceOrderInput{
		UserID:     "u1",
		CouponCode: "OLD",
	})
	require.NoError(t, err)
	assert.Zero(t, res.DiscountAmount)
	assert.Equal(t, int64(100), res.Order.TotalAmount)
	assert.Equal(t, "coupon no longer usable", res.CouponMessage)
}
