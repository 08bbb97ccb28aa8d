package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	appcart "github.com/Zhima-Mochi/minishop-storefront/internal/application/cart"
	appcatalog "github.com/Zhima-Mochi/minishop-storefront/internal/application/catalog"
	appinventory "github.com/Zhima-Mochi/minishop-storefront/internal/application/inventory"
	apporder "github.com/Zhima-Mochi/minishop-storefront/internal/application/order"
	domcart "github.com/Zhima-Mochi/minishop-storefront/internal/domain/cart"
	domcatalog "github.com/Zhima-Mochi/minishop-storefront/internal/domain/catalog"
	domorder "github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
)

type Handler struct {
	carts   *appcart.Service
	catalog *appcatalog.Service
	ledger  *appinventory.Ledger
	placer  *apporder.PlaceOrderUseCase
	orders  *apporder.Service
}

func NewHandler(
	carts *appcart.Service,
	catalog *appcatalog.Service,
	ledger *appinventory.Ledger,
	placer *apporder.PlaceOrderUseCase,
	orders *apporder.Service,
) *Handler {
	return &Handler{
		carts:   carts,
		catalog: catalog,
		ledger:  ledger,
		placer:  placer,
		orders:  orders,
	}
}

func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/cart", h.method(http.MethodGet, h.handleGetCart))
	mux.HandleFunc("/cart/items", h.method(http.MethodPost, h.handleAddItem))
	mux.HandleFunc("/cart/items/update", h.method(http.MethodPost, h.handleUpdateQuantity))
	mux.HandleFunc("/cart/items/remove", h.method(http.MethodPost, h.handleRemoveItem))
	mux.HandleFunc("/cart/clear", h.method(http.MethodPost, h.handleClearCart))

	mux.HandleFunc("/orders", h.method(http.MethodPost, h.handlePlaceOrder))
	mux.HandleFunc("/orders/get", h.method(http.MethodGet, h.handleGetOrder))
	mux.HandleFunc("/orders/list", h.method(http.MethodGet, h.handleListOrders))
	mux.HandleFunc("/orders/count", h.method(http.MethodGet, h.handleCountOrders))
	mux.HandleFunc("/orders/status", h.method(http.MethodPost, h.handleUpdateStatus))
	mux.HandleFunc("/orders/cancel", h.method(http.MethodPost, h.handleCancelOrder))
	mux.HandleFunc("/orders/delete", h.method(http.MethodPost, h.handleDeleteOrder))
	mux.HandleFunc("/orders/tracking", h.method(http.MethodPost, h.handleTrackingUpdate))

	mux.HandleFunc("/products", h.method(http.MethodPost, h.handleCreateProduct))
	mux.HandleFunc("/products/get", h.method(http.MethodGet, h.handleGetProduct))
	mux.HandleFunc("/products/list", h.method(http.MethodGet, h.handleListProducts))
	mux.HandleFunc("/products/delete", h.method(http.MethodPost, h.handleDeleteProduct))
	mux.HandleFunc("/products/price", h.method(http.MethodPost, h.handleSetPrice))
	mux.HandleFunc("/products/promotion", h.method(http.MethodPost, h.handleSetPromotion))
	mux.HandleFunc("/products/promotion/clear", h.method(http.MethodPost, h.handleClearPromotion))

	mux.HandleFunc("/inventory/status", h.method(http.MethodGet, h.handleStockStatus))
	mux.HandleFunc("/inventory/quantity", h.method(http.MethodPost, h.handleSetQuantity))
	mux.HandleFunc("/inventory/threshold", h.method(http.MethodPost, h.handleSetThreshold))
	mux.HandleFunc("/inventory/low-stock", h.method(http.MethodGet, h.handleLowStock))
	mux.HandleFunc("/inventory/out-of-stock", h.method(http.MethodGet, h.handleOutOfStock))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return mux
}

type cartLineDTO struct {
	ModelNo   string `json:"model_no"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

type cartDTO struct {
	ID          string        `json:"id"`
	UserID      string        `json:"user_id"`
	Lines       []cartLineDTO `json:"lines"`
	TotalAmount int64         `json:"total_amount"`
}

func toCartDTO(c *domcart.Cart) cartDTO {
	lines := make([]cartLineDTO, 0, len(c.Lines))
	for _, l := range c.Lines {
		lines = append(lines, cartLineDTO{ModelNo: l.ModelNo, Quantity: l.Quantity, UnitPrice: l.UnitPrice})
	}
	return cartDTO{ID: c.ID, UserID: c.UserID, Lines: lines, TotalAmount: c.TotalAmount}
}

func (h *Handler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	c, err := h.carts.GetCart(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartDTO(c))
}

type cartItemRequest struct {
	UserID   string `json:"user_id"`
	ModelNo  string `json:"model_no"`
	Quantity int    `json:"quantity"`
}

func (h *Handler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req cartItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	c, err := h.carts.AddItem(r.Context(), req.UserID, req.ModelNo, req.Quantity)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartDTO(c))
}

func (h *Handler) handleUpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req cartItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	c, err := h.carts.UpdateQuantity(r.Context(), req.UserID, req.ModelNo, req.Quantity)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartDTO(c))
}

func (h *Handler) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	var req cartItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	c, err := h.carts.RemoveItem(r.Context(), req.UserID, req.ModelNo)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartDTO(c))
}

func (h *Handler) handleClearCart(w http.ResponseWriter, r *http.Request) {
	var req cartItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	c, err := h.carts.Clear(r.Context(), req.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartDTO(c))
}

type orderLineDTO struct {
	ModelNo   string `json:"model_no"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

type trackingDTO struct {
	Status    string    `json:"status"`
	Location  string    `json:"location"`
	Timestamp time.Time `json:"timestamp"`
}

type orderDTO struct {
	ID              string         `json:"id"`
	UserID          string         `json:"user_id"`
	Lines           []orderLineDTO `json:"lines"`
	TotalAmount     int64          `json:"total_amount"`
	DiscountAmount  int64          `json:"discount_amount"`
	Status          string         `json:"status"`
	PaymentStatus   string         `json:"payment_status"`
	ShippingAddress string         `json:"shipping_address"`
	PaymentMethod   string         `json:"payment_method"`
	CurrentLocation string         `json:"current_location,omitempty"`
	Tracking        []trackingDTO  `json:"tracking,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
}

func toOrderDTO(o *domorder.Order) orderDTO {
	lines := make([]orderLineDTO, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, orderLineDTO{ModelNo: l.ModelNo, Quantity: l.Quantity, UnitPrice: l.UnitPrice})
	}
	tracking := make([]trackingDTO, 0, len(o.Tracking))
	for _, t := range o.Tracking {
		tracking = append(tracking, trackingDTO{Status: string(t.Status), Location: t.Location, Timestamp: t.Timestamp})
	}
	return orderDTO{
		ID:              o.ID,
		UserID:          o.UserID,
		Lines:           lines,
		TotalAmount:     o.TotalAmount,
		DiscountAmount:  o.DiscountAmount,
		Status:          string(o.Status),
		PaymentStatus:   string(o.PaymentStatus),
		ShippingAddress: o.ShippingAddress,
		PaymentMethod:   o.PaymentMethod,
		CurrentLocation: o.CurrentLocation,
		Tracking:        tracking,
		CreatedAt:       o.CreatedAt,
	}
}

type placeOrderRequest struct {
	UserID          string `json:"user_id"`
	CouponCode      string `json:"coupon_code,omitempty"`
	ShippingAddress string `json:"shipping_address"`
	PaymentMethod   string `json:"payment_method"`
}

type placeOrderResponse struct {
	Order          orderDTO `json:"order"`
	DiscountAmount int64    `json:"discount_amount"`
	CouponMessage  string   `json:"coupon_message,omitempty"`
}

func (h *Handler) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	result, err := h.placer.Execute(r.Context(), apporder.PlaceOrderInput{
		UserID:          req.UserID,
		CouponCode:      req.CouponCode,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, placeOrderResponse{
		Order:          toOrderDTO(result.Order),
		DiscountAmount: result.DiscountAmount,
		CouponMessage:  result.CouponMessage,
	})
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Get(r.Context(), r.URL.Query().Get("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTO(o))
}

func (h *Handler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")

	var (
		orders []*domorder.Order
		err    error
	)
	if userID == "" {
		orders, err = h.orders.ListAll(r.Context())
	} else {
		orders, err = h.orders.ListByUser(r.Context(), userID)
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]orderDTO, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderDTO(o))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleCountOrders(w http.ResponseWriter, r *http.Request) {
	n, err := h.orders.CountActiveByUser(r.Context(), r.URL.Query().Get("user_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": n})
}

type orderStatusRequest struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req orderStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	status, err := domorder.ParseStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	o, err := h.orders.UpdateStatus(r.Context(), req.OrderID, status)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTO(o))
}

type orderIDRequest struct {
	OrderID string `json:"order_id"`
}

func (h *Handler) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	var req orderIDRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	o, err := h.orders.Cancel(r.Context(), req.OrderID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTO(o))
}

func (h *Handler) handleDeleteOrder(w http.ResponseWriter, r *http.Request) {
	var req orderIDRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.orders.Delete(r.Context(), req.OrderID); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type trackingRequest struct {
	OrderID  string `json:"order_id"`
	Location string `json:"location"`
	Status   string `json:"status"`
}

func (h *Handler) handleTrackingUpdate(w http.ResponseWriter, r *http.Request) {
	var req trackingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	status, err := domorder.ParseStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	o, err := h.orders.RecordLocationUpdate(r.Context(), req.OrderID, req.Location, status)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTO(o))
}

type productDTO struct {
	ModelNo           string     `json:"model_no"`
	Name              string     `json:"name"`
	Price             int64      `json:"price"`
	Quantity          int        `json:"quantity"`
	LowStockThreshold int        `json:"low_stock_threshold"`
	PromoPrice        *int64     `json:"promo_price,omitempty"`
	PromoEndsAt       *time.Time `json:"promo_ends_at,omitempty"`
	StockStatus       string     `json:"stock_status"`
}

func toProductDTO(p *domcatalog.Product) productDTO {
	return productDTO{
		ModelNo:           p.ModelNo,
		Name:              p.Name,
		Price:             p.Price,
		Quantity:          p.Quantity,
		LowStockThreshold: p.LowStockThreshold,
		PromoPrice:        p.PromoPrice,
		PromoEndsAt:       p.PromoEndsAt,
		StockStatus:       string(p.StockStatus()),
	}
}

type createProductRequest struct {
	ModelNo           string `json:"model_no"`
	Name              string `json:"name"`
	Price             int64  `json:"price"`
	Quantity          int    `json:"quantity"`
	LowStockThreshold int    `json:"low_stock_threshold"`
}

func (h *Handler) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	p, err := h.catalog.Create(r.Context(), appcatalog.CreateProductInput{
		ModelNo:           req.ModelNo,
		Name:              req.Name,
		Price:             req.Price,
		Quantity:          req.Quantity,
		LowStockThreshold: req.LowStockThreshold,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductDTO(p))
}

func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.catalog.Get(r.Context(), r.URL.Query().Get("model_no"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTO(p))
}

func (h *Handler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]productDTO, 0, len(products))
	for _, p := range products {
		out = append(out, toProductDTO(p))
	}
	writeJSON(w, http.StatusOK, out)
}

type modelNoRequest struct {
	ModelNo string `json:"model_no"`
}

func (h *Handler) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	var req modelNoRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.catalog.Delete(r.Context(), req.ModelNo); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type promotionRequest struct {
	ModelNo string    `json:"model_no"`
	Price   int64     `json:"price"`
	EndsAt  time.Time `json:"ends_at"`
}

func (h *Handler) handleSetPromotion(w http.ResponseWriter, r *http.Request) {
	var req promotionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	p, err := h.catalog.SetPromotion(r.Context(), req.ModelNo, req.Price, req.EndsAt)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTO(p))
}

type priceRequest struct {
	ModelNo string `json:"model_no"`
	Price   int64  `json:"price"`
}

func (h *Handler) handleSetPrice(w http.ResponseWriter, r *http.Request) {
	var req priceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	p, err := h.catalog.SetPrice(r.Context(), req.ModelNo, req.Price)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTO(p))
}

func (h *Handler) handleClearPromotion(w http.ResponseWriter, r *http.Request) {
	var req modelNoRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	p, err := h.catalog.ClearPromotion(r.Context(), req.ModelNo)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTO(p))
}

func (h *Handler) handleStockStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.ledger.StockStatus(r.Context(), r.URL.Query().Get("model_no"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"stock_status": string(status)})
}

type stockRequest struct {
	ModelNo  string `json:"model_no"`
	Quantity int    `json:"quantity"`
}

func (h *Handler) handleSetQuantity(w http.ResponseWriter, r *http.Request) {
	var req stockRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	p, err := h.ledger.SetQuantity(r.Context(), req.ModelNo, req.Quantity)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTO(p))
}

type thresholdRequest struct {
	ModelNo   string `json:"model_no"`
	Threshold int    `json:"threshold"`
}

func (h *Handler) handleSetThreshold(w http.ResponseWriter, r *http.Request) {
	var req thresholdRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	p, err := h.ledger.SetLowStockThreshold(r.Context(), req.ModelNo, req.Threshold)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTO(p))
}

func (h *Handler) handleLowStock(w http.ResponseWriter, r *http.Request) {
	h.writeProductList(w, r, h.ledger.LowStock)
}

func (h *Handler) handleOutOfStock(w http.ResponseWriter, r *http.Request) {
	h.writeProductList(w, r, h.ledger.OutOfStock)
}

func (h *Handler) writeProductList(w http.ResponseWriter, r *http.Request, list func(ctx context.Context) ([]*domcatalog.Product, error)) {
	products, err := list(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]productDTO, 0, len(products))
	for _, p := range products {
		out = append(out, toProductDTO(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) method(m string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != m {
			writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
			return
		}
		next(w, r)
	}
}

func decodeJSON(r *http.Request, v any) error {
	defer func() { _ = r.Body.Close() }()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domcatalog.ErrNotFound),
		errors.Is(err, domcart.ErrNotFound),
		errors.Is(err, domorder.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, domcatalog.ErrInsufficientStock):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, domorder.ErrEmptyCart),
		errors.Is(err, domorder.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, domcatalog.ErrInvalidQuantity),
		errors.Is(err, domcatalog.ErrInvalidThreshold),
		errors.Is(err, domcatalog.ErrInvalidPrice),
		errors.Is(err, domcatalog.ErrPromoWithoutEnd),
		errors.Is(err, domcart.ErrInvalidQuantity),
		errors.Is(err, domorder.ErrUnknownStatus):
		writeError(w, http.StatusBadRequest, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}
