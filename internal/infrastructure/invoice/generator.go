package invoice

import (
	"bytes"
	"context"
	"fmt"

	apporder "github.com/Zhima-Mochi/minishop-storefront/internal/application/order"
	domorder "github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
)

// Generator renders a plain-text invoice for a persisted order. Placement
// calls it best-effort for record keeping.
type Generator struct {
	orders domorder.Repository
}

func NewGenerator(orders domorder.Repository) *Generator {
	return &Generator{orders: orders}
}

var _ apporder.InvoiceGenerator = (*Generator)(nil)

func (g *Generator) Generate(ctx context.Context, orderID string) ([]byte, error) {
	o, err := g.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "INVOICE %s\n", o.ID)
	fmt.Fprintf(&buf, "Date: %s\n", o.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&buf, "Ship to: %s\n", o.ShippingAddress)
	fmt.Fprintf(&buf, "Payment: %s\n\n", o.PaymentMethod)
	for _, l := range o.Lines {
		fmt.Fprintf(&buf, "%-24s x%-4d %12s\n", l.ModelNo, l.Quantity, formatAmount(l.Subtotal()))
	}
	fmt.Fprintf(&buf, "\nDiscount: %s\n", formatAmount(o.DiscountAmount))
	fmt.Fprintf(&buf, "Total:    %s\n", formatAmount(o.TotalAmount))
	return buf.Bytes(), nil
}

func formatAmount(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}
