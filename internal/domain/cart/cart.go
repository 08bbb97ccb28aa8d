package cart

import (
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("cart: not found")
	ErrInvalidQuantity = errors.New("cart: quantity must be greater than zero")
)

// Line is one (product, quantity, captured price) tuple. The product
// reference is weak: the catalog entry may be deleted underneath it, in which
// case the next repair pass drops the line. UnitPrice is the price captured
// at the last add or materialization, never live-computed on read.
type Line struct {
	ModelNo   string
	Quantity  int
	UnitPrice int64
}

func (l Line) Subtotal() int64 {
	return l.UnitPrice * int64(l.Quantity)
}

// Cart is the single mutable cart owned by one user. TotalAmount is cached
// but never trusted stale: every mutation recomputes it from the lines.
type Cart struct {
	ID          string
	UserID      string
	Lines       []Line
	TotalAmount int64
	UpdatedAt   time.Time
}

func New(id, userID string) *Cart {
	return &Cart{
		ID:        id,
		UserID:    userID,
		UpdatedAt: time.Now().UTC(),
	}
}

// Upsert merges quantity into an existing line for the model number,
// refreshing its captured price, or appends a new line.
func (c *Cart) Upsert(modelNo string, quantity int, unitPrice int64) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	for i := range c.Lines {
		if c.Lines[i].ModelNo == modelNo {
			c.Lines[i].Quantity += quantity
			c.Lines[i].UnitPrice = unitPrice
			c.recompute()
			return nil
		}
	}
	c.Lines = append(c.Lines, Line{ModelNo: modelNo, Quantity: quantity, UnitPrice: unitPrice})
	c.recompute()
	return nil
}

// SetQuantity replaces a line's quantity; zero or negative removes the line.
// Unknown model numbers are ignored, matching read-repair semantics.
func (c *Cart) SetQuantity(modelNo string, quantity int) {
	for i := range c.Lines {
		if c.Lines[i].ModelNo != modelNo {
			continue
		}
		if quantity > 0 {
			c.Lines[i].Quantity = quantity
		} else {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
		}
		break
	}
	c.recompute()
}

func (c *Cart) Remove(modelNo string) {
	kept := c.Lines[:0]
	for _, l := range c.Lines {
		if l.ModelNo != modelNo {
			kept = append(kept, l)
		}
	}
	c.Lines = kept
	c.recompute()
}

func (c *Cart) Clear() {
	c.Lines = nil
	c.recompute()
}

// Heal reconciles the cart against current catalog state: lines whose model
// number resolves get their captured price overwritten with the resolved
// price, lines that do not resolve are dropped. Idempotent.
func (c *Cart) Heal(resolve func(modelNo string) (int64, bool)) {
	kept := c.Lines[:0]
	for _, l := range c.Lines {
		price, ok := resolve(l.ModelNo)
		if !ok {
			continue
		}
		l.UnitPrice = price
		kept = append(kept, l)
	}
	c.Lines = kept
	c.recompute()
}

func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	clone := *c
	clone.Lines = append([]Line(nil), c.Lines...)
	return &clone
}

func (c *Cart) recompute() {
	var total int64
	for _, l := range c.Lines {
		total += l.Subtotal()
	}
	c.TotalAmount = total
	c.UpdatedAt = time.Now().UTC()
}
