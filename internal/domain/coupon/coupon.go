package coupon

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("coupon: not found")

// Coupon is a discount code with an optional usage cap and expiry.
// DiscountAmount is minor units off the order subtotal.
type Coupon struct {
	Code           string
	DiscountAmount int64
	MaxUses        int
	Uses           int
	ExpiresAt      *time.Time
	UpdatedAt      time.Time
}

// Usable reports whether the coupon can still be applied at the given
// instant.
func (c *Coupon) Usable(now time.Time) bool {
	if c.MaxUses > 0 && c.Uses >= c.MaxUses {
		return false
	}
	if c.ExpiresAt != nil && !c.ExpiresAt.After(now) {
		return false
	}
	return true
}

func (c *Coupon) RecordUse() {
	c.Uses++
	c.UpdatedAt = time.Now().UTC()
}

func (c *Coupon) Clone() *Coupon {
	if c == nil {
		return nil
	}
	clone := *c
	if c.ExpiresAt != nil {
		v := *c.ExpiresAt
		clone.ExpiresAt = &v
	}
	return &clone
}
