package cart

import "context"

type Repository interface {
	FindByUser(ctx context.Context, userID string) (*Cart, error)
	Save(ctx context.Context, cart *Cart) error
	// DeleteOrphanLines is the best-effort bulk cleanup of lines whose
	// product no longer exists. Implementations may no-op; the in-memory
	// repair pass remains the authoritative fallback.
	DeleteOrphanLines(ctx context.Context) error
}
