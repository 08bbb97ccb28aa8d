package memory

import (
	"context"
	"sync"

	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/notification"
)

// UserDirectory is a static user-id → contact lookup for dev and tests.
type UserDirectory struct {
	mu    sync.RWMutex
	users map[string]notification.Recipient
}

func NewUserDirectory() *UserDirectory {
	return &UserDirectory{
		users: make(map[string]notification.Recipient),
	}
}

func (d *UserDirectory) Put(userID string, r notification.Recipient) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[userID] = r
}

func (d *UserDirectory) Lookup(ctx context.Context, userID string) (notification.Recipient, error) {
	_ = ctx

	d.mu.RLock()
	defer d.mu.RUnlock()

	r, ok := d.users[userID]
	if !ok {
		return notification.Recipient{}, notification.ErrUnknownRecipient
	}
	return r, nil
}
