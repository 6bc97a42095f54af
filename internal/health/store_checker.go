package health

import (
	"context"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/docstore"
)

const storeCheckTimeout = 2 * time.Second

// NewStoreChecker проверяет доступность документного хранилища через Ping.
func NewStoreChecker(name string, store docstore.Store) *SimpleChecker {
	return NewSimpleChecker(name, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), storeCheckTimeout)
		defer cancel()
		return store.Ping(ctx)
	})
}
