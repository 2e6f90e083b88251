// Package store adapts the external document store to the order pipeline.
// It exposes keyed CRUD, ordered queries and change subscriptions over the
// orders collection and the singleton shop_configuration document, with a
// Firestore implementation for production and an in-memory one for tests
// and local development.
package store

import (
	"context"
	"sync"

	"github.com/printgenie/orderflow/internal/models"
)

// OrderStore is the document-store surface the order lifecycle relies on.
// Single-document writes are atomic; there are no cross-document
// transactions and no optimistic-concurrency checks. Concurrent writers
// follow last-write-wins.
type OrderStore interface {
	// Create persists a new order and returns the store-assigned id.
	// The store stamps the creation timestamp server-side and reflects
	// the stored record, including that timestamp, back into o.
	Create(ctx context.Context, o *models.Order) (string, error)
	Get(ctx context.Context, id string) (*models.Order, error)
	// GetByReference resolves the customer-facing reference code to the
	// order. If several orders collided on one code, the first match wins.
	GetByReference(ctx context.Context, ref string) (*models.Order, error)
	// List returns every order, newest first.
	List(ctx context.Context) ([]models.Order, error)
	SetStatus(ctx context.Context, id string, status models.OrderStatus) error
	SetSummary(ctx context.Context, id, summary string) error
	Delete(ctx context.Context, id string) error
	// Watch streams snapshots of the whole collection ordered by orderDate
	// descending: the current snapshot first, then one per mutation.
	Watch(ctx context.Context) (*CollectionSubscription, error)
	// WatchOrder streams snapshots of a single order; a nil snapshot means
	// the order does not (or no longer does) exist.
	WatchOrder(ctx context.Context, id string) (*DocumentSubscription, error)
}

// ConfigStore reads and writes the singleton shop configuration.
type ConfigStore interface {
	// Load returns the shop configuration with all defaults filled in;
	// a missing document yields the built-in default catalog.
	Load(ctx context.Context) (*models.ShopConfiguration, error)
	Save(ctx context.Context, cfg *models.ShopConfiguration) error
}

// CollectionSubscription is a live feed of collection snapshots.
// Consumers may sample at any rate; the channel always holds the most
// recent snapshot. The channel is closed when the subscription ends.
type CollectionSubscription struct {
	Snapshots <-chan []models.Order

	stopOnce sync.Once
	stop     func()
}

// Stop detaches the subscription. It is idempotent.
func (s *CollectionSubscription) Stop() {
	s.stopOnce.Do(s.stop)
}

// DocumentSubscription is a live feed of one order's snapshots.
type DocumentSubscription struct {
	Snapshots <-chan *models.Order

	stopOnce sync.Once
	stop     func()
}

// Stop detaches the subscription. It is idempotent.
func (s *DocumentSubscription) Stop() {
	s.stopOnce.Do(s.stop)
}

// offer replaces the channel's pending snapshot with the newest one so a
// slow consumer always observes the latest state without stalling the pump.
func offer[T any](ch chan T, v T) {
	select {
	case ch <- v:
	default:
		select {
		case <-ch:
		default:
		}
		ch <- v
	}
}
