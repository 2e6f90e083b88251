package store

import (
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/printgenie/orderflow/internal/errs"
	"github.com/printgenie/orderflow/internal/models"
)

const (
	// OrdersCollection holds one document per customer submission.
	OrdersCollection = "orders"
	// ConfigCollection holds the singleton shop document.
	ConfigCollection = "shop_configuration"
	// ConfigDocID is the fixed id of the singleton shop document.
	ConfigDocID = "main"
)

// Firestore implements OrderStore and ConfigStore against Cloud Firestore.
type Firestore struct {
	client *firestore.Client
	log    *slog.Logger
}

func NewFirestore(client *firestore.Client, log *slog.Logger) *Firestore {
	return &Firestore{client: client, log: log}
}

func (s *Firestore) orders() *firestore.CollectionRef {
	return s.client.Collection(OrdersCollection)
}

func (s *Firestore) Create(ctx context.Context, o *models.Order) (string, error) {
	docRef, _, err := s.orders().Add(ctx, o)
	if err != nil {
		return "", fmt.Errorf("failed to create order document: %w", err)
	}
	// The orderDate is stamped server-side; read the document back so the
	// caller's confirmation carries the real timestamp, not the zero time.
	snap, err := docRef.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read back order %s: %w", docRef.ID, err)
	}
	created, err := decodeOrder(snap)
	if err != nil {
		return "", err
	}
	*o = *created
	return docRef.ID, nil
}

func (s *Firestore) Get(ctx context.Context, id string) (*models.Order, error) {
	snap, err := s.orders().Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, errs.NewNotFoundErrorWithCause("orderId", id, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order %s: %w", id, err)
	}
	return decodeOrder(snap)
}

func (s *Firestore) GetByReference(ctx context.Context, ref string) (*models.Order, error) {
	docs, err := s.orders().
		Where("orderReferenceNumber", "==", ref).
		Limit(1).
		Documents(ctx).
		GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to query order by reference %s: %w", ref, err)
	}
	if len(docs) == 0 {
		return nil, errs.NewNotFoundError("orderReferenceNumber", ref)
	}
	return decodeOrder(docs[0])
}

func (s *Firestore) List(ctx context.Context) ([]models.Order, error) {
	docs := s.orders().OrderBy("orderDate", firestore.Desc).Documents(ctx)
	orders, err := collectOrders(docs)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, nil
}

func (s *Firestore) SetStatus(ctx context.Context, id string, st models.OrderStatus) error {
	_, err := s.orders().Doc(id).Update(ctx, []firestore.Update{
		{Path: "orderStatus", Value: string(st)},
	})
	if status.Code(err) == codes.NotFound {
		return errs.NewNotFoundErrorWithCause("orderId", id, err)
	}
	if err != nil {
		return fmt.Errorf("failed to update status of order %s: %w", id, err)
	}
	return nil
}

func (s *Firestore) SetSummary(ctx context.Context, id, summary string) error {
	_, err := s.orders().Doc(id).Update(ctx, []firestore.Update{
		{Path: "aiSummary", Value: summary},
	})
	if status.Code(err) == codes.NotFound {
		return errs.NewNotFoundErrorWithCause("orderId", id, err)
	}
	if err != nil {
		return fmt.Errorf("failed to update summary of order %s: %w", id, err)
	}
	return nil
}

func (s *Firestore) Delete(ctx context.Context, id string) error {
	// Firestore deletes are silently idempotent; the staff surface needs a
	// distinct "already gone" signal, so existence is checked first. The
	// two steps are not transactional, which is accepted.
	docRef := s.orders().Doc(id)
	_, err := docRef.Get(ctx)
	if status.Code(err) == codes.NotFound {
		return errs.NewNotFoundErrorWithCause("orderId", id, err)
	}
	if err != nil {
		return fmt.Errorf("failed to check order %s before delete: %w", id, err)
	}
	if _, err := docRef.Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete order %s: %w", id, err)
	}
	return nil
}

func (s *Firestore) Watch(ctx context.Context) (*CollectionSubscription, error) {
	watchCtx, cancel := context.WithCancel(ctx)
	iter := s.orders().OrderBy("orderDate", firestore.Desc).Snapshots(watchCtx)

	ch := make(chan []models.Order, 1)
	go func() {
		defer close(ch)
		defer iter.Stop()
		for {
			snap, err := iter.Next()
			if err != nil {
				if watchCtx.Err() == nil {
					s.log.Error("orders watch ended",
						"error", errs.NewSubscriptionError(OrdersCollection, err))
				}
				return
			}
			orders, err := collectOrders(snap.Documents)
			if err != nil {
				s.log.Error("failed to read orders snapshot", "error", err)
				continue
			}
			offer(ch, orders)
		}
	}()

	return &CollectionSubscription{Snapshots: ch, stop: cancel}, nil
}

func (s *Firestore) WatchOrder(ctx context.Context, id string) (*DocumentSubscription, error) {
	watchCtx, cancel := context.WithCancel(ctx)
	iter := s.orders().Doc(id).Snapshots(watchCtx)

	ch := make(chan *models.Order, 1)
	go func() {
		defer close(ch)
		defer iter.Stop()
		for {
			snap, err := iter.Next()
			if err != nil {
				if watchCtx.Err() == nil {
					s.log.Error("order watch ended", "orderId", id,
						"error", errs.NewSubscriptionError(OrdersCollection, err))
				}
				return
			}
			if !snap.Exists() {
				offer[*models.Order](ch, nil)
				continue
			}
			o, err := decodeOrder(snap)
			if err != nil {
				s.log.Error("failed to read order snapshot", "orderId", id, "error", err)
				continue
			}
			offer(ch, o)
		}
	}()

	return &DocumentSubscription{Snapshots: ch, stop: cancel}, nil
}

func (s *Firestore) Load(ctx context.Context) (*models.ShopConfiguration, error) {
	snap, err := s.client.Collection(ConfigCollection).Doc(ConfigDocID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return models.DefaultShopConfiguration(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load shop configuration: %w", err)
	}
	var cfg models.ShopConfiguration
	if err := snap.DataTo(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode shop configuration: %w", err)
	}
	cfg.Normalize()
	return &cfg, nil
}

func (s *Firestore) Save(ctx context.Context, cfg *models.ShopConfiguration) error {
	_, err := s.client.Collection(ConfigCollection).Doc(ConfigDocID).Set(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to save shop configuration: %w", err)
	}
	return nil
}

func decodeOrder(snap *firestore.DocumentSnapshot) (*models.Order, error) {
	var o models.Order
	if err := snap.DataTo(&o); err != nil {
		return nil, fmt.Errorf("failed to decode order %s: %w", snap.Ref.ID, err)
	}
	o.ID = snap.Ref.ID
	o.Normalize()
	return &o, nil
}

func collectOrders(docs *firestore.DocumentIterator) ([]models.Order, error) {
	var orders []models.Order
	for {
		snap, err := docs.Next()
		if err == iterator.Done {
			return orders, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate orders: %w", err)
		}
		o, err := decodeOrder(snap)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
}
