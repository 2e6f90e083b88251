package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/printgenie/orderflow/internal/errs"
	"github.com/printgenie/orderflow/internal/models"
)

// Memory implements OrderStore and ConfigStore in process. It mirrors the
// document store's observable behavior, including last-write-wins on
// concurrent field writes, and backs tests and local development.
type Memory struct {
	mu       sync.Mutex
	orders   map[string]*models.Order
	arrival  []string // insertion order, the tie-break for equal timestamps
	cfg      *models.ShopConfiguration
	collSubs map[chan []models.Order]struct{}
	docSubs  map[string]map[chan *models.Order]struct{}

	// Clock is overridable so tests can control orderDate stamping.
	Clock func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		orders:   make(map[string]*models.Order),
		collSubs: make(map[chan []models.Order]struct{}),
		docSubs:  make(map[string]map[chan *models.Order]struct{}),
		Clock:    time.Now,
	}
}

func (s *Memory) Create(ctx context.Context, o *models.Order) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	stored := *o
	stored.ID = id
	stored.OrderDate = s.Clock()
	s.orders[id] = &stored
	s.arrival = append(s.arrival, id)
	o.ID = id
	o.OrderDate = stored.OrderDate

	s.notifyLocked(id)
	return id, nil
}

func (s *Memory) Get(ctx context.Context, id string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, errs.NewNotFoundError("orderId", id)
	}
	cp := *o
	cp.Normalize()
	return &cp, nil
}

func (s *Memory) GetByReference(ctx context.Context, ref string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.arrival {
		if o := s.orders[id]; o != nil && o.ReferenceNumber == ref {
			cp := *o
			cp.Normalize()
			return &cp, nil
		}
	}
	return nil, errs.NewNotFoundError("orderReferenceNumber", ref)
}

func (s *Memory) List(ctx context.Context) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(), nil
}

func (s *Memory) SetStatus(ctx context.Context, id string, st models.OrderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return errs.NewNotFoundError("orderId", id)
	}
	o.Status = st
	s.notifyLocked(id)
	return nil
}

func (s *Memory) SetSummary(ctx context.Context, id, summary string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return errs.NewNotFoundError("orderId", id)
	}
	o.AISummary = summary
	s.notifyLocked(id)
	return nil
}

func (s *Memory) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[id]; !ok {
		return errs.NewNotFoundError("orderId", id)
	}
	delete(s.orders, id)
	for i, a := range s.arrival {
		if a == id {
			s.arrival = append(s.arrival[:i], s.arrival[i+1:]...)
			break
		}
	}
	s.notifyLocked(id)
	return nil
}

func (s *Memory) Watch(ctx context.Context) (*CollectionSubscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan []models.Order, 1)
	s.collSubs[ch] = struct{}{}
	ch <- s.snapshotLocked()

	stop := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.collSubs[ch]; ok {
			delete(s.collSubs, ch)
			close(ch)
		}
	}
	go func() {
		<-ctx.Done()
		stop()
	}()
	return &CollectionSubscription{Snapshots: ch, stop: stop}, nil
}

func (s *Memory) WatchOrder(ctx context.Context, id string) (*DocumentSubscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan *models.Order, 1)
	subs, ok := s.docSubs[id]
	if !ok {
		subs = make(map[chan *models.Order]struct{})
		s.docSubs[id] = subs
	}
	subs[ch] = struct{}{}
	ch <- s.orderCopyLocked(id)

	stop := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.docSubs[id][ch]; ok {
			delete(s.docSubs[id], ch)
			close(ch)
		}
	}
	go func() {
		<-ctx.Done()
		stop()
	}()
	return &DocumentSubscription{Snapshots: ch, stop: stop}, nil
}

func (s *Memory) Load(ctx context.Context) (*models.ShopConfiguration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg == nil {
		return models.DefaultShopConfiguration(), nil
	}
	cp := *s.cfg
	cp.Normalize()
	return &cp, nil
}

func (s *Memory) Save(ctx context.Context, cfg *models.ShopConfiguration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *cfg
	s.cfg = &cp
	return nil
}

// snapshotLocked returns all orders sorted by orderDate descending, with
// stable insertion order as the tie-break for equal timestamps.
func (s *Memory) snapshotLocked() []models.Order {
	out := make([]models.Order, 0, len(s.arrival))
	for _, id := range s.arrival {
		cp := *s.orders[id]
		cp.Normalize()
		out = append(out, cp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OrderDate.After(out[j].OrderDate)
	})
	return out
}

func (s *Memory) orderCopyLocked(id string) *models.Order {
	o, ok := s.orders[id]
	if !ok {
		return nil
	}
	cp := *o
	cp.Normalize()
	return &cp
}

func (s *Memory) notifyLocked(changedID string) {
	snapshot := s.snapshotLocked()
	for ch := range s.collSubs {
		offer(ch, snapshot)
	}
	for ch := range s.docSubs[changedID] {
		offer(ch, s.orderCopyLocked(changedID))
	}
}
