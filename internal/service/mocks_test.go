package service

import (
	"context"
	"errors"
	"sync"

	"storefront/internal/domain"
	"storefront/internal/notify"
)

var errStorageDown = errors.New("storage unavailable")

// memoryStore backs every repository interface with failure injection
type memoryStore struct {
	mu        sync.Mutex
	products  []domain.Product
	orders    []domain.Order
	customers []domain.Customer
	sequences map[string]int

	failProducts  int
	failOrders    int
	failCustomers int
	saves         map[string]int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{sequences: make(map[string]int), saves: make(map[string]int)}
}

type memoryProducts struct{ s *memoryStore }
type memoryOrders struct{ s *memoryStore }
type memoryCustomers struct{ s *memoryStore }
type memorySequences struct{ s *memoryStore }

func (r memoryProducts) LoadAll(ctx context.Context) ([]domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return append([]domain.Product(nil), r.s.products...), nil
}

func (r memoryProducts) SaveAll(ctx context.Context, products []domain.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failProducts > 0 {
		r.s.failProducts--
		return errStorageDown
	}
	r.s.products = append([]domain.Product(nil), products...)
	r.s.saves["products"]++
	return nil
}

func (r memoryOrders) LoadAll(ctx context.Context) ([]domain.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return append([]domain.Order(nil), r.s.orders...), nil
}

func (r memoryOrders) SaveAll(ctx context.Context, orders []domain.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failOrders > 0 {
		r.s.failOrders--
		return errStorageDown
	}
	r.s.orders = append([]domain.Order(nil), orders...)
	r.s.saves["orders"]++
	return nil
}

func (r memoryCustomers) LoadAll(ctx context.Context) ([]domain.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return append([]domain.Customer(nil), r.s.customers...), nil
}

func (r memoryCustomers) SaveAll(ctx context.Context, customers []domain.Customer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failCustomers > 0 {
		r.s.failCustomers--
		return errStorageDown
	}
	r.s.customers = append([]domain.Customer(nil), customers...)
	r.s.saves["customers"]++
	return nil
}

func (r memorySequences) Load(ctx context.Context, name string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.sequences[name], nil
}

func (r memorySequences) Save(ctx context.Context, name string, lastID int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.sequences[name] = lastID
	return nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notify.Message
}

func (n *recordingNotifier) Enqueue(msg notify.Message) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return true
}

func (n *recordingNotifier) messages() []notify.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Message(nil), n.sent...)
}
