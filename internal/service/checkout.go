package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"storefront/internal/domain"
	"storefront/internal/notify"

	"go.uber.org/zap"
)

// Notifier queues a message for best-effort delivery
type Notifier interface {
	Enqueue(msg notify.Message) bool
}

// CheckoutService converts a priced cart and buyer details into a placed order
type CheckoutService interface {
	PlaceOrder(ctx context.Context, buyer domain.BuyerInfo, cart *domain.Cart) (*domain.Order, error)
}

type checkoutService struct {
	// placeMu keeps ledger and directory writes of one checkout together, so a
	// customer's order list follows id order even for concurrent checkouts
	placeMu sync.Mutex

	carts     CartService
	ledger    OrderLedger
	directory CustomerDirectory
	notifier  Notifier
	storeName string
	logger    *zap.Logger
}

func NewCheckoutService(
	carts CartService,
	ledger OrderLedger,
	directory CustomerDirectory,
	notifier Notifier,
	storeName string,
	logger *zap.Logger,
) CheckoutService {
	return &checkoutService{
		carts:     carts,
		ledger:    ledger,
		directory: directory,
		notifier:  notifier,
		storeName: storeName,
		logger:    logger,
	}
}

// PlaceOrder records the order, links it to the buyer's customer record and clears the cart.
//
// A persistence failure of either collection is returned after the in-memory state has been
// updated and the cart cleared; no confirmation is sent in that case.
func (s *checkoutService) PlaceOrder(ctx context.Context, buyer domain.BuyerInfo, cart *domain.Cart) (*domain.Order, error) {
	if cart == nil || cart.IsEmpty() {
		return nil, domain.ErrEmptyCart
	}

	// details are stored as submitted; blank-only fields count as missing
	if err := validateStruct(trimBuyer(buyer)); err != nil {
		return nil, err
	}

	details := s.carts.BuildDetails(ctx, cart)
	if details.IsEmpty() {
		// every entry points at a deleted product
		return nil, domain.ErrEmptyCart
	}

	order, orderErr, customerErr := s.record(ctx, buyer, details.Items)
	if order == nil {
		return nil, orderErr
	}
	cart.Clear()

	if err := errors.Join(orderErr, customerErr); err != nil {
		s.logger.Error("Order placed but not fully persisted",
			zap.Int("order_id", order.ID),
			zap.Error(err),
		)
		return order, err
	}

	if !s.notifier.Enqueue(orderPlacedMessage(order, s.storeName)) {
		s.logger.Warn("Order confirmation not queued", zap.Int("order_id", order.ID))
	}

	s.logger.Info("Checkout completed",
		zap.Int("order_id", order.ID),
		zap.Int("items", len(order.Items)),
		zap.String("total", order.Total.StringFixed(2)),
	)
	return order, nil
}

func (s *checkoutService) record(ctx context.Context, buyer domain.BuyerInfo, items []domain.LineItem) (order *domain.Order, orderErr, customerErr error) {
	s.placeMu.Lock()
	defer s.placeMu.Unlock()

	order, orderErr = s.ledger.Add(ctx, buyer, items)
	if order == nil {
		return nil, orderErr, nil
	}
	_, customerErr = s.directory.Upsert(ctx, buyer, order.ID)
	return order, orderErr, customerErr
}

func trimBuyer(b domain.BuyerInfo) domain.BuyerInfo {
	return domain.BuyerInfo{
		Name:    strings.TrimSpace(b.Name),
		Email:   strings.TrimSpace(b.Email),
		Phone:   strings.TrimSpace(b.Phone),
		Address: strings.TrimSpace(b.Address),
	}
}
