package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// ErrDispatcherClosed is returned by Close when called twice
var ErrDispatcherClosed = errors.New("dispatcher already closed")

// Dispatcher hands messages to a single background worker so callers never wait on delivery
type Dispatcher struct {
	sender      Sender
	queue       chan Message
	maxRetries  int
	sendTimeout time.Duration
	logger      *zap.Logger

	mu     sync.RWMutex
	closed bool
	done   chan struct{}

	// initialInterval is the first backoff delay; tests shorten it
	initialInterval time.Duration
}

// NewDispatcher starts the delivery worker
func NewDispatcher(sender Sender, queueSize, maxRetries int, logger *zap.Logger) *Dispatcher {
	if queueSize < 1 {
		queueSize = 1
	}
	d := &Dispatcher{
		sender:          sender,
		queue:           make(chan Message, queueSize),
		maxRetries:      maxRetries,
		sendTimeout:     30 * time.Second,
		logger:          logger,
		done:            make(chan struct{}),
		initialInterval: 500 * time.Millisecond,
	}
	go d.run()
	return d
}

// Enqueue schedules msg for delivery. It never blocks; a full or closed queue drops the message.
func (d *Dispatcher) Enqueue(msg Message) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.logger.Warn("Notification dropped, dispatcher closed", zap.String("to", msg.To))
		return false
	}

	select {
	case d.queue <- msg:
		return true
	default:
		d.logger.Warn("Notification dropped, queue full",
			zap.String("to", msg.To),
			zap.String("subject", msg.Subject),
		)
		return false
	}
}

// Close stops accepting messages and waits for queued ones until ctx is done
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrDispatcherClosed
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		d.logger.Warn("Notification queue not drained before shutdown", zap.Int("pending", len(d.queue)))
		return ctx.Err()
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for msg := range d.queue {
		d.deliver(msg)
	}
}

func (d *Dispatcher) deliver(msg Message) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = d.initialInterval
	policy.MaxElapsedTime = 0

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		ctx, cancel := context.WithTimeout(context.Background(), d.sendTimeout)
		defer cancel()
		return d.sender.Send(ctx, msg)
	}, backoff.WithMaxRetries(policy, uint64(max(0, d.maxRetries))))

	if err != nil {
		d.logger.Warn("Failed to deliver notification",
			zap.String("to", msg.To),
			zap.String("subject", msg.Subject),
			zap.Int("attempts", attempt),
			zap.Error(err),
		)
		return
	}
	d.logger.Debug("Notification delivered", zap.String("to", msg.To), zap.Int("attempts", attempt))
}
