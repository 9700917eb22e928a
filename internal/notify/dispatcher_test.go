package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"storefront/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingSender struct {
	mu       sync.Mutex
	sent     []Message
	failures int
	block    chan struct{}
}

func (s *recordingSender) Send(ctx context.Context, msg Message) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		return errors.New("smtp unavailable")
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *recordingSender) messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.sent))
	copy(out, s.sent)
	return out
}

func newTestDispatcher(sender Sender, queueSize, maxRetries int) *Dispatcher {
	d := NewDispatcher(sender, queueSize, maxRetries, zap.NewNop())
	d.initialInterval = time.Millisecond
	return d
}

func TestDispatcherDeliversQueuedMessages(t *testing.T) {
	sender := &recordingSender{}
	d := newTestDispatcher(sender, 10, 0)

	require.True(t, d.Enqueue(Message{To: "a@x.com", Subject: "one"}))
	require.True(t, d.Enqueue(Message{To: "b@x.com", Subject: "two"}))

	require.NoError(t, d.Close(context.Background()))

	sent := sender.messages()
	require.Len(t, sent, 2)
	assert.Equal(t, "one", sent[0].Subject)
	assert.Equal(t, "two", sent[1].Subject)
}

func TestDispatcherRetriesFailedDelivery(t *testing.T) {
	sender := &recordingSender{failures: 2}
	d := newTestDispatcher(sender, 1, 3)

	require.True(t, d.Enqueue(Message{To: "a@x.com", Subject: "retry"}))
	require.NoError(t, d.Close(context.Background()))

	assert.Len(t, sender.messages(), 1)
}

func TestDispatcherSwallowsFinalFailure(t *testing.T) {
	sender := &recordingSender{failures: 10}
	d := newTestDispatcher(sender, 1, 1)

	require.True(t, d.Enqueue(Message{To: "a@x.com"}))
	require.NoError(t, d.Close(context.Background()))

	assert.Empty(t, sender.messages())
}

func TestDispatcherDropsWhenQueueFull(t *testing.T) {
	sender := &recordingSender{block: make(chan struct{})}
	d := newTestDispatcher(sender, 1, 0)

	// The worker takes the first message and blocks in Send; the second fills the queue.
	require.True(t, d.Enqueue(Message{To: "first@x.com"}))
	require.Eventually(t, func() bool { return len(d.queue) == 0 }, time.Second, time.Millisecond)
	require.True(t, d.Enqueue(Message{To: "second@x.com"}))

	assert.False(t, d.Enqueue(Message{To: "third@x.com"}))

	close(sender.block)
	require.NoError(t, d.Close(context.Background()))
	assert.Len(t, sender.messages(), 2)
}

func TestDispatcherRejectsAfterClose(t *testing.T) {
	d := newTestDispatcher(&recordingSender{}, 1, 0)
	require.NoError(t, d.Close(context.Background()))

	assert.False(t, d.Enqueue(Message{To: "late@x.com"}))
	assert.ErrorIs(t, d.Close(context.Background()), ErrDispatcherClosed)
}

func TestDispatcherCloseHonoursDeadline(t *testing.T) {
	sender := &recordingSender{block: make(chan struct{})}
	d := newTestDispatcher(sender, 1, 0)
	require.True(t, d.Enqueue(Message{To: "slow@x.com"}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, d.Close(ctx), context.DeadlineExceeded)

	close(sender.block)
}

func TestNewSenderFallsBackToLog(t *testing.T) {
	sender := NewSender(config.MailConfig{}, zap.NewNop())
	_, ok := sender.(*LogSender)
	assert.True(t, ok)
	assert.NoError(t, sender.Send(context.Background(), Message{To: "a@x.com"}))

	sender = NewSender(config.MailConfig{Server: "smtp.example.com", Port: 587}, zap.NewNop())
	_, ok = sender.(*SMTPSender)
	assert.True(t, ok)
}

func TestBuildMessageHeaders(t *testing.T) {
	raw := string(buildMessage("store@x.com", Message{
		To:      "a@x.com",
		Subject: "Your Order Has Been Placed",
		Body:    "line one\nline two",
	}))

	assert.True(t, strings.HasPrefix(raw, "From: store@x.com\r\nTo: a@x.com\r\n"))
	assert.Contains(t, raw, "Subject: Your Order Has Been Placed\r\n")
	assert.True(t, strings.HasSuffix(raw, "\r\n\r\nline one\r\nline two"))
}
