package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront/internal/domain"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "session"

// Session is the per-visitor state kept between requests
type Session struct {
	ID        string
	Cart      *domain.Cart
	LastBuyer *domain.BuyerInfo

	buyerChanged bool
}

// New returns an empty session with the given id
func New(id string) *Session {
	return &Session{ID: id, Cart: domain.NewCart()}
}

// SetLastBuyer remembers the details submitted on the most recent checkout
func (s *Session) SetLastBuyer(buyer domain.BuyerInfo) {
	s.LastBuyer = &buyer
	s.buyerChanged = true
}

// Dirty reports whether the session must be written back
func (s *Session) Dirty() bool {
	return s.buyerChanged || s.Cart.Modified()
}

func (s *Session) markClean() {
	s.buyerChanged = false
	s.Cart.MarkClean()
}

type payload struct {
	Cart      *domain.Cart      `json:"cart"`
	LastBuyer *domain.BuyerInfo `json:"last_buyer,omitempty"`
}

// Store loads and saves sessions
type Store interface {
	Load(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}

// RedisStore keeps sessions as JSON with a sliding expiry
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// Load returns the stored session, or an empty one when id is unknown or expired.
// Reading a session extends its lifetime.
func (r *RedisStore) Load(ctx context.Context, id string) (*Session, error) {
	key := sessionKey(id)

	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return New(id), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	p := payload{Cart: domain.NewCart()}
	if err := json.Unmarshal(data, &p); err != nil {
		// A corrupt session is replaced rather than failing every request that carries it
		return New(id), nil
	}
	if p.Cart == nil {
		p.Cart = domain.NewCart()
	}

	if err := r.client.Expire(ctx, key, r.ttl).Err(); err != nil {
		return nil, fmt.Errorf("failed to refresh session expiry: %w", err)
	}

	return &Session{ID: id, Cart: p.Cart, LastBuyer: p.LastBuyer}, nil
}

// Save writes the session and clears its dirty state
func (r *RedisStore) Save(ctx context.Context, s *Session) error {
	data, err := json.Marshal(payload{Cart: s.Cart, LastBuyer: s.LastBuyer})
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := r.client.Set(ctx, sessionKey(s.ID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	s.markClean()
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func sessionKey(id string) string {
	return keyPrefix + ":" + id
}

type contextKey struct{}

// NewContext returns a copy of ctx carrying s
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session attached by the session middleware
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(contextKey{}).(*Session)
	return s, ok
}
