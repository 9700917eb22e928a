package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"storefront/internal/database"
	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/notify"
	"storefront/internal/repository"
	"storefront/internal/service"
	"storefront/internal/session"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testJWTSecret     = "transport-test-secret"
	testAdminPassword = "let-me-in-please"
)

type queuedNotifier struct {
	sent []notify.Message
}

func (n *queuedNotifier) Enqueue(msg notify.Message) bool {
	n.sent = append(n.sent, msg)
	return true
}

type testStore struct {
	server   *httptest.Server
	client   *http.Client
	catalog  service.Catalog
	ledger   service.OrderLedger
	notifier *queuedNotifier
}

// newTestStore runs the full HTTP stack over SQLite and miniredis
func newTestStore(t *testing.T) *testStore {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()

	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.RunMigrations(db.DB(), db.Dialect(), logger))

	sequences := repository.NewSequenceRepository(db.DB(), db.Dialect())
	catalog, err := service.NewCatalog(ctx, repository.NewProductRepository(db.DB(), db.Dialect()), sequences, 0, logger)
	require.NoError(t, err)
	ledger, err := service.NewOrderLedger(ctx, repository.NewOrderRepository(db.DB(), db.Dialect()), sequences, 0, logger)
	require.NoError(t, err)
	directory, err := service.NewCustomerDirectory(ctx, repository.NewCustomerRepository(db.DB(), db.Dialect()), sequences, 0, logger)
	require.NoError(t, err)

	for _, p := range []struct{ name, price string }{{"Strawberry Jam", "10.00"}, {"Lemon Curd", "2.50"}} {
		_, err := catalog.Add(ctx, domain.ProductInput{Name: p.name, Price: decimal.RequireFromString(p.price)})
		require.NoError(t, err)
	}

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { redisClient.Close() })

	hash, err := service.HashPassword(testAdminPassword)
	require.NoError(t, err)

	notifier := &queuedNotifier{}
	carts := service.NewCartService(catalog)
	checkout := service.NewCheckoutService(carts, ledger, directory, notifier, "Jams Store", logger)
	office := service.NewBackOffice(catalog, ledger, directory, notifier, logger)
	admins := service.NewAdminService("admin", hash, testJWTSecret, time.Hour)

	sessions := middleware.SessionMiddleware(
		session.NewRedisStore(redisClient, time.Hour),
		middleware.SessionConfig{CookieName: "sid", TTL: time.Hour},
		logger,
	)

	r := chi.NewRouter()
	NewStorefrontHandler(catalog, carts, checkout, ledger, logger).RegisterRoutes(r, sessions)
	NewAdminHandler(admins, office, catalog, ledger, directory, false, logger).RegisterRoutes(r,
		middleware.AuthMiddleware(testJWTSecret, logger),
		middleware.RequireAdmin(logger),
	)

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testStore{
		server: server,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		catalog:  catalog,
		ledger:   ledger,
		notifier: notifier,
	}
}

func (s *testStore) do(t *testing.T, method, path string, body interface{}, header ...string) (int, map[string]interface{}, *http.Response) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, s.server.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}

	resp, err := s.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var decoded map[string]interface{}
	if len(bytes.TrimSpace(raw)) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp.StatusCode, decoded, resp
}

// doForm posts form as application/x-www-form-urlencoded
func (s *testStore) doForm(t *testing.T, method, path string, form url.Values) (int, map[string]interface{}) {
	t.Helper()

	req, err := http.NewRequest(method, s.server.URL+path, strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp.StatusCode, decoded
}

// doList performs a request whose response body is a JSON array
func (s *testStore) doList(t *testing.T, method, path string, header ...string) (int, []map[string]interface{}) {
	t.Helper()

	req, err := http.NewRequest(method, s.server.URL+path, nil)
	require.NoError(t, err)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}

	resp, err := s.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded []map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp.StatusCode, decoded
}

func errorMessage(body map[string]interface{}) string {
	e, _ := body["error"].(map[string]interface{})
	msg, _ := e["message"].(string)
	return msg
}
