package transport

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductEndpoints(t *testing.T) {
	s := newTestStore(t)

	status, products := s.doList(t, "GET", "/api/products")
	require.Equal(t, http.StatusOK, status)
	require.Len(t, products, 2)
	assert.Equal(t, "Strawberry Jam", products[0]["name"])
	assert.Equal(t, 10.0, products[0]["price"])
	assert.Equal(t, "available", products[0]["status"])

	status, product, _ := s.do(t, "GET", "/api/products/2", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Lemon Curd", product["name"])

	status, _, _ = s.do(t, "GET", "/api/products/99", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _, _ = s.do(t, "GET", "/api/products/abc", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestCartFlow(t *testing.T) {
	s := newTestStore(t)

	status, body, _ := s.do(t, "POST", "/api/cart/add", map[string]interface{}{"id": 1})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Added to cart successfully!", body["message"])
	assert.Equal(t, 1.0, body["cartCount"])

	s.do(t, "POST", "/api/cart/add", map[string]interface{}{"id": "1"})
	_, body, _ = s.do(t, "POST", "/api/cart/add", map[string]interface{}{"id": 2})
	assert.Equal(t, 3.0, body["cartCount"])

	status, cart, _ := s.do(t, "GET", "/api/cart", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 22.5, cart["total"])
	assert.Equal(t, 3.0, cart["total_qty"])
	items := cart["items"].([]interface{})
	require.Len(t, items, 2)
	first := items[0].(map[string]interface{})
	assert.Equal(t, 1.0, first["id"])
	assert.Equal(t, 20.0, first["subtotal"])

	status, body, _ = s.do(t, "POST", "/api/cart/update", map[string]interface{}{"id": 1, "action": "decrease"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, 1.0, body["qty"])
	assert.Equal(t, 12.5, body["total"])

	// decrease floors at one
	_, body, _ = s.do(t, "POST", "/api/cart/update", map[string]interface{}{"id": 1, "action": "decrease"})
	assert.Equal(t, 1.0, body["qty"])

	// decrease on an absent entry is a no-op and reports zero
	_, body, _ = s.do(t, "POST", "/api/cart/update", map[string]interface{}{"id": 7, "action": "decrease"})
	assert.Equal(t, 0.0, body["qty"])
	assert.Equal(t, 2.0, body["total_qty"])

	status, body, _ = s.do(t, "POST", "/api/cart/update", map[string]interface{}{"id": 1, "action": "explode"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "validation failed", errorMessage(body))

	status, body, _ = s.do(t, "POST", "/api/cart/remove", map[string]interface{}{"id": 2})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 10.0, body["total"])
	assert.Equal(t, 1.0, body["total_qty"])
	_, hasQty := body["qty"]
	assert.False(t, hasQty)

	_, body, _ = s.do(t, "GET", "/api/cart/count", nil)
	assert.Equal(t, 1.0, body["count"])
}

func TestCartExcludesDeletedProducts(t *testing.T) {
	s := newTestStore(t)

	s.do(t, "POST", "/api/cart/add", map[string]interface{}{"id": 1})
	s.do(t, "POST", "/api/cart/add", map[string]interface{}{"id": 2})
	require.NoError(t, s.catalog.Delete(t.Context(), 2))

	_, cart, _ := s.do(t, "GET", "/api/cart", nil)
	assert.Equal(t, 10.0, cart["total"])
	assert.Equal(t, 1.0, cart["total_qty"])
	assert.Len(t, cart["items"], 1)

	// the badge still counts the stale entry
	_, body, _ := s.do(t, "GET", "/api/cart/count", nil)
	assert.Equal(t, 2.0, body["count"])
}

func TestCheckoutEmptyCart(t *testing.T) {
	s := newTestStore(t)

	status, body, _ := s.do(t, "POST", "/api/checkout", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Your cart is empty.", body["message"])

	status, body, resp := s.do(t, "POST", "/api/checkout/details", map[string]string{
		"name": "Ada", "email": "a@x.com", "phone": "1", "address": "2",
	})
	assert.Equal(t, http.StatusSeeOther, status)
	assert.Equal(t, "/api/cart", resp.Header.Get("Location"))
	assert.Equal(t, "Your cart is empty.", body["warning"])
	assert.Zero(t, s.ledger.Count())
}

func TestCheckoutPlacesOrder(t *testing.T) {
	s := newTestStore(t)

	s.do(t, "POST", "/api/cart/add", map[string]interface{}{"id": 1})
	s.do(t, "POST", "/api/cart/add", map[string]interface{}{"id": 1})
	s.do(t, "POST", "/api/cart/add", map[string]interface{}{"id": 2})

	status, body, _ := s.do(t, "POST", "/api/checkout", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "/api/checkout/details", body["redirect"])

	status, body, _ = s.do(t, "POST", "/api/checkout/details", map[string]string{
		"name": "Ada", "email": "a@x.com", "phone": "555",
	})
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "validation failed", errorMessage(body))

	status, order, _ := s.do(t, "POST", "/api/checkout/details", map[string]string{
		"name": "Ada", "email": "A@x.com", "phone": "555", "address": "1 Loop Rd",
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, 1.0, order["id"])
	assert.Equal(t, 22.5, order["total"])
	assert.Equal(t, "Pending", order["status"])
	assert.Equal(t, "A@x.com", order["user"].(map[string]interface{})["email"])
	assert.NotEmpty(t, order["datetime"])

	_, body, _ = s.do(t, "GET", "/api/cart/count", nil)
	assert.Equal(t, 0.0, body["count"])

	status, body, _ = s.do(t, "GET", "/api/checkout/success", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Ada", body["user"].(map[string]interface{})["name"])

	require.Len(t, s.notifier.sent, 1)
	assert.Equal(t, "Your Order Has Been Placed", s.notifier.sent[0].Subject)
}

func TestCheckoutAcceptsFormSubmission(t *testing.T) {
	s := newTestStore(t)
	s.do(t, "POST", "/api/cart/add", map[string]interface{}{"id": 2})

	form := url.Values{"name": {"Ada"}, "email": {"a@x.com"}, "phone": {"555"}, "address": {"1 Loop Rd"}}
	status, _ := s.doForm(t, "POST", "/api/checkout/details", form)
	assert.Equal(t, http.StatusCreated, status)
	assert.Equal(t, 1, s.ledger.Count())
}

func TestCheckoutOnlyRequiresPresence(t *testing.T) {
	s := newTestStore(t)
	s.do(t, "POST", "/api/cart/add", map[string]interface{}{"id": 1})

	status, order, _ := s.do(t, "POST", "/api/checkout/details", map[string]string{
		"name": "Ada", "email": "ada-at-home", "phone": "555", "address": "1 Loop Rd",
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "ada-at-home", order["user"].(map[string]interface{})["email"])
	assert.Equal(t, 1, s.ledger.Count())
}

func TestTrackOrders(t *testing.T) {
	s := newTestStore(t)

	for _, email := range []string{"A@x.com", "b@x.com", "a@x.com"} {
		s.do(t, "POST", "/api/cart/add", map[string]interface{}{"id": 1})
		status, _, _ := s.do(t, "POST", "/api/checkout/details", map[string]string{
			"name": "Ada", "email": email, "phone": "555", "address": "1 Loop Rd",
		})
		require.Equal(t, http.StatusCreated, status)
	}

	status, body, _ := s.do(t, "GET", "/api/track?email="+url.QueryEscape("  A@X.com "), nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "a@x.com", body["email"])
	orders := body["orders"].([]interface{})
	require.Len(t, orders, 2)
	assert.Equal(t, 3.0, orders[0].(map[string]interface{})["id"])

	status, body, _ = s.do(t, "POST", "/api/track", map[string]string{"email": "nobody@x.com"})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Empty(t, body["orders"])

	status, _, _ = s.do(t, "GET", "/api/track", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestProperty_CartQuantitiesStayPositive(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 10
	properties := gopter.NewProperties(parameters)

	properties.Property("cart quantities reported over HTTP never drop below one", prop.ForAll(
		func(actions []string) bool {
			s := newTestStore(t)
			s.do(t, "POST", "/api/cart/add", map[string]interface{}{"id": 1})

			for _, action := range actions {
				_, body, _ := s.do(t, "POST", "/api/cart/update", map[string]interface{}{"id": 1, "action": action})
				if qty, _ := body["qty"].(float64); qty < 1 {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(8, gen.OneConstOf("increase", "decrease")),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
