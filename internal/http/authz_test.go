package handlers_test

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminGuardRequiresAdmin(t *testing.T) {
	ta := newTestApp(t)
	ta.signIn(t, "sid-alice", "u-alice")
	ta.signIn(t, "sid-admin", "u-admin")

	resp := ta.get(t, "/admin", "")
	assert.Equal(t, http.StatusFound, resp.StatusCode, "guest is sent to login")
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	resp = ta.get(t, "/admin/products", "sid-alice")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = ta.post(t, "/admin/orders/any/status", "sid-alice", url.Values{"status": {"Shipped"}})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = ta.get(t, "/admin", "sid-admin")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, bodyString(t, resp), "Dashboard")
}

func TestCustomerRoutesRequireSignIn(t *testing.T) {
	ta := newTestApp(t)

	for _, path := range []string{"/cart", "/checkout", "/orders"} {
		resp := ta.get(t, path, "")
		assert.Equal(t, http.StatusFound, resp.StatusCode, path)
		assert.Equal(t, "/login", resp.Header.Get("Location"), path)
	}

	resp := ta.post(t, "/cart/add", "", url.Values{"productId": {"mug-001"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, false, decode(t, resp)["success"])
	assert.Equal(t, 0, ta.scalar(t, `SELECT COUNT(*) FROM cart_items`))

	resp = ta.get(t, "/cart/count", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 0, decode(t, resp)["count"])
}

func TestAccessDeniedLogs(t *testing.T) {
	ta := newTestApp(t)
	ta.signIn(t, "sid-alice", "u-alice")
	ta.signIn(t, "sid-bob", "u-bob")
	orderID := placeOrder(t, ta, "sid-alice", "mug-001", 1)

	entries := captureLogs(t, func() {
		resp := ta.get(t, "/orders/"+orderID, "sid-bob")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
	_, ok := findLog(entries, "access.denied.order")
	assert.True(t, ok, "expected access.denied.order log")

	entries = captureLogs(t, func() {
		ta.get(t, "/admin", "sid-bob")
	})
	e, ok := findLog(entries, "access.denied.admin")
	require.True(t, ok, "expected access.denied.admin log")
	assert.Equal(t, "warning", e.Level)
}

func TestCSRFRequiredOnPost(t *testing.T) {
	ta := newTestApp(t)
	ta.signIn(t, "sid-alice", "u-alice")

	req := newFormRequest("/cart/add", url.Values{"productId": {"mug-001"}})
	req.AddCookie(&http.Cookie{Name: "sid", Value: "sid-alice"})
	resp, err := ta.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, 0, ta.scalar(t, `SELECT COUNT(*) FROM cart_items`))
}
