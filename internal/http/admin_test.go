package handlers_test

import (
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminOrderStatusUpdate(t *testing.T) {
	ta := newTestApp(t)
	ta.signIn(t, "sid-alice", "u-alice")
	ta.signIn(t, "sid-admin", "u-admin")
	orderID := placeOrder(t, ta, "sid-alice", "kettle-001", 2)
	path := "/admin/orders/" + orderID + "/status"

	var res map[string]any
	entries := captureLogs(t, func() {
		res = decode(t, ta.post(t, path, "sid-admin", url.Values{"status": {"Processing"}}))
	})
	assert.Equal(t, true, res["success"])
	e, ok := findLog(entries, "admin.orders.update")
	require.True(t, ok, "expected audit entry")
	assert.True(t, e.Audit)
	assert.Equal(t, "Processing", e.Fields["status"])

	resp := ta.post(t, path, "sid-admin", url.Values{"status": {"Lost"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, false, decode(t, resp)["success"])

	resp = ta.post(t, path, "sid-admin", url.Values{"status": {"Cancelled"}})
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "only pending orders cancel")
	assert.Equal(t, "Only pending orders can be cancelled", decode(t, resp)["message"])
	assert.Equal(t, 0, ta.scalar(t, `SELECT stock_quantity FROM products WHERE id = 'kettle-001'`))

	resp = ta.post(t, "/admin/orders/missing/status", "sid-admin", url.Values{"status": {"Shipped"}})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = ta.get(t, "/admin/orders/"+orderID, "sid-admin")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := bodyString(t, resp)
	assert.Contains(t, body, "alice@shopfront.test")
	assert.Contains(t, body, "Electric Kettle")
}

func TestAdminCancelRestoresStock(t *testing.T) {
	ta := newTestApp(t)
	ta.signIn(t, "sid-alice", "u-alice")
	ta.signIn(t, "sid-admin", "u-admin")
	orderID := placeOrder(t, ta, "sid-alice", "kettle-001", 2)

	res := decode(t, ta.post(t, "/admin/orders/"+orderID+"/status", "sid-admin", url.Values{"status": {"Cancelled"}}))
	require.Equal(t, true, res["success"])
	assert.Equal(t, 2, ta.scalar(t, `SELECT stock_quantity FROM products WHERE id = 'kettle-001'`))

	resp := ta.post(t, "/admin/orders/"+orderID+"/status", "sid-admin", url.Values{"status": {"Pending"}})
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "cancelled is final")
}

func TestAdminOrderList(t *testing.T) {
	ta := newTestApp(t)
	ta.signIn(t, "sid-alice", "u-alice")
	ta.signIn(t, "sid-admin", "u-admin")
	placeOrder(t, ta, "sid-alice", "mug-001", 1)

	resp := ta.get(t, "/admin/orders?status=Pending", "sid-admin")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, bodyString(t, resp), "alice@shopfront.test")

	resp = ta.get(t, "/admin/orders?status=Delivered", "sid-admin")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, bodyString(t, resp), "No orders match.")

	resp = ta.get(t, "/admin/orders?from=yesterday", "sid-admin")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, bodyString(t, resp), "Dates must look like")
}

func TestAdminCreateProductWithImage(t *testing.T) {
	ta := newTestApp(t)
	ta.signIn(t, "sid-admin", "u-admin")
	form := url.Values{
		"name": {"Teapot"}, "sku": {"HM-TP-001"}, "categoryId": {"home"}, "description": {"Cast iron"},
		"price": {"30.00"}, "discountedPrice": {"24.50"}, "stockQuantity": {"4"}, "active": {"1"},
	}

	resp := ta.upload(t, "/admin/products/new", "sid-admin", form, "teapot.exe", []byte("MZ"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, bodyString(t, resp), "Images must be")

	bad := url.Values{"name": {"Teapot"}, "categoryId": {"home"}, "price": {"1.999"}, "stockQuantity": {"1"}}
	resp = ta.upload(t, "/admin/products/new", "sid-admin", bad, "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, bodyString(t, resp), "Enter a valid price")

	resp = ta.upload(t, "/admin/products/new", "sid-admin", form, "../../teapot.png", []byte("\x89PNG"))
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/admin/products", resp.Header.Get("Location"))

	var img string
	require.NoError(t, ta.db.Get(&img, `SELECT image_url FROM products WHERE sku = 'HM-TP-001'`))
	require.True(t, strings.HasPrefix(img, "/media/products/"), img)
	assert.True(t, strings.HasSuffix(img, "_teapot.png"), img)
	_, err := os.Stat(filepath.Join(ta.media, "products", filepath.Base(img)))
	assert.NoError(t, err, "file written under the media dir")

	resp = ta.get(t, "/products?q=teapot", "")
	assert.Contains(t, bodyString(t, resp), "$24.50")
}

func TestAdminEditAndDeactivateProduct(t *testing.T) {
	ta := newTestApp(t)
	ta.signIn(t, "sid-admin", "u-admin")

	resp := ta.get(t, "/admin/products/mug-001/edit", "sid-admin")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, bodyString(t, resp), `value="12.50"`)

	form := url.Values{"name": {"Big Mug"}, "categoryId": {"home"}, "price": {"14.00"}, "stockQuantity": {"30"}, "active": {"1"}}
	resp = ta.upload(t, "/admin/products/mug-001/edit", "sid-admin", form, "", nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, 30, ta.scalar(t, `SELECT stock_quantity FROM products WHERE id = 'mug-001'`))

	resp = ta.post(t, "/admin/products/mug-001/delete", "sid-admin", nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "Product deactivated", flash(resp, "flash_ok"))

	resp = ta.get(t, "/products/mug-001", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, 1, ta.scalar(t, `SELECT COUNT(*) FROM products WHERE id = 'mug-001'`), "row kept")

	resp = ta.get(t, "/admin/products/nope/edit", "sid-admin")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAdminCategories(t *testing.T) {
	ta := newTestApp(t)
	ta.signIn(t, "sid-admin", "u-admin")

	resp := ta.post(t, "/admin/categories", "sid-admin", url.Values{"name": {"Garden"}, "description": {"Outdoor"}})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "Category created", flash(resp, "flash_ok"))

	resp = ta.post(t, "/admin/categories", "sid-admin", url.Values{"name": {"garden"}})
	assert.Contains(t, flash(resp, "flash_err"), "already exists")

	resp = ta.get(t, "/admin/categories", "sid-admin")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := bodyString(t, resp)
	assert.Contains(t, body, "Garden")
	assert.Contains(t, body, "Archive", "admin sees inactive categories")
}

func TestAdminDashboard(t *testing.T) {
	ta := newTestApp(t)
	ta.signIn(t, "sid-alice", "u-alice")
	ta.signIn(t, "sid-admin", "u-admin")
	orderID := placeOrder(t, ta, "sid-alice", "mug-001", 2)
	ta.post(t, "/admin/orders/"+orderID+"/status", "sid-admin", url.Values{"status": {"Delivered"}})

	resp := ta.get(t, "/admin", "sid-admin")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := bodyString(t, resp)
	assert.Contains(t, body, `<strong id="revenue">$25.00</strong>`)
	assert.Contains(t, body, `<strong id="pending-orders">0</strong>`)
}

func TestAdminProductFormListsEveryProblem(t *testing.T) {
	ta := newTestApp(t)
	ta.signIn(t, "sid-admin", "u-admin")

	form := url.Values{"name": {""}, "categoryId": {"home"}, "price": {"abc"}, "stockQuantity": {"-1"}}
	resp := ta.upload(t, "/admin/products/new", "sid-admin", form, "", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := bodyString(t, resp)
	assert.Contains(t, body, "Name is required")
	assert.Contains(t, body, "Enter a valid price")
	assert.Contains(t, body, "Stock must be zero or more")
	assert.Equal(t, 7, ta.scalar(t, `SELECT COUNT(*) FROM products`))
}

func TestAdminRejectedProductLeavesNoUpload(t *testing.T) {
	ta := newTestApp(t)
	ta.signIn(t, "sid-admin", "u-admin")
	uploads := func() []os.DirEntry {
		entries, err := os.ReadDir(filepath.Join(ta.media, "products"))
		if os.IsNotExist(err) {
			return nil
		}
		require.NoError(t, err)
		return entries
	}

	form := url.Values{"name": {"Lamp"}, "categoryId": {"nope"}, "price": {"20.00"}, "stockQuantity": {"2"}, "active": {"1"}}
	resp := ta.upload(t, "/admin/products/new", "sid-admin", form, "lamp.png", []byte("\x89PNG"))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, bodyString(t, resp), "Unknown category")
	assert.Empty(t, uploads())

	form.Set("categoryId", "archive")
	resp = ta.upload(t, "/admin/products/mug-001/edit", "sid-admin", form, "lamp.png", []byte("\x89PNG"))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, bodyString(t, resp), "Active products need an active category")
	assert.Empty(t, uploads())
	var cat string
	require.NoError(t, ta.db.Get(&cat, `SELECT category_id FROM products WHERE id = 'mug-001'`))
	assert.Equal(t, "home", cat)
}
