package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"shopfront/internal/config"
	"shopfront/internal/http/handlers"
	applog "shopfront/internal/log"
	"shopfront/internal/repos"
)

var ctx = context.Background()

type testApp struct {
	app   *fiber.App
	db    *sqlx.DB
	media string
	csrf  string
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	cfg := config.Config{
		DBDSN:         ":memory:",
		MediaDir:      t.TempDir(),
		TemplateDir:   "../../web/templates",
		StaticDir:     "../../web/static",
		RatePerMinute: 1000,
	}
	db, err := repos.OpenDB(cfg.DBDSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ta := &testApp{app: handlers.NewApp(cfg, handlers.NewDeps(db, cfg, nil)), db: db, media: cfg.MediaDir}

	resp := ta.get(t, "/login", "")
	ta.csrf = cookie(resp, "csrf_")
	require.NotEmpty(t, ta.csrf, "csrf token missing")
	return ta
}

// signIn binds sid to userID without going through the login form.
func (ta *testApp) signIn(t *testing.T, sid, userID string) {
	t.Helper()
	require.NoError(t, repos.NewUserRepo(ta.db).BindSession(ctx, sid, userID))
}

func (ta *testApp) do(t *testing.T, req *http.Request, sid string) *http.Response {
	t.Helper()
	req.AddCookie(&http.Cookie{Name: "csrf_", Value: ta.csrf})
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	}
	resp, err := ta.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (ta *testApp) get(t *testing.T, path, sid string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	}
	resp, err := ta.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (ta *testApp) post(t *testing.T, path, sid string, form url.Values) *http.Response {
	t.Helper()
	if form == nil {
		form = url.Values{}
	}
	form.Set("csrf", ta.csrf)
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return ta.do(t, req, sid)
}

// upload posts a multipart form with one file under "image".
func (ta *testApp) upload(t *testing.T, path, sid string, form url.Values, fileName string, content []byte) *http.Response {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	require.NoError(t, w.WriteField("csrf", ta.csrf))
	for k, vs := range form {
		for _, v := range vs {
			require.NoError(t, w.WriteField(k, v))
		}
	}
	if fileName != "" {
		fw, err := w.CreateFormFile("image", fileName)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return ta.do(t, req, sid)
}

func (ta *testApp) scalar(t *testing.T, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, ta.db.Get(&n, query, args...))
	return n
}

func cookie(resp *http.Response, name string) string {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

func flash(resp *http.Response, name string) string {
	v, _ := url.QueryUnescape(cookie(resp, name))
	return v
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var m map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&m))
	return m
}

func bodyString(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

type logEntry struct {
	Action string         `json:"action"`
	Level  string         `json:"level"`
	Audit  bool           `json:"audit"`
	Fields map[string]any `json:"fields"`
}

type lockedBuf struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (l *lockedBuf) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

func (l *lockedBuf) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.String()
}

func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	buf := &lockedBuf{}
	applog.SetOutput(buf)
	defer applog.SetOutput(os.Stdout)

	fn()

	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var e logEntry
		if json.Unmarshal([]byte(line), &e) == nil && e.Action != "" {
			entries = append(entries, e)
		}
	}
	return entries
}

func findLog(entries []logEntry, action string) (logEntry, bool) {
	for _, e := range entries {
		if e.Action == action {
			return e, true
		}
	}
	return logEntry{}, false
}

func newFormRequest(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// placeOrder fills the cart and checks out, returning the new order id.
func placeOrder(t *testing.T, ta *testApp, sid, productID string, qty int) string {
	t.Helper()
	resp := ta.post(t, "/cart/add", sid, url.Values{"productId": {productID}, "quantity": {strconv.Itoa(qty)}})
	require.Equal(t, true, decode(t, resp)["success"])

	resp = ta.post(t, "/checkout", sid, url.Values{
		"shippingAddress": {"1 Main St"}, "shippingCity": {"Springfield"}, "shippingPostalCode": {"12345"},
	})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	loc := resp.Header.Get("Location")
	require.True(t, strings.HasPrefix(loc, "/orders/"), "unexpected redirect %q (%s)", loc, flash(resp, "flash_err"))
	return strings.TrimPrefix(loc, "/orders/")
}
