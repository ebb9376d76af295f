package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bunkasai/festival/internal/chat"
	"github.com/bunkasai/festival/internal/config"
	"github.com/bunkasai/festival/internal/db"
	"github.com/bunkasai/festival/internal/dom"
	"github.com/bunkasai/festival/internal/gallery"
	"github.com/bunkasai/festival/internal/page"
	"github.com/bunkasai/festival/internal/prefs"
)

const testVisitor = "0b8e4f1c-3a52-4d8e-9f0a-6c1d2e3f4a5b"

const indexHTML = `<!DOCTYPE html><html lang="ja"><head>
<link id="theme-style" rel="stylesheet" href="css/style.css"></head><body>
<nav id="nav-menu" style="display: none"><a class="nav-link" href="gallery.html">Gallery</a></nav>
<section class="lang-jp"><p id="countdown-jp"></p></section>
<section class="lang-en"><p id="countdown-en"></p></section>
<div id="tag-filter"></div><div id="gallery"></div>
<div id="lightbox" style="display: none"><img id="lightbox-img"><video id="lightbox-video"></video></div>
</body></html>`

const contentsJSON = `[
  {"name": "opening#stage.jpg", "type": "file", "download_url": "https://raw.example.com/opening.jpg"},
  {"name": "dance#stage#evening.mp4", "type": "file", "download_url": "https://raw.example.com/dance.mp4"},
  {"name": "cafe#food.png", "type": "file", "download_url": "https://raw.example.com/cafe.png"}
]`

type testEnv struct {
	srv      *Server
	cfg      *config.Config
	clock    *clockwork.FakeClock
	database *db.DB
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "css"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte(indexHTML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "_partial.html"), []byte("<p>partial</p>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "css", "style.css"), []byte("body{}"), 0o644))

	listing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(contentsJSON))
	}))
	t.Cleanup(listing.Close)

	cfg := config.DefaultConfig()
	cfg.ApplyDefaults()
	cfg.Site.Dir = dir
	cfg.Server.ChatPerMinute = 2
	cfg.Countdown.Timezone = "UTC"

	database, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	responder, err := chat.NewResponder(cfg.Chat.Responses)
	require.NoError(t, err)

	clock := clockwork.NewFakeClockAt(time.Date(2026, 9, 19, 9, 0, 0, 0, time.UTC))
	cache := gallery.NewCache(gallery.NewGitHubSource(listing.URL, "", time.Second), time.Hour, time.Second)
	cache.Clock = clock
	srv := New(cfg, Deps{
		Prefs:     prefs.NewMemory(),
		DB:        database,
		Responder: responder,
		Listing:   cache,
		Clock:     clock,
		Shuffle:   func(int, func(i, j int)) {},
	})
	return &testEnv{srv: srv, cfg: cfg, clock: clock, database: database}
}

func (e *testEnv) do(t *testing.T, method, target, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != "" {
		rd = bytes.NewReader([]byte(body))
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, rd)
	req.AddCookie(&http.Cookie{Name: VisitorCookie, Value: testVisitor})
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	e.srv.Router().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, "GET", "/healthz", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	decode(t, w, &body)
	assert.Equal(t, "ok", body["status"])
}

func TestCORSHeaders(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.Server.AllowAllOrigins = true
	srv := New(env.cfg, env.srv.deps)

	req := httptest.NewRequest("OPTIONS", "/healthz", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestVisitorCookieIsAssigned(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()
	env.srv.Router().ServeHTTP(w, req)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, VisitorCookie, cookies[0].Name)
	assert.Len(t, cookies[0].Value, 36)

	w = env.do(t, "GET", "/healthz", "")
	assert.Empty(t, w.Result().Cookies())
}

func TestPageRendersVisitorState(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, "GET", "/", "", "Accept-Language", "en-US,en;q=0.8")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))

	doc, err := dom.ParseString(w.Body.String())
	require.NoError(t, err)
	assert.Equal(t, "block", doc.ByClass("lang-en")[0].Display())
	assert.Equal(t, "none", doc.ByClass("lang-jp")[0].Display())
	assert.Equal(t, "Until festival: 1d 0h 0m 0s", doc.ByID(dom.IDCountdownEN).Text())
	assert.Len(t, doc.ByClass(gallery.ClassItem), 3)
	assert.NotNil(t, doc.ByID("festival-runtime"))
	assert.Equal(t, "index.html", doc.Body().Data("festival-page"))

	n, err := env.database.CountVisitors(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// The detected language sticks for the visitor.
	w = env.do(t, "GET", "/index.html", "", "Accept-Language", "ja")
	doc, err = dom.ParseString(w.Body.String())
	require.NoError(t, err)
	assert.Equal(t, "block", doc.ByClass("lang-en")[0].Display())
}

func TestStaticFiles(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "GET", "/css/style.css", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "body{}", w.Body.String())

	w = env.do(t, "GET", "/_partial.html", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "festival-runtime")

	w = env.do(t, "GET", "/missing.png", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPrefsAPI(t *testing.T) {
	env := newTestEnv(t)

	var got prefsResponse
	w := env.do(t, "GET", "/api/prefs", "", "Accept-Language", "ja-JP")
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &got)
	assert.Equal(t, prefsResponse{Lang: "jp", DarkMode: false}, got)

	w = env.do(t, "PUT", "/api/prefs", `{"lang": "en", "dark_mode": true}`)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &got)
	assert.Equal(t, prefsResponse{Lang: "en", DarkMode: true}, got)

	w = env.do(t, "PUT", "/api/prefs", `{"lang": "fr"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = env.do(t, "PUT", "/api/prefs", `{"colour": "red"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, "POST", "/api/theme/toggle", "")
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &got)
	assert.Equal(t, prefsResponse{Lang: "en", DarkMode: false}, got)
}

func TestCountdownAPI(t *testing.T) {
	env := newTestEnv(t)

	var got countdownResponse
	w := env.do(t, "GET", "/api/countdown", "")
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &got)
	assert.False(t, got.Started)
	assert.Equal(t, int64(1), got.Days)
	assert.Equal(t, int64(0), got.Hours)
	assert.Equal(t, "Until festival: 1d 0h 0m 0s", got.EN)

	env.cfg.Countdown.RemainingEN = "{d} day to go"
	w = env.do(t, "GET", "/api/countdown", "")
	decode(t, w, &got)
	assert.Equal(t, "1 day to go", got.EN)
	assert.Equal(t, "文化祭まで：1日 0時間 0分 0秒", got.JP)

	env.clock.Advance(48 * time.Hour)
	w = env.do(t, "GET", "/api/countdown", "")
	decode(t, w, &got)
	assert.True(t, got.Started)
	assert.Equal(t, "Festival is happening now!", got.EN)
	assert.Equal(t, "文化祭開催中！", got.JP)
}

func TestChatAPI(t *testing.T) {
	env := newTestEnv(t)

	var got chatResponse
	w := env.do(t, "POST", "/api/chat", `{"text": "  FEE ", "lang": "en"}`)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &got)
	assert.Equal(t, "Admission is free!", got.Reply)

	w = env.do(t, "POST", "/api/chat", `{"text": "   "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, "POST", "/api/chat", `{"text": "hello"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestGalleryAPI(t *testing.T) {
	env := newTestEnv(t)

	var got galleryResponse
	w := env.do(t, "GET", "/api/gallery", "")
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &got)
	assert.Len(t, got.Items, 3)
	assert.Equal(t, []string{"evening", "food", "stage"}, got.Tags)
	assert.True(t, got.FetchedAt.Equal(env.clock.Now()), got.FetchedAt)

	w = env.do(t, "GET", "/api/gallery?tag=stage", "")
	decode(t, w, &got)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "opening", got.Items[0].Caption)

	w = env.do(t, "GET", "/api/gallery?tag=none", "")
	decode(t, w, &got)
	assert.NotNil(t, got.Items)
	assert.Empty(t, got.Items)

	w = env.do(t, "POST", "/api/gallery/reload", "")
	assert.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, "POST", "/api/gallery/reload", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestGalleryAPIWithoutListing(t *testing.T) {
	env := newTestEnv(t)
	deps := env.srv.deps
	deps.Listing = nil
	srv := New(env.cfg, deps)

	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest("GET", "/api/gallery", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestWebSocketSession(t *testing.T) {
	env := newTestEnv(t)
	ts := httptest.NewServer(env.srv.Router())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?page=index.html"
	header := http.Header{}
	header.Set("Cookie", VisitorCookie+"="+testVisitor)
	header.Set("Accept-Language", "en")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)
	defer conn.Close()

	readUntil := func(match func(*dom.Document) bool) *dom.Document {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		for {
			var f page.Frame
			require.NoError(t, conn.ReadJSON(&f))
			if f.Type != page.FrameRender {
				continue
			}
			doc, err := dom.ParseString(f.HTML)
			require.NoError(t, err)
			if match(doc) {
				return doc
			}
		}
	}

	readUntil(func(d *dom.Document) bool { return len(d.ByClass(gallery.ClassItem)) == 3 })

	require.NoError(t, conn.WriteJSON(page.Action{Type: page.ActToggleMenu}))
	readUntil(func(d *dom.Document) bool { return d.ByID(dom.IDNavMenu).Display() == "block" })

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, conn.WriteJSON(page.Action{Type: page.ActLightboxOpen, Index: "2"}))
	doc := readUntil(func(d *dom.Document) bool { return d.ByID(dom.IDLightbox).Display() == "flex" })
	src, _ := doc.ByID(dom.IDLightboxImg).Attr("src")
	assert.Equal(t, "https://raw.example.com/cafe.png", src)
}

func TestWebSocketUnknownPage(t *testing.T) {
	env := newTestEnv(t)
	ts := httptest.NewServer(env.srv.Router())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?page=../secret.html"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPageName(t *testing.T) {
	tests := map[string]string{
		"/":                "index.html",
		"":                 "index.html",
		"/gallery.html":    "gallery.html",
		"/club/":           "club/index.html",
		"/../etc/passwd":   "etc/passwd",
		"/a/./b/../c.html": "a/c.html",
	}
	for in, want := range tests {
		assert.Equal(t, want, pageName(in), in)
	}
}

func TestIPRateLimiter(t *testing.T) {
	l := NewIPRateLimiter(2)
	assert.True(t, l.Limiter("10.0.0.1").Allow())
	assert.True(t, l.Limiter("10.0.0.1").Allow())
	assert.False(t, l.Limiter("10.0.0.1").Allow())
	assert.True(t, l.Limiter("10.0.0.2").Allow())

	l.Cleanup(0)
	assert.True(t, l.Limiter("10.0.0.1").Allow())
}
