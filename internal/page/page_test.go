package page

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bunkasai/festival/internal/chat"
	"github.com/bunkasai/festival/internal/config"
	"github.com/bunkasai/festival/internal/dom"
	"github.com/bunkasai/festival/internal/gallery"
	"github.com/bunkasai/festival/internal/locale"
	"github.com/bunkasai/festival/internal/prefs"
)

type listing struct {
	mu        sync.Mutex
	items     []gallery.Item
	err       error
	refreshes int
}

func (l *listing) Fetch(context.Context) ([]gallery.Item, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]gallery.Item(nil), l.items...), l.err
}

func (l *listing) RequestRefresh(context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refreshes++
	return nil
}

func testItems() []gallery.Item {
	return []gallery.Item{
		gallery.NewItem("opening#stage.jpg", "https://cdn.example.com/opening.jpg"),
		gallery.NewItem("dance#stage#evening.mp4", "https://cdn.example.com/dance.mp4"),
		gallery.NewItem("cafe#food.png", "https://cdn.example.com/cafe.png"),
	}
}

type fixture struct {
	page  *Page
	clock *clockwork.FakeClock
	store *prefs.Store
	src   *listing
}

func newFixture(t *testing.T, accept string) *fixture {
	t.Helper()
	tmpl, err := os.ReadFile("testdata/index.html")
	require.NoError(t, err)

	appCfg := config.DefaultConfig()
	appCfg.ApplyDefaults()
	cfg, err := FromConfig(appCfg, "index.html", tmpl)
	require.NoError(t, err)
	cfg.AcceptLanguage = accept
	cfg.CountdownTarget = time.Date(2026, 9, 20, 9, 0, 0, 0, time.UTC)

	responder, err := chat.NewResponder(config.DefaultResponses)
	require.NoError(t, err)

	clock := clockwork.NewFakeClockAt(time.Date(2026, 9, 19, 9, 0, 0, 0, time.UTC))
	store := prefs.NewStore(prefs.NewMemory().Scope("visitor"))
	src := &listing{items: testItems()}
	p, err := New(cfg, Deps{
		Prefs:     store,
		Responder: responder,
		Listing:   src,
		Clock:     clock,
		Shuffle:   func(int, func(i, j int)) {},
	})
	require.NoError(t, err)
	return &fixture{page: p, clock: clock, store: store, src: src}
}

// start runs the loop and returns a cancel func that waits for it to exit.
func (f *fixture) start(t *testing.T) (context.Context, func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	f.page.Init(ctx)
	errc := make(chan error, 1)
	go func() { errc <- f.page.Run(ctx) }()
	return ctx, func() {
		cancel()
		require.NoError(t, <-errc)
	}
}

// await reads frames until one satisfies match.
func await(t *testing.T, p *Page, match func(Frame, *dom.Document) bool) (Frame, *dom.Document) {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case f := <-p.Frames():
			var doc *dom.Document
			if f.Type == FrameRender {
				var err error
				doc, err = dom.ParseString(f.HTML)
				require.NoError(t, err)
			}
			if match(f, doc) {
				return f, doc
			}
		case <-timeout:
			t.Fatal("timed out waiting for frame")
			return Frame{}, nil
		}
	}
}

func withItems(f Frame, doc *dom.Document) bool {
	return doc != nil && len(doc.ByClass(gallery.ClassItem)) == 3
}

func TestInitSync(t *testing.T) {
	f := newFixture(t, "ja-JP,ja;q=0.9,en;q=0.5")
	f.page.InitSync(context.Background())
	doc := f.page.Document()

	assert.True(t, doc.Body().HasClass("fade-in"))
	assert.Equal(t, locale.JP, f.page.Locale().Current())
	lang, _ := doc.ByTag("html")[0].Attr("lang")
	assert.Equal(t, "ja", lang)
	assert.Equal(t, "block", doc.ByClass(locale.ClassJP)[0].Display())
	assert.Equal(t, "none", doc.ByClass(locale.ClassEN)[0].Display())

	href, _ := doc.ByID(dom.IDThemeStyle).Attr("href")
	assert.Equal(t, "css/style.css", href)

	assert.Contains(t, doc.ByID(dom.IDBackground).Style("background-image"), config.DefaultBackgrounds[1])
	assert.Equal(t, "文化祭まで：1日 0時間 0分 0秒", doc.ByID(dom.IDCountdownJP).Text())
	assert.Equal(t, "Until festival: 1d 0h 0m 0s", doc.ByID(dom.IDCountdownEN).Text())

	assert.Len(t, doc.ByClass(gallery.ClassItem), 3)
	assert.True(t, doc.ByID(dom.IDGallery).HasClass("grid"))

	stored, ok := f.store.Lang(context.Background())
	assert.True(t, ok)
	assert.Equal(t, "jp", stored)
}

func TestInitSyncListingFailure(t *testing.T) {
	f := newFixture(t, "en-US")
	f.src.err = errors.New("listing down")
	f.page.InitSync(context.Background())

	assert.Empty(t, f.page.Document().ByClass(gallery.ClassItem))
	assert.Equal(t, locale.EN, f.page.Locale().Current())
}

func TestRunLoadsGalleryAsync(t *testing.T) {
	f := newFixture(t, "en")
	_, stop := f.start(t)
	defer stop()

	first, _ := await(t, f.page, func(Frame, *dom.Document) bool { return true })
	assert.Equal(t, FrameRender, first.Type)
	assert.Equal(t, uint64(1), first.Seq)

	await(t, f.page, withItems)
}

func TestDispatchActions(t *testing.T) {
	f := newFixture(t, "ja")
	ctx, stop := f.start(t)
	defer stop()
	await(t, f.page, withItems)

	require.NoError(t, f.page.Dispatch(ctx, Action{Type: ActSetLang, Lang: "en"}))
	_, doc := await(t, f.page, func(fr Frame, d *dom.Document) bool { return d != nil })
	assert.Equal(t, "block", doc.ByClass(locale.ClassEN)[0].Display())
	assert.Equal(t, "none", doc.ByClass(locale.ClassJP)[0].Display())

	require.NoError(t, f.page.Dispatch(ctx, Action{Type: ActToggleTheme}))
	_, doc = await(t, f.page, func(fr Frame, d *dom.Document) bool { return d != nil })
	href, _ := doc.ByID(dom.IDThemeStyle).Attr("href")
	assert.Equal(t, "css/dark.css", href)

	require.NoError(t, f.page.Dispatch(ctx, Action{Type: ActToggleMenu}))
	_, doc = await(t, f.page, func(fr Frame, d *dom.Document) bool { return d != nil })
	assert.Equal(t, "block", doc.ByID(dom.IDNavMenu).Display())

	require.NoError(t, f.page.Dispatch(ctx, Action{Type: ActToggleAssistant}))
	require.NoError(t, f.page.Dispatch(ctx, Action{Type: ActChatSend, Text: "  Fee "}))
	_, doc = await(t, f.page, func(fr Frame, d *dom.Document) bool {
		return d != nil && len(d.ByClass("bot-msg")) == 1
	})
	assert.Equal(t, "flex", doc.ByID(dom.IDAssistantBox).Display())
	assert.Equal(t, "Fee", doc.ByClass("user-msg")[0].Text())
	assert.Equal(t, "Admission is free!", doc.ByClass("bot-msg")[0].Text())

	require.NoError(t, f.page.Dispatch(ctx, Action{Type: ActGalleryFilter, Tag: "stage"}))
	_, doc = await(t, f.page, func(fr Frame, d *dom.Document) bool {
		return d != nil && len(d.ByClass(gallery.ClassItem)) == 2
	})

	require.NoError(t, f.page.Dispatch(ctx, Action{Type: ActLightboxOpen, Index: "1"}))
	_, doc = await(t, f.page, func(fr Frame, d *dom.Document) bool {
		return d != nil && d.ByID(dom.IDLightbox).Display() == "flex"
	})
	src, _ := doc.ByID(dom.IDLightboxVideo).Attr("src")
	assert.Equal(t, "https://cdn.example.com/dance.mp4", src)

	require.NoError(t, f.page.Dispatch(ctx, Action{Type: ActLightboxNext}))
	_, doc = await(t, f.page, func(fr Frame, d *dom.Document) bool { return d != nil })
	src, _ = doc.ByID(dom.IDLightboxImg).Attr("src")
	assert.Equal(t, "https://cdn.example.com/opening.jpg", src)

	require.NoError(t, f.page.Dispatch(ctx, Action{Type: ActLightboxClose}))
	_, doc = await(t, f.page, func(fr Frame, d *dom.Document) bool { return d != nil })
	assert.Equal(t, "none", doc.ByID(dom.IDLightbox).Display())

	stored, _ := f.store.Lang(context.Background())
	assert.Equal(t, "en", stored)
	assert.True(t, f.store.DarkMode(context.Background()))
}

func TestBadActionsAreIgnored(t *testing.T) {
	f := newFixture(t, "ja")
	ctx, stop := f.start(t)
	defer stop()
	first, _ := await(t, f.page, func(Frame, *dom.Document) bool { return true })

	for _, a := range []Action{
		{Type: "explode"},
		{Type: ActSetLang, Lang: "fr"},
		{Type: ActGalleryView, Mode: "carousel"},
		{Type: ActLightboxOpen, Index: "abc"},
		{Type: ActChatSend, Text: "   "},
		{Type: ActNavigate},
	} {
		require.NoError(t, f.page.Dispatch(ctx, a))
	}
	require.NoError(t, f.page.Dispatch(ctx, Action{Type: ActToggleMenu}))

	fr, doc := await(t, f.page, func(fr Frame, d *dom.Document) bool {
		return d != nil && d.ByID(dom.IDNavMenu).Display() == "block"
	})
	assert.Greater(t, fr.Seq, first.Seq)
	assert.True(t, doc.ByClass(locale.ClassJP)[0].Display() == "block")
}

func TestNavigateFadesThenNavigates(t *testing.T) {
	f := newFixture(t, "ja")
	ctx, stop := f.start(t)
	defer stop()
	require.NoError(t, f.clock.BlockUntilContext(ctx, 3))

	require.NoError(t, f.page.Dispatch(ctx, Action{Type: ActNavigate, Href: "gallery.html"}))
	await(t, f.page, func(fr Frame, d *dom.Document) bool {
		return d != nil && d.Body().HasClass("fade-out")
	})

	require.NoError(t, f.clock.BlockUntilContext(ctx, 4))
	f.clock.Advance(300 * time.Millisecond)
	fr, _ := await(t, f.page, func(fr Frame, _ *dom.Document) bool { return fr.Type == FrameNavigate })
	assert.Equal(t, "gallery.html", fr.URL)
}

func TestTimersDriveCountdownAndBackground(t *testing.T) {
	f := newFixture(t, "en")
	ctx, stop := f.start(t)
	defer stop()
	require.NoError(t, f.clock.BlockUntilContext(ctx, 3))

	f.clock.Advance(time.Second)
	await(t, f.page, func(fr Frame, d *dom.Document) bool {
		return d != nil && d.ByID(dom.IDCountdownEN).Text() == "Until festival: 0d 23h 59m 59s"
	})

	f.clock.Advance(7 * time.Second)
	await(t, f.page, func(fr Frame, d *dom.Document) bool {
		return d != nil && strings.Contains(d.ByID(dom.IDBackground).Style("background-image"), config.DefaultBackgrounds[2])
	})
}

func TestSlideModeAdvancesLightbox(t *testing.T) {
	f := newFixture(t, "en")
	ctx, stop := f.start(t)
	defer stop()
	await(t, f.page, withItems)
	require.NoError(t, f.clock.BlockUntilContext(ctx, 3))

	require.NoError(t, f.page.Dispatch(ctx, Action{Type: ActGalleryView, Mode: "slide"}))
	await(t, f.page, func(fr Frame, d *dom.Document) bool {
		return d != nil && d.ByID(dom.IDGallery).HasClass("slide")
	})

	f.clock.Advance(3 * time.Second)
	_, doc := await(t, f.page, func(fr Frame, d *dom.Document) bool {
		return d != nil && d.ByID(dom.IDLightbox).Display() == "flex"
	})
	src, _ := doc.ByID(dom.IDLightboxVideo).Attr("src")
	assert.Equal(t, "https://cdn.example.com/dance.mp4", src)
}

func TestGalleryReloadRequestsRefresh(t *testing.T) {
	f := newFixture(t, "en")
	ctx, stop := f.start(t)
	defer stop()
	await(t, f.page, withItems)

	f.src.mu.Lock()
	f.src.items = append(f.src.items, gallery.NewItem("finale#evening.jpg", "https://cdn.example.com/finale.jpg"))
	f.src.mu.Unlock()

	require.NoError(t, f.page.Dispatch(ctx, Action{Type: ActGalleryReload}))
	await(t, f.page, func(fr Frame, d *dom.Document) bool {
		return d != nil && len(d.ByClass(gallery.ClassItem)) == 4
	})
	f.src.mu.Lock()
	assert.Equal(t, 1, f.src.refreshes)
	f.src.mu.Unlock()
}

func TestDispatchAfterRunReturns(t *testing.T) {
	f := newFixture(t, "en")
	_, stop := f.start(t)
	stop()

	err := f.page.Dispatch(context.Background(), Action{Type: ActToggleMenu})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestNewRequiresPrefs(t *testing.T) {
	_, err := New(Config{Template: []byte("<html></html>")}, Deps{})
	assert.Error(t, err)
}
