// Package page runs one browser tab's worth of festival page state. Each
// Page owns a parsed document and every component bound to it, and a
// single goroutine applies actions, timer ticks and listing loads to
// them in order.
package page

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/bunkasai/festival/internal/background"
	"github.com/bunkasai/festival/internal/chat"
	"github.com/bunkasai/festival/internal/countdown"
	"github.com/bunkasai/festival/internal/dom"
	"github.com/bunkasai/festival/internal/gallery"
	"github.com/bunkasai/festival/internal/locale"
	"github.com/bunkasai/festival/internal/logging"
	"github.com/bunkasai/festival/internal/nav"
	"github.com/bunkasai/festival/internal/theme"
)

// ErrClosed is returned by Dispatch once Run has returned.
var ErrClosed = errors.New("page session closed")

const frameBuffer = 16

// refresher is implemented by listings that can be refreshed on demand.
type refresher interface {
	RequestRefresh(ctx context.Context) error
}

type loadResult struct {
	items []gallery.Item
	err   error
}

// Page is one live page session.
type Page struct {
	cfg   Config
	deps  Deps
	clock clockwork.Clock
	log   zerolog.Logger

	doc        *dom.Document
	locale     *locale.Controller
	theme      *theme.Controller
	nav        *nav.Controller
	background *background.Cycler
	countdown  *countdown.Component
	chat       *chat.Widget
	gallery    *gallery.Engine
	lightbox   *gallery.Lightbox
	hasGallery bool

	actions chan Action
	loaded  chan loadResult
	navDone chan string
	frames  chan Frame
	done    chan struct{}
	seq     uint64
}

// New parses the page template and binds every component to it.
func New(cfg Config, deps Deps) (*Page, error) {
	doc, err := dom.Parse(bytes.NewReader(cfg.Template))
	if err != nil {
		return nil, fmt.Errorf("parsing page %s: %w", cfg.Name, err)
	}
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if deps.Prefs == nil {
		return nil, errors.New("page needs a preference store")
	}
	if cfg.BackgroundInterval <= 0 {
		cfg.BackgroundInterval = 8 * time.Second
	}
	if cfg.SlideInterval <= 0 {
		cfg.SlideInterval = 3 * time.Second
	}

	p := &Page{
		cfg:   cfg,
		deps:  deps,
		clock: deps.Clock,
		log:   logging.Component("page").With().Str("page", cfg.Name).Str("session", cfg.ID).Logger(),
		doc:   doc,

		actions: make(chan Action),
		loaded:  make(chan loadResult),
		navDone: make(chan string),
		frames:  make(chan Frame, frameBuffer),
		done:    make(chan struct{}),
	}
	p.locale = locale.NewController(deps.Prefs, doc, cfg.DefaultLang)
	p.theme = theme.NewController(deps.Prefs, doc, cfg.LightTheme, cfg.DarkTheme)
	p.nav = nav.NewController(doc, deps.Clock, cfg.FadeDelay)
	p.background = background.NewCycler(doc, cfg.Backgrounds)
	p.countdown = countdown.New(doc, deps.Clock, cfg.CountdownTarget, cfg.Messages)
	if deps.Responder != nil {
		p.chat = chat.NewWidget(doc, deps.Responder)
	}
	p.gallery = gallery.NewEngine(doc, deps.Listing, cfg.GalleryView, deps.Shuffle)
	p.lightbox = gallery.NewLightbox(doc, p.gallery)
	p.hasGallery = deps.Listing != nil && doc.ByID(dom.IDGallery) != nil
	return p, nil
}

// Init applies the load-time state: entry fade, language, theme, the
// first backdrop, the countdown and the gallery layout.
func (p *Page) Init(ctx context.Context) {
	p.nav.FadeIn()
	p.locale.Resolve(ctx, p.cfg.AcceptLanguage)
	p.locale.Apply()
	p.theme.Apply(ctx)
	p.background.Advance()
	p.countdown.Update()
	if p.hasGallery {
		_ = p.gallery.SetView(p.gallery.Mode())
	}
}

// InitSync is Init followed by a blocking gallery load. A failed load
// leaves the gallery empty.
func (p *Page) InitSync(ctx context.Context) {
	p.Init(ctx)
	if p.hasGallery {
		_ = p.gallery.Load(ctx)
	}
}

// Document returns the page's document. It must not be touched while Run
// is active.
func (p *Page) Document() *dom.Document { return p.doc }

// HTML renders the current document.
func (p *Page) HTML() string { return p.doc.String() }

// Locale returns the language controller.
func (p *Page) Locale() *locale.Controller { return p.locale }

// Theme returns the dark-mode controller.
func (p *Page) Theme() *theme.Controller { return p.theme }

// Gallery returns the gallery engine.
func (p *Page) Gallery() *gallery.Engine { return p.gallery }

// Lightbox returns the gallery viewer.
func (p *Page) Lightbox() *gallery.Lightbox { return p.lightbox }

// Frames delivers updates produced by Run. It is never closed; watch
// Done instead.
func (p *Page) Frames() <-chan Frame { return p.frames }

// Done is closed when Run returns.
func (p *Page) Done() <-chan struct{} { return p.done }

// Dispatch hands an action to the loop and waits until it is accepted.
func (p *Page) Dispatch(ctx context.Context, a Action) error {
	select {
	case p.actions <- a:
		return nil
	case <-p.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run is the page's event loop. It renders the initial state, starts the
// gallery load and then serves actions and timers until ctx is done.
func (p *Page) Run(ctx context.Context) error {
	defer close(p.done)

	bgTicker := p.clock.NewTicker(p.cfg.BackgroundInterval)
	defer bgTicker.Stop()
	countdownTicker := p.clock.NewTicker(time.Second)
	defer countdownTicker.Stop()
	slideTicker := p.clock.NewTicker(p.cfg.SlideInterval)
	defer slideTicker.Stop()

	if p.hasGallery {
		p.startLoad(ctx, false)
	}
	p.render()

	for {
		select {
		case <-ctx.Done():
			return nil
		case a := <-p.actions:
			if p.handle(ctx, a) {
				p.render()
			}
		case <-bgTicker.Chan():
			p.background.Advance()
			p.render()
		case <-countdownTicker.Chan():
			p.countdown.Update()
			p.render()
		case <-slideTicker.Chan():
			if p.gallery.Mode() == gallery.ViewSlide && len(p.gallery.View()) > 0 {
				p.lightbox.Tick()
				p.render()
			}
		case r := <-p.loaded:
			if r.err != nil {
				p.log.Error().Err(r.err).Msg("loading gallery listing")
				continue
			}
			p.gallery.Replace(r.items)
			p.render()
		case url := <-p.navDone:
			p.emit(Frame{Type: FrameNavigate, URL: url})
		}
	}
}

// handle applies one action and reports whether the document changed.
func (p *Page) handle(ctx context.Context, a Action) bool {
	switch a.Type {
	case ActSetLang:
		lang, err := locale.Parse(a.Lang)
		if err != nil {
			p.ignore(a, err)
			return false
		}
		_ = p.locale.Set(ctx, lang)
	case ActToggleTheme:
		p.theme.Toggle(ctx)
	case ActToggleMenu:
		p.nav.ToggleMenu()
	case ActNavigate:
		return p.nav.Navigate(a.Href, func(url string) {
			select {
			case p.navDone <- url:
			case <-p.done:
			}
		})
	case ActToggleAssistant:
		if p.chat == nil {
			return false
		}
		p.chat.ToggleBox()
	case ActChatSend:
		if p.chat == nil {
			return false
		}
		return p.chat.Send(string(p.locale.Current()), a.Text)
	case ActGalleryFilter:
		p.gallery.FilterByTag(a.Tag)
	case ActGalleryView:
		mode, err := gallery.ParseViewMode(a.Mode)
		if err != nil {
			p.ignore(a, err)
			return false
		}
		_ = p.gallery.SetView(mode)
	case ActGalleryReload:
		if p.hasGallery {
			p.startLoad(ctx, true)
		}
		return false
	case ActLightboxOpen:
		i, err := strconv.Atoi(a.Index)
		if err != nil {
			p.ignore(a, err)
			return false
		}
		p.lightbox.Open(i)
	case ActLightboxNext:
		p.lightbox.Next()
	case ActLightboxPrev:
		p.lightbox.Prev()
	case ActLightboxClose:
		p.lightbox.Close()
	default:
		p.ignore(a, errors.New("unknown action"))
		return false
	}
	return true
}

func (p *Page) ignore(a Action, err error) {
	p.log.Debug().Err(err).Str("action", a.Type).Msg("ignoring action")
}

// startLoad fetches the listing off the loop. Results are applied in the
// order they complete.
func (p *Page) startLoad(ctx context.Context, refresh bool) {
	src := p.deps.Listing
	go func() {
		if r, ok := src.(refresher); ok && refresh {
			if err := r.RequestRefresh(ctx); err != nil {
				p.log.Debug().Err(err).Msg("listing refresh skipped")
			}
		}
		items, err := src.Fetch(ctx)
		select {
		case p.loaded <- loadResult{items: items, err: err}:
		case <-p.done:
		}
	}()
}

func (p *Page) render() {
	p.emit(Frame{Type: FrameRender, HTML: p.doc.String()})
}

// emit queues a frame. When the client falls behind the oldest queued
// frame is dropped; every render frame carries the full document.
func (p *Page) emit(f Frame) {
	p.seq++
	f.Seq = p.seq
	select {
	case p.frames <- f:
		return
	default:
	}
	select {
	case <-p.frames:
	default:
	}
	p.frames <- f
}
