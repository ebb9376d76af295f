package gallery

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/bunkasai/festival/internal/dom"
	"github.com/bunkasai/festival/internal/logging"
)

// ViewMode is the layout of #gallery.
type ViewMode string

const (
	ViewGrid  ViewMode = "grid"
	ViewList  ViewMode = "list"
	ViewSlide ViewMode = "slide"
)

var viewModes = []ViewMode{ViewGrid, ViewList, ViewSlide}

// ParseViewMode validates a view mode name.
func ParseViewMode(s string) (ViewMode, error) {
	for _, m := range viewModes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown view mode %q", s)
}

// Shuffler permutes n elements through swap.
type Shuffler func(n int, swap func(i, j int))

// Element classes and actions emitted by Render.
const (
	ClassItem       = "gallery-item"
	ClassCaption    = "caption"
	ClassTagButton  = "tag-btn"
	ClassActive     = "active"
	ActionOpen      = "lightbox-open"
	ActionFilterTag = "gallery-filter"
	AllLabel        = "ALL"
)

// Engine holds one page's listing, tag filter and view mode.
type Engine struct {
	doc     *dom.Document
	src     Source
	shuffle Shuffler
	log     zerolog.Logger

	items []Item
	view  []Item
	tag   string
	mode  ViewMode
}

// NewEngine creates an engine rendering into doc. A nil shuffle uses
// math/rand/v2.
func NewEngine(doc *dom.Document, src Source, mode ViewMode, shuffle Shuffler) *Engine {
	if shuffle == nil {
		shuffle = rand.Shuffle
	}
	if mode == "" {
		mode = ViewGrid
	}
	return &Engine{doc: doc, src: src, shuffle: shuffle, mode: mode, log: logging.Component("gallery")}
}

// Source returns the listing source the engine loads from.
func (e *Engine) Source() Source { return e.src }

// Load fetches the listing and replaces the current items. On failure the
// previous items stay in place and the error is returned after logging.
func (e *Engine) Load(ctx context.Context) error {
	if e.src == nil {
		return nil
	}
	items, err := e.src.Fetch(ctx)
	if err != nil {
		e.log.Error().Err(err).Msg("loading gallery listing")
		return err
	}
	e.Replace(items)
	return nil
}

// Replace shuffles items into the full list, reapplies the active tag
// filter and renders. A tag no item carries any more falls back to ALL.
func (e *Engine) Replace(items []Item) {
	list := append([]Item(nil), items...)
	e.shuffle(len(list), func(i, j int) { list[i], list[j] = list[j], list[i] })
	e.items = list
	if e.tag != "" && !slices.Contains(e.Tags(), e.tag) {
		e.log.Debug().Str("tag", e.tag).Msg("tag filter gone from listing, showing all")
		e.tag = ""
	}
	e.applyFilter()
	e.Render()
}

// FilterByTag restricts the view to items carrying tag. An empty tag shows
// everything in list order.
func (e *Engine) FilterByTag(tag string) []Item {
	e.tag = tag
	e.applyFilter()
	e.Render()
	return e.View()
}

func (e *Engine) applyFilter() {
	if e.tag == "" {
		e.view = e.items
		return
	}
	view := make([]Item, 0, len(e.items))
	for _, it := range e.items {
		if it.HasTag(e.tag) {
			view = append(view, it)
		}
	}
	e.view = view
}

// SetView switches the #gallery layout class.
func (e *Engine) SetView(mode ViewMode) error {
	if _, err := ParseViewMode(string(mode)); err != nil {
		return err
	}
	e.mode = mode
	e.applyMode()
	return nil
}

func (e *Engine) applyMode() {
	g := e.doc.ByID(dom.IDGallery)
	if g == nil {
		return
	}
	for _, m := range viewModes {
		g.RemoveClass(string(m))
	}
	g.AddClass(string(e.mode))
}

// Mode returns the current view mode.
func (e *Engine) Mode() ViewMode { return e.mode }

// Tag returns the active tag filter, empty for ALL.
func (e *Engine) Tag() string { return e.tag }

// Items returns the full shuffled list.
func (e *Engine) Items() []Item { return append([]Item(nil), e.items...) }

// View returns the filtered list the lightbox indexes into.
func (e *Engine) View() []Item { return append([]Item(nil), e.view...) }

// Tags returns the distinct tags of the full list, sorted.
func (e *Engine) Tags() []string { return Tags(e.items) }

// Tags returns the distinct tags of items, sorted.
func Tags(items []Item) []string {
	seen := make(map[string]bool)
	var tags []string
	for _, it := range items {
		for _, t := range it.Tags {
			if !seen[t] {
				seen[t] = true
				tags = append(tags, t)
			}
		}
	}
	sort.Strings(tags)
	return tags
}

// Render rebuilds #gallery from the view and #tag-filter from the tags.
func (e *Engine) Render() {
	e.applyMode()
	if g := e.doc.ByID(dom.IDGallery); g != nil {
		g.Clear()
		for i, it := range e.view {
			g.Append(renderItem(i, it))
		}
	}
	if f := e.doc.ByID(dom.IDTagFilter); f != nil {
		f.Clear()
		f.Append(e.tagButton("", AllLabel))
		for _, t := range e.Tags() {
			f.Append(e.tagButton(t, "#"+t))
		}
	}
}

func renderItem(i int, it Item) *dom.Element {
	el := dom.NewElement("div",
		dom.A("class", ClassItem),
		dom.A("data-action", ActionOpen),
		dom.A("data-index", strconv.Itoa(i)),
		dom.A("data-kind", string(it.Kind)),
	)
	if len(it.Tags) > 0 {
		el.SetAttr("data-tags", strings.Join(it.Tags, " "))
	}
	if it.Kind == KindVideo {
		el.Append(dom.NewElement("video",
			dom.A("src", it.Source),
			dom.A("muted", ""),
			dom.A("playsinline", ""),
			dom.A("preload", "metadata"),
		))
	} else {
		el.Append(dom.NewElement("img",
			dom.A("src", it.Source),
			dom.A("alt", it.Caption),
			dom.A("loading", "lazy"),
		))
	}
	caption := dom.NewElement("p", dom.A("class", ClassCaption))
	caption.SetText(it.Caption)
	el.Append(caption)
	return el
}

func (e *Engine) tagButton(tag, label string) *dom.Element {
	b := dom.NewElement("button",
		dom.A("type", "button"),
		dom.A("class", ClassTagButton),
		dom.A("data-action", ActionFilterTag),
		dom.A("data-tag", tag),
	)
	if tag == e.tag {
		b.AddClass(ClassActive)
	}
	b.SetText(label)
	return b
}
