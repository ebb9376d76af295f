package gallery

import "github.com/bunkasai/festival/internal/dom"

// Lightbox is the full-screen viewer over the engine's current view.
type Lightbox struct {
	doc    *dom.Document
	engine *Engine
	cursor int
	open   bool
}

// NewLightbox binds a viewer to an engine.
func NewLightbox(doc *dom.Document, engine *Engine) *Lightbox {
	return &Lightbox{doc: doc, engine: engine}
}

// Open shows view item i. Out-of-range indexes are ignored.
func (l *Lightbox) Open(i int) {
	view := l.engine.view
	if i < 0 || i >= len(view) {
		return
	}
	l.cursor = i
	l.open = true
	it := view[i]

	if box := l.doc.ByID(dom.IDLightbox); box != nil {
		box.SetDisplay("flex")
	}
	img := l.doc.ByID(dom.IDLightboxImg)
	video := l.doc.ByID(dom.IDLightboxVideo)
	shown, hidden := img, video
	if it.Kind == KindVideo {
		shown, hidden = video, img
	}
	if hidden != nil {
		hidden.SetDisplay("none")
		hidden.RemoveAttr("src")
	}
	if shown != nil {
		shown.SetAttr("src", it.Source)
		shown.SetDisplay("block")
		if it.Kind == KindImage {
			shown.SetAttr("alt", it.Caption)
		}
	}
}

// Next advances to the following item, wrapping around.
func (l *Lightbox) Next() { l.step(1) }

// Prev moves to the preceding item, wrapping around.
func (l *Lightbox) Prev() { l.step(-1) }

func (l *Lightbox) step(delta int) {
	n := len(l.engine.view)
	if n == 0 {
		return
	}
	l.Open(((l.cursor+delta)%n + n) % n)
}

// Close hides the viewer. The cursor is kept.
func (l *Lightbox) Close() {
	l.open = false
	if box := l.doc.ByID(dom.IDLightbox); box != nil {
		box.SetDisplay("none")
	}
}

// Tick advances the slideshow. It only moves in slide view.
func (l *Lightbox) Tick() {
	if l.engine.Mode() == ViewSlide {
		l.Next()
	}
}

// IsOpen reports whether the viewer is shown.
func (l *Lightbox) IsOpen() bool { return l.open }

// Cursor is the index of the last opened item.
func (l *Lightbox) Cursor() int { return l.cursor }

// Current returns the item under the cursor, if the view still has one.
func (l *Lightbox) Current() (Item, bool) {
	if l.cursor < 0 || l.cursor >= len(l.engine.view) {
		return Item{}, false
	}
	return l.engine.view[l.cursor], true
}
