// Package background rotates the page backdrop through a fixed image list.
package background

import (
	"fmt"

	"github.com/bunkasai/festival/internal/dom"
)

// Cycler advances an index into images on each call to Advance.
type Cycler struct {
	doc    *dom.Document
	images []string
	index  int
}

// NewCycler creates a cycler positioned at the first image. The load-time
// Advance therefore shows the second image first.
func NewCycler(doc *dom.Document, images []string) *Cycler {
	return &Cycler{doc: doc, images: append([]string(nil), images...)}
}

// Advance moves to the next image and applies it to #background.
func (c *Cycler) Advance() {
	if len(c.images) == 0 {
		return
	}
	c.index = (c.index + 1) % len(c.images)
	if bg := c.doc.ByID(dom.IDBackground); bg != nil {
		bg.SetStyle("background-image", fmt.Sprintf("url(%s)", c.images[c.index]))
	}
}

// Current returns the image at the current index, or "" for an empty list.
func (c *Cycler) Current() string {
	if len(c.images) == 0 {
		return ""
	}
	return c.images[c.index]
}

// Index returns the current position.
func (c *Cycler) Index() int { return c.index }
