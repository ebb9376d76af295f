// Package nav handles the hamburger menu and page-transition fades.
package nav

import (
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/bunkasai/festival/internal/dom"
)

// Body classes driving the transition animations.
const (
	ClassFadeIn  = "fade-in"
	ClassFadeOut = "fade-out"
	ClassNavLink = "nav-link"
)

// Controller operates on one page's navigation elements.
type Controller struct {
	doc   *dom.Document
	clock clockwork.Clock
	delay time.Duration
}

// NewController creates a controller whose exit animation lasts delay.
func NewController(doc *dom.Document, clock clockwork.Clock, delay time.Duration) *Controller {
	return &Controller{doc: doc, clock: clock, delay: delay}
}

// ToggleMenu shows a hidden #nav-menu and hides a shown one.
func (c *Controller) ToggleMenu() {
	menu := c.doc.ByID(dom.IDNavMenu)
	if menu == nil {
		return
	}
	if menu.Display() == "block" {
		menu.SetDisplay("none")
	} else {
		menu.SetDisplay("block")
	}
}

// MenuOpen reports whether the menu is shown.
func (c *Controller) MenuOpen() bool {
	menu := c.doc.ByID(dom.IDNavMenu)
	return menu != nil && menu.Display() == "block"
}

// FadeIn starts the page entry animation.
func (c *Controller) FadeIn() {
	if body := c.doc.Body(); body != nil {
		body.RemoveClass(ClassFadeOut)
		body.AddClass(ClassFadeIn)
	}
}

// Links returns the hrefs of the page's internal navigation links.
func (c *Controller) Links() []string {
	var out []string
	for _, a := range c.doc.Select("a", ClassNavLink) {
		if href, ok := a.Attr("href"); ok && href != "" {
			out = append(out, href)
		}
	}
	return out
}

// Navigate plays the exit animation and calls done with href once it has
// finished. It returns false for an empty href.
func (c *Controller) Navigate(href string, done func(url string)) bool {
	if href == "" {
		return false
	}
	if body := c.doc.Body(); body != nil {
		body.AddClass(ClassFadeOut)
	}
	c.clock.AfterFunc(c.delay, func() { done(href) })
	return true
}
