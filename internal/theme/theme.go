// Package theme switches a page between the light and dark stylesheets.
package theme

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/bunkasai/festival/internal/dom"
	"github.com/bunkasai/festival/internal/logging"
	"github.com/bunkasai/festival/internal/prefs"
)

// Controller points the #theme-style link at one of two stylesheets.
type Controller struct {
	store       *prefs.Store
	doc         *dom.Document
	light, dark string
	on          bool
	log         zerolog.Logger
}

// NewController creates a controller for the given stylesheet URIs.
func NewController(store *prefs.Store, doc *dom.Document, light, dark string) *Controller {
	return &Controller{
		store: store,
		doc:   doc,
		light: light,
		dark:  dark,
		log:   logging.Component("theme"),
	}
}

// Dark reports whether dark mode was on at the last Apply.
func (c *Controller) Dark() bool { return c.on }

// Stylesheet returns the URI currently selected.
func (c *Controller) Stylesheet() string {
	if c.on {
		return c.dark
	}
	return c.light
}

// Apply reads the stored flag and sets the stylesheet reference.
func (c *Controller) Apply(ctx context.Context) {
	c.on = c.store.DarkMode(ctx)
	if link := c.doc.ByID(dom.IDThemeStyle); link != nil {
		link.SetAttr("href", c.Stylesheet())
	}
}

// Toggle flips the stored flag and re-applies.
func (c *Controller) Toggle(ctx context.Context) {
	if err := c.store.SetDarkMode(ctx, !c.store.DarkMode(ctx)); err != nil {
		c.log.Warn().Err(err).Msg("persisting dark mode")
	}
	c.Apply(ctx)
}
