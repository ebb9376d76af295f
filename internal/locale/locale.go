// Package locale resolves the visitor's language and switches the
// language-tagged sections of a page.
package locale

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"github.com/bunkasai/festival/internal/dom"
	"github.com/bunkasai/festival/internal/logging"
	"github.com/bunkasai/festival/internal/prefs"
)

// Lang is one of the two site languages.
type Lang string

const (
	JP Lang = "jp"
	EN Lang = "en"
)

// Classes flagging language-specific sections.
const (
	ClassJP = "lang-jp"
	ClassEN = "lang-en"
)

// Parse validates a language value.
func Parse(s string) (Lang, error) {
	switch Lang(s) {
	case JP, EN:
		return Lang(s), nil
	}
	return "", fmt.Errorf("unknown language %q", s)
}

// Detect picks the site language from an Accept-Language header. The
// browser's reported locale is its highest-weighted tag; a Japanese tag
// selects JP and anything else EN.
func Detect(acceptLanguage string) Lang {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return EN
	}
	if base, _ := tags[0].Base(); base.String() == "ja" {
		return JP
	}
	return EN
}

// Controller owns the current language of one page.
type Controller struct {
	store   *prefs.Store
	doc     *dom.Document
	current Lang
	log     zerolog.Logger
}

// NewController creates a controller starting at fallback until Resolve runs.
func NewController(store *prefs.Store, doc *dom.Document, fallback Lang) *Controller {
	if fallback == "" {
		fallback = JP
	}
	return &Controller{
		store:   store,
		doc:     doc,
		current: fallback,
		log:     logging.Component("locale"),
	}
}

// Current returns the active language.
func (c *Controller) Current() Lang { return c.current }

// Resolve loads the stored language. When none is stored it detects one
// from acceptLanguage and persists it, so detection happens only once.
func (c *Controller) Resolve(ctx context.Context, acceptLanguage string) Lang {
	if stored, ok := c.store.Lang(ctx); ok {
		if lang, err := Parse(stored); err == nil {
			c.current = lang
			return lang
		}
		c.log.Debug().Str("stored", stored).Msg("ignoring unknown stored language")
	}

	c.current = Detect(acceptLanguage)
	if err := c.store.SetLang(ctx, string(c.current)); err != nil {
		c.log.Warn().Err(err).Msg("persisting detected language")
	}
	return c.current
}

// Apply shows the sections of the current language and hides the others.
func (c *Controller) Apply() {
	show, hide := ClassJP, ClassEN
	if c.current == EN {
		show, hide = ClassEN, ClassJP
	}
	for _, el := range c.doc.ByClass(show) {
		el.SetDisplay("block")
	}
	for _, el := range c.doc.ByClass(hide) {
		el.SetDisplay("none")
	}
	if html := c.doc.ByTag("html"); len(html) > 0 {
		html[0].SetAttr("lang", c.HTMLLang())
	}
}

// HTMLLang is the BCP 47 tag for the html lang attribute.
func (c *Controller) HTMLLang() string {
	if c.current == JP {
		return "ja"
	}
	return "en"
}

// Set persists lang and re-applies.
func (c *Controller) Set(ctx context.Context, lang Lang) error {
	if _, err := Parse(string(lang)); err != nil {
		return err
	}
	c.current = lang
	if err := c.store.SetLang(ctx, string(lang)); err != nil {
		c.log.Warn().Err(err).Msg("persisting language")
	}
	c.Apply()
	return nil
}
