// Package dom provides a small mutable document model over
// golang.org/x/net/html. Page components address elements by id or
// class and change their visibility, classes, attributes and content.
package dom

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Element identifiers shared by the site's pages.
const (
	IDGallery        = "gallery"
	IDLightbox       = "lightbox"
	IDLightboxImg    = "lightbox-img"
	IDLightboxVideo  = "lightbox-video"
	IDTagFilter      = "tag-filter"
	IDAssistantChat  = "assistant-chat"
	IDAssistantInput = "assistant-input"
	IDAssistantBox   = "assistant-box"
	IDNavMenu        = "nav-menu"
	IDBackground     = "background"
	IDCountdownJP    = "countdown-jp"
	IDCountdownEN    = "countdown-en"
	IDThemeStyle     = "theme-style"
	IDContent        = "content"
)

// Document is a parsed HTML page.
type Document struct {
	root *html.Node
}

// Parse reads a complete HTML document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}
	return &Document{root: root}, nil
}

// ParseString is Parse over a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Render writes the document as HTML.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// String renders the document, returning an empty string on failure.
func (d *Document) String() string {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}

// ByID returns the first element with the given id, or nil.
func (d *Document) ByID(id string) *Element {
	var found *html.Node
	walk(d.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && attr(n, "id") == id {
			found = n
			return false
		}
		return true
	})
	if found == nil {
		return nil
	}
	return &Element{n: found}
}

// ByClass returns every element carrying class, in document order.
func (d *Document) ByClass(class string) []*Element {
	return d.collect(func(n *html.Node) bool {
		return hasClass(n, class)
	})
}

// ByTag returns every element with the given tag name.
func (d *Document) ByTag(tag string) []*Element {
	tag = strings.ToLower(tag)
	return d.collect(func(n *html.Node) bool {
		return n.Data == tag
	})
}

// Select returns elements matching both tag and class, like "a.nav-link".
// An empty tag or class matches anything.
func (d *Document) Select(tag, class string) []*Element {
	tag = strings.ToLower(tag)
	return d.collect(func(n *html.Node) bool {
		if tag != "" && n.Data != tag {
			return false
		}
		return class == "" || hasClass(n, class)
	})
}

// Body returns the <body> element, or nil.
func (d *Document) Body() *Element {
	if els := d.ByTag("body"); len(els) > 0 {
		return els[0]
	}
	return nil
}

// Head returns the <head> element, or nil.
func (d *Document) Head() *Element {
	if els := d.ByTag("head"); len(els) > 0 {
		return els[0]
	}
	return nil
}

func (d *Document) collect(match func(*html.Node) bool) []*Element {
	var out []*Element
	walk(d.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && match(n) {
			out = append(out, &Element{n: n})
		}
		return true
	})
	return out
}

// walk visits n and its descendants depth-first until fn returns false.
func walk(n *html.Node, fn func(*html.Node) bool) bool {
	if !fn(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, fn) {
			return false
		}
	}
	return true
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// NewElement creates a detached element.
func NewElement(tag string, attrs ...html.Attribute) *Element {
	tag = strings.ToLower(tag)
	return &Element{n: &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Lookup([]byte(tag)),
		Data:     tag,
		Attr:     attrs,
	}}
}

// NewText creates a detached text node. Its content is escaped on render.
func NewText(s string) *Element {
	return &Element{n: &html.Node{Type: html.TextNode, Data: s}}
}

// A is shorthand for building an attribute.
func A(key, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}
