package dom

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Element is a handle on one element node of a Document.
type Element struct {
	n *html.Node
}

// Tag returns the element's tag name.
func (e *Element) Tag() string { return e.n.Data }

// ID returns the id attribute.
func (e *Element) ID() string { return attr(e.n, "id") }

// Attr returns the value of key and whether it is present.
func (e *Element) Attr(key string) (string, bool) {
	for _, a := range e.n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets or replaces an attribute.
func (e *Element) SetAttr(key, val string) {
	for i, a := range e.n.Attr {
		if a.Namespace == "" && a.Key == key {
			e.n.Attr[i].Val = val
			return
		}
	}
	e.n.Attr = append(e.n.Attr, html.Attribute{Key: key, Val: val})
}

// RemoveAttr deletes an attribute if present.
func (e *Element) RemoveAttr(key string) {
	out := e.n.Attr[:0]
	for _, a := range e.n.Attr {
		if a.Namespace == "" && a.Key == key {
			continue
		}
		out = append(out, a)
	}
	e.n.Attr = out
}

// Data returns the data-<key> attribute.
func (e *Element) Data(key string) string {
	v, _ := e.Attr("data-" + key)
	return v
}

// Classes returns the class list.
func (e *Element) Classes() []string {
	return strings.Fields(attr(e.n, "class"))
}

// HasClass reports whether class is in the class list.
func (e *Element) HasClass(class string) bool {
	return hasClass(e.n, class)
}

// AddClass appends class unless already present.
func (e *Element) AddClass(class string) {
	if e.HasClass(class) {
		return
	}
	e.SetAttr("class", strings.TrimSpace(attr(e.n, "class")+" "+class))
}

// RemoveClass drops every occurrence of class.
func (e *Element) RemoveClass(class string) {
	classes := e.Classes()
	kept := classes[:0]
	for _, c := range classes {
		if c != class {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		e.RemoveAttr("class")
		return
	}
	e.SetAttr("class", strings.Join(kept, " "))
}

// ToggleClass flips class and reports whether it is now present.
func (e *Element) ToggleClass(class string) bool {
	if e.HasClass(class) {
		e.RemoveClass(class)
		return false
	}
	e.AddClass(class)
	return true
}

// declaration is one "prop: value" pair of an inline style.
type declaration struct {
	prop, value string
}

func parseStyle(s string) []declaration {
	var decls []declaration
	for _, part := range strings.Split(s, ";") {
		prop, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		prop = strings.ToLower(strings.TrimSpace(prop))
		if prop == "" {
			continue
		}
		decls = append(decls, declaration{prop: prop, value: strings.TrimSpace(value)})
	}
	return decls
}

func formatStyle(decls []declaration) string {
	parts := make([]string, len(decls))
	for i, d := range decls {
		parts[i] = d.prop + ": " + d.value
	}
	return strings.Join(parts, "; ")
}

// Style returns the inline value of a CSS property.
func (e *Element) Style(prop string) string {
	prop = strings.ToLower(prop)
	for _, d := range parseStyle(attr(e.n, "style")) {
		if d.prop == prop {
			return d.value
		}
	}
	return ""
}

// SetStyle sets an inline CSS property, keeping declaration order.
// An empty value removes the property.
func (e *Element) SetStyle(prop, value string) {
	prop = strings.ToLower(prop)
	decls := parseStyle(attr(e.n, "style"))
	out := decls[:0]
	replaced := false
	for _, d := range decls {
		if d.prop == prop {
			if value == "" || replaced {
				continue
			}
			d.value = value
			replaced = true
		}
		out = append(out, d)
	}
	if !replaced && value != "" {
		out = append(out, declaration{prop: prop, value: value})
	}
	if len(out) == 0 {
		e.RemoveAttr("style")
		return
	}
	e.SetAttr("style", formatStyle(out))
}

// Display returns the inline display value.
func (e *Element) Display() string { return e.Style("display") }

// SetDisplay sets the inline display value.
func (e *Element) SetDisplay(v string) { e.SetStyle("display", v) }

// Text returns the concatenated text content.
func (e *Element) Text() string {
	var b strings.Builder
	walk(e.n, func(n *html.Node) bool {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		return true
	})
	return b.String()
}

// SetText replaces all children with a single text node.
func (e *Element) SetText(s string) {
	e.Clear()
	e.n.AppendChild(&html.Node{Type: html.TextNode, Data: s})
}

// Clear removes all children.
func (e *Element) Clear() {
	for c := e.n.FirstChild; c != nil; {
		next := c.NextSibling
		e.n.RemoveChild(c)
		c = next
	}
}

// Append adds a detached element as the last child. Attached elements are
// moved.
func (e *Element) Append(child *Element) {
	if child.n.Parent != nil {
		child.n.Parent.RemoveChild(child.n)
	}
	e.n.AppendChild(child.n)
}

// AppendText adds a text node as the last child.
func (e *Element) AppendText(s string) {
	e.n.AppendChild(&html.Node{Type: html.TextNode, Data: s})
}

// Children returns the element children.
func (e *Element) Children() []*Element {
	var out []*Element
	for c := e.n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, &Element{n: c})
		}
	}
	return out
}

// InnerHTML renders the element's children.
func (e *Element) InnerHTML() string {
	var buf bytes.Buffer
	for c := e.n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return ""
		}
	}
	return buf.String()
}

// OuterHTML renders the element itself.
func (e *Element) OuterHTML() string {
	var buf bytes.Buffer
	if err := html.Render(&buf, e.n); err != nil {
		return ""
	}
	return buf.String()
}

// SetInnerHTML parses markup in the element's context and replaces its
// children.
func (e *Element) SetInnerHTML(markup string) error {
	context := &html.Node{Type: html.ElementNode, Data: e.n.Data, DataAtom: e.n.DataAtom}
	if context.DataAtom == 0 {
		context.DataAtom = atom.Div
		context.Data = "div"
	}
	nodes, err := html.ParseFragment(strings.NewReader(markup), context)
	if err != nil {
		return err
	}
	e.Clear()
	for _, n := range nodes {
		e.n.AppendChild(n)
	}
	return nil
}
