package dom

import (
	"strings"
	"testing"
)

const testPage = `<!DOCTYPE html>
<html><head><link id="theme-style" rel="stylesheet" href="css/style.css"></head>
<body class="page">
<nav id="nav-menu" style="display: none"><a class="nav-link" href="about.html">About</a><a href="https://example.com">Out</a></nav>
<p class="lang-jp">こんにちは</p>
<p class="lang-en intro">Hello</p>
<div id="gallery" class="grid"></div>
</body></html>`

func mustParse(t *testing.T) *Document {
	t.Helper()
	doc, err := ParseString(testPage)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	return doc
}

func TestByIDAndClass(t *testing.T) {
	doc := mustParse(t)

	if el := doc.ByID(IDNavMenu); el == nil || el.Tag() != "nav" {
		t.Fatalf("ByID(%q) = %v, want nav element", IDNavMenu, el)
	}
	if el := doc.ByID("missing"); el != nil {
		t.Errorf("ByID(missing) = %v, want nil", el)
	}
	if got := len(doc.ByClass("lang-en")); got != 1 {
		t.Errorf("ByClass(lang-en) = %d elements, want 1", got)
	}
	if got := len(doc.Select("a", "nav-link")); got != 1 {
		t.Errorf("Select(a.nav-link) = %d elements, want 1", got)
	}
	if got := len(doc.Select("a", "")); got != 2 {
		t.Errorf("Select(a) = %d elements, want 2", got)
	}
	if doc.Body() == nil || doc.Head() == nil {
		t.Error("expected body and head")
	}
}

func TestClasses(t *testing.T) {
	doc := mustParse(t)
	body := doc.Body()

	body.AddClass("fade-in")
	body.AddClass("fade-in")
	if got := strings.Join(body.Classes(), " "); got != "page fade-in" {
		t.Errorf("classes = %q, want %q", got, "page fade-in")
	}

	if on := body.ToggleClass("page"); on {
		t.Error("ToggleClass(page) should report removal")
	}
	body.RemoveClass("fade-in")
	if _, ok := body.Attr("class"); ok {
		t.Error("empty class list should drop the attribute")
	}
}

func TestStyle(t *testing.T) {
	doc := mustParse(t)
	menu := doc.ByID(IDNavMenu)

	if got := menu.Display(); got != "none" {
		t.Errorf("Display() = %q, want none", got)
	}
	menu.SetStyle("background-image", "url(https://example.com/a.jpg)")
	menu.SetDisplay("block")
	if got, _ := menu.Attr("style"); got != "display: block; background-image: url(https://example.com/a.jpg)" {
		t.Errorf("style = %q", got)
	}
	if got := menu.Style("background-image"); got != "url(https://example.com/a.jpg)" {
		t.Errorf("Style(background-image) = %q", got)
	}
	menu.SetStyle("display", "")
	menu.SetStyle("background-image", "")
	if _, ok := menu.Attr("style"); ok {
		t.Error("removing every property should drop the style attribute")
	}
}

func TestTextIsEscaped(t *testing.T) {
	doc := mustParse(t)
	g := doc.ByID(IDGallery)

	div := NewElement("div", A("class", "user-msg"))
	div.SetText("<script>alert(1)</script>")
	g.Append(div)

	out := g.InnerHTML()
	if strings.Contains(out, "<script>") {
		t.Errorf("text was not escaped: %s", out)
	}
	if div.Text() != "<script>alert(1)</script>" {
		t.Errorf("Text() = %q", div.Text())
	}
}

func TestSetInnerHTMLAndClear(t *testing.T) {
	doc := mustParse(t)
	g := doc.ByID(IDGallery)

	if err := g.SetInnerHTML(`<img src="a.jpg"><p>caption</p>`); err != nil {
		t.Fatalf("SetInnerHTML: %v", err)
	}
	if got := len(g.Children()); got != 2 {
		t.Fatalf("children = %d, want 2", got)
	}
	g.Clear()
	if g.InnerHTML() != "" {
		t.Errorf("Clear left %q", g.InnerHTML())
	}
}

func TestRenderRoundTrip(t *testing.T) {
	doc := mustParse(t)
	doc.ByID(IDThemeStyle).SetAttr("href", "css/dark.css")

	again, err := ParseString(doc.String())
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if href, _ := again.ByID(IDThemeStyle).Attr("href"); href != "css/dark.css" {
		t.Errorf("href = %q, want css/dark.css", href)
	}
}
