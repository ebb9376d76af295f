// Package chat implements the festival assistant: canned replies looked
// up by exact keyword, one table per language.
package chat

import (
	"fmt"
	"strings"

	"github.com/bunkasai/festival/internal/dom"
)

// DefaultKey is the table entry used when nothing matches.
const DefaultKey = "default"

// Table maps a normalized question to its reply.
type Table map[string]string

// Responder looks replies up in per-language tables.
type Responder struct {
	tables map[string]Table
}

// NewResponder validates and copies the tables. Every table needs a
// default entry.
func NewResponder(tables map[string]map[string]string) (*Responder, error) {
	r := &Responder{tables: make(map[string]Table, len(tables))}
	for lang, entries := range tables {
		if _, ok := entries[DefaultKey]; !ok {
			return nil, fmt.Errorf("chat table %q has no %q entry", lang, DefaultKey)
		}
		t := make(Table, len(entries))
		for k, v := range entries {
			t[strings.ToLower(k)] = v
		}
		r.tables[lang] = t
	}
	return r, nil
}

// Reply trims and lowercases raw and returns the exact-match reply for
// lang, or that language's default. ok is false for blank input or an
// unknown language.
func (r *Responder) Reply(lang, raw string) (reply string, ok bool) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", false
	}
	table, found := r.tables[lang]
	if !found {
		return "", false
	}
	if v, hit := table[strings.ToLower(text)]; hit {
		return v, true
	}
	return table[DefaultKey], true
}

// Role identifies the author of a transcript turn.
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// Turn is one line of the visible transcript.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Widget is the chat box of one page.
type Widget struct {
	doc        *dom.Document
	responder  *Responder
	transcript []Turn
}

// NewWidget binds a responder to a page.
func NewWidget(doc *dom.Document, responder *Responder) *Widget {
	return &Widget{doc: doc, responder: responder}
}

// Send answers raw in lang and appends the user and bot turns to the
// transcript, in that order. Blank input changes nothing.
func (w *Widget) Send(lang, raw string) bool {
	reply, ok := w.responder.Reply(lang, raw)
	if !ok {
		return false
	}
	text := strings.TrimSpace(raw)
	w.transcript = append(w.transcript,
		Turn{Role: RoleUser, Text: text},
		Turn{Role: RoleBot, Text: reply},
	)

	if chat := w.doc.ByID(dom.IDAssistantChat); chat != nil {
		user := dom.NewElement("div", dom.A("class", "user-msg"))
		user.SetText(text)
		bot := dom.NewElement("div", dom.A("class", "bot-msg"))
		bot.SetText(reply)
		chat.Append(user)
		chat.Append(bot)
		chat.SetAttr("data-scroll", "bottom")
	}
	if input := w.doc.ByID(dom.IDAssistantInput); input != nil {
		input.SetAttr("value", "")
	}
	return true
}

// Transcript returns a copy of the turns so far.
func (w *Widget) Transcript() []Turn {
	return append([]Turn(nil), w.transcript...)
}

// ToggleBox hides a shown assistant box and shows a hidden one.
func (w *Widget) ToggleBox() {
	box := w.doc.ByID(dom.IDAssistantBox)
	if box == nil {
		return
	}
	if box.Display() == "block" || box.Display() == "flex" {
		box.SetDisplay("none")
	} else {
		box.SetDisplay("flex")
	}
}
