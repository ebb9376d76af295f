// Package countdown renders the time remaining until the festival opens.
package countdown

import (
	"cmp"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/bunkasai/festival/internal/dom"
)

// Parts is a remaining duration decomposed into whole units.
type Parts struct {
	Days, Hours, Minutes, Seconds int64
}

// TotalSeconds reassembles the decomposed duration.
func (p Parts) TotalSeconds() int64 {
	return p.Days*86400 + p.Hours*3600 + p.Minutes*60 + p.Seconds
}

// Split decomposes a non-negative duration, flooring to whole seconds.
func Split(remaining time.Duration) Parts {
	s := int64(remaining / time.Second)
	if s < 0 {
		s = 0
	}
	return Parts{
		Days:    s / 86400,
		Hours:   (s / 3600) % 24,
		Minutes: (s / 60) % 60,
		Seconds: s % 60,
	}
}

// Messages are the countdown strings. The Remaining formats take the
// placeholders {d}, {h}, {m} and {s}.
type Messages struct {
	RemainingJP  string
	RemainingEN  string
	InProgressJP string
	InProgressEN string
}

// DefaultMessages are the built-in festival strings.
var DefaultMessages = Messages{
	RemainingJP:  "文化祭まで：{d}日 {h}時間 {m}分 {s}秒",
	RemainingEN:  "Until festival: {d}d {h}h {m}m {s}s",
	InProgressJP: "文化祭開催中！",
	InProgressEN: "Festival is happening now!",
}

// withDefaults fills every empty string from DefaultMessages.
func (m Messages) withDefaults() Messages {
	m.RemainingJP = cmp.Or(m.RemainingJP, DefaultMessages.RemainingJP)
	m.RemainingEN = cmp.Or(m.RemainingEN, DefaultMessages.RemainingEN)
	m.InProgressJP = cmp.Or(m.InProgressJP, DefaultMessages.InProgressJP)
	m.InProgressEN = cmp.Or(m.InProgressEN, DefaultMessages.InProgressEN)
	return m
}

// Format fills the {d} {h} {m} {s} placeholders of format.
func (p Parts) Format(format string) string {
	return strings.NewReplacer(
		"{d}", strconv.FormatInt(p.Days, 10),
		"{h}", strconv.FormatInt(p.Hours, 10),
		"{m}", strconv.FormatInt(p.Minutes, 10),
		"{s}", strconv.FormatInt(p.Seconds, 10),
	).Replace(format)
}

// Text renders the Japanese and English countdown strings. Empty messages
// fall back to DefaultMessages.
func Text(target, now time.Time, msgs Messages) (jp, en string) {
	msgs = msgs.withDefaults()
	remaining := target.Sub(now)
	if remaining <= 0 {
		return msgs.InProgressJP, msgs.InProgressEN
	}
	p := Split(remaining)
	return p.Format(msgs.RemainingJP), p.Format(msgs.RemainingEN)
}

// Component writes the countdown into a page.
type Component struct {
	doc    *dom.Document
	clock  clockwork.Clock
	target time.Time
	msgs   Messages
}

// New creates a countdown toward target.
func New(doc *dom.Document, clock clockwork.Clock, target time.Time, msgs Messages) *Component {
	return &Component{doc: doc, clock: clock, target: target, msgs: msgs.withDefaults()}
}

// Update recomputes both strings. It does nothing unless both targets exist.
func (c *Component) Update() {
	jpEl, enEl := c.doc.ByID(dom.IDCountdownJP), c.doc.ByID(dom.IDCountdownEN)
	if jpEl == nil || enEl == nil {
		return
	}
	jp, en := c.Current()
	jpEl.SetText(jp)
	enEl.SetText(en)
}

// Current returns the strings for the clock's present time.
func (c *Component) Current() (jp, en string) {
	return Text(c.target, c.clock.Now(), c.msgs)
}

// Target returns the countdown target.
func (c *Component) Target() time.Time { return c.target }
