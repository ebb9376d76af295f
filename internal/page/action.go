package page

// Action types accepted by Dispatch.
const (
	ActSetLang         = "set_lang"
	ActToggleTheme     = "toggle_theme"
	ActToggleMenu      = "toggle_menu"
	ActNavigate        = "navigate"
	ActToggleAssistant = "toggle_assistant"
	ActChatSend        = "chat_send"
	ActGalleryFilter   = "gallery_filter"
	ActGalleryView     = "gallery_view"
	ActGalleryReload   = "gallery_reload"
	ActLightboxOpen    = "lightbox_open"
	ActLightboxNext    = "lightbox_next"
	ActLightboxPrev    = "lightbox_prev"
	ActLightboxClose   = "lightbox_close"
)

// Action is one user interaction. Arguments arrive as strings, the way
// the browser reads them from data attributes and inputs.
type Action struct {
	Type  string `json:"type"`
	Lang  string `json:"lang,omitempty"`
	Href  string `json:"href,omitempty"`
	Text  string `json:"text,omitempty"`
	Tag   string `json:"tag,omitempty"`
	Mode  string `json:"mode,omitempty"`
	Index string `json:"index,omitempty"`
}

// Frame types pushed to the client.
const (
	FrameRender   = "render"
	FrameNavigate = "navigate"
)

// Frame is one update for the client: either the whole document or a
// location to load.
type Frame struct {
	Type string `json:"type"`
	Seq  uint64 `json:"seq"`
	HTML string `json:"html,omitempty"`
	URL  string `json:"url,omitempty"`
}
