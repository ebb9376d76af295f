package server

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/bunkasai/festival/internal/dom"
	"github.com/bunkasai/festival/internal/page"
	"github.com/bunkasai/festival/internal/prefs"
)

// indexPage is served for directory requests.
const indexPage = "index.html"

// pageName maps a request path to a site-relative page name.
func pageName(urlPath string) string {
	name := strings.TrimPrefix(path.Clean("/"+urlPath), "/")
	if name == "" || strings.HasSuffix(urlPath, "/") {
		name = path.Join(name, indexPage)
	}
	return name
}

// readPage loads a page template from the site directory.
func (s *Server) readPage(name string) ([]byte, error) {
	if !fs.ValidPath(name) || !s.matcher.IsPage(name) {
		return nil, fs.ErrNotExist
	}
	return fs.ReadFile(os.DirFS(s.cfg.Site.Dir), name)
}

// store returns the visitor's preference store.
func (s *Server) store(r *http.Request) *prefs.Store {
	return prefs.NewStore(s.deps.Prefs.Scope(visitorID(r)))
}

// newPage builds a page session for the requesting visitor.
func (s *Server) newPage(r *http.Request, name string, tmpl []byte) (*page.Page, error) {
	cfg, err := page.FromConfig(s.cfg, name, tmpl)
	if err != nil {
		return nil, err
	}
	cfg.ID = uuid.NewString()
	cfg.AcceptLanguage = r.Header.Get("Accept-Language")

	deps := page.Deps{
		Prefs:     s.store(r),
		Responder: s.deps.Responder,
		Clock:     s.deps.Clock,
		Shuffle:   s.deps.Shuffle,
	}
	// A nil *gallery.Cache must stay a nil Source.
	if s.deps.Listing != nil {
		deps.Listing = s.deps.Listing
	}
	s.touchVisitor(r.Context(), visitorID(r))
	return page.New(cfg, deps)
}

func (s *Server) touchVisitor(ctx context.Context, id string) {
	if s.deps.DB == nil || id == "" {
		return
	}
	if err := s.deps.DB.TouchVisitor(ctx, id, s.deps.Clock.Now()); err != nil {
		s.log.Warn().Err(err).Msg("recording visitor")
	}
}

// handleSite renders pages with the visitor's state and serves every
// other path from the site directory.
func (s *Server) handleSite(w http.ResponseWriter, r *http.Request) {
	name := pageName(r.URL.Path)
	tmpl, err := s.readPage(name)
	if errors.Is(err, fs.ErrNotExist) {
		http.FileServer(http.Dir(s.cfg.Site.Dir)).ServeHTTP(w, r)
		return
	}
	if err != nil {
		s.log.Error().Err(err).Str("page", name).Msg("reading page")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	p, err := s.newPage(r, name, tmpl)
	if err != nil {
		s.log.Error().Err(err).Str("page", name).Msg("building page")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	p.InitSync(r.Context())
	injectRuntime(p.Document(), name)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := p.Document().Render(w); err != nil {
		s.log.Warn().Err(err).Str("page", name).Msg("writing page")
	}
}

// injectRuntime adds the client script that connects the page to its
// live session.
func injectRuntime(doc *dom.Document, name string) {
	body := doc.Body()
	if body == nil {
		return
	}
	body.SetAttr("data-festival-page", name)
	script := dom.NewElement("script", dom.A("id", "festival-runtime"))
	script.AppendText(clientScript)
	body.Append(script)
}
