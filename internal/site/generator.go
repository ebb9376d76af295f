// Package site builds a static export of the festival site. Pages are
// rendered through the same page components the server uses, in their
// default state, and markdown content is wrapped into the layout page.
package site

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/yuin/goldmark"
	"golang.org/x/sync/errgroup"

	"github.com/bunkasai/festival/internal/chat"
	"github.com/bunkasai/festival/internal/config"
	"github.com/bunkasai/festival/internal/dom"
	"github.com/bunkasai/festival/internal/gallery"
	"github.com/bunkasai/festival/internal/locale"
	"github.com/bunkasai/festival/internal/logging"
	"github.com/bunkasai/festival/internal/page"
	"github.com/bunkasai/festival/internal/prefs"
	"github.com/bunkasai/festival/internal/progress"
)

type jobKind int

const (
	jobPage jobKind = iota
	jobContent
	jobAsset
)

type job struct {
	kind jobKind
	rel  string
}

// Generator renders the site directory into the output directory.
type Generator struct {
	cfg       *config.Config
	listing   gallery.Source
	responder *chat.Responder
	reporter  progress.Reporter
	matcher   Matcher
	md        goldmark.Markdown
	log       zerolog.Logger

	// Clock and Shuffle default to the real clock and a random order.
	Clock   clockwork.Clock
	Shuffle gallery.Shuffler

	layout []byte
}

// NewGenerator creates a generator. listing may be nil for sites without
// a gallery.
func NewGenerator(cfg *config.Config, listing gallery.Source, responder *chat.Responder, reporter progress.Reporter) *Generator {
	return &Generator{
		cfg:       cfg,
		listing:   listing,
		responder: responder,
		reporter:  reporter,
		matcher:   Matcher{Include: cfg.Site.Include, Exclude: cfg.Site.Exclude},
		md:        newMarkdown(),
		log:       logging.Component("site"),
		Clock:     clockwork.NewRealClock(),
	}
}

// Generate builds the site and returns the number of pages written.
func (g *Generator) Generate(ctx context.Context) (int, error) {
	jobs, err := g.collect()
	if err != nil {
		return 0, err
	}

	pages := 0
	for _, j := range jobs {
		if j.kind != jobAsset {
			pages++
		}
		if j.kind == jobContent && g.layout == nil {
			layout, err := os.ReadFile(filepath.Join(g.cfg.Site.Dir, filepath.FromSlash(g.cfg.Site.Layout)))
			if err != nil {
				return 0, fmt.Errorf("reading layout: %w", err)
			}
			g.layout = layout
		}
	}
	if pages == 0 {
		return 0, fmt.Errorf("no pages found in %s", g.cfg.Site.Dir)
	}

	if err := os.MkdirAll(g.cfg.Site.OutputDir, 0o755); err != nil {
		return 0, err
	}

	g.reporter.Start(pages)
	defer g.reporter.Finish()

	var mu sync.Mutex
	done := 0
	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for _, j := range jobs {
		eg.Go(func() error {
			if err := g.process(ectx, j); err != nil {
				return fmt.Errorf("building %s: %w", j.rel, err)
			}
			if j.kind != jobAsset {
				mu.Lock()
				done++
				g.reporter.Update(done, j.rel)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return 0, err
	}
	g.log.Info().Int("pages", pages).Str("output", g.cfg.Site.OutputDir).Msg("site built")
	return pages, nil
}

// collect walks the site directory and classifies every file.
func (g *Generator) collect() ([]job, error) {
	outAbs, _ := filepath.Abs(g.cfg.Site.OutputDir)
	contentPrefix := strings.Trim(filepath.ToSlash(g.cfg.Site.ContentDir), "/") + "/"

	var jobs []job
	err := filepath.WalkDir(g.cfg.Site.Dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if abs, _ := filepath.Abs(p); abs == outAbs || (p != g.cfg.Site.Dir && shouldSkipDir(d.Name())) {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(g.cfg.Site.Dir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		switch {
		case rel == g.cfg.Site.Layout:
			// Only a frame for content pages.
		case strings.HasPrefix(rel, contentPrefix) && strings.HasSuffix(rel, ".md"):
			jobs = append(jobs, job{kind: jobContent, rel: rel})
		case g.matcher.IsPage(rel):
			jobs = append(jobs, job{kind: jobPage, rel: rel})
		default:
			jobs = append(jobs, job{kind: jobAsset, rel: rel})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking site dir: %w", err)
	}
	return jobs, nil
}

func (g *Generator) process(ctx context.Context, j job) error {
	switch j.kind {
	case jobPage:
		tmpl, err := os.ReadFile(g.sourcePath(j.rel))
		if err != nil {
			return err
		}
		p, err := g.render(ctx, j.rel, tmpl)
		if err != nil {
			return err
		}
		return g.write(j.rel, p.HTML())
	case jobContent:
		return g.renderContent(ctx, j.rel)
	default:
		return g.copy(j.rel)
	}
}

// render builds a page in its default state: no stored preferences and
// the configured default language.
func (g *Generator) render(ctx context.Context, name string, tmpl []byte) (*page.Page, error) {
	cfg, err := page.FromConfig(g.cfg, name, tmpl)
	if err != nil {
		return nil, err
	}
	cfg.ID = "build"
	if cfg.DefaultLang == locale.JP {
		cfg.AcceptLanguage = "ja"
	} else {
		cfg.AcceptLanguage = "en"
	}
	p, err := page.New(cfg, page.Deps{
		Prefs:     prefs.NewStore(prefs.NewMemory().Scope("build")),
		Responder: g.responder,
		Listing:   g.listing,
		Clock:     g.Clock,
		Shuffle:   g.Shuffle,
	})
	if err != nil {
		return nil, err
	}
	p.InitSync(ctx)
	return p, nil
}

// renderContent converts a markdown file and places it into the layout's
// #content element.
func (g *Generator) renderContent(ctx context.Context, rel string) error {
	src, err := os.ReadFile(g.sourcePath(rel))
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := g.md.Convert(src, &buf); err != nil {
		return fmt.Errorf("converting markdown: %w", err)
	}

	out := mdPathToHTML(rel)
	p, err := g.render(ctx, out, g.layout)
	if err != nil {
		return err
	}
	doc := p.Document()
	content := doc.ByID(dom.IDContent)
	if content == nil {
		return fmt.Errorf("layout %s has no #%s element", g.cfg.Site.Layout, dom.IDContent)
	}
	if err := content.SetInnerHTML(rewriteMDLinks(buf.String())); err != nil {
		return fmt.Errorf("placing content: %w", err)
	}
	if titles := doc.ByTag("title"); len(titles) > 0 {
		titles[0].SetText(extractTitle(string(src), rel))
	}
	return g.write(out, p.HTML())
}

func (g *Generator) sourcePath(rel string) string {
	return filepath.Join(g.cfg.Site.Dir, filepath.FromSlash(rel))
}

func (g *Generator) outputPath(rel string) (string, error) {
	if !fs.ValidPath(path.Clean(rel)) {
		return "", errors.New("invalid output path")
	}
	out := filepath.Join(g.cfg.Site.OutputDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return "", err
	}
	return out, nil
}

func (g *Generator) write(rel, html string) error {
	out, err := g.outputPath(rel)
	if err != nil {
		return err
	}
	return os.WriteFile(out, []byte(html), 0o644)
}

func (g *Generator) copy(rel string) error {
	out, err := g.outputPath(rel)
	if err != nil {
		return err
	}
	src, err := os.Open(g.sourcePath(rel))
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(out)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}
