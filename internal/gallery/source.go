package gallery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"golang.org/x/net/html"
)

// Source produces a media listing.
type Source interface {
	Fetch(ctx context.Context) ([]Item, error)
}

// maxListingBytes bounds how much of a listing response is read.
const maxListingBytes = 8 << 20

func get(ctx context.Context, client *http.Client, rawURL string, header http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building listing request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching listing: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetching listing: %s returned %s", rawURL, resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxListingBytes))
	if err != nil {
		return nil, fmt.Errorf("reading listing: %w", err)
	}
	return body, nil
}

func newClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// GitHubSource reads a repository contents listing.
type GitHubSource struct {
	URL    string
	Token  string
	client *http.Client
}

// NewGitHubSource creates a source for a contents API URL such as
// https://api.github.com/repos/OWNER/REPO/contents/PATH.
func NewGitHubSource(rawURL, token string, timeout time.Duration) *GitHubSource {
	return &GitHubSource{URL: rawURL, Token: token, client: newClient(timeout)}
}

type contentEntry struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	DownloadURL string `json:"download_url"`
}

// Fetch returns the media files of the listing in listing order.
func (s *GitHubSource) Fetch(ctx context.Context) ([]Item, error) {
	header := http.Header{}
	header.Set("Accept", "application/vnd.github+json")
	if s.Token != "" {
		header.Set("Authorization", "Bearer "+s.Token)
	}
	body, err := get(ctx, s.client, s.URL, header)
	if err != nil {
		return nil, err
	}
	var entries []contentEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("decoding listing: %w", err)
	}

	items := make([]Item, 0, len(entries))
	for _, e := range entries {
		if e.Type != "file" || e.DownloadURL == "" || !IsMedia(e.Name) {
			continue
		}
		items = append(items, NewItem(e.Name, e.DownloadURL))
	}
	return items, nil
}

// IndexSource scrapes image links out of an HTML directory index.
type IndexSource struct {
	URL    string
	client *http.Client
}

// NewIndexSource creates a source for an autoindex-style page.
func NewIndexSource(rawURL string, timeout time.Duration) *IndexSource {
	return &IndexSource{URL: rawURL, client: newClient(timeout)}
}

// Fetch returns one image item per distinct linked image.
func (s *IndexSource) Fetch(ctx context.Context) ([]Item, error) {
	base, err := url.Parse(s.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing index url: %w", err)
	}
	body, err := get(ctx, s.client, s.URL, nil)
	if err != nil {
		return nil, err
	}
	hrefs, err := scrapeHrefs(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing index: %w", err)
	}

	seen := make(map[string]bool)
	var items []Item
	for _, href := range hrefs {
		ref, err := url.Parse(href)
		if err != nil || !IsImage(ref.Path) {
			continue
		}
		abs := base.ResolveReference(ref).String()
		if seen[abs] {
			continue
		}
		seen[abs] = true

		name := path.Base(ref.Path)
		if unescaped, err := url.PathUnescape(name); err == nil {
			name = unescaped
		}
		items = append(items, Item{
			Name:    name,
			Source:  abs,
			Kind:    KindImage,
			Caption: DeriveCaption(name),
		})
	}
	return items, nil
}

// scrapeHrefs returns every href attribute value in document order.
func scrapeHrefs(r io.Reader) ([]string, error) {
	z := html.NewTokenizer(r)
	var hrefs []string
	for {
		switch z.Next() {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return hrefs, nil
			}
			return nil, z.Err()
		case html.StartTagToken, html.SelfClosingTagToken:
			_, hasAttr := z.TagName()
			for hasAttr {
				var key, val []byte
				key, val, hasAttr = z.TagAttr()
				if string(key) == "href" {
					hrefs = append(hrefs, string(val))
				}
			}
		}
	}
}
