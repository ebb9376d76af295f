package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/bunkasai/festival/internal/countdown"
	"github.com/bunkasai/festival/internal/gallery"
	"github.com/bunkasai/festival/internal/locale"
	"github.com/bunkasai/festival/internal/prefs"
)

// prefsResponse is the visitor's stored state.
type prefsResponse struct {
	Lang     locale.Lang `json:"lang"`
	DarkMode bool        `json:"dark_mode"`
}

// prefsUpdate changes any subset of the preferences.
type prefsUpdate struct {
	Lang     *string `json:"lang"`
	DarkMode *bool   `json:"dark_mode"`
}

type countdownResponse struct {
	Target  time.Time `json:"target"`
	Started bool      `json:"started"`
	Days    int64     `json:"days"`
	Hours   int64     `json:"hours"`
	Minutes int64     `json:"minutes"`
	Seconds int64     `json:"seconds"`
	JP      string    `json:"jp"`
	EN      string    `json:"en"`
}

type chatRequest struct {
	Text string `json:"text"`
	Lang string `json:"lang"`
}

type chatResponse struct {
	Lang  locale.Lang `json:"lang"`
	Reply string      `json:"reply"`
}

type galleryResponse struct {
	Items     []gallery.Item `json:"items"`
	Tags      []string       `json:"tags"`
	FetchedAt time.Time      `json:"fetched_at"`
}

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 64 << 10

// resolvePrefs reads the visitor's state, detecting and persisting the
// language on first contact the same way a page load does.
func (s *Server) resolvePrefs(r *http.Request, store *prefs.Store) prefsResponse {
	ctrl := locale.NewController(store, nil, "")
	return prefsResponse{
		Lang:     ctrl.Resolve(r.Context(), r.Header.Get("Accept-Language")),
		DarkMode: store.DarkMode(r.Context()),
	}
}

func (s *Server) handleGetPrefs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.resolvePrefs(r, s.store(r)))
}

func (s *Server) handlePutPrefs(w http.ResponseWriter, r *http.Request) {
	var req prefsUpdate
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	store := s.store(r)
	ctx := r.Context()
	if req.Lang != nil {
		lang, err := locale.Parse(*req.Lang)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := store.SetLang(ctx, string(lang)); err != nil {
			writeError(w, http.StatusInternalServerError, "saving preferences failed")
			return
		}
	}
	if req.DarkMode != nil {
		if err := store.SetDarkMode(ctx, *req.DarkMode); err != nil {
			writeError(w, http.StatusInternalServerError, "saving preferences failed")
			return
		}
	}
	writeJSON(w, http.StatusOK, s.resolvePrefs(r, store))
}

func (s *Server) handleToggleTheme(w http.ResponseWriter, r *http.Request) {
	store := s.store(r)
	if err := store.SetDarkMode(r.Context(), !store.DarkMode(r.Context())); err != nil {
		writeError(w, http.StatusInternalServerError, "saving preferences failed")
		return
	}
	writeJSON(w, http.StatusOK, s.resolvePrefs(r, store))
}

func (s *Server) handleCountdown(w http.ResponseWriter, r *http.Request) {
	target, err := s.cfg.CountdownTarget()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	now := s.deps.Clock.Now()
	c := s.cfg.Countdown
	msgs := countdown.Messages{
		RemainingJP:  c.RemainingJP,
		RemainingEN:  c.RemainingEN,
		InProgressJP: c.InProgressJP,
		InProgressEN: c.InProgressEN,
	}
	resp := countdownResponse{Target: target, Started: !target.After(now)}
	if !resp.Started {
		p := countdown.Split(target.Sub(now))
		resp.Days, resp.Hours, resp.Minutes, resp.Seconds = p.Days, p.Hours, p.Minutes, p.Seconds
	}
	resp.JP, resp.EN = countdown.Text(target, now, msgs)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.deps.Responder == nil {
		writeError(w, http.StatusServiceUnavailable, "assistant not configured")
		return
	}
	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var lang locale.Lang
	if req.Lang != "" {
		parsed, err := locale.Parse(req.Lang)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		lang = parsed
	} else {
		lang = s.resolvePrefs(r, s.store(r)).Lang
	}

	reply, ok := s.deps.Responder.Reply(string(lang), req.Text)
	if !ok {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Lang: lang, Reply: reply})
}

func (s *Server) handleGallery(w http.ResponseWriter, r *http.Request) {
	if s.deps.Listing == nil {
		writeError(w, http.StatusServiceUnavailable, "gallery listing not configured")
		return
	}
	items, err := s.deps.Listing.Fetch(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "listing unavailable")
		return
	}

	tags := distinctTags(items)
	if tag := r.URL.Query().Get("tag"); tag != "" {
		filtered := make([]gallery.Item, 0, len(items))
		for _, it := range items {
			if it.HasTag(tag) {
				filtered = append(filtered, it)
			}
		}
		items = filtered
	}
	if items == nil {
		items = []gallery.Item{}
	}
	writeJSON(w, http.StatusOK, galleryResponse{Items: items, Tags: tags, FetchedAt: s.deps.Listing.FetchedAt()})
}

func (s *Server) handleGalleryReload(w http.ResponseWriter, r *http.Request) {
	if s.deps.Listing == nil {
		writeError(w, http.StatusServiceUnavailable, "gallery listing not configured")
		return
	}
	err := s.deps.Listing.RequestRefresh(r.Context())
	switch {
	case errors.Is(err, gallery.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, err.Error())
	case err != nil:
		writeError(w, http.StatusBadGateway, "listing unavailable")
	default:
		writeJSON(w, http.StatusOK, map[string]int{"items": len(s.deps.Listing.Snapshot())})
	}
}

// distinctTags returns the sorted tag set of items.
func distinctTags(items []gallery.Item) []string {
	tags := gallery.Tags(items)
	if tags == nil {
		tags = []string{}
	}
	return tags
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.New("invalid request body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
