package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/bunkasai/festival/internal/page"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 16 << 10
)

var errClientGone = errors.New("client disconnected")

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("page")
	if name == "" {
		name = indexPage
	}
	tmpl, err := s.readPage(name)
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown page")
		return
	}
	p, err := s.newPage(r, name, tmpl)
	if err != nil {
		s.log.Error().Err(err).Str("page", name).Msg("building page")
		writeError(w, http.StatusInternalServerError, "building page failed")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade")
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageSize)

	p.Init(r.Context())

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error { return p.Run(ctx) })
	g.Go(func() error { return s.writeFrames(ctx, conn, p) })
	g.Go(func() error { return s.readActions(ctx, conn, p) })
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	if err := g.Wait(); err != nil && !errors.Is(err, errClientGone) {
		s.log.Debug().Err(err).Str("page", name).Msg("page session ended")
	}
}

// readActions decodes client messages and hands them to the page loop.
func (s *Server) readActions(ctx context.Context, conn *websocket.Conn, p *page.Page) error {
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug().Err(err).Msg("websocket read")
			}
			return errClientGone
		}

		var a page.Action
		if err := json.Unmarshal(msg, &a); err != nil || a.Type == "" {
			s.log.Debug().Int("bytes", len(msg)).Msg("dropping malformed action")
			continue
		}
		if err := p.Dispatch(ctx, a); err != nil {
			return err
		}
	}
}

// writeFrames streams page frames until the session ends.
func (s *Server) writeFrames(ctx context.Context, conn *websocket.Conn, p *page.Page) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-p.Done():
			return nil
		case f := <-p.Frames():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(f); err != nil {
				return err
			}
		}
	}
}
