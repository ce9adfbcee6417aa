package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/example/tokenreplay/internal/playback"
	"github.com/example/tokenreplay/internal/present"
	"github.com/example/tokenreplay/internal/share"
	"github.com/example/tokenreplay/internal/stream"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// session is one remote player: its own index and playback loop, driven by
// JSON commands read from the socket and reporting frames back over it.
type session struct {
	conn   *websocket.Conn
	loop   *playback.Loop
	frames chan present.Frame
	limit  int
	log    *slog.Logger
}

func (h *handler) handleSession(w http.ResponseWriter, r *http.Request) {
	text := share.Restore(r.URL.String(), h.opts.shareParam, "", h.log)
	if len(text) > h.opts.maxTextBytes {
		h.log.WarnContext(r.Context(), "shared document too large; starting empty",
			slog.Int("text_len", len(text)),
		)
		text = ""
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WarnContext(r.Context(), "websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	speed := h.opts.speed
	if raw := r.URL.Query().Get("speed"); raw != "" {
		if s, err := playback.ParseSpeed(raw); err == nil {
			speed = s
		} else {
			h.log.DebugContext(r.Context(), "ignoring session speed", slog.String("error", err.Error()))
		}
	}

	x := stream.New(h.vocab, stream.WithLogger(h.log))
	x.Reset(text)

	s := &session{
		conn:   conn,
		frames: make(chan present.Frame, 64),
		limit:  h.opts.maxTextBytes,
		log:    h.log.With(slog.String("remote", r.RemoteAddr)),
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	s.loop = playback.NewLoop(x,
		playback.WithSpeed(speed),
		playback.WithAutoplay(h.opts.autoplay),
		playback.WithLoopLogger(s.log),
		playback.WithObserver(func(f present.Frame) {
			select {
			case s.frames <- f:
			case <-ctx.Done():
			}
		}),
	)

	s.log.Info("player session opened", slog.Int("tokens", x.Len()))

	if err := s.run(ctx, cancel); err != nil {
		s.log.Warn("player session ended", slog.String("error", err.Error()))
		return
	}

	s.log.Info("player session closed")
}

// run blocks until the client goes away or ctx is cancelled. Each pump cancels
// the shared context on exit so the others follow.
func (s *session) run(ctx context.Context, cancel context.CancelFunc) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		return s.loop.Run(gctx)
	})
	g.Go(func() error {
		defer cancel()
		return s.writePump(gctx)
	})
	g.Go(func() error {
		defer cancel()
		return s.readPump(gctx)
	})

	return g.Wait()
}

func (s *session) writePump(ctx context.Context) error {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			_ = s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))

			return nil
		case f := <-s.frames:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(f); err != nil {
				return err
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
		}
	}
}

func (s *session) readPump(ctx context.Context) error {
	// Room for a full document plus the command envelope.
	s.conn.SetReadLimit(int64(s.limit) + 1024)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}

			return err
		}

		var cmd playback.Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			s.log.Debug("ignoring malformed command", slog.String("error", err.Error()))
			continue
		}

		op, err := playback.ParseOp(string(cmd.Op))
		if err != nil {
			s.log.Debug("ignoring unknown command", slog.String("error", err.Error()))
			continue
		}
		cmd.Op = op

		if cmd.Op == playback.OpLoad && len(cmd.Text) > s.limit {
			s.log.Warn("ignoring oversized document", slog.Int("text_len", len(cmd.Text)))
			continue
		}

		if err := s.loop.Send(ctx, cmd); err != nil {
			if errors.Is(err, playback.ErrLoopClosed) || ctx.Err() != nil {
				return nil
			}

			return err
		}
	}
}
