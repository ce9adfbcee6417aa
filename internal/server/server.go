package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/example/tokenreplay/internal/config"
	"github.com/example/tokenreplay/internal/playback"
	"github.com/example/tokenreplay/internal/present"
	"github.com/example/tokenreplay/internal/share"
	"github.com/example/tokenreplay/internal/stream"
	"github.com/example/tokenreplay/internal/tokenizer"
)

// ParseLogLevel converts a case-insensitive level string to slog.Level.
// An empty string returns slog.LevelInfo. Unknown strings return an error.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (want debug|info|warn|error)", s)
	}
}

// ---------------------------------------------------------------------------
// Functional options
// ---------------------------------------------------------------------------

type options struct {
	maxTextBytes int
	shareBase    string
	shareParam   string
	speed        playback.Speed
	autoplay     bool
	logger       *slog.Logger
}

func defaultOptions() options {
	return options{
		maxTextBytes: 1 << 20,
		shareBase:    "http://localhost:8080/",
		shareParam:   share.DefaultParam,
		speed:        playback.DefaultSpeed,
		logger:       slog.Default(),
	}
}

// Option configures the HTTP handler.
type Option func(*options)

// WithMaxTextBytes sets the maximum document size accepted by any endpoint.
func WithMaxTextBytes(n int) Option {
	return func(o *options) { o.maxTextBytes = n }
}

// WithShareLink sets the base address and query parameter of share links.
func WithShareLink(base, param string) Option {
	return func(o *options) {
		o.shareBase = base
		if param != "" {
			o.shareParam = param
		}
	}
}

// WithPlayback sets the initial speed and autoplay of WebSocket sessions.
func WithPlayback(speed playback.Speed, autoplay bool) Option {
	return func(o *options) {
		o.speed = speed
		o.autoplay = autoplay
	}
}

// WithLogger sets the slog.Logger used for request logging.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// ---------------------------------------------------------------------------
// handler
// ---------------------------------------------------------------------------

type handler struct {
	vocab tokenizer.Vocabulary
	opts  options
	log   *slog.Logger
}

// NewHandler returns an http.Handler that serves /health, POST /tokenize,
// POST /share, GET /share/{token} and the /ws player sessions.
func NewHandler(vocab tokenizer.Vocabulary, optFns ...Option) http.Handler {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	h := &handler{
		vocab: vocab,
		opts:  opts,
		log:   opts.logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("POST /tokenize", h.handleTokenize)
	mux.HandleFunc("POST /share", h.handleShare)
	mux.HandleFunc("GET /share/{token}", h.handleRestore)
	mux.HandleFunc("GET /ws", h.handleSession)

	return mux
}

func buildVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}

	return "dev"
}

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ok",
		"version":  buildVersion(),
		"encoding": h.vocab.Name(),
	})
}

type textRequest struct {
	Text string `json:"text"`
}

type tokenizeResponse struct {
	Encoding string          `json:"encoding"`
	Count    int             `json:"count"`
	Tokens   []present.Token `json:"tokens"`
}

type shareResponse struct {
	Token string `json:"token"`
	URL   string `json:"url"`
}

// decodeText reads a textRequest and enforces the size limit. It writes the
// error response itself and reports whether the handler should continue.
func (h *handler) decodeText(w http.ResponseWriter, r *http.Request) (string, bool) {
	if r.Body == nil {
		writeError(w, http.StatusBadRequest, "request body is required")
		return "", false
	}

	// Room for the JSON envelope around a text of the maximum size.
	r.Body = http.MaxBytesReader(w, r.Body, int64(h.opts.maxTextBytes)+1024)

	var req textRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return "", false
		}

		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return "", false
	}

	if len(req.Text) > h.opts.maxTextBytes {
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("text exceeds maximum size of %d bytes", h.opts.maxTextBytes))
		return "", false
	}

	return req.Text, true
}

func (h *handler) handleTokenize(w http.ResponseWriter, r *http.Request) {
	text, ok := h.decodeText(w, r)
	if !ok {
		return
	}

	start := time.Now()

	x := stream.New(h.vocab, stream.WithLogger(h.log))
	x.Reset(text)

	if err := x.Err(); err != nil {
		h.log.WarnContext(r.Context(), "tokenize failed",
			slog.Int("text_len", len(text)),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusUnprocessableEntity, err.Error())

		return
	}

	x.SetCursor(x.Len())
	tokens := present.Tokens(x)

	h.log.InfoContext(r.Context(), "tokenize complete",
		slog.String("encoding", h.vocab.Name()),
		slog.Int("text_len", len(text)),
		slog.Int("tokens", len(tokens)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)

	writeJSON(w, http.StatusOK, tokenizeResponse{
		Encoding: h.vocab.Name(),
		Count:    len(tokens),
		Tokens:   tokens,
	})
}

func (h *handler) handleShare(w http.ResponseWriter, r *http.Request) {
	text, ok := h.decodeText(w, r)
	if !ok {
		return
	}

	token, err := share.Serialize(text)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	link, err := share.BuildURL(h.opts.shareBase, h.opts.shareParam, text)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, shareResponse{Token: token, URL: link})
}

func (h *handler) handleRestore(w http.ResponseWriter, r *http.Request) {
	text, err := share.Deserialize(r.PathValue("token"))
	if err != nil {
		h.log.DebugContext(r.Context(), "share token rejected", slog.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, err.Error())

		return
	}

	writeJSON(w, http.StatusOK, textRequest{Text: text})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// ---------------------------------------------------------------------------
// Server
// ---------------------------------------------------------------------------

// Server wires the HTTP handler into a net/http.Server with graceful shutdown.
type Server struct {
	cfg             config.Config
	vocab           tokenizer.Vocabulary
	log             *slog.Logger
	shutdownTimeout time.Duration
}

func New(cfg config.Config, vocab tokenizer.Vocabulary) *Server {
	timeout := 30 * time.Second
	if cfg.Server.ShutdownTimeout > 0 {
		timeout = time.Duration(cfg.Server.ShutdownTimeout) * time.Second
	}

	return &Server{
		cfg:             cfg,
		vocab:           vocab,
		log:             slog.Default(),
		shutdownTimeout: timeout,
	}
}

// WithShutdownTimeout overrides the graceful-shutdown drain period.
func (s *Server) WithShutdownTimeout(d time.Duration) *Server {
	s.shutdownTimeout = d
	return s
}

// Start serves until ctx is cancelled. Open WebSocket sessions share ctx and
// end with it.
func (s *Server) Start(ctx context.Context) error {
	if s.vocab == nil {
		return errors.New("server requires a vocabulary")
	}

	h := NewHandler(s.vocab,
		WithMaxTextBytes(s.cfg.Server.MaxTextBytes),
		WithShareLink(s.cfg.Share.BaseURL, s.cfg.Share.Param),
		WithPlayback(s.cfg.Speed(), s.cfg.Playback.Autoplay),
		WithLogger(s.log),
	)

	httpServer := &http.Server{
		Addr:              s.cfg.Server.ListenAddr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	s.log.Info("server listening",
		slog.String("addr", s.cfg.Server.ListenAddr),
		slog.String("encoding", s.vocab.Name()),
	)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http listen: %w", err)
	}
}

func ProbeHTTP(addr string) error {
	resp, err := http.Get("http://" + addr + "/health") //nolint:noctx
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected health status: %s", resp.Status)
	}
	return nil
}
