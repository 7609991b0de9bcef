// Package offline serves the single-page app with a response cache so the
// portal shell keeps loading when the upstream handler fails.
package offline

import (
	"bytes"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const shellPath = "/index.html"

type entry struct {
	status int
	header http.Header
	body   []byte
}

// Handler routes requests three ways:
//   - API calls and gateway hosts pass straight through
//   - page navigations go to the network first and fall back to the cached shell
//   - assets are served from cache first and cached on a 200
type Handler struct {
	next   http.Handler
	cache  *cache.Cache
	logger *zap.Logger
}

func New(next http.Handler, ttl time.Duration, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		next:   next,
		cache:  cache.New(ttl, 2*ttl),
		logger: logger,
	}
}

// Prime caches the app shell ahead of the first navigation.
func (h *Handler) Prime() bool {
	req, _ := http.NewRequest(http.MethodGet, shellPath, nil)
	rec := newRecorder()
	h.next.ServeHTTP(rec, req)
	if rec.status != http.StatusOK {
		h.logger.Warn("app shell not available", zap.Int("status", rec.status))
		return false
	}
	h.cache.Set(shellPath, rec.entry(), cache.NoExpiration)
	return true
}

func (h *Handler) Cached() int { return h.cache.ItemCount() }

func bypass(r *http.Request) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return true
	}
	return strings.Contains(r.URL.Path, "/api/") || strings.Contains(r.Host, "googleapis.com")
}

func navigation(r *http.Request) bool {
	if r.Header.Get("Sec-Fetch-Mode") == "navigate" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case bypass(r):
		h.next.ServeHTTP(w, r)
	case navigation(r):
		h.navigate(w, r)
	default:
		h.asset(w, r)
	}
}

func (h *Handler) navigate(w http.ResponseWriter, r *http.Request) {
	rec := newRecorder()
	h.next.ServeHTTP(rec, r)
	if rec.status < http.StatusInternalServerError {
		if rec.status == http.StatusOK && (r.URL.Path == "/" || r.URL.Path == shellPath) {
			h.cache.Set(shellPath, rec.entry(), cache.NoExpiration)
		}
		rec.entry().writeTo(w)
		return
	}
	if v, ok := h.cache.Get(shellPath); ok {
		h.logger.Debug("serving cached shell", zap.String("path", r.URL.Path), zap.Int("upstream", rec.status))
		v.(entry).writeTo(w)
		return
	}
	rec.entry().writeTo(w)
}

func (h *Handler) asset(w http.ResponseWriter, r *http.Request) {
	key := r.URL.RequestURI()
	if v, ok := h.cache.Get(key); ok {
		v.(entry).writeTo(w)
		return
	}
	rec := newRecorder()
	h.next.ServeHTTP(rec, r)
	e := rec.entry()
	if rec.status == http.StatusOK {
		h.cache.SetDefault(key, e)
	}
	e.writeTo(w)
}

func (e entry) writeTo(w http.ResponseWriter) {
	for k, v := range e.header {
		w.Header()[k] = append([]string(nil), v...)
	}
	w.WriteHeader(e.status)
	_, _ = w.Write(e.body)
}

type recorder struct {
	header      http.Header
	status      int
	body        bytes.Buffer
	wroteHeader bool
}

func newRecorder() *recorder {
	return &recorder{header: http.Header{}, status: http.StatusOK}
}

func (r *recorder) Header() http.Header { return r.header }

func (r *recorder) WriteHeader(status int) {
	if r.wroteHeader {
		return
	}
	r.status = status
	r.wroteHeader = true
}

func (r *recorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.body.Write(b)
}

func (r *recorder) entry() entry {
	return entry{status: r.status, header: r.header.Clone(), body: append([]byte(nil), r.body.Bytes()...)}
}
