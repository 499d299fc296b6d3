// Package server is the gallery's HTTP surface: the JSON API, the metrics
// endpoint and page navigation for every other GET.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	goGallery "github.com/MrEthical07/goGallery"
	"github.com/MrEthical07/goGallery/images"
	"github.com/MrEthical07/goGallery/middleware"
	"github.com/MrEthical07/goGallery/router"
	"github.com/rs/zerolog"
)

// Options configure the handler.
type Options struct {
	// Metrics is mounted at GET /metrics when set.
	Metrics http.Handler
	Logger  zerolog.Logger
}

type handler struct {
	gallery *goGallery.Gallery
	logger  zerolog.Logger
}

// New returns the root handler for g.
func New(g *goGallery.Gallery, opts Options) http.Handler {
	h := &handler{gallery: g, logger: opts.Logger}
	session := middleware.SessionCookie(g.Config().Session)

	mux := http.NewServeMux()
	mux.Handle("GET /api/images", session(middleware.RequireUser(g)(http.HandlerFunc(h.listImages))))
	mux.Handle("POST /api/logout", session(http.HandlerFunc(h.logout)))
	mux.HandleFunc("GET /healthz", h.health)
	if opts.Metrics != nil {
		mux.Handle("GET /metrics", opts.Metrics)
	}
	mux.Handle("GET /", session(http.HandlerFunc(h.page)))

	return h.logRequests(mux)
}

func (h *handler) listImages(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	list, err := h.gallery.ListImagesFor(r.Context(), user, limit)
	switch {
	case err == nil:
	case errors.Is(err, goGallery.ErrUserRecordNoID):
		writeError(w, http.StatusForbidden, "user has no id")
		return
	case errors.Is(err, goGallery.ErrImagesUnavailable):
		writeError(w, http.StatusServiceUnavailable, "images unavailable")
		return
	default:
		h.logger.Error().Err(err).Msg("list images failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if list == nil {
		list = []images.Image{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"images": list})
}

func (h *handler) logout(w http.ResponseWriter, r *http.Request) {
	v, ok := goGallery.VisitorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.gallery.Logout(r.Context(), v); err != nil {
		h.logger.Error().Err(err).Msg("logout failed")
		writeError(w, http.StatusServiceUnavailable, "unavailable")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// page runs a fresh navigation to the request URI. Redirects surface as 302
// so the browser address bar follows the guard.
func (h *handler) page(w http.ResponseWriter, r *http.Request) {
	v, ok := goGallery.VisitorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	res, err := h.gallery.Navigate(r.Context(), v, r.URL.RequestURI())
	switch {
	case err == nil:
	case errors.Is(err, router.ErrInvalidLocation):
		writeError(w, http.StatusBadRequest, "invalid path")
		return
	case errors.Is(err, router.ErrRedirectLoop):
		writeError(w, http.StatusLoopDetected, "redirect loop")
		return
	default:
		writeError(w, http.StatusServiceUnavailable, "unavailable")
		return
	}

	if res.Redirected() {
		http.Redirect(w, r, res.Location.String(), http.StatusFound)
		return
	}

	if res.Status == router.StatusAborted {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	vm, err := h.gallery.View(r.Context(), v, res)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable")
		return
	}
	status := http.StatusOK
	if res.Status == router.StatusNotFound {
		status = http.StatusNotFound
	}
	writeJSON(w, status, vm)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (h *handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
