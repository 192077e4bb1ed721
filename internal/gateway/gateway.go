// Package gateway is the plain HTTP surface of the server: health, a
// read-only JSON view of receipts, server-sent events for live receipts,
// Prometheus metrics, and the mount point of the Connect service.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mmynk/rece/internal/docstore"
	"github.com/mmynk/rece/internal/middleware"
	"github.com/mmynk/rece/pkg/api"
)

// Reader is the read side of the receipt service.
type Reader interface {
	Summaries(ctx context.Context) ([]api.ReceiptSummary, error)
	View(ctx context.Context, id string) (*api.ReceiptView, error)
	Watch(ctx context.Context, id string, send func(*api.WatchReceiptResponse) error) error
}

type Options struct {
	// CORSOrigins are the allowed browser origins; "*" allows any.
	CORSOrigins []string

	// RPCPath and RPCHandler mount the Connect service, when set.
	RPCPath    string
	RPCHandler http.Handler

	// Metrics is served at /metrics when set.
	Metrics http.Handler
}

type Handler struct {
	reader Reader
}

// New builds the router.
func New(reader Reader, opts Options) http.Handler {
	h := &Handler{reader: reader}

	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(chimw.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Connect-Protocol-Version", "Connect-Timeout-Ms", middleware.RequestIDHeader},
		ExposedHeaders: []string{"Connect-Protocol-Version", "Connect-Timeout-Ms", middleware.RequestIDHeader},
		MaxAge:         300,
	}))

	router.Get("/healthz", h.health)
	if opts.Metrics != nil {
		router.Handle("/metrics", opts.Metrics)
	}
	if opts.RPCHandler != nil {
		router.Mount(opts.RPCPath, opts.RPCHandler)
	}

	router.Route("/api/v1/receipts", h.Routes)
	return router
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Get("/{id}/events", h.events)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.reader.Summaries(r.Context())
	if err != nil {
		slog.Error("failed to list receipts", "error", err)
		http.Error(w, "failed to list receipts", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, api.ListReceiptsResponse{Receipts: summaries})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	view, err := h.reader.View(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.GetReceiptResponse{Receipt: view})
}

// events streams the receipt as server-sent events: a "receipt" event for
// the current state and every change, then a final "deleted" event if the
// receipt goes away.
func (h *Handler) events(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	started := false

	err := h.reader.Watch(r.Context(), chi.URLParam(r, "id"), func(update *api.WatchReceiptResponse) error {
		if !started {
			w.Header().Set("Content-Type", "text/event-stream")
			w.Header().Set("Cache-Control", "no-cache")
			w.Header().Set("Connection", "keep-alive")
			w.WriteHeader(http.StatusOK)
			started = true
		}

		event, payload := "receipt", any(update.Receipt)
		if update.Deleted {
			event, payload = "deleted", struct{}{}
		}
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
			return err
		}
		return rc.Flush()
	})
	if err != nil && !started {
		writeError(w, err)
		return
	}
	if err != nil {
		slog.Debug("event stream ended", "receipt_id", chi.URLParam(r, "id"), "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, docstore.ErrNotFound) {
		http.Error(w, "receipt not found", http.StatusNotFound)
		return
	}
	slog.Error("failed to read receipt", "error", err)
	http.Error(w, "failed to read receipt", http.StatusInternalServerError)
}
