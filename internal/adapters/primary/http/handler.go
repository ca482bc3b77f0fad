package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/vibin/search-agent/internal/core/domain"
	"github.com/vibin/search-agent/internal/core/services"
	"github.com/vibin/search-agent/internal/logger"
	"github.com/vibin/search-agent/internal/metrics"
)

const requestTimeout = 5 * time.Minute

// Searcher runs the search tool outside of a conversation
type Searcher interface {
	Search(ctx context.Context, query string) []domain.SourceResult
	Shape(result any) any
}

// Handler is the HTTP handler for the agent API
type Handler struct {
	service  *services.ChatService
	searcher Searcher
	metrics  *metrics.Metrics
	logger   logger.Logger
	router   *chi.Mux
}

// NewHandler creates a new HTTP handler. searcher and m may be nil.
func NewHandler(service *services.ChatService, searcher Searcher, m *metrics.Metrics, log logger.Logger) *Handler {
	h := &Handler{
		service:  service,
		searcher: searcher,
		metrics:  m,
		logger:   log,
	}

	h.setupRouter()
	return h
}

// setupRouter sets up the Chi router with middleware and routes
func (h *Handler) setupRouter() {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggerMiddleware(h.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", h.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/chats", func(r chi.Router) {
			r.Get("/", h.ListChats)
			r.Post("/", h.CreateChat)
			r.Route("/{chatID}", func(r chi.Router) {
				r.Get("/", h.GetChat)
				r.Post("/messages", h.SendMessage)
				r.Delete("/", h.DeleteChat)
			})
		})

		r.Post("/search", h.Search)
		r.Get("/model", h.GetModelInfo)
	})

	h.router = r
}

// ServeHTTP implements the http.Handler interface
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// Health reports liveness
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// CreateChat handles the create chat request. An empty body is allowed.
func (h *Handler) CreateChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	chat, err := h.service.CreateChat(r.Context(), req.Title)
	if err != nil {
		h.respondWithError(w, http.StatusInternalServerError, "Failed to create chat")
		return
	}

	h.respondWithJSON(w, http.StatusCreated, chat)
}

// GetChat handles the get chat request
func (h *Handler) GetChat(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")

	chat, err := h.service.GetChat(r.Context(), chatID)
	if err != nil {
		h.respondWithChatError(w, err, "Failed to get chat")
		return
	}

	h.respondWithJSON(w, http.StatusOK, chat)
}

// ListChats handles the list chats request
func (h *Handler) ListChats(w http.ResponseWriter, r *http.Request) {
	chats, err := h.service.ListChats(r.Context())
	if err != nil {
		h.respondWithError(w, http.StatusInternalServerError, "Failed to list chats")
		return
	}

	h.respondWithJSON(w, http.StatusOK, chats)
}

// SendMessage runs one agent turn for the posted message
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")

	var req struct {
		Content string `json:"content"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		h.respondWithError(w, http.StatusBadRequest, "Message content is required")
		return
	}

	chat, result, err := h.service.SendMessage(r.Context(), chatID, req.Content, nil)
	if err != nil {
		h.respondWithChatError(w, err, "Failed to send message")
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]any{
		"chat":   chat,
		"result": result,
	})
}

// DeleteChat handles the delete chat request
func (h *Handler) DeleteChat(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")

	if err := h.service.DeleteChat(r.Context(), chatID); err != nil {
		h.respondWithChatError(w, err, "Failed to delete chat")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Search runs the search tool and returns the shrunk sources
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	if h.searcher == nil {
		h.respondWithError(w, http.StatusNotImplemented, "Search is not configured")
		return
	}

	var req struct {
		Query string `json:"query"`
		Raw   bool   `json:"raw"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		h.respondWithError(w, http.StatusBadRequest, "Query is required")
		return
	}

	results := h.searcher.Search(r.Context(), req.Query)
	if req.Raw {
		h.respondWithJSON(w, http.StatusOK, results)
		return
	}
	h.respondWithJSON(w, http.StatusOK, h.searcher.Shape(results))
}

// GetModelInfo handles the get model info request
func (h *Handler) GetModelInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.GetModelInfo(r.Context())
	if err != nil {
		h.respondWithError(w, http.StatusInternalServerError, "Failed to get model info")
		return
	}

	h.respondWithJSON(w, http.StatusOK, info)
}

func (h *Handler) respondWithChatError(w http.ResponseWriter, err error, message string) {
	if errors.Is(err, domain.ErrChatNotFound) {
		h.respondWithError(w, http.StatusNotFound, "Chat not found")
		return
	}
	h.respondWithError(w, http.StatusInternalServerError, message+": "+err.Error())
}

// respondWithError sends an error response
func (h *Handler) respondWithError(w http.ResponseWriter, code int, message string) {
	h.respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithJSON sends a JSON response
func (h *Handler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// LoggerMiddleware is a middleware that logs HTTP requests
func LoggerMiddleware(log logger.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				log.Info("HTTP request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
