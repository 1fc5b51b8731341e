package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/feastline/supportbot/pkg/catalog"
	"github.com/feastline/supportbot/pkg/convlog"
	"github.com/feastline/supportbot/pkg/logger"
	"github.com/feastline/supportbot/pkg/resolver"
)

// Server is the HTTP transport in front of the resolver: the chat
// endpoint plus read-only data APIs over the catalog and the
// conversation log.
type Server struct {
	resolver *resolver.Resolver
	catalog  *catalog.Catalog
	log      *convlog.Service
	version  string
	http     *http.Server
}

func NewServer(addr string, res *resolver.Resolver, cat *catalog.Catalog, log *convlog.Service, version string) *Server {
	s := &Server{
		resolver: res,
		catalog:  cat,
		log:      log,
		version:  version,
	}
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("GET /api/restaurants", s.handleRestaurants)
	mux.HandleFunc("GET /api/order/{id}", s.handleOrder)
	mux.HandleFunc("GET /api/menu/{restaurantID}", s.handleMenu)
	mux.HandleFunc("GET /api/history/{sessionID}", s.handleHistory)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	return mux
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.InfoCF("gateway", "HTTP server listening", map[string]any{"addr": s.http.Addr})
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	}
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

type chatResponse struct {
	Response     string  `json:"response"`
	Timestamp    string  `json:"timestamp"`
	SessionID    string  `json:"session_id"`
	ResponseTime float64 `json:"response_time"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	res := s.resolver.Resolve(r.Context(), req.Message, req.SessionID)

	writeJSON(w, http.StatusOK, chatResponse{
		Response:     res.Reply,
		Timestamp:    time.Now().Format(time.RFC3339),
		SessionID:    res.SessionID,
		ResponseTime: math.Round(res.Elapsed.Seconds()*100) / 100,
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "⚡ FeastLine Support Bot",
		"version":       s.version,
		"optimizations": []string{"Rule-based", "Caching", "Fast LLM"},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleRestaurants(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	results := s.catalog.SearchRestaurants(query)
	if results == nil {
		results = []catalog.Restaurant{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"restaurants": results})
}

func (s *Server) handleOrder(w http.ResponseWriter, r *http.Request) {
	order, ok := s.catalog.GetOrder(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (s *Server) handleMenu(w http.ResponseWriter, r *http.Request) {
	restaurantID := r.PathValue("restaurantID")
	items := s.catalog.GetMenu(restaurantID)
	if items == nil {
		items = []catalog.MenuItem{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"restaurant_id": restaurantID,
		"items":         items,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	records, err := s.log.History(r.Context(), r.PathValue("sessionID"), limit)
	if err != nil {
		logger.ErrorCF("gateway", "History query failed", map[string]any{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "history unavailable")
		return
	}
	if records == nil {
		records = []convlog.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": records})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.log.Stats(r.Context())
	if err != nil {
		logger.ErrorCF("gateway", "Stats query failed", map[string]any{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "stats unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total_conversations":   stats.TotalConversations,
		"unique_sessions":       stats.UniqueSessions,
		"generator_invocations": s.resolver.GeneratorInvocations(),
		"cached_replies":        s.resolver.CachedReplies(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.ErrorCF("gateway", "Failed to encode response", map[string]any{"error": err.Error()})
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
