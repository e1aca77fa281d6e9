package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/custodia-labs/shopscout-core/internal/core/domain"
)

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Error string `json:"error" example:"invalid request body"`
}

// StatusResponse represents a simple status response
// @Description Simple status response
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// VersionResponse represents the API version response
// @Description API version response
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
}

// PopularQueriesResponse lists the most requested queries
// @Description Most requested search queries
type PopularQueriesResponse struct {
	Queries []string `json:"queries"`
}

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Description  Returns the health status of the API
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Returns the readiness status of the API (checks cache and database connections)
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Failure      503  {object}  ErrorResponse  "A backing service is unreachable"
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.redisClient != nil {
		if err := s.redisClient.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "cache unreachable")
			return
		}
	}
	if s.db != nil {
		if err := s.db.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "database unreachable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleVersion godoc
// @Summary      Get API version
// @Description  Returns the current API version
// @Tags         Health
// @Produce      json
// @Success      200  {object}  VersionResponse
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

// Search endpoints

// handleSearch godoc
// @Summary      Search products
// @Description  Run a product search across all providers. Mode selects the latency/quality tradeoff: fast, balanced or quality.
// @Tags         Search
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      domain.SearchRequest  true  "Search request"
// @Success      200      {object}  domain.SearchResult
// @Failure      400      {object}  ErrorResponse  "Invalid query, mode or k"
// @Failure      401      {object}  ErrorResponse  "Unauthorized"
// @Failure      500      {object}  ErrorResponse  "Search failed"
// @Router       /search [post]
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req domain.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.searchService.Search(r.Context(), req)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("search failed", "query", req.Query, "error", err)
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handlePopularQueries godoc
// @Summary      Popular queries
// @Description  Returns the most frequently searched queries
// @Tags         Search
// @Produce      json
// @Security     BearerAuth
// @Param        n  query     int  false  "How many queries to return (default 10)"
// @Success      200  {object}  PopularQueriesResponse
// @Router       /search/popular [get]
func (s *Server) handlePopularQueries(w http.ResponseWriter, r *http.Request) {
	if s.popularity == nil {
		writeJSON(w, http.StatusOK, PopularQueriesResponse{Queries: []string{}})
		return
	}

	n := 10
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "n must be a positive integer")
			return
		}
		n = parsed
	}

	queries, err := s.popularity.Top(r.Context(), n)
	if err != nil {
		s.logger.Error("popular queries lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if queries == nil {
		queries = []string{}
	}
	writeJSON(w, http.StatusOK, PopularQueriesResponse{Queries: queries})
}

// Cache endpoints

// handleDeleteCacheEntry godoc
// @Summary      Evict one cached query
// @Description  Removes the cached results for a normalized query key
// @Tags         Cache
// @Produce      json
// @Security     BearerAuth
// @Param        key  path      string  true  "Normalized query key"
// @Success      200  {object}  StatusResponse
// @Router       /cache/{key} [delete]
func (s *Server) handleDeleteCacheEntry(w http.ResponseWriter, r *http.Request) {
	key := domain.NormalizeQuery(r.PathValue("key"))
	if key == "" {
		writeError(w, http.StatusBadRequest, "key is required")
		return
	}
	if err := s.cache.Delete(r.Context(), key); err != nil {
		s.logger.Error("cache eviction failed", "key", key, "error", err)
		writeError(w, http.StatusInternalServerError, "eviction failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleClearCache godoc
// @Summary      Clear the result cache
// @Description  Removes all cached search results
// @Tags         Cache
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  StatusResponse
// @Router       /cache [delete]
func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	if err := s.cache.Clear(r.Context()); err != nil {
		s.logger.Error("cache clear failed", "error", err)
		writeError(w, http.StatusInternalServerError, "clear failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Helpers

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
