package server

import (
	"net/http"
	"time"

	ridecache "github.com/eugener/ridecache/internal"
)

func (s *server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.deps.Cache.Stats(r.Context())
	if err != nil {
		writeJSON(w, errorStatus(err), errorResponse("cache unavailable"))
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

type warmRequest struct {
	Kinds []string `json:"kinds"`
	TTLs  int      `json:"ttl_s"`
}

type warmResponse struct {
	Warmed int              `json:"warmed"`
	Kinds  []ridecache.Kind `json:"kinds"`
}

// handleCacheWarm pre-populates the cache. An empty kinds list warms every
// kind; ttl_s overrides the configured TTL for the warmed entries only.
func (s *server) handleCacheWarm(w http.ResponseWriter, r *http.Request) {
	var req warmRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	kinds := ridecache.Kinds
	if len(req.Kinds) > 0 {
		kinds = make([]ridecache.Kind, 0, len(req.Kinds))
		for _, raw := range req.Kinds {
			kind, err := ridecache.ParseKind(raw)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, errorResponse("unknown kind "+raw))
				return
			}
			kinds = append(kinds, kind)
		}
	}
	if req.TTLs < 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse("ttl_s must be non-negative"))
		return
	}

	n, err := s.deps.Cache.Warm(r.Context(), kinds, time.Duration(req.TTLs)*time.Second)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, warmResponse{Warmed: n, Kinds: kinds})
}

func (s *server) handleCacheEvents(w http.ResponseWriter, r *http.Request) {
	totals, err := s.deps.Store.EventTotals(r.Context())
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"totals": totals})
}

func (s *server) handleCachePurge(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Cache.Purge(r.Context()); err != nil {
		writeJSON(w, errorStatus(err), errorResponse("cache unavailable"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
