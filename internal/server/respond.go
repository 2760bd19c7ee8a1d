package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	ridecache "github.com/eugener/ridecache/internal"
)

// maxBody is the maximum allowed request body size (1 MB).
const maxBody = 1 << 20

type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func errorResponse(msg string) apiError {
	var e apiError
	e.Error.Message = msg
	return e
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, ridecache.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ridecache.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ridecache.ErrBadRequest), errors.Is(err, ridecache.ErrUnknownKind):
		return http.StatusBadRequest
	case errors.Is(err, ridecache.ErrCacheUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// jsonCT is a pre-allocated header value slice. Direct map assignment
// avoids the []string{v} alloc that Header.Set creates on every call.
var jsonCT = []string{"application/json"}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header()["Content-Type"] = jsonCT
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// writeRaw sends an already-serialized JSON payload, tagging whether it
// came from the cache.
func writeRaw(w http.ResponseWriter, status int, data []byte, hit bool) {
	w.Header()["Content-Type"] = jsonCT
	if hit {
		w.Header()["X-Cache"] = cacheHit
	} else {
		w.Header()["X-Cache"] = cacheMiss
	}
	w.WriteHeader(status)
	w.Write(data)
}

var (
	cacheHit  = []string{"HIT"}
	cacheMiss = []string{"MISS"}
)

// decodeJSON limits body size, decodes JSON into v, and writes a 400 on error.
// Returns true if decoding succeeded.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid request body"))
		return false
	}
	return true
}

// writeStoreError logs the full error server-side and returns a sanitized
// message to the client to avoid leaking internal details (e.g. SQLite errors).
func writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	switch {
	case errors.Is(err, ridecache.ErrNotFound):
		writeJSON(w, status, errorResponse("not found"))
	case errors.Is(err, ridecache.ErrConflict):
		writeJSON(w, status, errorResponse("conflict"))
	case errors.Is(err, ridecache.ErrBadRequest):
		writeJSON(w, status, errorResponse(err.Error()))
	default:
		slog.LogAttrs(r.Context(), slog.LevelError, "storage error",
			slog.String("error", err.Error()),
		)
		writeJSON(w, status, errorResponse("internal error"))
	}
}
