package advisor

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 500
	maxBodyBytes        = 1 << 20
)

// NewHTTPMux exposes the advisor REST API plus health, readiness and metrics.
// health and ready may be nil.
func NewHTTPMux(svc *Service, health, ready http.Handler) *http.ServeMux {
	mux := http.NewServeMux()

	if health == nil {
		health = NewHealthHandler(nil, nil, "")
	}
	if ready == nil {
		ready = NewReadyHandler(nil, nil, 0)
	}
	mux.Handle("/healthz", health)
	mux.Handle("/readyz", ready)
	mux.Handle("/metrics", promhttp.Handler())

	// POST /api/v1/irrigation/advice
	mux.HandleFunc("/api/v1/irrigation/advice", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			writeError(w, http.StatusBadRequest, "cannot read body: "+err.Error())
			return
		}
		req, err := DecodeAdviceRequest(body)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		rec, err := svc.Advise(r.Context(), req)
		if errors.Is(err, ErrInvalidRequest) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err != nil {
			log.Printf("api: advice error: %v", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, rec)
	})

	// GET /api/v1/crops
	mux.HandleFunc("/api/v1/crops", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"crops": svc.Crops()})
	})

	// GET /api/v1/history?limit=10
	mux.HandleFunc("/api/v1/history", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		recs, total := svc.History(parseLimit(r.URL.Query().Get("limit")))
		writeJSON(w, http.StatusOK, map[string]any{"decisions": recs, "total": total})
	})

	return mux
}

// parseLimit clamps to [1, maxHistoryLimit]; garbage gives the default.
func parseLimit(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return defaultHistoryLimit
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return defaultHistoryLimit
	}
	if n < 1 {
		return 1
	}
	if n > maxHistoryLimit {
		return maxHistoryLimit
	}
	return n
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
