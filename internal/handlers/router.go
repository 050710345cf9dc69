package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// NewRouter wires the health check, the metrics endpoint and, when webhook is set,
// the Telegram webhook under basePath.
func NewRouter(basePath string, webhook http.Handler, metricsHandler http.Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", health)
	if metricsHandler != nil {
		mux.Handle("GET /metrics", metricsHandler)
	}
	if webhook != nil {
		mux.Handle("POST "+basePath+"/webhook/{secret}", webhook)
	}
	return Logging(logger)(mux)
}

func health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok", "bot": "running"})
}
