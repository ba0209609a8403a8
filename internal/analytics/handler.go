package analytics

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// StatsHandler serves the current aggregate as JSON.
func StatsHandler(agg *Aggregator) http.HandlerFunc {
	logger := slog.Default().With("component", "analytics-handler")
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(agg.Stats()); err != nil {
			logger.Error("writing analytics response failed", "error", err)
		}
	}
}
