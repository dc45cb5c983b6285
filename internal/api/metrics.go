package api

import (
	"encoding/json"
	"net/http"

	"github.com/heysubinoy/rpkv/internal/store"
)

// MetricsHandler returns current store metrics as JSON.
// Only works if the server was initialized with an InstrumentedStore.
func MetricsHandler(instrumentedStore *store.InstrumentedStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metrics := instrumentedStore.GetMetrics()

		response := map[string]interface{}{
			"operations": map[string]uint64{
				"get": metrics.GetCount,
				"put": metrics.PutCount,
			},
			"errors": map[string]uint64{
				"get": metrics.GetErrors,
				"put": metrics.PutErrors,
			},
			"misses": metrics.GetMisses,
			"avg_latency": map[string]string{
				"get": metrics.GetAvgLatency.String(),
				"put": metrics.PutAvgLatency.String(),
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}
}
