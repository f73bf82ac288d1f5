package metrics

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type healthPayload struct {
	Service string `json:"service"`
	Status  string `json:"status"`
}

// Handler serves the Prometheus registry and a liveness probe.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(healthPayload{Service: "framelens-engine", Status: "ok"})
	})
	return mux
}

// StartMetricsServer exposes the registry on its own port so scrapes never
// compete with long-running analysis requests for the API listener. The
// caller owns shutdown of the returned server.
func StartMetricsServer(port int, logger *zap.Logger) *http.Server {
	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", port),
		Handler:     Handler(),
		ReadTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("metrics listener up", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics listener failed", zap.Error(err))
		}
	}()

	return srv
}
