package main

import (
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// startHealthCheckServer answers liveness and readiness probes on a
// dedicated listener, kept off the fiber app so probes still answer while
// the API is draining.
func startHealthCheckServer(addr string, rdb redis.UniversalClient, db *gorm.DB) {
	ready := func(r *http.Request) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		if err := sqlDB.PingContext(r.Context()); err != nil {
			return err
		}
		return rdb.Ping(r.Context()).Err()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := ready(r); err != nil {
			slog.Debug("Readiness check failed", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("Health check server stopped", "error", err)
	}
}
