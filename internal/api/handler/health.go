package handler

import (
	"net/http"

	"github.com/Rrens/fai-advisor/internal/api/response"
	"github.com/Rrens/fai-advisor/internal/repository"
	"github.com/rs/zerolog/log"
)

// HealthCheck returns a simple health check response
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]string{
		"status": "ok",
	})
}

// ReadyCheck returns readiness status including chat store connectivity
func ReadyCheck(store repository.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.Ping(r.Context()); err != nil {
			log.Warn().Err(err).Msg("Readiness check failed")
			response.ServiceUnavailable(w, "chat store not ready")
			return
		}

		response.OK(w, map[string]string{
			"status": "ready",
		})
	}
}
