package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"classwork_service/pkg/logger"
)

func NewRouter(handler *Handler, log *logger.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(NewLoggingMiddleware(log))
	r.Use(NewAuthMiddleware())

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/v1", func(r chi.Router) {
		handler.RegisterRoutes(r)
	})

	return r
}
