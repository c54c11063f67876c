package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
)

// Middleware совместим и с mux.MiddlewareFunc, и с обычными обертками
type Middleware func(http.Handler) http.Handler

// NewRouter собирает маршруты API. Batch-эндпоинт защищен authMW,
// register/login и health остаются открытыми.
func NewRouter(
	logger *slog.Logger,
	auth *AuthHandler,
	sync *SyncHandler,
	health *HealthHandler,
	authMW Middleware,
	common ...Middleware,
) *mux.Router {
	r := mux.NewRouter()

	for _, mw := range common {
		r.Use(mux.MiddlewareFunc(mw))
	}

	v1 := r.PathPrefix("/api/v1").Subrouter()

	v1.HandleFunc("/health", health.Health).Methods(http.MethodGet)
	v1.HandleFunc("/auth/register", auth.Register).Methods(http.MethodPost)
	v1.HandleFunc("/auth/login", auth.Login).Methods(http.MethodPost)

	protected := v1.PathPrefix("").Subrouter()
	protected.Use(mux.MiddlewareFunc(authMW))
	protected.HandleFunc("/sync", sync.BatchSync).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		logger.Warn("route not found", "method", req.Method, "path", req.URL.Path)
		sendError(logger, w, "not found", http.StatusNotFound)
	})

	return r
}
