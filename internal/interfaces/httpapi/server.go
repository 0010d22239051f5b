package httpapi

import (
	"log/slog"
	"net/http"
)

func NewRouter(
	handler *Handler,
	logger *slog.Logger,
	corsAllowedOrigins []string,
	adminToken string,
	internalJobToken string,
) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	registerSystemRoutes(mux, handler)
	registerPublicFixtureRoutes(mux, handler)
	registerAdminFixtureRoutes(mux, handler, adminToken)
	registerInternalJobRoutes(mux, handler, internalJobToken)

	return RequestTracing(RequestLogging(logger, CORS(corsAllowedOrigins, recoverPanic(logger, mux))))
}

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerPublicFixtureRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/fixtures/{fixtureID}", handler.GetFixtureSnapshot)
	mux.HandleFunc("GET /v1/fixtures/{fixtureID}/timeline", handler.GetTimeline)
	mux.HandleFunc("GET /v1/fixtures/{fixtureID}/lineup/{team}", handler.GetLineup)
	mux.HandleFunc("GET /v1/fixtures/{fixtureID}/statistics", handler.GetStatistics)
}

func registerAdminFixtureRoutes(mux *http.ServeMux, handler *Handler, adminToken string) {
	mux.Handle("POST /v1/fixtures/{fixtureID}/events", RequireAdminToken(adminToken, http.HandlerFunc(handler.AddEvent)))
	mux.Handle("PATCH /v1/fixtures/{fixtureID}/events/{eventID}", RequireAdminToken(adminToken, http.HandlerFunc(handler.EditEvent)))
	mux.Handle("DELETE /v1/fixtures/{fixtureID}/events/{eventID}", RequireAdminToken(adminToken, http.HandlerFunc(handler.DeleteEvent)))
	mux.Handle("POST /v1/fixtures/{fixtureID}/phase", RequireAdminToken(adminToken, http.HandlerFunc(handler.RecordPhase)))
	mux.Handle("PUT /v1/fixtures/{fixtureID}/formation", RequireAdminToken(adminToken, http.HandlerFunc(handler.SaveFormation)))
	mux.Handle("PUT /v1/fixtures/{fixtureID}/clock", RequireAdminToken(adminToken, http.HandlerFunc(handler.SetClock)))
	mux.Handle("POST /v1/fixtures/{fixtureID}/commit", RequireAdminToken(adminToken, http.HandlerFunc(handler.CommitPending)))
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/reconcile", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunReconcile)))
}

func recoverPanic(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(r.Context(), "httpapi.recoverPanic")
		defer span.End()

		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(ctx, "panic recovered", "panic", rec)
				writeInternalError(ctx, w)
			}
		}()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
