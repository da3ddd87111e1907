package http

import (
	"log/slog"
	"net/http"
	"time"

	"todoapi/internal/domain"
	"todoapi/internal/service"
	"todoapi/internal/store"
	"todoapi/pkg/httpx"
	"todoapi/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store store.Store

	AuthService *service.AuthService
	TodoService *service.TodoService
}

func NewRouter(buildVersion string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerTodos()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{Auth: r.AuthService}

	// Credential endpoints take strict per-IP limits to slow brute force.
	r.Mux.Handle("POST /auth/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /auth/refresh",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("POST /auth/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			Authenticate(r.AuthService),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("GET /auth/me",
		httpx.Chain(http.HandlerFunc(h.HandleMe),
			Authenticate(r.AuthService),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("PUT /auth/profile",
		httpx.Chain(http.HandlerFunc(h.HandleUpdateProfile),
			Authenticate(r.AuthService),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	// Password changes re-verify the current password, so they get the
	// strict limit too.
	r.Mux.Handle("PUT /auth/change-password",
		httpx.Chain(http.HandlerFunc(h.HandleChangePassword),
			Authenticate(r.AuthService),
			httpx.RateLimitByUser(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerTodos() {
	h := &TodoHandler{Todos: r.TodoService}

	authed := func(handler http.HandlerFunc, limit httpx.RateLimitConfig) http.Handler {
		return httpx.Chain(handler,
			Authenticate(r.AuthService),
			httpx.RateLimitByUser(limit),
		)
	}

	r.Mux.Handle("GET /todos", authed(h.HandleList, httpx.LenientLimit))
	r.Mux.Handle("POST /todos", authed(h.HandleCreate, httpx.ModerateLimit))
	r.Mux.Handle("GET /todos/{id}", authed(h.HandleGet, httpx.LenientLimit))
	r.Mux.Handle("PUT /todos/{id}", authed(h.HandleUpdate, httpx.ModerateLimit))
	r.Mux.Handle("DELETE /todos/{id}", authed(h.HandleDelete, httpx.ModerateLimit))

	r.Mux.Handle("GET /todos/created-by-me", authed(h.HandleListCreatedByMe, httpx.LenientLimit))
	r.Mux.Handle("GET /todos/date-range", authed(h.HandleListInRange, httpx.LenientLimit))
	r.Mux.Handle("GET /todos/status/{status}", authed(h.HandleListByStatus, httpx.LenientLimit))
	r.Mux.Handle("GET /todos/overdue", authed(h.HandleListOverdue, httpx.LenientLimit))

	// Admin-wide listing.
	r.Mux.Handle("GET /todos/all",
		httpx.Chain(http.HandlerFunc(h.HandleListAll),
			Authenticate(r.AuthService),
			RequireRole(domain.RoleAdmin),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient limits, monitoring may poll often.
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
