package http

import (
	"payments_backend/internal/http/handlers"
	"payments_backend/internal/http/middleware"
	"payments_backend/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the collaborators the HTTP surface is built from.
type Deps struct {
	Handler *handlers.Handler
	Health  *handlers.HealthHandler
	Hub     *ws.Hub
	// RateLimiter may be nil to disable limiting.
	RateLimiter *middleware.RateLimiter
	// Auth is nil in open mode; when set every payment route requires a
	// bearer token.
	Auth          middleware.Authenticator
	AllowedOrigin string
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(d.AllowedOrigin))

	// Health checks (no rate limiting)
	r.GET("/health", d.Health.Health)
	r.GET("/healthz", d.Health.Liveness)
	r.GET("/readyz", d.Health.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("")
	if d.RateLimiter != nil {
		api.Use(d.RateLimiter.Middleware())
	}
	if d.Auth != nil {
		api.Use(middleware.Auth(d.Auth))
	}

	h := d.Handler
	both(api, "POST", "/initiate", h.Initiate)
	both(api, "POST", "/success", h.Success)
	both(api, "GET", "/transactions", h.ListTransactions)
	api.GET("/transactions/:id", h.GetTransaction)
	both(api, "GET", "/transaction-details", h.TransactionDetails)

	// Live feed of confirmed payments; the token travels as a query
	// parameter because browsers cannot set headers on upgrade requests.
	if d.Hub != nil {
		r.GET("/ws/payments", ws.HandleFeed(d.Hub, d.Auth, d.AllowedOrigin))
	}
}

// both registers path with and without the trailing slash.
func both(g *gin.RouterGroup, method, path string, h gin.HandlerFunc) {
	g.Handle(method, path, h)
	g.Handle(method, path+"/", h)
}
