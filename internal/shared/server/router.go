package server

import (
	"github.com/gin-gonic/gin"

	"chess-api/internal/bestmove"
	"chess-api/internal/landing"
	"chess-api/internal/shared/config"
	"chess-api/internal/shared/metrics"
	"chess-api/internal/shared/server/middleware"
)

// RouterDeps contains handlers required to build the router.
type RouterDeps struct {
	Config          config.Config
	LandingHandler  *landing.Handler
	BestMoveHandler *bestmove.Handler
	PaymentGate     gin.HandlerFunc
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/metrics", metrics.Handler())
	if deps.LandingHandler != nil {
		deps.LandingHandler.RegisterRoutes(r)
	}
	if deps.BestMoveHandler != nil {
		deps.BestMoveHandler.RegisterRoutes(r, deps.PaymentGate)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":4021"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
