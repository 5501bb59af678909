package bootstrap

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"

	"chess-api/internal/bestmove"
	"chess-api/internal/landing"
	"chess-api/internal/payment"
	"chess-api/internal/shared/config"
	"chess-api/internal/shared/server"
	"chess-api/internal/shared/telemetry"
	"chess-api/internal/stockfish"
)

const (
	serviceName        = "Chess Best Move API"
	serviceDescription = "Pay-per-call best move, evaluation and mate count for any chess position, powered by Stockfish."
)

// App holds shared dependencies.
type App struct {
	Config          config.Config
	Router          *gin.Engine
	Facilitator     payment.Facilitator
	Gate            *payment.Gate
	Analyzer        stockfish.Analyzer
	BestMoveHandler *bestmove.Handler
	LandingHandler  *landing.Handler
}

// Option overrides a dependency before wiring.
type Option func(*App)

// WithFacilitator replaces the HTTP facilitator client.
func WithFacilitator(f payment.Facilitator) Option {
	return func(a *App) { a.Facilitator = f }
}

// WithAnalyzer replaces the Stockfish API client.
func WithAnalyzer(an stockfish.Analyzer) Option {
	return func(a *App) { a.Analyzer = an }
}

// Build wires config, payment gate, Stockfish client, handlers and router.
// Payment settings that cannot be used are reported as *config.ConfigError.
func Build(cfg config.Config, opts ...Option) (*App, error) {
	telemetry.SetLevel(cfg.LogLevel)

	app := &App{Config: cfg}
	for _, opt := range opts {
		opt(app)
	}

	if app.Facilitator == nil {
		fac, err := payment.NewHTTPFacilitator(cfg.FacilitatorURL, cfg.FacilitatorTimeout)
		if err != nil {
			return nil, &config.ConfigError{Message: fmt.Sprintf("FACILITATOR_URL: %v", err)}
		}
		app.Facilitator = fac
	}

	gate, err := payment.NewGate(cfg.PayTo, cfg.Network, bestmove.Route(cfg.Price), app.Facilitator)
	if err != nil {
		return nil, &config.ConfigError{Message: err.Error()}
	}
	app.Gate = gate

	if app.Analyzer == nil {
		client, err := stockfish.NewClient(cfg.StockfishURL, cfg.UpstreamTimeout)
		if err != nil {
			return nil, &config.ConfigError{Message: fmt.Sprintf("STOCKFISH_API_URL: %v", err)}
		}
		app.Analyzer = client
	}

	app.BestMoveHandler = bestmove.NewHandler(app.Analyzer)
	landingHandler, err := landing.NewHandler(landing.Info{
		Name:        serviceName,
		Description: serviceDescription,
		Endpoint:    "/best-move",
		Price:       cfg.Price,
		Network:     cfg.Network,
		Params:      landing.DefaultParams,
	})
	if err != nil {
		return nil, fmt.Errorf("landing page: %w", err)
	}
	app.LandingHandler = landingHandler

	if app.BestMoveHandler == nil || app.LandingHandler == nil {
		return nil, errors.New("failed to initialize handlers")
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          cfg,
		LandingHandler:  app.LandingHandler,
		BestMoveHandler: app.BestMoveHandler,
		PaymentGate:     app.Gate.Middleware(),
	})

	telemetry.Info("bootstrap.ready", map[string]any{
		"env":       cfg.Env,
		"network":   cfg.Network,
		"price":     cfg.Price,
		"stockfish": cfg.StockfishURL,
	})
	return app, nil
}

// Manifest returns the payment requirements advertised for the best-move
// route when served from baseURL.
func Manifest(cfg config.Config, baseURL string) (payment.Requirements, error) {
	reqs, err := payment.RequirementsFor(cfg.PayTo, cfg.Network, bestmove.Route(cfg.Price), baseURL+"/best-move")
	if err != nil {
		return payment.Requirements{}, &config.ConfigError{Message: err.Error()}
	}
	return reqs, nil
}
