package bestmove

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"chess-api/internal/shared/metrics"
	"chess-api/internal/shared/server/respond"
	"chess-api/internal/stockfish"
)

const (
	requestKey = "analysisRequest"
	outcomeKey = "outcome"

	msgInvalidRequest = "Invalid request parameters"
	msgInvalidFormat  = "Invalid response format from Stockfish API"
	msgUnknown        = "Unknown error occurred"
)

// Handler serves GET /best-move.
type Handler struct {
	Analyzer stockfish.Analyzer
}

// NewHandler constructs a Handler.
func NewHandler(analyzer stockfish.Analyzer) *Handler {
	return &Handler{Analyzer: analyzer}
}

// RegisterRoutes attaches the best-move route behind the given gate.
func (h *Handler) RegisterRoutes(rg gin.IRoutes, gate gin.HandlerFunc) {
	rg.GET("/best-move", gate, h.validate, h.bestMove)
}

// validate binds the query and aborts with 400 before the handler runs.
func (h *Handler) validate(c *gin.Context) {
	req, err := bindRequest(c)
	if err != nil {
		c.Set(outcomeKey, metrics.OutcomeValidation)
		metrics.IncOutcome(metrics.OutcomeValidation)
		var verr *ValidationError
		if errors.As(err, &verr) {
			respond.Error(c, http.StatusBadRequest, msgInvalidRequest, verr.Fields)
			return
		}
		respond.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	c.Set(requestKey, req)
	c.Next()
}

func (h *Handler) bestMove(c *gin.Context) {
	metrics.IncBestMoveRequests()
	req, _ := c.Get(requestKey)
	analysisReq, ok := req.(AnalysisRequest)
	if !ok {
		h.writeError(c, errors.New(msgUnknown))
		return
	}

	result, err := h.Analyzer.Analyze(c.Request.Context(), analysisReq.FEN, analysisReq.Depth)
	if err != nil {
		h.writeError(c, err)
		return
	}

	switch result.(type) {
	case stockfish.Success:
		h.markOutcome(c, metrics.OutcomeSuccess)
	case stockfish.Failure:
		h.markOutcome(c, metrics.OutcomeFailure)
	default:
		h.writeError(c, errors.New(msgUnknown))
		return
	}
	respond.OK(c, result)
}

// writeError maps pipeline errors to 500 responses.
func (h *Handler) writeError(c *gin.Context, err error) {
	var (
		httpErr   *stockfish.UpstreamHTTPError
		schemaErr *stockfish.SchemaViolationError
		transErr  *stockfish.TransportError
	)
	switch {
	case errors.As(err, &httpErr):
		h.markOutcome(c, metrics.OutcomeUpstreamHTTP)
		respond.Error(c, http.StatusInternalServerError, httpErr.Error(), nil)
	case errors.As(err, &schemaErr):
		h.markOutcome(c, metrics.OutcomeSchema)
		respond.Error(c, http.StatusInternalServerError, msgInvalidFormat, schemaErr.Violations)
	case errors.As(err, &transErr):
		h.markOutcome(c, metrics.OutcomeTransport)
		respond.Error(c, http.StatusInternalServerError, transErr.Error(), nil)
	default:
		h.markOutcome(c, metrics.OutcomeUnknown)
		msg := msgUnknown
		if err != nil && strings.TrimSpace(err.Error()) != "" {
			msg = err.Error()
		}
		respond.Error(c, http.StatusInternalServerError, msg, nil)
	}
}

func (h *Handler) markOutcome(c *gin.Context, outcome string) {
	c.Set(outcomeKey, outcome)
	metrics.IncOutcome(outcome)
}

func bindRequest(c *gin.Context) (AnalysisRequest, error) {
	var req AnalysisRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]FieldError, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fieldError(fe))
			}
			return AnalysisRequest{}, &ValidationError{Fields: fields}
		}
		return AnalysisRequest{}, &ValidationError{Fields: []FieldError{{Field: "query", Message: err.Error()}}}
	}
	if _, ok := c.GetQuery("depth"); !ok {
		req.Depth = DefaultDepth
	}
	return req, nil
}

func fieldError(fe validator.FieldError) FieldError {
	name := fe.Field()
	if sf, ok := reflect.TypeOf(AnalysisRequest{}).FieldByName(fe.StructField()); ok {
		if tag := strings.Split(sf.Tag.Get("form"), ",")[0]; tag != "" {
			name = tag
		}
	}
	msg := name + " failed " + fe.Tag() + " validation"
	if fe.Tag() == "required" {
		msg = name + " is required"
	}
	return FieldError{Field: name, Message: msg}
}
