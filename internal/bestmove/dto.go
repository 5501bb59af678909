package bestmove

import "strings"

// DefaultDepth is forwarded when the caller omits depth.
const DefaultDepth = "10"

// AnalysisRequest is the validated query of GET /best-move. Depth is passed
// through as-is; the documented 1-30 range is advisory.
type AnalysisRequest struct {
	FEN   string `form:"fen" binding:"required"`
	Depth string `form:"depth"`
}

// FieldError names one offending query parameter.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every invalid query parameter.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field)
	}
	return "invalid request parameters: " + strings.Join(names, ", ")
}
