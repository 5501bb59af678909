package stockfish

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Result is the analysis outcome reported by the Stockfish API. It is either
// a Success or a Failure; the wire discriminant is the "success" field.
type Result interface {
	isResult()
}

// Success is the success variant.
type Success struct {
	Success    bool     `json:"success"`
	Evaluation float64  `json:"evaluation"`
	BestMove   string   `json:"bestmove"`
	Mate       *float64 `json:"mate"`
}

// Failure is the variant the upstream uses to report a failed analysis.
type Failure struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (Success) isResult() {}
func (Failure) isResult() {}

const (
	codeInvalidJSON          = "invalid_json"
	codeInvalidType          = "invalid_type"
	codeInvalidDiscriminator = "invalid_union_discriminator"
)

// ParseResult decodes raw and validates it against the result union. Keys the
// schema does not name are dropped.
func ParseResult(raw []byte) (Result, error) {
	if !json.Valid(raw) {
		return nil, &SchemaViolationError{Violations: []Violation{{
			Code:    codeInvalidJSON,
			Message: "Response body is not valid JSON",
		}}}
	}
	if kind := jsonKind(raw); kind != "object" {
		return nil, &SchemaViolationError{Violations: []Violation{typeViolation("", "object", kind)}}
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, &SchemaViolationError{Violations: []Violation{{
			Code:    codeInvalidJSON,
			Message: err.Error(),
		}}}
	}

	var tag bool
	rawTag, ok := fields["success"]
	if !ok || jsonKind(rawTag) != "boolean" || json.Unmarshal(rawTag, &tag) != nil {
		return nil, &SchemaViolationError{Violations: []Violation{{
			Path:     "success",
			Code:     codeInvalidDiscriminator,
			Expected: "true | false",
			Received: jsonKind(rawTag),
			Message:  "Invalid discriminator value. Expected true | false",
		}}}
	}

	if !tag {
		errMsg, v := readString(fields, "error")
		if v != nil {
			return nil, &SchemaViolationError{Violations: []Violation{*v}}
		}
		return Failure{Success: false, Error: errMsg}, nil
	}

	var violations []Violation
	evaluation, v := readNumber(fields, "evaluation", false)
	if v != nil {
		violations = append(violations, *v)
	}
	bestMove, v := readString(fields, "bestmove")
	if v != nil {
		violations = append(violations, *v)
	}
	mate, v := readNumber(fields, "mate", true)
	if v != nil {
		violations = append(violations, *v)
	}
	if len(violations) > 0 {
		return nil, &SchemaViolationError{Violations: violations}
	}
	return Success{
		Success:    true,
		Evaluation: *evaluation,
		BestMove:   bestMove,
		Mate:       mate,
	}, nil
}

func readString(fields map[string]json.RawMessage, key string) (string, *Violation) {
	raw, ok := fields[key]
	if !ok {
		v := requiredViolation(key, "string")
		return "", &v
	}
	var s string
	if jsonKind(raw) != "string" || json.Unmarshal(raw, &s) != nil {
		v := typeViolation(key, "string", jsonKind(raw))
		return "", &v
	}
	return s, nil
}

// readNumber returns nil without a violation only when nullable is set and the
// key holds an explicit null.
func readNumber(fields map[string]json.RawMessage, key string, nullable bool) (*float64, *Violation) {
	raw, ok := fields[key]
	expected := "number"
	if nullable {
		expected = "number | null"
	}
	if !ok {
		v := requiredViolation(key, expected)
		return nil, &v
	}
	kind := jsonKind(raw)
	if kind == "null" && nullable {
		return nil, nil
	}
	var n float64
	if kind != "number" || json.Unmarshal(raw, &n) != nil {
		v := typeViolation(key, expected, kind)
		return nil, &v
	}
	return &n, nil
}

func requiredViolation(path, expected string) Violation {
	return Violation{
		Path:     path,
		Code:     codeInvalidType,
		Expected: expected,
		Received: "undefined",
		Message:  "Required",
	}
}

func typeViolation(path, expected, received string) Violation {
	return Violation{
		Path:     path,
		Code:     codeInvalidType,
		Expected: expected,
		Received: received,
		Message:  fmt.Sprintf("Expected %s, received %s", expected, received),
	}
}

func jsonKind(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "undefined"
	}
	switch trimmed[0] {
	case '{':
		return "object"
	case '[':
		return "array"
	case '"':
		return "string"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	default:
		return "number"
	}
}
