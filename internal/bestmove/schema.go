package bestmove

import "chess-api/internal/payment"

const routeDescription = "Get the best chess move, evaluation and mate count for a FEN position, computed by Stockfish."

// Route returns the priced route definition used by the payment gate,
// including the discovery manifest.
func Route(price string) payment.Route {
	return payment.Route{
		Price:             price,
		Description:       routeDescription,
		MimeType:          "application/json",
		MaxTimeoutSeconds: 60,
		OutputSchema:      OutputSchema(),
	}
}

// OutputSchema describes the endpoint's input and output for discovery tooling.
func OutputSchema() map[string]any {
	return map[string]any{
		"input": map[string]any{
			"type":         "http",
			"method":       "GET",
			"discoverable": true,
			"queryParams": map[string]any{
				"fen": map[string]any{
					"type":        "string",
					"required":    true,
					"description": "Chess position in Forsyth-Edwards Notation",
				},
				"depth": map[string]any{
					"type":        "string",
					"required":    false,
					"description": "Search depth, 1-30 (default 10)",
				},
			},
		},
		"output": map[string]any{
			"oneOf": []any{
				map[string]any{
					"type":     "object",
					"required": []string{"success", "evaluation", "bestmove", "mate"},
					"properties": map[string]any{
						"success":    map[string]any{"const": true},
						"evaluation": map[string]any{"type": "number", "description": "Evaluation in pawns from White's perspective"},
						"bestmove":   map[string]any{"type": "string", "description": "Best move as reported by Stockfish"},
						"mate":       map[string]any{"type": []string{"number", "null"}, "description": "Moves to mate, if any"},
					},
				},
				map[string]any{
					"type":     "object",
					"required": []string{"success", "error"},
					"properties": map[string]any{
						"success": map[string]any{"const": false},
						"error":   map[string]any{"type": "string"},
					},
				},
			},
		},
	}
}
