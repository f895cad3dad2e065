package model

// ExchangeState stores per-invocation state for the exchange graph.
// It is registered via compose.WithGenLocalState and only touched inside
// eino state handlers, which serialise access.
type ExchangeState struct {
	SessionID string
	// Accumulated LLM cost (USD) of this turn
	TotalCostUSD float64
}

// ExchangeInput is one submitted user turn.
type ExchangeInput struct {
	SessionID string `json:"session_id"`
	Query     string `json:"query"`
}
