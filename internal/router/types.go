// Package router scores a prompt's complexity and picks one of four fixed
// routes without calling any model. Classification is pure and
// deterministic: the same query always yields the same decision.
package router

// Route is one of the four fixed dispatch targets.
type Route string

const (
	// RouteUltraFast serves trivial factual lookups on the cheapest,
	// fastest backend.
	RouteUltraFast Route = "ultra-fast"
	// RouteFast serves moderate queries on a balanced backend.
	RouteFast Route = "fast"
	// RoutePremium serves deep-analysis queries on a premium backend.
	RoutePremium Route = "premium"
	// RouteCode serves anything containing code syntax. Only reachable
	// via the code-marker veto.
	RouteCode Route = "code"
)

// String returns the route identifier.
func (r Route) String() string {
	return string(r)
}

// Decision is the result of classifying one query. Computed fresh per
// query; never persisted by the core.
type Decision struct {
	// ModelID is the logical model identifier for the chosen route.
	ModelID string `json:"model_id"`

	// Route is the chosen dispatch target.
	Route Route `json:"route"`

	// Score is the accumulated complexity score. The code veto forces
	// the sentinel value CodeVetoScore.
	Score int `json:"score"`

	// Signals lists every matched rule, human-readable, in evaluation
	// order (not importance order).
	Signals []string `json:"signals"`
}

// CodeVetoScore is the sentinel score marking a code-marker veto.
const CodeVetoScore = -999

// routeModels maps each route to its logical model identifier. The
// mapping is a fixed lookup table external to the scoring function.
var routeModels = map[Route]string{
	RouteUltraFast: "llama-3.3-70b",
	RouteFast:      "gemini-2.0-flash",
	RoutePremium:   "gpt-4o",
	RouteCode:      "claude-sonnet-4",
}

// ModelForRoute returns the logical model identifier serving a route.
func ModelForRoute(r Route) string {
	return routeModels[r]
}
