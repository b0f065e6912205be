package router

import (
	"fmt"
	"regexp"
	"strings"
)

// codeMarkers detect code syntax in a query. Any match is an unconditional
// override to the code route: code-completion quality correlates with a
// specific backend regardless of any other heuristic signal.
var codeMarkers = []*regexp.Regexp{
	regexp.MustCompile("```"),
	regexp.MustCompile(`\bfunction\s`),
	regexp.MustCompile(`\bdef\s`),
	regexp.MustCompile(`\bconst\s`),
	regexp.MustCompile(`\bclass\s`),
	regexp.MustCompile(`\bimport\s`),
	regexp.MustCompile(`\bexport\s`),
	regexp.MustCompile(`\breturn\s`),
	regexp.MustCompile(`\b(if|for|while|switch)\s*\(`),
}

// deepAnalysisKeywords add +2 each: the query wants real reasoning work.
var deepAnalysisKeywords = []string{
	"analyze",
	"compare",
	"step by step",
	"write an essay",
	"in depth",
	"comprehensive",
	"evaluate",
}

// explanatoryKeywords add +1 each: softer signals of an explanation task.
var explanatoryKeywords = []string{
	"why",
	"pros and cons",
	"how does",
	"difference between",
	"explain",
}

// factualLookupPrefixes subtract 1, first match only.
var factualLookupPrefixes = []string{
	"what is",
	"what's",
	"define",
	"who is",
	"when did",
	"where is",
}

// fastLookupKeywords subtract 1 each: trivial retrieval or conversion.
var fastLookupKeywords = []string{
	"capital of",
	"translate",
	"convert",
	"how many",
	"synonym",
	"spell",
}

// Classify scores a query and picks a route. Pure function: no I/O, no
// randomness, deterministic for a given input.
func Classify(query string) Decision {
	lower := strings.ToLower(query)
	var signals []string

	// Code markers veto all other scoring.
	for _, marker := range codeMarkers {
		if marker.MatchString(query) {
			signals = append(signals, fmt.Sprintf("code syntax marker %q", marker.String()))
			return Decision{
				ModelID: routeModels[RouteCode],
				Route:   RouteCode,
				Score:   CodeVetoScore,
				Signals: signals,
			}
		}
	}

	score := 0
	words := len(strings.Fields(query))

	if words > 30 {
		score += 2
		signals = append(signals, fmt.Sprintf("long query (%d words > 30): +2", words))
	}

	for _, kw := range deepAnalysisKeywords {
		if strings.Contains(lower, kw) {
			score += 2
			signals = append(signals, fmt.Sprintf("deep analysis keyword %q: +2", kw))
		}
	}

	for _, kw := range explanatoryKeywords {
		if strings.Contains(lower, kw) {
			score++
			signals = append(signals, fmt.Sprintf("explanatory keyword %q: +1", kw))
		}
	}

	if words < 10 {
		score -= 2
		signals = append(signals, fmt.Sprintf("short query (%d words < 10): -2", words))
	}

	for _, prefix := range factualLookupPrefixes {
		if strings.HasPrefix(lower, prefix) {
			score--
			signals = append(signals, fmt.Sprintf("factual lookup prefix %q: -1", prefix))
			break // first match only
		}
	}

	for _, kw := range fastLookupKeywords {
		if strings.Contains(lower, kw) {
			score--
			signals = append(signals, fmt.Sprintf("fast lookup keyword %q: -1", kw))
		}
	}

	route := routeForScore(score)
	return Decision{
		ModelID: routeModels[route],
		Route:   route,
		Score:   score,
		Signals: signals,
	}
}

// routeForScore maps an accumulated score to a route. The code route is
// only reachable via the marker veto.
func routeForScore(score int) Route {
	switch {
	case score <= 0:
		return RouteUltraFast
	case score <= 2:
		return RouteFast
	default:
		return RoutePremium
	}
}
