package llm

// Trim keeps a conversation under a token budget by dropping oldest turns.
// It never returns an empty sequence and never drops the most recent
// message, even if that single message alone exceeds the budget (oversized
// single messages are left to the backend to handle or reject). The second
// return is true iff at least one message was dropped.
func Trim(messages []Message, maxTokens int) ([]Message, bool) {
	total := 0
	for _, m := range messages {
		total += EstimateTokens(m.Content)
	}
	if total <= maxTokens {
		return messages, false
	}

	trimmed := messages
	dropped := false
	for total > maxTokens && len(trimmed) > 1 {
		total -= EstimateTokens(trimmed[0].Content)
		trimmed = trimmed[1:]
		dropped = true
	}
	return trimmed, dropped
}
