package llm

// DefaultMaxInputTokens is the per-page input ceiling.
const DefaultMaxInputTokens = 128000

// EstimateTokens is a crude length/4 estimate, not a tokenizer.
func EstimateTokens(s string) int {
	return len(s) / 4
}

// TruncateToBudget keeps the first maxTokens*4 bytes of s when the estimate exceeds
// maxTokens. Inputs are expected to be ASCII (base64), so byte slicing is safe.
func TruncateToBudget(s string, maxTokens int) string {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxInputTokens
	}
	if EstimateTokens(s) > maxTokens {
		return s[:maxTokens*4]
	}
	return s
}
