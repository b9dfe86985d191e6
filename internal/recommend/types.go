// Package recommend generates AI career recommendations from a user's
// profile and quiz history.
package recommend

// Recommendation is one suggested career direction.
type Recommendation struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Reasoning       string   `json:"reasoning"`
	SuggestedSkills []string `json:"suggested_skills_to_learn"`
}

// Config holds recommendation generation settings.
type Config struct {
	MaxTokens   int
	Temperature float64

	// Count is the number of recommendations requested.
	Count int

	// MaxAttempts bounds the history rows included in the prompt.
	MaxAttempts int
}

// DefaultConfig returns the generation defaults.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   1024,
		Temperature: 0.6,
		Count:       3,
		MaxAttempts: 10,
	}
}
