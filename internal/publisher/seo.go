package publisher

import "strings"

const wordsPerMinute = 200

// ReadingTime estimates reading time in whole minutes, never below one.
func ReadingTime(content string) int {
	words := len(strings.Fields(content))
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

// SEOInput carries the post fields the score is computed from.
type SEOInput struct {
	Title           string
	MetaDescription string
	Content         string
	FeaturedImage   string
	Keywords        []string
	Excerpt         string
}

// SEOScore scores a post 0-100. Each component awards a full or partial
// band; the bands sum to 100 exactly when every field is in its ideal range.
func SEOScore(in SEOInput) int {
	score := 0

	switch n := len(in.Title); {
	case n >= 30 && n <= 60:
		score += 25
	case n > 0:
		score += 15
	}

	switch n := len(in.MetaDescription); {
	case n >= 120 && n <= 160:
		score += 25
	case n > 0:
		score += 15
	}

	switch n := len(in.Content); {
	case n >= 1000:
		score += 20
	case n >= 500:
		score += 10
	}

	if in.FeaturedImage != "" {
		score += 10
	}

	switch n := len(in.Keywords); {
	case n >= 3:
		score += 10
	case n >= 1:
		score += 5
	}

	switch n := len(in.Excerpt); {
	case n >= 100:
		score += 10
	case n > 0:
		score += 5
	}

	if score > 100 {
		score = 100
	}
	return score
}
