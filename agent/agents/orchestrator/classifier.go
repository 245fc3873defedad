package orchestrator

import (
	"regexp"
	"strings"
)

// DefaultCompoundMarkers are words that suggest a request asks for several things at once.
var DefaultCompoundMarkers = []string{
	"and", "also", "when", "where", "what", "who", "how",
	"그리고", "또", "언제", "어디", "뭐", "누구", "어떻게",
}

const DefaultCompoundMinTokens = 5

// Classifier is a cheap pre-filter for the batch path. A query is likely compound when it has more
// than minTokens whitespace-separated tokens and contains at least one marker.
type Classifier struct {
	words     []*regexp.Regexp
	fragments []string
	minTokens int
}

// NewClassifier builds a classifier. ASCII markers match whole words case-insensitively; other
// markers (Korean particles attach to words) match as substrings.
func NewClassifier(markers []string, minTokens int) *Classifier {
	if len(markers) == 0 {
		markers = DefaultCompoundMarkers
	}
	if minTokens < 0 {
		minTokens = DefaultCompoundMinTokens
	}

	c := &Classifier{minTokens: minTokens}
	for _, m := range markers {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		if isASCII(m) {
			c.words = append(c.words, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(m)+`\b`))
			continue
		}
		c.fragments = append(c.fragments, m)
	}
	return c
}

func (c *Classifier) IsLikelyCompound(query string) bool {
	if len(strings.Fields(query)) <= c.minTokens {
		return false
	}
	for _, re := range c.words {
		if re.MatchString(query) {
			return true
		}
	}
	for _, f := range c.fragments {
		if strings.Contains(query, f) {
			return true
		}
	}
	return false
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
