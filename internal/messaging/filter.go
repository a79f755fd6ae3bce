package messaging

import "strings"

// blockedTerms are rejected anywhere in a message body.
var blockedTerms = []string{"phone", "email", "@", "contact"}

// ContainsContactInfo reports whether body mentions any blocked term,
// ignoring case.
func ContainsContactInfo(body string) bool {
	lower := strings.ToLower(body)
	for _, term := range blockedTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

func preview(body string) string {
	const max = 80
	runes := []rune(body)
	if len(runes) <= max {
		return body
	}
	return string(runes[:max-3]) + "..."
}
