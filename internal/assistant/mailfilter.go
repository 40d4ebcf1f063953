package assistant

import (
	"regexp"
	"strings"

	"advisorhub.app/assistant/internal/model"
)

// Sender patterns that mark an email as promotional or automated.
var spamSenderPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)@promo\.|@marketing\.|@newsletter\.|noreply@|no-reply@|donotreply@`),
	regexp.MustCompile(`(?i)promo@|marketing@|deals@|offers@|newsletter@|update@|notification@`),
	regexp.MustCompile(`(?i)support@.*\.(com|org|net)$`),
	regexp.MustCompile(`(?i)@.*\.epicentrk\.|@.*glassdoor|@.*rozetka|@.*krkr\.|@.*github\.com|@.*interactivebrokers`),
}

var spamKeywords = []string{
	"promo", "deal", "offer", "sale", "discount", "newsletter", "unsubscribe",
	"marketing", "advertisement", "notification", "update", "alert", "reminder",
	"noreply", "no-reply", "donotreply", "automated",
}

// isPromotionalSender checks only the sender address. Used for the ambient
// context window, where subjects are too noisy to filter on.
func isPromotionalSender(from string) bool {
	fromLower := strings.ToLower(from)
	for _, pattern := range spamSenderPatterns[:2] {
		if pattern.MatchString(fromLower) {
			return true
		}
	}
	return false
}

// isPromotional applies the full filter: sender patterns plus spam keywords
// in the sender or subject.
func isPromotional(from, subject string) bool {
	fromLower := strings.ToLower(from)
	subjectLower := strings.ToLower(subject)

	for _, pattern := range spamSenderPatterns {
		if pattern.MatchString(fromLower) {
			return true
		}
	}
	for _, keyword := range spamKeywords {
		if strings.Contains(fromLower, keyword) || strings.Contains(subjectLower, keyword) {
			return true
		}
	}
	return false
}

// wantsPromotional reports whether the user explicitly asked for the mail
// the filter would normally hide.
func wantsPromotional(query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(q, "promotional") || strings.Contains(q, "promo") ||
		strings.Contains(q, "marketing") || strings.Contains(q, "newsletter")
}

// filterPromotional drops promotional emails and caps the result at limit.
func filterPromotional(emails []model.EmailMessage, limit int) []model.EmailMessage {
	var out []model.EmailMessage
	for _, email := range emails {
		if isPromotional(email.From, email.Subject) {
			continue
		}
		out = append(out, email)
		if len(out) == limit {
			break
		}
	}
	return out
}
