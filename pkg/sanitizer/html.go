// Package sanitizer cleans untrusted HTML produced from operator-supplied message text.
package sanitizer

import (
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicy  *bluemonday.Policy
	messagePolicy *bluemonday.Policy
	initOnce      sync.Once
)

func initPolicies() {
	initOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()

		// Formatting that survives common mail clients. No images, styles or forms.
		messagePolicy = bluemonday.NewPolicy()
		messagePolicy.AllowStandardURLs()
		messagePolicy.AllowURLSchemes("http", "https", "mailto")
		messagePolicy.AllowElements(
			"p", "br", "hr",
			"h1", "h2", "h3", "h4", "h5", "h6",
			"strong", "b", "em", "i", "del",
			"ul", "ol", "li",
			"code", "pre", "blockquote",
			"table", "thead", "tbody", "tr", "th", "td",
		)
		messagePolicy.AllowAttrs("href").OnElements("a")
		messagePolicy.RequireNoFollowOnLinks(true)
		messagePolicy.AddTargetBlankToFullyQualifiedLinks(true)
	})
}

// StripHTML removes every tag and returns plain text.
func StripHTML(s string) string {
	initPolicies()
	return strictPolicy.Sanitize(s)
}

// SanitizeHTML keeps basic message formatting (paragraphs, emphasis, lists,
// links, tables) and drops scripts, event handlers, styles and unsafe URLs.
func SanitizeHTML(s string) string {
	initPolicies()
	return messagePolicy.Sanitize(s)
}

// SanitizeHTMLCustom applies a custom bluemonday policy.
// Returns input unchanged if policy is nil.
func SanitizeHTMLCustom(s string, policy *bluemonday.Policy) string {
	if policy == nil {
		return s
	}
	return policy.Sanitize(s)
}
