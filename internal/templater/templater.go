// Package templater personalizes a message by literal placeholder substitution.
package templater

import "strings"

// Defaults.
const (
	DefaultPlaceholder = "(Name)"
	DefaultFallback    = "Sir/Madam"
)

// Config configures a Templater.
type Config struct {
	Placeholder string // token to replace, default "(Name)"
	Fallback    string // used when the recipient has no name, default "Sir/Madam"

	// KeepPlaceholder leaves the token in place for recipients without a name.
	KeepPlaceholder bool
}

// Templater substitutes the recipient name for every occurrence of the placeholder.
// It is stateless and safe for concurrent use.
type Templater struct {
	cfg Config
}

// New creates a Templater.
func New(cfg Config) *Templater {
	if cfg.Placeholder == "" {
		cfg.Placeholder = DefaultPlaceholder
	}
	if cfg.Fallback == "" {
		cfg.Fallback = DefaultFallback
	}
	return &Templater{cfg: cfg}
}

// Render replaces every occurrence of the placeholder with name when ok is true.
// Otherwise it uses the fallback, or leaves the template as is with KeepPlaceholder.
// The name is inserted literally.
func (t *Templater) Render(template, name string, ok bool) string {
	if !strings.Contains(template, t.cfg.Placeholder) {
		return template
	}
	if !ok {
		if t.cfg.KeepPlaceholder {
			return template
		}
		name = t.cfg.Fallback
	}
	return strings.ReplaceAll(template, t.cfg.Placeholder, name)
}

// Count returns the number of placeholder occurrences in template.
func (t *Templater) Count(template string) int {
	return strings.Count(template, t.cfg.Placeholder)
}

// Placeholder returns the configured token.
func (t *Templater) Placeholder() string {
	return t.cfg.Placeholder
}
