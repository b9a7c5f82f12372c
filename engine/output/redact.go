package output

import (
	"fmt"
	"regexp"
)

// Redactor masks credential-looking fragments in artifact text before it
// reaches disk. In-memory history is never modified.
type Redactor struct {
	patterns []*regexp.Regexp
}

// NewRedactor compiles the given patterns. An empty list yields a redactor
// that passes text through unchanged.
func NewRedactor(patterns []string) (*Redactor, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("output: invalid blocked pattern %q: %w", p, err)
		}
		compiled = append(compiled, re)
	}
	return &Redactor{patterns: compiled}, nil
}

// Apply masks every pattern match with a fixed marker.
func (r *Redactor) Apply(text string) string {
	masked := text
	for _, re := range r.patterns {
		masked = re.ReplaceAllString(masked, "[REDACTED]")
	}
	return masked
}
