package apierr

import (
	"regexp"
	"strings"
)

// Patterns of internals that leak out of wrapped errors: filesystem paths,
// stack frames, source line references, and module import paths.
var (
	pathRe    = regexp.MustCompile(`(?:[A-Za-z]:)?(?:/[\w.\-]+){2,}`)
	frameRe   = regexp.MustCompile(`(?m)^\s*at .*$`)
	lineColRe = regexp.MustCompile(`:\d+:\d+`)
	moduleRe  = regexp.MustCompile(`github\.com/[\w\-./]+`)
	blankRe   = regexp.MustCompile(`\n{2,}`)
)

// Sanitize strips implementation detail from a message bound for a client.
// The result stays human-readable; it is a redaction, not a rewrite.
func Sanitize(message string) string {
	// Module paths before filesystem paths: an import path contains slash
	// segments the path pattern would otherwise claim.
	s := frameRe.ReplaceAllString(message, "")
	s = moduleRe.ReplaceAllString(s, "[module]")
	s = pathRe.ReplaceAllString(s, "[path]")
	s = lineColRe.ReplaceAllString(s, "")
	s = blankRe.ReplaceAllString(s, "\n")
	return strings.TrimSpace(s)
}
