package llm

import (
	"regexp"
	"strings"
)

var (
	fenceOpenRe     = regexp.MustCompile("^```[a-zA-Z]*\\s*")
	fenceCloseRe    = regexp.MustCompile("\\s*```$")
	trailingCommaRe = regexp.MustCompile(`,(\s*[}\]])`)
)

// sanitizeResponse normalizes an untrusted oracle reply into something the
// JSON parser has a chance with: markdown code fences are stripped, the first
// balanced object is extracted from any surrounding prose, and trailing
// commas before closing brackets are removed. It never fails; callers decide
// what to do when the result still does not parse.
func sanitizeResponse(raw string) string {
	s := strings.TrimSpace(raw)

	s = fenceOpenRe.ReplaceAllString(s, "")
	s = fenceCloseRe.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)

	if block := extractBalancedObject(s); block != "" {
		s = block
	}

	s = trailingCommaRe.ReplaceAllString(s, "$1")

	return s
}

// extractBalancedObject returns the first top-level {...} block in s, or ""
// when no balanced object exists. Braces inside JSON strings are ignored.
func extractBalancedObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}

	return ""
}
