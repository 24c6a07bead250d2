// Package redact scrubs credentials from text before it is logged or returned to a client.
// Provider errors routinely echo request URLs, headers and connection strings, so every
// error that crosses a logging or HTTP boundary passes through Error first.
package redact

import "regexp"

// Placeholders substituted for redacted fragments.
const (
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedKeyPlaceholder        = "[REDACTED_KEY]"
	RedactedJWTPlaceholder        = "[REDACTED_JWT]"
	RedactedPathPlaceholder       = "[REDACTED_PATH]"
)

type rule struct {
	re          *regexp.Regexp
	replacement string
}

// rules are applied in order; earlier rules see the untouched input.
var rules = []rule{
	// user:password@ in DSNs and URLs
	{regexp.MustCompile(`(?i)\b((?:postgres(?:ql)?|mysql|sqlite|file|https?)://)[^/\s@]+@`), "${1}" + RedactedCredentialPlaceholder + "@"},
	// JWTs before generic bearer handling so the marker is specific
	{regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`), RedactedJWTPlaceholder},
	{regexp.MustCompile(`(?i)\b(bearer\s+)[A-Za-z0-9_\-.~+/=]{8,}`), "${1}" + RedactedCredentialPlaceholder},
	// Google API keys and OpenAI-style secret keys
	{regexp.MustCompile(`\bAIza[0-9A-Za-z_\-]{20,}`), RedactedKeyPlaceholder},
	{regexp.MustCompile(`\bsk-[A-Za-z0-9_\-]{16,}`), RedactedKeyPlaceholder},
	// key=... and api_key: ... style assignments, including URL query parameters
	{regexp.MustCompile(`(?i)\b(api[_-]?key|key|token|secret|password|passwd|pwd)(["']?\s*[:=]\s*["']?)[^"'&\s,;}]{4,}`), "${1}${2}" + RedactedKeyPlaceholder},
	// absolute filesystem paths such as template directories
	{regexp.MustCompile(`(^|\s)(?:/[\w.-]+){2,}`), "${1}" + RedactedPathPlaceholder},
}

// String redacts sensitive information from the input string.
func String(input string) string {
	if input == "" {
		return input
	}
	result := input
	for _, r := range rules {
		result = r.re.ReplaceAllString(result, r.replacement)
	}
	return result
}

// Error redacts sensitive information from an error's Error() output.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
