package logger

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Redacted replaces credential values in anything this package emits.
const Redacted = "[MASKED]"

var sensitiveKey = regexp.MustCompile(`(?i)(api[-_]?key|token|password|secret|authorization|auth)`)

// Header schemes run before the key/value pattern so that
// "Authorization: Bearer <tok>" cannot leave the token behind after the key
// match consumes the scheme word.
var sensitivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9._\-\[\]]+`),
	regexp.MustCompile(`(?i)basic\s+[a-zA-Z0-9._\-\[\]]+`),
	regexp.MustCompile(`(?i)["']?(api[-_]?key|token|password|secret|authorization|auth)["']?\s*[=:]\s*["']?[^"'\s]+["']?`),
}

// Mask redacts credential-like substrings while keeping the key name.
// Masking an already-masked string is a no-op.
func Mask(text string) string {
	masked := text
	for _, pattern := range sensitivePatterns {
		masked = pattern.ReplaceAllStringFunc(masked, func(match string) string {
			if i := strings.IndexAny(match, "=:"); i >= 0 {
				return strings.TrimSpace(match[:i]) + "=" + Redacted
			}
			return Redacted
		})
	}
	return masked
}

// SensitiveKey reports whether a structured field name looks credential-like.
func SensitiveKey(key string) bool {
	return sensitiveKey.MatchString(key)
}

// safeStringify serializes an arbitrary value for logging and masks the
// result. It never panics; unserializable values degrade to a placeholder.
func safeStringify(v interface{}) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return "[unable to serialize value]"
	}
	return Mask(string(raw))
}
