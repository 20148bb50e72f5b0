package logging

import (
	"regexp"
	"strings"
)

// Sensitive field names that should be redacted.
var sensitiveFields = []string{
	"password",
	"passphrase",
	"secret",
	"token",
	"credential",
	"private_key",
	"privatekey",
}

// Patterns for secrets that may appear inside command strings or errors.
var secretPatterns = []*regexp.Regexp{
	// PEM-encoded key material
	regexp.MustCompile(`(?s)-----BEGIN [A-Z ]*PRIVATE KEY-----.*?-----END [A-Z ]*PRIVATE KEY-----`),

	// sshpass style inline password flags
	regexp.MustCompile(`(?i)(sshpass\s+-p\s*)(\S+)`),

	// key=value style credentials
	regexp.MustCompile(`(?i)((?:password|passphrase|token|secret)[=:])["']?([^\s"']+)["']?`),
}

// RedactedValue is the replacement for sensitive values.
const RedactedValue = "[REDACTED]"

// Redact replaces credential-looking material in a string. Command lines are
// logged through this so inline passwords never reach the log stream.
func Redact(s string) string {
	result := s
	for _, pattern := range secretPatterns {
		result = pattern.ReplaceAllString(result, "$1"+RedactedValue)
	}
	return result
}

// IsSensitiveField checks if a field name is considered sensitive.
func IsSensitiveField(name string) bool {
	lowerName := strings.ToLower(name)
	for _, field := range sensitiveFields {
		if strings.Contains(lowerName, field) {
			return true
		}
	}
	return false
}
