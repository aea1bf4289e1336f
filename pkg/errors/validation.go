package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateObjectName validates a stored composite filename for safety.
// It ensures the name is a simple basename without path components, so
// download handlers can never be steered outside the storage directory.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters or null bytes
//   - No path separators or traversal sequences
//   - No hidden files
//   - Maximum length of 256 characters
func ValidateObjectName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "object name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidName, "object name too long (max 256 characters)")
	}

	// Check for control characters and null bytes
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidName, "object name contains invalid control characters")
		}
	}

	// Must be a simple filename, not a path
	if strings.ContainsAny(name, "/\\") {
		return New(ErrCodeInvalidName, "object name cannot contain path separators")
	}

	// Check for path traversal patterns
	if strings.Contains(name, "..") {
		return New(ErrCodeInvalidName, "object name cannot contain path traversal sequences (..)")
	}

	if strings.HasPrefix(name, ".") {
		return New(ErrCodeInvalidName, "object name cannot be a hidden file")
	}

	return nil
}

// ValidateManifestFilename validates a request manifest filename for safety.
// It ensures the filename is a simple basename without path components.
func ValidateManifestFilename(filename string) error {
	if filename == "" {
		return New(ErrCodeInvalidManifest, "manifest filename cannot be empty")
	}

	// Must be a simple filename, not a path
	if strings.ContainsAny(filename, "/\\") {
		return New(ErrCodeInvalidManifest, "manifest filename cannot contain path separators")
	}

	// No hidden files (starting with .)
	if strings.HasPrefix(filename, ".") {
		return New(ErrCodeInvalidManifest, "manifest filename cannot be a hidden file")
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}

// layoutIDRegex matches valid layout catalog identifiers such as
// "2x4-vertical-2" or "5x7-6cut".
var layoutIDRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// ValidateLayoutID validates a layout catalog identifier.
// Identifiers are lowercase alphanumerics and dashes; they appear in
// config files, HTTP requests and CLI flags.
func ValidateLayoutID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidLayout, "layout id cannot be empty")
	}

	if len(id) > 64 {
		return New(ErrCodeInvalidLayout, "layout id too long (max 64 characters)")
	}

	if !layoutIDRegex.MatchString(id) {
		return New(ErrCodeInvalidLayout, "invalid layout id: %q", id)
	}

	return nil
}

// sessionIDRegex matches the UUID session identifiers issued by the booth.
var sessionIDRegex = regexp.MustCompile(`^[a-f0-9]{8}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{12}$`)

// ValidateSessionID validates a booth session identifier.
func ValidateSessionID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "session id cannot be empty")
	}

	if !sessionIDRegex.MatchString(id) {
		return New(ErrCodeInvalidInput, "invalid session id: %q", id)
	}

	return nil
}

// pageLabelRegex matches printer page-size labels such as "4x6" or "5x7".
var pageLabelRegex = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?x[0-9]+(\.[0-9]+)?$`)

// ValidatePageLabel validates a physical page-size label forwarded to the
// print service.
func ValidatePageLabel(label string) error {
	if label == "" {
		return New(ErrCodeInvalidInput, "page label cannot be empty")
	}

	if !pageLabelRegex.MatchString(label) {
		return New(ErrCodeInvalidInput, "invalid page label: %q", label)
	}

	return nil
}
