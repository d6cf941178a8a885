package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// shapeTypeRegex matches shape type tags: lowercase identifiers with dashes
// or underscores, e.g. "start", "sub-process".
var shapeTypeRegex = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// ValidateShapeType validates a shape type tag before it is registered.
func ValidateShapeType(name string) error {
	if name == "" {
		return New(ErrCodeConfiguration, "shape type cannot be empty")
	}
	if len(name) > 64 {
		return New(ErrCodeConfiguration, "shape type too long (max 64 characters)")
	}
	if !shapeTypeRegex.MatchString(name) {
		return New(ErrCodeConfiguration, "invalid shape type: %q", name)
	}
	return nil
}

// ValidatePath validates a relative file path requested by a client.
// It prevents path traversal attacks and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}

// ValidateURL validates a node link target.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
