package errors

import (
	"math"
	"regexp"
	"strings"
	"unicode"
)

// identifierRegex matches SQL table and MongoDB collection names accepted by sources.
var identifierRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateIdentifier validates a table or collection name before it is
// interpolated into a query.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - Maximum length of 64 characters
//   - ASCII letters, digits and underscores only, not starting with a digit
func ValidateIdentifier(name string) error {
	if name == "" {
		return New(ErrCodeInvalidSource, "identifier cannot be empty")
	}
	if len(name) > 64 {
		return New(ErrCodeInvalidSource, "identifier too long (max 64 characters)")
	}
	if !identifierRegex.MatchString(name) {
		return New(ErrCodeInvalidSource, "invalid identifier: %q", name)
	}
	return nil
}

// ValidatePath validates a local file path used as a dataset or output location.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}
	return nil
}

// ValidateHue checks that a heatmap hue is a finite angle in [0, 360].
func ValidateHue(hue float64) error {
	if math.IsNaN(hue) || math.IsInf(hue, 0) || hue < 0 || hue > 360 {
		return New(ErrCodeInvalidInput, "hue must be between 0 and 360, got %v", hue)
	}
	return nil
}

// hexColorRegex matches #rgb and #rrggbb colors.
var hexColorRegex = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// ValidateHexColor validates a CSS hex color used in palette configuration.
func ValidateHexColor(color string) error {
	if !hexColorRegex.MatchString(color) {
		return New(ErrCodeInvalidConfig, "invalid hex color: %q", color)
	}
	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has one of the given schemes.
func ValidateURL(rawURL string, schemes ...string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}
	for _, s := range schemes {
		if strings.HasPrefix(rawURL, s+"://") {
			return nil
		}
	}
	return New(ErrCodeInvalidInput, "URL must use one of the schemes %v", schemes)
}
