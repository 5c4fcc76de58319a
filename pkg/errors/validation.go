package errors

import (
	"strings"
	"unicode"
)

// maxNameLength bounds category, block and layer names. AutoCAD allows 255
// characters in symbol table names; spreadsheet sheet names are the tighter
// limit for categories, which become BOM rows and DXF layer suffixes.
const maxNameLength = 255

// dxfForbidden lists characters AutoCAD rejects in layer and block names.
const dxfForbidden = `<>/\":;?*|=` + "`"

// ValidateName validates a symbol name used for a device category, block or
// layer. It rejects names that a CAD program would refuse to load.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - None of the characters <>/\":;?*|=`
//   - Maximum length of 255 characters
func ValidateName(kind, name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidConfig, "%s name cannot be empty", kind)
	}

	if len(name) > maxNameLength {
		return New(ErrCodeInvalidConfig, "%s name too long (max %d characters)", kind, maxNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidConfig, "%s name contains invalid control characters", kind)
		}
	}

	if i := strings.IndexAny(name, dxfForbidden); i >= 0 {
		return New(ErrCodeInvalidConfig, "%s name %q contains invalid character %q", kind, name, name[i])
	}

	return nil
}

// ValidateOutputPath validates an output base path for safety.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
func ValidateOutputPath(path string) error {
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

	return nil
}

// ValidateURL validates a cache backend URL.
// Only redis:// and rediss:// are accepted.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "redis://") && !strings.HasPrefix(rawURL, "rediss://") {
		return New(ErrCodeInvalidInput, "URL must use redis or rediss scheme")
	}

	return nil
}
