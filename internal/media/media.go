// Package media holds the shared image-attachment rules: MIME inference
// from file extensions and the naming scheme for cached downloads.
package media

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// MIMEType maps a recognized image extension to its MIME type. The
// extension is matched without its leading dot and case-insensitively.
// PNG keeps its own type; every other recognized extension is treated as
// JPEG. Unrecognized extensions are an input error, decided before any
// I/O happens.
func MIMEType(ext string) (string, error) {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "png":
		return "image/png", nil
	case "jpg", "jpeg":
		return "image/jpeg", nil
	default:
		return "", fmt.Errorf("unsupported image extension %q", ext)
	}
}

// Extension returns the lowercased extension of a local file path without
// the leading dot, or "" when the path has none.
func Extension(filePath string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(filePath), "."))
}

// ExtensionFromURL extracts the image extension from a remote asset URL's
// path component, ignoring any query string.
func ExtensionFromURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse asset URL: %w", err)
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(u.Path), "."))
	if ext == "" {
		return "", fmt.Errorf("asset URL %q has no file extension", rawURL)
	}
	return ext, nil
}

// SafeFileName turns a post title into a filesystem-safe base name:
// every run of whitespace becomes a single underscore, and path
// separators are stripped.
func SafeFileName(title string) string {
	fields := strings.Fields(title)
	name := strings.Join(fields, "_")
	name = strings.ReplaceAll(name, "/", "")
	name = strings.ReplaceAll(name, "\\", "")
	if name == "" {
		name = "post"
	}
	return name
}
