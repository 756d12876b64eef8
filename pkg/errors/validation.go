package errors

import (
	"net/url"
	"regexp"
	"slices"
	"strings"
	"unicode"
)

// Formats lists the export formats accepted by [ValidateFormat].
var Formats = []string{"svg", "png", "pdf"}

// ValidateFormat checks that format is one of the supported export formats.
// Matching is case-insensitive.
func ValidateFormat(format string) error {
	if format == "" {
		return New(ErrCodeInvalidFormat, "format cannot be empty")
	}
	if !slices.Contains(Formats, strings.ToLower(format)) {
		return New(ErrCodeInvalidFormat, "unsupported format %q (want one of %s)", format, strings.Join(Formats, ", "))
	}
	return nil
}

// ValidateFormats splits a comma-separated list such as "svg,png" and
// validates every entry. The returned slice is lower-cased and deduplicated.
func ValidateFormats(list string) ([]string, error) {
	var out []string
	for _, f := range strings.Split(list, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" {
			continue
		}
		if err := ValidateFormat(f); err != nil {
			return nil, err
		}
		if !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return nil, New(ErrCodeInvalidFormat, "no output format given")
	}
	return out, nil
}

// ValidateStrategy checks that name is one of allowed. kind names the
// strategy family ("layout", "router") in the message.
func ValidateStrategy(kind, name string, allowed []string) error {
	if name == "" || slices.Contains(allowed, name) {
		return nil
	}
	return New(ErrCodeInvalidStrategy, "unknown %s strategy %q (want one of %s)", kind, name, strings.Join(allowed, ", "))
}

// siteSlugRegex matches NetBox slugs: letters, digits, dashes and underscores.
var siteSlugRegex = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

// ValidateSite validates a NetBox site slug.
func ValidateSite(slug string) error {
	if slug == "" {
		return New(ErrCodeInvalidSite, "site is required")
	}
	if len(slug) > 100 {
		return New(ErrCodeInvalidSite, "site slug too long (max 100 characters)")
	}
	if !siteSlugRegex.MatchString(slug) {
		return New(ErrCodeInvalidSite, "invalid site slug %q", slug)
	}
	return nil
}

// ValidateID validates an optional numeric NetBox object id such as a
// location or rack filter. The empty string is accepted.
func ValidateID(field, id string) error {
	if id == "" {
		return nil
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return New(ErrCodeInvalidInput, "%s must be a numeric id, got %q", field, id)
		}
	}
	if len(id) > 18 {
		return New(ErrCodeInvalidInput, "%s out of range", field)
	}
	return nil
}

// ValidateFilename validates a download filename. It must be a plain
// basename without separators, control characters or a leading dot.
func ValidateFilename(name string) error {
	if name == "" {
		return New(ErrCodeInvalidFilename, "filename cannot be empty")
	}
	if len(name) > 255 {
		return New(ErrCodeInvalidFilename, "filename too long (max 255 characters)")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidFilename, "filename contains invalid characters")
		}
	}
	if strings.ContainsAny(name, "/\\\"") {
		return New(ErrCodeInvalidFilename, "filename cannot contain path separators or quotes")
	}
	if strings.HasPrefix(name, ".") {
		return New(ErrCodeInvalidFilename, "filename cannot be a hidden file")
	}
	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https) and a host.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return New(ErrCodeInvalidInput, "URL %q has no host", rawURL)
	}
	return nil
}
