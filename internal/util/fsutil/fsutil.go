package fsutil

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
)

// DefaultFilename is used when no usable name can be derived from a
// URL.
const DefaultFilename = "document.pdf"

// MaxFilenameLength is the longest filename produced by
// SanitizeFilename. Longer names are truncated preserving the
// extension.
const MaxFilenameLength = 255

var invalidFilenameChars = regexp.MustCompile(`[<>:"|?*\\/]`)

// Names reserved by Windows regardless of extension.
var reservedNames = map[string]struct{}{
	"CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
	"COM1": {}, "COM2": {}, "COM3": {}, "COM4": {}, "COM5": {},
	"COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
	"LPT1": {}, "LPT2": {}, "LPT3": {}, "LPT4": {}, "LPT5": {},
	"LPT6": {}, "LPT7": {}, "LPT8": {}, "LPT9": {},
}

// SanitizeFilename makes a filename safe for filesystem use: invalid
// characters are replaced, leading/trailing dots and spaces stripped,
// Windows reserved names prefixed, overlong names truncated preserving
// the extension, and a .pdf extension forced.
func SanitizeFilename(name string) string {
	if name == "" {
		return DefaultFilename
	}

	sanitized := invalidFilenameChars.ReplaceAllString(name, "_")
	sanitized = strings.Trim(sanitized, " .")
	if sanitized == "" {
		return DefaultFilename
	}

	stem := sanitized
	if ext := path.Ext(sanitized); ext != "" {
		stem = strings.TrimSuffix(sanitized, ext)
	}
	if _, reserved := reservedNames[strings.ToUpper(stem)]; reserved {
		sanitized = "_" + sanitized
	}

	if len(sanitized) > MaxFilenameLength {
		ext := path.Ext(sanitized)
		keep := MaxFilenameLength - len(ext)
		if keep > 0 {
			sanitized = strings.TrimSuffix(sanitized, ext)[:keep] + ext
		} else {
			sanitized = sanitized[:MaxFilenameLength]
		}
	}

	if !strings.HasSuffix(strings.ToLower(sanitized), ".pdf") {
		sanitized += ".pdf"
	}

	return sanitized
}

// FilenameFromURL derives a filename from the final path segment of a
// URL, percent-decoded and sanitized. Falls back to DefaultFilename.
func FilenameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" || u.Path == "/" {
		return DefaultFilename
	}

	name := path.Base(u.Path)
	if decoded, err := url.PathUnescape(name); err == nil {
		name = decoded
	}
	if name == "" || name == "." || name == "/" {
		return DefaultFilename
	}

	return SanitizeFilename(name)
}

// FormatFileSize formats a byte count in human-readable form, e.g.
// "1.5 MB".
func FormatFileSize(size int64) string {
	if size == 0 {
		return "0 B"
	}

	units := []string{"B", "KB", "MB", "GB", "TB"}
	value := float64(size)
	idx := 0
	for value >= 1024 && idx < len(units)-1 {
		value /= 1024
		idx++
	}

	if idx == 0 {
		return fmt.Sprintf("%d %s", size, units[idx])
	}
	return fmt.Sprintf("%.1f %s", value, units[idx])
}

// FormatSpeed returns the transfer speed in MB/s formatted to two
// decimals. A non-positive duration yields "0.00".
func FormatSpeed(bytes int64, seconds float64) string {
	if seconds <= 0 {
		return "0.00"
	}
	mb := float64(bytes) / (1024 * 1024)
	return fmt.Sprintf("%.2f", mb/seconds)
}
