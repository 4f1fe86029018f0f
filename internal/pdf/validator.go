package pdf

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
)

// Recognized PDF version signatures. A valid file starts with one of
// these, or at least contains one in its first window.
var signatures = [][]byte{
	[]byte("%PDF-1.0"),
	[]byte("%PDF-1.1"),
	[]byte("%PDF-1.2"),
	[]byte("%PDF-1.3"),
	[]byte("%PDF-1.4"),
	[]byte("%PDF-1.5"),
	[]byte("%PDF-1.6"),
	[]byte("%PDF-1.7"),
	[]byte("%PDF-2.0"),
}

const (
	// MinFileSize is the smallest plausible PDF in bytes.
	MinFileSize = 100

	// windowSize bounds how much is read from each end of the file,
	// keeping validation O(1) in file size.
	windowSize = 1024
)

// Result holds the outcome of a structural validation pass.
type Result struct {
	// IsValid reports whether the file passed all fatal checks.
	IsValid bool

	// FileSize is the size of the validated file in bytes.
	FileSize int64

	// Version is the detected PDF version, e.g. "1.7". Empty when no
	// signature was found.
	Version string

	// Errors lists fatal problems. Non-empty iff IsValid is false.
	Errors []string

	// Warnings lists suspicious but non-disqualifying findings. May
	// be non-empty even when IsValid is true.
	Warnings []string
}

// Validator checks that a file on disk is a structurally plausible
// PDF document. It inspects bounded windows at the start and end of
// the file rather than parsing the whole document.
type Validator struct{}

// NewValidator creates a new Validator
func NewValidator() *Validator {
	return &Validator{}
}

// Validate runs all checks against the file at path. It never returns
// an error; every failure mode is captured in the Result.
func (v *Validator) Validate(path string) Result {
	var result Result

	info, err := os.Stat(path)
	if err != nil {
		result.Errors = append(result.Errors, "file does not exist")
		return result
	}

	result.FileSize = info.Size()
	if result.FileSize == 0 {
		result.Errors = append(result.Errors, "file is empty")
		return result
	}
	if result.FileSize < MinFileSize {
		result.Errors = append(result.Errors,
			fmt.Sprintf("file too small (%d bytes), likely corrupted", result.FileSize))
		return result
	}

	header, err := readWindow(path, 0, windowSize)
	if err != nil {
		result.Errors = append(result.Errors, "cannot read file header: "+err.Error())
		return result
	}
	footerOffset := result.FileSize - windowSize
	if footerOffset < 0 {
		footerOffset = 0
	}
	footer, err := readWindow(path, footerOffset, windowSize)
	if err != nil {
		result.Errors = append(result.Errors, "cannot read file trailer: "+err.Error())
		return result
	}

	version, headerWarnings, ok := checkHeader(header)
	if !ok {
		result.Errors = append(result.Errors,
			"invalid PDF header - file may be corrupted or not a PDF")
		return result
	}
	result.Version = version
	result.Warnings = append(result.Warnings, headerWarnings...)

	footerWarnings, ok := checkFooter(footer)
	if !ok {
		result.Errors = append(result.Errors,
			"invalid PDF structure - file may be incomplete or corrupted")
		return result
	}
	result.Warnings = append(result.Warnings, footerWarnings...)

	result.Warnings = append(result.Warnings, structureWarnings(header, footer)...)

	result.IsValid = true
	return result
}

// readWindow reads up to size bytes starting at offset.
func readWindow(path string, offset int64, size int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, size)
	n, err := f.ReadAt(buf, offset)
	if err != nil && err != io.EOF {
		return nil, err
	}
	return buf[:n], nil
}

// checkHeader looks for a recognized version signature. A signature
// found past the start of the window is accepted with a warning;
// some producers prepend junk before the header.
func checkHeader(header []byte) (version string, warnings []string, ok bool) {
	if len(header) < 8 {
		return "", nil, false
	}

	for _, sig := range signatures {
		if bytes.HasPrefix(header, sig) {
			return string(sig[len("%PDF-"):]), nil, true
		}
	}

	for _, sig := range signatures {
		if bytes.Contains(header, sig) {
			return string(sig[len("%PDF-"):]),
				[]string{"PDF signature found but not at file start"}, true
		}
	}

	return "", nil, false
}

// checkFooter verifies the end of the file. A proper %%EOF marker
// passes cleanly; trailer structure without the marker passes with a
// warning; anything else fails.
func checkFooter(footer []byte) (warnings []string, ok bool) {
	if len(footer) < 10 {
		return nil, false
	}

	text := string(footer)
	if strings.Contains(text, "%%EOF") {
		return nil, true
	}

	for _, marker := range []string{"trailer", "xref", "startxref"} {
		if strings.Contains(text, marker) {
			return []string{"PDF appears to have proper structure but missing %%EOF marker"}, true
		}
	}

	return nil, false
}

// structureWarnings layers heuristics that never affect the verdict.
func structureWarnings(header, footer []byte) []string {
	var warnings []string

	headerText := string(header)
	footerText := string(footer)

	hasObjectMarker := false
	for _, marker := range []string{"obj", "<<", ">>"} {
		if strings.Contains(headerText, marker) {
			hasObjectMarker = true
			break
		}
	}
	if !hasObjectMarker {
		warnings = append(warnings, "PDF header doesn't contain expected object markers")
	}

	if !strings.Contains(footerText, "xref") && !strings.Contains(headerText, "xref") {
		warnings = append(warnings, "no cross-reference table found - PDF may be damaged")
	}

	if !strings.Contains(headerText, "/Root") && !strings.Contains(footerText, "/Root") {
		warnings = append(warnings, "no root object reference found")
	}

	return warnings
}
