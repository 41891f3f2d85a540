// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue/errors"
)

// DefaultMaxFileSize bounds CUE sources read from disk.
const DefaultMaxFileSize int64 = 1 << 20

// FormatError rewrites a CUE error so every line is prefixed with the key
// path it concerns.
//
// Error format: <file-path>: <key-path>: <message>
//
// Examples:
//   - application.conf: application.mode: invalid value "qa" (out of bound =~"^(?i:dev|prod)$")
//   - appvisor.cue: watch.debounce: conflicting values "soon" and int
func FormatError(err error, filePath string) error {
	if err == nil {
		return nil
	}

	var cueErr errors.Error
	if !errors.As(err, &cueErr) {
		return fmt.Errorf("%s: %w", filePath, err)
	}
	cueErrors := errors.Errors(err)

	var lines []string
	for _, e := range cueErrors {
		pathStr := formatPath(errors.Path(e))
		format, args := e.Msg()
		msg := fmt.Sprintf(format, args...)

		if pathStr != "" {
			lines = append(lines, fmt.Sprintf("%s: %s", pathStr, msg))
		} else {
			lines = append(lines, msg)
		}
	}

	if len(lines) == 1 {
		return fmt.Errorf("%s: %s", filePath, lines[0])
	}
	return fmt.Errorf("%s: validation failed:\n  %s", filePath, strings.Join(lines, "\n  "))
}

// formatPath joins CUE path selectors. Definition selectors (#Name) are
// dropped, numeric selectors become [i] and quoted labels lose their quotes,
// so ["#Resolved", "\"application.mode\""] prints as application.mode.
func formatPath(path []string) string {
	var result strings.Builder
	for _, part := range path {
		if strings.HasPrefix(part, "#") {
			continue
		}
		part = strings.Trim(part, `"`)
		if isIndex(part) && result.Len() > 0 {
			result.WriteString("[")
			result.WriteString(part)
			result.WriteString("]")
			continue
		}
		if result.Len() > 0 {
			result.WriteString(".")
		}
		result.WriteString(part)
	}
	return result.String()
}

func isIndex(part string) bool {
	if part == "" {
		return false
	}
	for _, c := range part {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// CheckFileSize verifies that data does not exceed maxSize.
func CheckFileSize(data []byte, maxSize int64, filename string) error {
	if int64(len(data)) > maxSize {
		return fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes",
			filename, len(data), maxSize)
	}
	return nil
}
