// SPDX-License-Identifier: MPL-2.0

package appconf

import (
	"fmt"
	"strings"
)

// Well-known configuration keys.
const (
	KeyMode      = "application.mode"
	KeyLog       = "application.log"
	KeyName      = "application.name"
	KeyLangs     = "application.langs"
	KeySecret    = "application.secret"
	KeyTmp       = "application.tmp"
	PrefixModule = "module."

	// TmpNone disables the temp directory.
	TmpNone = "none"
	// TmpDefault is the temp directory relative to the application root.
	TmpDefault = "tmp"
)

const (
	// ModeDev enables hot reload; start is deferred to the first request.
	ModeDev Mode = "DEV"
	// ModeProd precompiles everything once and starts immediately.
	ModeProd Mode = "PROD"
)

// Mode is the run mode, fixed for the life of the process after init.
type Mode string

// String returns the mode name.
func (m Mode) String() string {
	return string(m)
}

// ParseMode accepts dev/prod in any case.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToUpper(strings.TrimSpace(s))) {
	case ModeDev:
		return ModeDev, nil
	case ModeProd:
		return ModeProd, nil
	default:
		return "", fmt.Errorf("unknown application mode %q (expected dev or prod)", s)
	}
}

// ModeOf derives the run mode from resolved configuration. DEV is the default.
func ModeOf(r Resolved) (Mode, error) {
	return ParseMode(r.GetOr(KeyMode, string(ModeDev)))
}

// Langs returns the supported locales from application.langs. A missing or
// blank value yields an empty list.
func Langs(r Resolved) []string {
	parts := strings.Split(r.GetOr(KeyLangs, ""), ",")
	if len(parts) == 1 && strings.TrimSpace(parts[0]) == "" {
		return []string{}
	}
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
