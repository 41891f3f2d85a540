// SPDX-License-Identifier: MPL-2.0

package appconf

import (
	"log/slog"
	"regexp"
	"strings"
)

var (
	// scopedKey matches %<scope>.<key>.
	scopedKey = regexp.MustCompile(`^%([a-zA-Z0-9_\-]+)\.(.*)$`)
	// placeholder matches ${name}.
	placeholder = regexp.MustCompile(`\$\{([^}]+)\}`)
)

// Resolve applies scoping for identity and then interpolation from vars to
// raw. Unresolved placeholders are kept literally and reported through logger;
// they never fail resolution.
func Resolve(raw *Raw, identity string, vars Vars, logger *slog.Logger) Resolved {
	if logger == nil {
		logger = slog.Default()
	}
	scoped := scope(raw.entries, identity)
	for key, value := range scoped {
		scoped[key] = interpolate(key, value, vars, logger)
	}
	return Resolved{values: scoped}
}

// scope copies unscoped entries first and then the entries scoped to
// identity, so a matching scoped key always wins over its unscoped twin.
func scope(entries []Entry, identity string) map[string]string {
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		if scopedKey.MatchString(e.Key) {
			continue
		}
		out[strings.TrimSpace(e.Key)] = strings.TrimSpace(e.Value)
	}
	for _, e := range entries {
		m := scopedKey.FindStringSubmatch(e.Key)
		if m == nil || m[1] != identity {
			continue
		}
		out[m[2]] = strings.TrimSpace(e.Value)
	}
	return out
}

// interpolate replaces every ${name} in value once. Substituted text is
// inserted literally, so backslashes and '$' in a variable's value are never
// reinterpreted and never expanded again.
func interpolate(key, value string, vars Vars, logger *slog.Logger) string {
	if !strings.Contains(value, "${") {
		return value
	}
	return placeholder.ReplaceAllStringFunc(value, func(match string) string {
		name := match[2 : len(match)-1]
		if r, ok := vars.Lookup(name); ok {
			return r
		}
		logger.Warn("cannot replace variable in configuration", "variable", name, "key", key, "value", value)
		return match
	})
}
