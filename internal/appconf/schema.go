// SPDX-License-Identifier: MPL-2.0

package appconf

import (
	_ "embed"
	"fmt"

	"github.com/appvisor/appvisor/internal/issue"
	"github.com/appvisor/appvisor/pkg/cueutil"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed schema.cue
var resolvedSchema string

// Validate checks the well-known keys of r against the embedded CUE schema.
// A violation is a structured failure: the caller renders it as-is.
func Validate(r Resolved, source string) error {
	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(resolvedSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile configuration schema: %w", schemaValue.Err())
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Resolved"))
	unified := schema.Unify(ctx.Encode(r.values))
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return issue.NewBuilder(issue.KindStructured).
			WithIssue(issue.InvalidConfigurationId).
			WithOperation("validate configuration").
			WithResource(source).
			WithSuggestion("application.mode must be dev or prod").
			WithSuggestion("application.log must be TRACE, DEBUG, INFO, WARN, ERROR, FATAL or OFF").
			Wrap(cueutil.FormatError(err, source)).
			Err()
	}
	return nil
}
