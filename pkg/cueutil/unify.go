// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// CompileAndValidate compiles data, unifies it with the schema definition
// and validates the result. With concrete=false optional fields may stay
// unset, which suits partial settings files.
func CompileAndValidate(schema string, data []byte, definition, filename string, concrete bool) (cue.Value, error) {
	if err := CheckFileSize(data, DefaultMaxFileSize, filename); err != nil {
		return cue.Value{}, err
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(schema)
	if schemaValue.Err() != nil {
		return cue.Value{}, fmt.Errorf("internal error: failed to compile schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(filename))
	if userValue.Err() != nil {
		return cue.Value{}, FormatError(userValue.Err(), filename)
	}

	root := schemaValue.LookupPath(cue.ParsePath(definition))
	if root.Err() != nil {
		return cue.Value{}, fmt.Errorf("internal error: schema definition %s not found: %w", definition, root.Err())
	}

	unified := root.Unify(userValue)
	if err := unified.Validate(cue.Concrete(concrete)); err != nil {
		return cue.Value{}, FormatError(err, filename)
	}
	return unified, nil
}
