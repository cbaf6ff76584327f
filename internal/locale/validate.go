package locale

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaCUE string

// validate checks a decoded catalog against the CUE schema: all required
// message and button keys present, all values non-empty strings.
func validate(raw rawCatalog) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE).LookupPath(cue.ParsePath("#Catalog"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile catalog schema: %w", err)
	}

	value := ctx.Encode(map[string]any{
		"messages": raw.Messages,
		"buttons":  raw.Buttons,
	})
	if err := value.Err(); err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}

	unified := schema.Unify(value)
	if err := unified.Validate(cue.Concrete(true), cue.Final()); err != nil {
		return fmt.Errorf("invalid catalog: %s", cueerrors.Details(err, nil))
	}

	return nil
}
