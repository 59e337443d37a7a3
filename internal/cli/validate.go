package cli

import (
	"fmt"
	"strings"

	"github.com/aretw0/canopy/pkg/schema"
)

// Validate loads every document and reports each registered tree, or every
// problem found. The returned error is non-nil when loading failed.
func Validate(opts Options) error {
	out := opts.out()
	prof := profile(out)

	eng, err := createEngine(opts)
	if err != nil {
		fmt.Fprintln(out, prof.String("✗ invalid").Foreground(prof.Color("1")).String())
		fmt.Fprint(out, FormatError(err))
		return err
	}

	for _, id := range eng.Trees() {
		mark := prof.String("✓").Foreground(prof.Color("2")).String()
		if id == eng.MainTree() {
			fmt.Fprintf(out, "%s %s (main)\n", mark, id)
			continue
		}
		fmt.Fprintf(out, "%s %s\n", mark, id)
	}
	return nil
}

// FormatError renders err with one indented line per validation problem.
func FormatError(err error) string {
	errs := schema.ValidationErrors(err)
	if len(errs) == 0 {
		return "  " + err.Error() + "\n"
	}
	var sb strings.Builder
	for _, e := range errs {
		fmt.Fprintf(&sb, "  - %s\n", e)
	}
	return sb.String()
}
