package cli

import (
	"fmt"

	"github.com/aretw0/canopy"
	"github.com/aretw0/canopy/internal/presentation/tui"
	"github.com/muesli/termenv"
)

// Nodes prints the catalogue of registered node types as markdown, rendered
// through glamour when the output is a terminal.
func Nodes(opts Options) error {
	out := opts.out()
	eng := canopy.New()
	if err := registerCLINodes(eng, out); err != nil {
		return err
	}
	md := tui.Catalogue(eng.Registry().Manifests())

	if profile(out) == termenv.Ascii {
		fmt.Fprint(out, md)
		return nil
	}
	render, err := tui.NewRenderer()
	if err != nil {
		return err
	}
	rendered, err := render(md)
	if err != nil {
		return err
	}
	fmt.Fprint(out, rendered)
	return nil
}
