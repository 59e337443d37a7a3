package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/aretw0/canopy"
	"github.com/aretw0/canopy/internal/config"
	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/pkg/adapters/file"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/node"
)

// Options carries what every command needs: the resolved configuration
// and the documents to load.
type Options struct {
	Config config.Config
	// Files, when set, replaces Config.TreeDir as the document source.
	Files []string
	Debug bool
	Out   io.Writer
}

// LoadConfig reads path. A missing file is only an error when explicit is
// set, i.e. the user named it.
func LoadConfig(path string, explicit bool) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil && !explicit && errors.Is(err, fs.ErrNotExist) {
		return config.Default(), nil
	}
	return cfg, err
}

func (o Options) out() io.Writer {
	if o.Out == nil {
		return os.Stdout
	}
	return o.Out
}

// createLogger configures the application logger from the config; debug
// forces the Debug level.
func createLogger(opts Options) (*slog.Logger, error) {
	level, err := logging.ParseLevel(opts.Config.LogLevel)
	if err != nil {
		return nil, err
	}
	if opts.Debug {
		level = slog.LevelDebug
	}
	return logging.New(level, opts.Config.LogFormat), nil
}

// profile returns the color profile for w: colors only on a terminal.
func profile(w io.Writer) termenv.Profile {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return termenv.NewOutput(f).EnvColorProfile()
	}
	return termenv.Ascii
}

// createEngine builds an engine with the CLI nodes registered and every
// document loaded.
func createEngine(opts Options, engineOpts ...canopy.Option) (*canopy.Engine, error) {
	eng := canopy.New(engineOpts...)
	if err := registerCLINodes(eng, opts.out()); err != nil {
		return nil, err
	}

	var err error
	if len(opts.Files) > 0 {
		err = eng.LoadFiles(opts.Files...)
	} else {
		err = eng.Load(file.NewLoader(opts.Config.TreeDir))
	}
	if err != nil {
		return nil, err
	}
	if len(eng.Trees()) == 0 {
		return nil, fmt.Errorf("no trees found in %s", opts.Config.TreeDir)
	}
	return eng, nil
}

// registerCLINodes adds the actions only available from the command line.
func registerCLINodes(eng *canopy.Engine, out io.Writer) error {
	return eng.Register(node.Manifest{
		Type:        domain.NodeTypeAction,
		ID:          "Print",
		Description: "Writes message to standard output.",
		Ports:       node.Ports(node.InputPort("message").Describe("text to print, or a {key} reference")),
	}, node.LeafConstructor(func(_ context.Context, cfg *node.Config) (domain.Status, error) {
		msg, err := node.GetInput[string](cfg, "message")
		if err != nil {
			return domain.StatusIdle, err
		}
		fmt.Fprintln(out, msg)
		return domain.StatusSuccess, nil
	}))
}

// parseAssignments turns key=value pairs into a map.
func parseAssignments(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid assignment %q (want key=value)", p)
		}
		out[k] = v
	}
	return out, nil
}
