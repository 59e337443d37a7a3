package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/aretw0/canopy"
	"github.com/aretw0/canopy/internal/presentation/tui"
	"github.com/aretw0/canopy/pkg/adapters/file"
	httpadapter "github.com/aretw0/canopy/pkg/adapters/http"
	"github.com/aretw0/canopy/pkg/adapters/redis"
	"github.com/aretw0/canopy/pkg/blackboard"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/observability"
)

// RunOptions configures a single tree execution.
type RunOptions struct {
	Options
	// TreeID overrides Config.MainTree.
	TreeID string
	// Set holds key=value blackboard entries applied after Config.Blackboard.
	Set []string
	// Once ticks the root a single time instead of until completion.
	Once bool
	// Quiet suppresses the banner and the final tree.
	Quiet bool
}

// Run executes a tree until it completes, fails, is halted over HTTP or
// ctx is cancelled.
func Run(ctx context.Context, opts RunOptions) error {
	logger, err := createLogger(opts.Options)
	if err != nil {
		return err
	}
	cfg := opts.Config
	out := opts.out()
	prof := profile(out)

	set, err := parseAssignments(opts.Set)
	if err != nil {
		return err
	}

	hooks := []domain.LifecycleHooks{observability.LogHooks(logger)}

	var srv *httpadapter.Server
	if cfg.Listen != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics, err := observability.NewMetrics(reg)
		if err != nil {
			return err
		}
		srv = httpadapter.NewServer(httpadapter.WithGatherer(reg), httpadapter.WithLogger(logger))
		hooks = append(hooks, metrics.Hooks(), srv.Hooks())
	}

	var mirror *redis.Mirror
	if cfg.Redis.Addr != "" {
		mirror = redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redis.WithPrefix(cfg.Redis.Prefix),
			redis.WithTTL(cfg.Redis.TTL),
			redis.WithLogger(logger),
		)
		defer mirror.Close()
		hooks = append(hooks, mirror.Hooks())
	}

	eng, err := createEngine(opts.Options,
		canopy.WithLogger(logger),
		canopy.WithLifecycleHooks(domain.ChainHooks(hooks...)),
		canopy.WithTickInterval(cfg.TickInterval),
	)
	if err != nil {
		return err
	}

	bb := blackboard.New()
	for k, v := range cfg.Blackboard {
		bb.Write(k, v)
	}
	for k, v := range set {
		bb.Write(k, v)
	}

	treeID := opts.TreeID
	if treeID == "" {
		treeID = cfg.MainTree
	}
	tree, err := eng.Instantiate(bb, treeID)
	if err != nil {
		return err
	}

	if mirror != nil {
		detach, err := mirror.Attach(ctx, tree.UID().String(), bb)
		if err != nil {
			return err
		}
		defer detach()
		logger.Info("mirroring blackboard", "redis", cfg.Redis.Addr, "key", mirror.BlackboardKey(tree.UID().String()))
	}

	if srv != nil {
		srv.Attach(tree)
		stop, err := serve(cfg.Listen, srv.Handler())
		if err != nil {
			return err
		}
		defer stop()
		logger.Info("inspection server listening", "addr", cfg.Listen)
	}

	if !opts.Quiet {
		tui.PrintBanner(out, prof, canopy.Version)
	}

	var status domain.Status
	if opts.Once {
		status, err = tree.TickOnce(ctx)
	} else {
		status, err = tree.TickWhileRunning(ctx)
	}

	snap := tree.Snapshot()
	if !opts.Quiet {
		fmt.Fprintln(out)
		tui.PrintTree(out, prof, snap.Root)
		if keys := bb.Keys(); len(keys) > 0 {
			fmt.Fprintln(out)
			fmt.Fprint(out, tui.FormatBlackboard(keys, snap.Blackboard))
		}
	}
	if cfg.Snapshot != "" {
		if werr := file.WriteSnapshot(cfg.Snapshot, snap); werr != nil {
			logger.Error("snapshot write failed", "path", cfg.Snapshot, "err", werr)
		}
	}
	if mirror != nil {
		if serr := mirror.SaveSnapshot(context.WithoutCancel(ctx), snap); serr != nil {
			logger.Error("snapshot save failed", "err", serr)
		}
	}

	switch {
	case err != nil && canopy.IsHalted(err):
		return fmt.Errorf("tree halted after %d rounds: %w", tree.Rounds(), err)
	case err != nil:
		return err
	case status == domain.StatusFailure:
		return ErrTreeFailed
	}
	return nil
}

// ErrTreeFailed is returned by Run when the root finishes with FAILURE.
var ErrTreeFailed = errors.New("tree finished with FAILURE")

// serve starts an HTTP server on addr and returns a func that shuts it down.
func serve(addr string, h http.Handler) (stop func(), err error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	srv := &http.Server{Handler: h, ReadHeaderTimeout: 5 * time.Second}
	go func() { _ = srv.Serve(ln) }()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
