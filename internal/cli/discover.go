// pattern: Imperative Shell
package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	flag "github.com/spf13/pflag"

	"rosdex/internal/config"
	"rosdex/internal/discovery"
	"rosdex/internal/instance"
	"rosdex/internal/logging"
	"rosdex/internal/sink"
	"rosdex/internal/watch"
)

// runEnv bundles the config, logging, and scanner shared by the three
// discovery commands.
type runEnv struct {
	cfg     config.Config
	manager *logging.Manager
	matcher *discovery.Matcher
	scanner *discovery.Scanner
}

func newRunEnv(configDir string) (*runEnv, error) {
	cfg, err := loadConfig(configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
	}

	dataDir := ResolveDataDir(configDir)
	manager, err := logging.NewManager(logging.Config{
		FilePath: cfg.ResolveLogFile(dataDir),
		Level:    cfg.LogLevel,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	matcher := discovery.NewMatcher(cfg.ExcludeDirs)
	return &runEnv{
		cfg:     cfg,
		manager: manager,
		matcher: matcher,
		scanner: discovery.NewScanner(matcher, manager.For("walker")),
	}, nil
}

func (e *runEnv) Close() {
	_ = e.manager.Close()
}

// loadConfig loads the configuration from the specified directory or
// default location.
func loadConfig(configDir string) (config.Config, error) {
	if configDir != "" {
		return config.LoadFromDir(configDir)
	}
	return config.Load()
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func fatalUsage(usage string) {
	fmt.Fprintf(os.Stderr, "%s\n", usage)
	os.Exit(1)
}

// resolveSearchDir validates the search root before any traversal begins.
// A missing root is fatal: no meaningful output could be produced.
func resolveSearchDir(arg string) string {
	abs, err := filepath.Abs(arg)
	if err != nil {
		abs = arg
	}
	info, statErr := os.Stat(abs)
	if statErr != nil || !info.IsDir() {
		fmt.Fprintf(os.Stderr, "Error: search directory does not exist: %s\n", abs)
		os.Exit(1)
	}
	return abs
}

func mustAbs(arg string) string {
	abs, err := filepath.Abs(arg)
	if err != nil {
		fatal(err)
	}
	return abs
}

// runNodePackages links every package defining a node into links_dir.
func runNodePackages(configDir string, args []string) error {
	const usage = "Usage: rosdex node-packages <search_dir> <links_dir> [--max N]"
	if len(args) < 2 {
		fatalUsage(usage)
	}
	fs := flag.NewFlagSet("node-packages", flag.ContinueOnError)
	max := fs.IntP("max", "m", 0, "stop after finding N packages")
	if err := fs.Parse(args[2:]); err != nil {
		fatalUsage(usage)
	}

	searchDir := resolveSearchDir(args[0])
	linksDir := mustAbs(args[1])

	env, err := newRunEnv(configDir)
	if err != nil {
		fatal(err)
	}
	defer env.Close()

	fl, err := instance.Lock(linksDir)
	if err != nil {
		fatal(err)
	}
	defer instance.Unlock(fl)

	res, err := env.scanner.FindNodePackages(searchDir, *max)
	if err != nil {
		fatal(err)
	}

	out := sink.NewSymlinkSink(linksDir, "containing a node", os.Stdout, env.manager.For("sink.symlink"))
	if err := out.Consume(res, *max); err != nil {
		fatal(err)
	}
	return nil
}

// runMissingReadmes links every package lacking a README into links_dir.
func runMissingReadmes(configDir string, args []string) error {
	const usage = "Usage: rosdex missing-readmes <search_dir> <links_dir> [--max N]"
	if len(args) < 2 {
		fatalUsage(usage)
	}
	fs := flag.NewFlagSet("missing-readmes", flag.ContinueOnError)
	max := fs.IntP("max", "m", 0, "stop after finding N packages")
	if err := fs.Parse(args[2:]); err != nil {
		fatalUsage(usage)
	}

	searchDir := resolveSearchDir(args[0])
	linksDir := mustAbs(args[1])

	env, err := newRunEnv(configDir)
	if err != nil {
		fatal(err)
	}
	defer env.Close()

	fl, err := instance.Lock(linksDir)
	if err != nil {
		fatal(err)
	}
	defer instance.Unlock(fl)

	res, err := env.scanner.FindMissingReadmes(searchDir, *max)
	if err != nil {
		fatal(err)
	}

	out := sink.NewSymlinkSink(linksDir, "without a README", os.Stdout, env.manager.For("sink.symlink"))
	if err := out.Consume(res, *max); err != nil {
		fatal(err)
	}
	return nil
}

// runNodeIndex writes the JSON node index, optionally staying alive to
// keep it in sync with the tree.
func runNodeIndex(configDir string, args []string) error {
	const usage = "Usage: rosdex node-index <search_dir> <output_json> [--max N] [--watch]"
	if len(args) < 2 {
		fatalUsage(usage)
	}
	fs := flag.NewFlagSet("node-index", flag.ContinueOnError)
	max := fs.IntP("max", "m", 0, "stop after finding N packages")
	watchTree := fs.BoolP("watch", "w", false, "keep running and rewrite the index on tree changes")
	if err := fs.Parse(args[2:]); err != nil {
		fatalUsage(usage)
	}

	searchDir := resolveSearchDir(args[0])

	env, err := newRunEnv(configDir)
	if err != nil {
		fatal(err)
	}
	defer env.Close()

	out := sink.NewJSONSink(args[1], os.Stdout, env.manager.For("sink.json"))

	fl, err := instance.Lock(filepath.Dir(out.Path()))
	if err != nil {
		fatal(err)
	}
	defer instance.Unlock(fl)

	res, err := env.scanner.IndexNodePackages(searchDir, *max)
	if err != nil {
		fatal(err)
	}
	if err := out.Consume(res, *max); err != nil {
		fatal(err)
	}

	if !*watchTree {
		return nil
	}
	if err := runIndexWatch(env, out, searchDir, *max, res.Packages); err != nil {
		fatal(err)
	}
	return nil
}

// runIndexWatch blocks until interrupted, rewriting the index whenever the
// discovered records change. Unchanged trees never rewrite the file, so
// downstream consumers see a stable index.
func runIndexWatch(env *runEnv, out *sink.JSONSink, searchDir string, max int, initial []discovery.Package) error {
	logger := env.manager.For("watch")

	prev, err := out.Render(initial)
	if err != nil {
		return err
	}

	rebuild := func() error {
		res, err := env.scanner.IndexNodePackages(searchDir, max)
		if err != nil {
			return err
		}
		data, err := out.Render(res.Packages)
		if err != nil {
			return err
		}
		if bytes.Equal(data, prev) {
			logger.Debug("index unchanged after rescan")
			return nil
		}
		if err := out.WriteFile(res.Packages); err != nil {
			return err
		}
		prev = data
		logger.Info("index rewritten", "packages", len(res.Packages))
		fmt.Printf("Index updated: %d package(s) written to %s\n", len(res.Packages), out.Path())
		return nil
	}

	w, err := watch.New(searchDir, env.matcher, rebuild, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Watching %s for changes (Ctrl-C to stop)\n", searchDir)
	return w.Run(ctx)
}
