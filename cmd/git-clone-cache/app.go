package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/urfave/cli/v3"

	"github.com/dilijev/git-clone-cache/cache"
	"github.com/dilijev/git-clone-cache/config"
	"github.com/dilijev/git-clone-cache/exec"
	"github.com/dilijev/git-clone-cache/git"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

type app struct {
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string
}

// loadConfig layers command-line flags over the file and environment.
func (a *app) loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.String("config"), a.getenv)
	if err != nil {
		return nil, err
	}

	overrides := []struct {
		flag string
		dst  *string
	}{
		{"cache-dir", &cfg.CacheDir},
		{"log-level", &cfg.LogLevel},
		{"hasher", &cfg.Hasher},
		{"index-backend", &cfg.IndexBackend},
		{"remote-backend", &cfg.RemoteBackend},
		{"git-binary", &cfg.GitBinary},
		{"jq-binary", &cfg.JQBinary},
	}
	for _, o := range overrides {
		if cmd.IsSet(o.flag) {
			*o.dst = cmd.String(o.flag)
		}
	}

	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger logs to stderr and, when logFile is set, appends to it too. The
// returned closer is never nil.
func (a *app) newLogger(cfg *config.Config, fs billy.Filesystem, logFile string) (*cache.Logger, io.Closer, error) {
	level, err := cache.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}

	logCfg := cache.LogConfig{Level: level, Output: a.stderr}
	var closer io.Closer = nopCloser{}
	if logFile != "" {
		f, err := fs.OpenFile(logFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file %s: %w", logFile, err)
		}
		logCfg.File = f
		closer = f
	}

	return cache.NewLogger(logCfg), closer, nil
}

func (a *app) newCache(cfg *config.Config, fs billy.Filesystem, logger *cache.Logger) (*cache.Cache, error) {
	executor := exec.New(exec.WithInheritEnv())
	opts := []cache.Option{cache.WithFilesystem(fs), cache.WithLogger(logger)}

	if cfg.Hasher == config.HasherCommand {
		opts = append(opts, cache.WithHasher(cache.NewCommandHasher(executor)))
	}
	if cfg.IndexBackend == config.IndexJQ {
		doc := filepath.Join(cfg.CacheDir, cache.DirectoryDocument)
		opts = append(opts, cache.WithDocumentStore(cache.NewJQDocumentStore(fs, doc, executor, cfg.JQBinary)))
	}
	if cfg.RemoteBackend == config.RemoteCLI {
		opts = append(opts, cache.WithRemoteManager(git.NewCLIRemotes(executor, cfg.GitBinary)))
	}

	return cache.New(cfg.CacheDir, opts...)
}

// setup loads configuration and builds the cache. logFile is honored only
// when the cache root already exists, so a mistyped root is not created.
func (a *app) setup(cmd *cli.Command, withLogFile bool) (*cache.Cache, io.Closer, error) {
	cfg, err := a.loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	fs := osfs.New("/")
	logFile := ""
	if withLogFile && !cfg.NoLog {
		if info, err := fs.Stat(filepath.Dir(cfg.LogFile)); err == nil && info.IsDir() {
			logFile = cfg.LogFile
		}
	}

	logger, closer, err := a.newLogger(cfg, fs, logFile)
	if err != nil {
		return nil, nil, err
	}

	c, err := a.newCache(cfg, fs, logger)
	if err != nil {
		_ = closer.Close()
		return nil, nil, err
	}
	return c, closer, nil
}

func (a *app) aliasAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() < 2 {
		return usagef("alias needs CANONICAL_URL and at least one ALIAS_URL")
	}
	args := cmd.Args().Slice()

	dryRun := cmd.Bool("dry-run")
	withLogFile := !cmd.Bool("no-log") && !dryRun
	c, closer, err := a.setup(cmd, withLogFile)
	if err != nil {
		return err
	}
	defer closer.Close()

	var opts []cache.AliasOption
	if cmd.Bool("force") {
		opts = append(opts, cache.WithForce())
	}
	if dryRun {
		opts = append(opts, cache.WithDryRun())
	}

	report, err := c.Alias(ctx, args[0], args[1:], opts...)
	if report != nil {
		a.printReport(report)
	}
	return err
}

func (a *app) printReport(report *cache.Report) {
	prefix := ""
	if report.DryRun {
		prefix = "(dry-run) "
	}
	fmt.Fprintf(a.stdout, "%scanonical %s  %s\n", prefix, report.CanonicalKey.Short(), report.CanonicalURL)

	for _, r := range report.Aliases {
		fmt.Fprintf(a.stdout, "%s%-9s %s  %s", prefix, r.Link.Action, r.Key.Short(), r.URL)
		if r.Remote.Name != "" {
			fmt.Fprintf(a.stdout, "  remote=%s (%s)", r.Remote.Name, r.Remote.Status)
		}
		fmt.Fprintln(a.stdout)
	}
}

func (a *app) keyAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() == 0 {
		return usagef("key needs at least one URL")
	}

	c, closer, err := a.setup(cmd, false)
	if err != nil {
		return err
	}
	defer closer.Close()

	for _, url := range cmd.Args().Slice() {
		key, err := c.Key(ctx, url)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "%s  %s\n", key, url)
	}
	return nil
}

func (a *app) resolveAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() == 0 {
		return usagef("resolve needs at least one URL")
	}

	c, closer, err := a.setup(cmd, false)
	if err != nil {
		return err
	}
	defer closer.Close()

	for i, url := range cmd.Args().Slice() {
		res, err := c.Lookup(ctx, url)
		if err != nil {
			return err
		}
		if i > 0 {
			fmt.Fprintln(a.stdout)
		}
		a.printLookup(res)
	}
	return nil
}

func (a *app) printLookup(res *cache.LookupResult) {
	e := res.Entry
	fmt.Fprintf(a.stdout, "url:       %s\n", res.URL)
	fmt.Fprintf(a.stdout, "key:       %s\n", res.Key)
	fmt.Fprintf(a.stdout, "path:      %s\n", e.Path)

	switch {
	case e.Kind == cache.EntrySymlink && e.Dangling:
		fmt.Fprintf(a.stdout, "entry:     symlink -> %s (dangling)\n", e.LinkTarget)
	case e.Kind == cache.EntrySymlink:
		fmt.Fprintf(a.stdout, "entry:     symlink -> %s\n", e.LinkTarget)
	default:
		fmt.Fprintf(a.stdout, "entry:     %s\n", e.Kind)
	}
	if e.RealPath != "" {
		fmt.Fprintf(a.stdout, "real path: %s\n", e.RealPath)
	}

	switch {
	case !res.Indexed:
		fmt.Fprintln(a.stdout, "directory: (not recorded)")
	case res.IndexedKey != res.Key:
		fmt.Fprintf(a.stdout, "directory: %s (stale, expected %s)\n", res.IndexedKey, res.Key)
	default:
		fmt.Fprintf(a.stdout, "directory: %s\n", res.IndexedKey)
	}
}
