// Package cli implements the highwaype command-line interface.
//
// Commands:
//   - place: lay out devices by rule and write the drawing, tables and diagrams
//   - survey: report the devices already drawn along the route
//   - diagram: rebuild system diagrams from an edited location table
//   - station: convert between chainages and coordinates
//   - inspect: list the centerline candidates, layers and blocks of a drawing
//   - frames: plan plot sheets and renumber title blocks
//   - cache: manage the placement cache
//
// All commands log through charmbracelet/log; --verbose switches to debug
// level and reports stage timings and cache lookups.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/highwaype/highwaype/pkg/buildinfo"
	"github.com/highwaype/highwaype/pkg/cache"
	"github.com/highwaype/highwaype/pkg/errors"
	"github.com/highwaype/highwaype/pkg/observability"
	"github.com/highwaype/highwaype/pkg/pipeline"
)

// appName names the cache directory.
const appName = "highwaype"

// Log levels accepted by New and SetLogLevel.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds state shared by all commands.
type CLI struct {
	Logger *log.Logger

	// CacheURL selects a Redis cache (redis:// or rediss://) instead of
	// the file cache.
	CacheURL string

	verbose bool
}

// New returns a CLI logging to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger level. Debug level also registers the
// logging observability hooks.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
	if level <= log.DebugLevel {
		hooks := observability.LogHooks{Logger: c.Logger}
		observability.SetPipelineHooks(hooks)
		observability.SetCacheHooks(hooks)
	}
}

// RootCommand returns the root command with every subcommand registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "highwaype",
		Short: "Highwaype lays out roadside devices along a route",
		Long: `Highwaype reads a route centerline from a CAD drawing, places devices such
as cameras, signs and emergency phones at rule-defined spacings, and writes
the updated drawing, location and quantity tables, and power and fiber
system diagrams.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if c.verbose {
				c.SetLogLevel(LogDebug)
			}
		},
	}
	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log stage timings and cache lookups")
	root.PersistentFlags().StringVar(&c.CacheURL, "cache-url", os.Getenv("HIGHWAYPE_CACHE_URL"), "Redis cache URL (default: file cache)")

	root.AddCommand(c.placeCommand())
	root.AddCommand(c.surveyCommand())
	root.AddCommand(c.diagramCommand())
	root.AddCommand(c.stationCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.framesCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())
	return root
}

// newRunner returns a pipeline runner whose cache keys are scoped to this
// build.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	ch, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	keyer := cache.NewScopedKeyer(nil, buildinfo.Short()+":")
	return pipeline.NewRunner(ch, keyer, c.Logger), nil
}

func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if c.CacheURL != "" {
		if err := errors.ValidateURL(c.CacheURL); err != nil {
			return nil, err
		}
		return cache.NewRedisCache(ctx, c.CacheURL)
	}
	dir, err := cacheDir()
	if err != nil {
		c.Logger.Warn("caching disabled", "err", err)
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// cacheDir returns $XDG_CACHE_HOME/highwaype or ~/.cache/highwaype.
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
