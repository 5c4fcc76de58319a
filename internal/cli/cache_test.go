package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/highwaype/highwaype/pkg/cache"
	"github.com/highwaype/highwaype/pkg/errors"
)

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")
	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	home, _ := os.UserHomeDir()
	if want := filepath.Join(home, ".cache", appName); dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}

	t.Setenv("XDG_CACHE_HOME", "/tmp/custom-cache")
	dir, err = cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	if want := filepath.Join("/tmp/custom-cache", appName); dir != want {
		t.Errorf("cacheDir() with XDG_CACHE_HOME = %q, want %q", dir, want)
	}
}

func TestNewCache(t *testing.T) {
	ctx := context.Background()
	xdg := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", xdg)
	c := New(&bytes.Buffer{}, LogInfo)

	ch, err := c.newCache(ctx, true)
	if err != nil {
		t.Fatalf("newCache(noCache) error: %v", err)
	}
	if _, ok := ch.(*cache.NullCache); !ok {
		t.Errorf("newCache(noCache) = %T, want *cache.NullCache", ch)
	}

	ch, err = c.newCache(ctx, false)
	if err != nil {
		t.Fatalf("newCache() error: %v", err)
	}
	fc, ok := ch.(*cache.FileCache)
	if !ok {
		t.Fatalf("newCache() = %T, want *cache.FileCache", ch)
	}
	if want := filepath.Join(xdg, appName); fc.Dir() != want {
		t.Errorf("Dir() = %q, want %q", fc.Dir(), want)
	}

	c.CacheURL = "http://localhost:6379"
	if _, err := c.newCache(ctx, false); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("newCache() with http URL error = %v, want INVALID_INPUT", err)
	}
}

func TestCacheClearCommand(t *testing.T) {
	ctx := context.Background()
	xdg := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", xdg)

	fc, err := cache.NewFileCache(filepath.Join(xdg, appName))
	if err != nil {
		t.Fatalf("NewFileCache() error: %v", err)
	}
	for _, k := range []string{"placement:a", "artifact:power:svg:b"} {
		if err := fc.Set(ctx, k, []byte("x"), time.Hour); err != nil {
			t.Fatalf("Set() error: %v", err)
		}
	}

	root := New(&bytes.Buffer{}, LogInfo).RootCommand()
	root.SetArgs([]string{"cache", "clear"})
	if err := root.ExecuteContext(ctx); err != nil {
		t.Fatalf("cache clear error: %v", err)
	}
	if _, hit, _ := fc.Get(ctx, "placement:a"); hit {
		t.Error("entry survived cache clear")
	}
}

func TestCachePathCommand(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")
	var out bytes.Buffer
	root := New(&bytes.Buffer{}, LogInfo).RootCommand()
	root.SetOut(&out)
	root.SetArgs([]string{"cache", "path"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("cache path error: %v", err)
	}
	if got, want := strings.TrimSpace(out.String()), filepath.Join("/tmp/xdg", appName); got != want {
		t.Errorf("cache path = %q, want %q", got, want)
	}
}
