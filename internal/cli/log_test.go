package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/highwaype/highwaype/pkg/observability"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		logFunc func(*log.Logger)
		wantLog bool
	}{
		{"info at info level", log.InfoLevel, func(l *log.Logger) { l.Info("test") }, true},
		{"debug at info level", log.InfoLevel, func(l *log.Logger) { l.Debug("test") }, false},
		{"debug at debug level", log.DebugLevel, func(l *log.Logger) { l.Debug("test") }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.logFunc(newLogger(&buf, tt.level))
			if got := buf.Len() > 0; got != tt.wantLog {
				t.Errorf("got log output = %v, want %v", got, tt.wantLog)
			}
		})
	}
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	p := newProgress(newLogger(&buf, log.InfoLevel))
	time.Sleep(10 * time.Millisecond)
	p.done("renumbered 3 frames")
	if !strings.Contains(buf.String(), "renumbered 3 frames (") {
		t.Errorf("progress output = %q", buf.String())
	}
}

func TestSetLogLevelRegistersHooks(t *testing.T) {
	observability.Reset()
	defer observability.Reset()

	var buf bytes.Buffer
	c := New(&buf, LogInfo)
	c.SetLogLevel(LogInfo)
	if _, ok := observability.Pipeline().(observability.NoopPipelineHooks); !ok {
		t.Fatal("info level registered hooks")
	}

	c.SetLogLevel(LogDebug)
	observability.Cache().OnCacheHit(context.Background(), "placement")
	if !strings.Contains(buf.String(), "cache hit") {
		t.Errorf("debug hooks not logging: %q", buf.String())
	}
}

func TestVerboseFlag(t *testing.T) {
	observability.Reset()
	defer observability.Reset()
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	tests := []struct {
		args []string
		want log.Level
	}{
		{[]string{"cache", "path"}, log.InfoLevel},
		{[]string{"--verbose", "cache", "path"}, log.DebugLevel},
		{[]string{"cache", "path", "-v"}, log.DebugLevel},
	}
	for _, tt := range tests {
		c := New(&bytes.Buffer{}, LogInfo)
		root := c.RootCommand()
		root.SetOut(&bytes.Buffer{})
		root.SetArgs(tt.args)
		if err := root.ExecuteContext(context.Background()); err != nil {
			t.Fatalf("%v: Execute() error: %v", tt.args, err)
		}
		if got := c.Logger.GetLevel(); got != tt.want {
			t.Errorf("%v: level = %v, want %v", tt.args, got, tt.want)
		}
	}
}
