package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/highwaype/highwaype/pkg/alignment"
	"github.com/highwaype/highwaype/pkg/bom"
	"github.com/highwaype/highwaype/pkg/cache"
	"github.com/highwaype/highwaype/pkg/dxf"
	"github.com/highwaype/highwaype/pkg/errors"
	"github.com/highwaype/highwaype/pkg/ingest"
	"github.com/highwaype/highwaype/pkg/layout"
	"github.com/highwaype/highwaype/pkg/observability"
	"github.com/highwaype/highwaype/pkg/sheets"
)

// Runner executes runs against a cache. It keeps no run state, so one
// Runner may serve concurrent runs.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner returns a Runner. A nil cache disables caching, a nil keyer
// uses cache.DefaultKeyer and a nil logger uses log.Default.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Close releases the cache.
func (r *Runner) Close() error { return r.Cache.Close() }

// Execute runs every stage and writes the outputs.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	cfg := opts.Config
	res := &Result{RunID: opts.RunID}
	logger.Debug("run", "id", res.RunID, "input", opts.Input, "output", opts.Output)

	var in *Input
	d, err := stage(ctx, "ingest", func() (int, error) {
		var err error
		in, err = Ingest(opts.Input, ingestOptions(opts))
		if err != nil {
			return 0, err
		}
		return in.Alignment.SegmentCount(), nil
	})
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}
	res.Alignment = in.Alignment
	res.Stats.IngestTime = d
	logger.Info("loaded centerline",
		"length", fmt.Sprintf("%.3f", in.Alignment.Length()),
		"segments", in.Alignment.SegmentCount(),
		"duration", d)

	var lr *layout.Result
	d, err = stage(ctx, "layout", func() (int, error) {
		var err error
		lr, res.CacheInfo.LayoutHit, err = r.LayoutWithCacheInfo(ctx, in, opts)
		if err != nil {
			return 0, err
		}
		return len(lr.Placements), nil
	})
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	res.Placements, res.Counts = lr.Placements, lr.Counts
	res.warn(lr.Warnings...)
	res.Stats.LayoutTime = d
	logger.Info("placed devices",
		"devices", len(lr.Placements),
		"categories", len(lr.Counts),
		"cached", res.CacheInfo.LayoutHit,
		"duration", d)
	for _, w := range lr.Warnings {
		logger.Warn(w.Message, "code", w.Code, "subject", w.Subject)
	}

	res.BOM = bom.Build(res.Placements)

	if cfg.Power != nil || cfg.Network != nil {
		d, err = stage(ctx, "diagram", func() (int, error) {
			return r.diagrams(ctx, res, opts)
		})
		if err != nil {
			return nil, fmt.Errorf("diagram: %w", err)
		}
		res.Stats.DiagramTime = d
	}

	if opts.Sheets {
		_, err = stage(ctx, "sheets", func() (int, error) {
			so := sheets.Options{}
			if cfg.Sheets != nil {
				so = *cfg.Sheets
			}
			var err error
			res.Frames, err = sheets.Plan(in.Alignment, so)
			return len(res.Frames), err
		})
		if err != nil {
			return nil, fmt.Errorf("sheets: %w", err)
		}
		logger.Info("planned sheets", "frames", len(res.Frames))
	}

	exportStart := time.Now()
	if opts.wants(FormatDXF) {
		_, err = stage(ctx, "annotate", func() (int, error) {
			return len(res.Placements), r.drawing(in, res, opts)
		})
		if err != nil {
			return nil, fmt.Errorf("drawing: %w", err)
		}
	}
	_, err = stage(ctx, "export", func() (int, error) {
		return len(opts.Formats), r.export(ctx, in, res, opts)
	})
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	res.Stats.ExportTime = time.Since(exportStart)
	logger.Info("wrote outputs", "files", len(res.Files), "duration", res.Stats.ExportTime)
	return res, nil
}

// Input is an ingested centerline and the drawing it came from.
type Input struct {
	Path      string
	Doc       *dxf.Document // nil for GeoJSON input
	Alignment *alignment.Alignment
}

// Ingest loads the centerline of a .dxf, .geojson or .json file.
func Ingest(path string, opts ingest.Options) (*Input, error) {
	if !strings.EqualFold(filepath.Ext(path), ".dxf") {
		al, err := ingest.Load(path, opts)
		if err != nil {
			return nil, err
		}
		return &Input{Path: path, Alignment: al}, nil
	}
	doc, err := dxf.Open(path)
	if err != nil {
		return nil, err
	}
	al, err := ingest.FromDXF(doc, opts)
	if err != nil {
		return nil, err
	}
	return &Input{Path: path, Doc: doc, Alignment: al}, nil
}

func ingestOptions(opts Options) ingest.Options {
	o := opts.Config.Ingest
	if opts.Pick != nil {
		o.Pick = opts.Pick
	}
	return o
}

// LayoutWithCacheInfo places or surveys the devices of a run and reports
// whether the placements came from the cache.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, in *Input, opts Options) (*layout.Result, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}
	if opts.Survey && in.Doc == nil {
		return nil, false, errors.New(errors.ErrCodeInvalidInput, "survey needs a DXF drawing, got %s", in.Path)
	}
	key, err := r.placementKey(in, opts)
	if err != nil {
		return nil, false, err
	}

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var cached layout.Result
			if err := cache.Decode(data, &cached); err == nil {
				observability.Cache().OnCacheHit(ctx, "placement")
				return &cached, true, nil
			}
		} else if err != nil {
			r.Logger.Debug("cache read failed", "err", err)
		}
	}
	observability.Cache().OnCacheMiss(ctx, "placement")

	cfg := opts.Config
	var lr *layout.Result
	if opts.Survey {
		ps := layout.Survey(in.Alignment, layout.Inserts(in.Doc), cfg.SurveyBlocks, cfg.Layout)
		lr = &layout.Result{Placements: ps, Counts: layout.CountByCategory(ps)}
	} else {
		lr, err = layout.Place(ctx, in.Alignment, cfg.Rules, cfg.Layout)
		if err != nil {
			return nil, false, err
		}
	}

	if data, err := cache.Encode(lr); err == nil {
		if err := r.Cache.Set(ctx, key, data, cache.TTLPlacement); err != nil {
			r.Logger.Debug("cache write failed", "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "placement", len(data))
		}
	}
	return lr, false, nil
}

func (r *Runner) placementKey(in *Input, opts Options) (string, error) {
	cfg := opts.Config
	inputs := struct {
		Rules    []layout.Rule
		Segments []layout.Segment
		Blocks   map[string]string `json:",omitempty"`
		Drawing  string            `json:",omitempty"`
	}{Rules: cfg.Rules, Segments: cfg.Layout.Segments}
	if opts.Survey {
		data, err := in.Doc.Bytes()
		if err != nil {
			return "", err
		}
		inputs.Rules = nil
		inputs.Blocks = cfg.SurveyBlocks
		inputs.Drawing = cache.Hash(data)
	}
	return r.Keyer.PlacementKey(AlignmentHash(in.Alignment), cache.PlacementKeyOpts{
		Survey:       opts.Survey,
		RulesHash:    cache.HashValue(inputs),
		StartStation: cfg.Layout.StartStation,
		Decimals:     cfg.Layout.Decimals,
		Strict:       cfg.Layout.Strict,
	}), nil
}

// AlignmentHash identifies an alignment by its vertices and closure.
func AlignmentHash(al *alignment.Alignment) string {
	return cache.HashValue(struct {
		Vertices []alignment.Vertex
		Closed   bool
	}{al.Vertices(), al.Closed()})
}

func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// stage reports a stage to the observability hooks and times it.
func stage(ctx context.Context, name string, fn func() (int, error)) (time.Duration, error) {
	hooks := observability.Pipeline()
	hooks.OnStageStart(ctx, name)
	start := time.Now()
	n, err := fn()
	if err == nil {
		err = ctx.Err()
	}
	d := time.Since(start)
	hooks.OnStageComplete(ctx, name, n, d, err)
	return d, err
}
