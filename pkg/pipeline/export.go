package pipeline

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/highwaype/highwaype/pkg/annotate"
	"github.com/highwaype/highwaype/pkg/buildinfo"
	"github.com/highwaype/highwaype/pkg/dxf"
	"github.com/highwaype/highwaype/pkg/errors"
	"github.com/highwaype/highwaype/pkg/report"
	"github.com/highwaype/highwaype/pkg/sheets"
)

// drawing writes <base>.devices.dxf: the input drawing, or a new one holding
// the centerline, with device inserts, legends and sheet frames.
func (r *Runner) drawing(in *Input, res *Result, opts Options) error {
	cfg := opts.Config
	doc := in.Doc
	if doc == nil {
		doc = dxf.New()
		vs := in.Alignment.Vertices()
		pv := make([]dxf.Vertex, len(vs))
		for i, v := range vs {
			pv[i] = dxf.Vertex{Point: v.Point, Bulge: v.Bulge}
		}
		line := dxf.Polyline{Layer: cfg.Ingest.Layer, Vertices: pv, Closed: in.Alignment.Closed()}
		if err := doc.Add(line); err != nil {
			return err
		}
	}

	ao := cfg.Annotate
	// Surveyed devices are already in the drawing.
	if !opts.Survey {
		if err := annotate.Devices(doc, res.Placements, ao); err != nil {
			return err
		}
	}
	if cfg.Legends {
		if cfg.LegendSource != "" {
			src, err := dxf.Open(cfg.LegendSource)
			if err != nil {
				return err
			}
			ao.Source = src
		}
		ws, err := annotate.Legends(doc, in.Alignment, res.Placements, ao)
		if err != nil {
			return err
		}
		for _, w := range ws {
			opts.Logger.Warn(w.Message, "code", w.Code, "subject", w.Subject)
		}
		res.warn(ws...)
	}
	if len(res.Frames) > 0 {
		if err := sheets.Draw(doc, res.Frames, 0); err != nil {
			return err
		}
	}

	path := opts.path("devices.dxf")
	if err := doc.Save(path); err != nil {
		return err
	}
	res.Files = append(res.Files, path)
	return nil
}

// export writes the tables and the register concurrently.
func (r *Runner) export(ctx context.Context, in *Input, res *Result, opts Options) error {
	meta := report.Meta{
		RunID:   res.RunID,
		Title:   opts.Config.Project,
		Source:  filepath.Base(opts.Input),
		Version: buildinfo.Short(),
	}
	rows := report.Rows(res.Placements)

	type job struct {
		path  string
		write func(path string) error
	}
	var jobs []job
	if opts.wants(FormatXLSX) {
		jobs = append(jobs,
			job{opts.path("locations.xlsx"), func(p string) error {
				return writeFile(p, func(w io.Writer) error {
					return report.WriteLocationsXLSX(w, rows, res.Warnings, meta)
				})
			}},
			job{opts.path("bom.xlsx"), func(p string) error {
				return writeFile(p, func(w io.Writer) error {
					return report.WriteBOMXLSX(w, res.BOM, meta)
				})
			}},
		)
	}
	if opts.wants(FormatCSV) {
		jobs = append(jobs, job{opts.path("locations.csv"), func(p string) error {
			return writeFile(p, func(w io.Writer) error { return report.WriteCSV(w, rows) })
		}})
	}
	if opts.wants(FormatGeoJSON) {
		jobs = append(jobs, job{opts.path("devices.geojson"), func(p string) error {
			return writeFile(p, func(w io.Writer) error {
				return report.WriteGeoJSON(w, res.Placements, in.Alignment)
			})
		}})
	}
	if opts.wants(FormatSQLite) {
		jobs = append(jobs, job{opts.Output + ".db", func(p string) error {
			return report.WriteSQLite(ctx, p, report.Register{
				RunID:      res.RunID,
				Source:     meta.Source,
				Version:    meta.Version,
				CreatedAt:  time.Now().UTC(),
				Placements: res.Placements,
				BOM:        res.BOM,
				Warnings:   res.Warnings,
			})
		}})
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, j := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return j.write(j.path)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for _, j := range jobs {
		res.Files = append(res.Files, j.path)
	}
	return nil
}

// writeFile creates path and its directory and passes the file to write.
func writeFile(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", filepath.Dir(path))
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", path)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
