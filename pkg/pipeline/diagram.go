package pipeline

import (
	"context"
	"io"
	"sort"

	"github.com/highwaype/highwaype/pkg/bom"
	"github.com/highwaype/highwaype/pkg/cache"
	"github.com/highwaype/highwaype/pkg/diagram"
	"github.com/highwaype/highwaype/pkg/errors"
	"github.com/highwaype/highwaype/pkg/observability"
)

// diagrams builds the configured diagrams, adds their cable to the bill of
// materials and writes the diagram files.
func (r *Runner) diagrams(ctx context.Context, res *Result, opts Options) (int, error) {
	cfg := opts.Config
	logger := opts.Logger
	placementHash := cache.HashValue(res.Placements)

	type built struct {
		g      *diagram.Graph
		params any
	}
	var graphs []built
	if cfg.Power != nil {
		g, err := diagram.BuildPower(res.Placements, *cfg.Power)
		if err != nil {
			return 0, err
		}
		res.Power = g
		graphs = append(graphs, built{g, cfg.Power})
	}
	if cfg.Network != nil {
		g, err := diagram.BuildNetwork(res.Placements, *cfg.Network)
		if err != nil {
			return 0, err
		}
		res.Network = g
		graphs = append(graphs, built{g, cfg.Network})
	}

	allHit := true
	for _, b := range graphs {
		g := b.g
		res.warn(g.Warnings...)
		for _, w := range g.Warnings {
			logger.Warn(w.Message, "code", w.Code, "subject", w.Subject)
		}
		addCable(res.BOM, g)

		arts, hit, err := r.RenderWithCacheInfo(ctx, g, placementHash, cache.HashValue(b.params), opts.Diagrams)
		if err != nil {
			return 0, err
		}
		allHit = allHit && hit
		for _, f := range opts.Diagrams {
			path := opts.path(string(g.Kind) + "." + f)
			data := arts[f]
			err := writeFile(path, func(w io.Writer) error {
				_, err := w.Write(data)
				return err
			})
			if err != nil {
				return 0, err
			}
			res.Files = append(res.Files, path)
		}
		logger.Info("built diagram",
			"kind", g.Kind,
			"circuits", len(g.Circuits),
			"violations", g.Violations(),
			"cached", hit)
	}
	res.CacheInfo.DiagramHit = allHit && len(graphs) > 0
	return len(graphs), nil
}

// addCable adds the cable lengths of g to b in name order.
func addCable(b *bom.BOM, g *diagram.Graph) {
	lengths := g.Cable()
	names := make([]string, 0, len(lengths))
	for n := range lengths {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		b.AddItem(n, "m", lengths[n])
	}
}

// RenderWithCacheInfo renders g in every format and reports whether all of
// them came from the cache. placementHash and paramsHash identify the inputs
// g was built from.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, g *diagram.Graph, placementHash, paramsHash string, formats []string) (map[string][]byte, bool, error) {
	keyOf := func(format string) string {
		return r.Keyer.ArtifactKey(placementHash, cache.ArtifactKeyOpts{
			Kind:       string(g.Kind),
			ParamsHash: paramsHash,
			Format:     format,
		})
	}

	arts := make(map[string][]byte, len(formats))
	for _, f := range formats {
		data, hit, err := r.Cache.Get(ctx, keyOf(f))
		if err != nil || !hit {
			break
		}
		arts[f] = data
	}
	if len(arts) == len(formats) {
		observability.Cache().OnCacheHit(ctx, "artifact")
		return arts, true, nil
	}
	observability.Cache().OnCacheMiss(ctx, "artifact")

	for _, f := range formats {
		data, err := RenderDiagram(ctx, g, f)
		if err != nil {
			return nil, false, err
		}
		arts[f] = data
		if err := r.Cache.Set(ctx, keyOf(f), data, cache.TTLArtifact); err == nil {
			observability.Cache().OnCacheSet(ctx, "artifact", len(data))
		}
	}
	return arts, false, nil
}

// RenderDiagram renders g as Graphviz SVG, DOT source or a schematic DXF
// drawing.
func RenderDiagram(ctx context.Context, g *diagram.Graph, format string) ([]byte, error) {
	switch format {
	case DiagramDOT:
		return []byte(diagram.ToDOT(g)), nil
	case DiagramSVG:
		return diagram.RenderSVG(ctx, diagram.ToDOT(g))
	case DiagramDXF:
		doc, err := diagram.Schematic(g, diagram.SchematicOptions{})
		if err != nil {
			return nil, err
		}
		return doc.Bytes()
	}
	return nil, errors.New(errors.ErrCodeUnsupported, "unsupported diagram format %q", format)
}
