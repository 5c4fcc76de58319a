package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/highwaype/highwaype/pkg/config"
	"github.com/highwaype/highwaype/pkg/diagram"
	"github.com/highwaype/highwaype/pkg/errors"
	"github.com/highwaype/highwaype/pkg/layout"
	"github.com/highwaype/highwaype/pkg/pipeline"
	"github.com/highwaype/highwaype/pkg/report"
)

// diagramCommand creates the diagram command.
func (c *CLI) diagramCommand() *cobra.Command {
	var (
		configPath string
		output     string
		formats    string
	)

	cmd := &cobra.Command{
		Use:   "diagram <locations.xlsx|locations.csv>",
		Short: "Rebuild power and fiber diagrams from a location table",
		Long: `Rebuild the power and fiber diagrams from a location table written by
place or survey, after devices were moved, added or removed by hand.

Circuits whose voltage drop, current or core count break a limit are
highlighted in the summary and drawn in red.`,
		Example: `  highwaype diagram route.locations.xlsx -c project.toml
  highwaype diagram route.locations.csv -c project.toml --format svg,dot,dxf`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cfg.Power == nil && cfg.Network == nil {
				return errors.New(errors.ErrCodeInvalidConfig, "project file has no [power] or [network] section")
			}
			fs := pipeline.ParseList(formats)
			if err := pipeline.ValidateDiagrams(fs); err != nil {
				return err
			}
			if output == "" {
				output = diagramBase(args[0])
			}
			if err := errors.ValidateOutputPath(output); err != nil {
				return err
			}
			ps, err := readPlacements(args[0], cfg.Layout.StartStation)
			if err != nil {
				return err
			}
			return c.runDiagrams(cmd.Context(), ps, cfg, output, fs)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "project file (.toml, .yaml)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output base path (default: table path without .locations.<ext>)")
	cmd.Flags().StringVar(&formats, "format", strings.Join(pipeline.DefaultDiagrams, ","), "diagram formats: svg, dot, dxf")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

// diagramBase strips the table extension and a ".locations" suffix.
func diagramBase(path string) string {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	return strings.TrimSuffix(base, ".locations")
}

// readPlacements reads a location table by file extension.
func readPlacements(path string, startStation float64) ([]layout.Placement, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "location table %s", path)
		}
		return nil, err
	}
	defer f.Close()

	var rows []report.Row
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		rows, err = report.ReadXLSX(f)
	case ".csv":
		rows, err = report.ReadCSV(f)
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported location table %s (want .xlsx or .csv)", path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return report.Placements(rows, startStation)
}

func (c *CLI) runDiagrams(ctx context.Context, ps []layout.Placement, cfg *config.Config, output string, formats []string) error {
	prog := newProgress(c.Logger)

	var graphs []*diagram.Graph
	if cfg.Power != nil {
		g, err := diagram.BuildPower(ps, *cfg.Power)
		if err != nil {
			return err
		}
		graphs = append(graphs, g)
	}
	if cfg.Network != nil {
		g, err := diagram.BuildNetwork(ps, *cfg.Network)
		if err != nil {
			return err
		}
		graphs = append(graphs, g)
	}

	var files []string
	for _, g := range graphs {
		for _, w := range g.Warnings {
			c.Logger.Warn(w.Message, "code", w.Code, "subject", w.Subject)
		}
		for _, f := range formats {
			data, err := pipeline.RenderDiagram(ctx, g, f)
			if err != nil {
				return fmt.Errorf("render %s %s: %w", g.Kind, f, err)
			}
			path := output + "." + string(g.Kind) + "." + f
			if err := writeOutput(path, data); err != nil {
				return err
			}
			files = append(files, path)
		}
	}
	prog.done(fmt.Sprintf("Built %d diagrams from %d devices", len(graphs), len(ps)))

	for _, g := range graphs {
		printNewline()
		printCircuits(g)
	}
	printNewline()
	for _, f := range files {
		printFile(f)
	}
	return nil
}

// printCircuits prints one table row per circuit, violations highlighted.
func printCircuits(g *diagram.Graph) {
	fmt.Println(StyleTitle.Render(strings.ToUpper(string(g.Kind)[:1]) + string(g.Kind)[1:]))
	var headers []string
	rows := make([][]string, len(g.Circuits))
	for i, ct := range g.Circuits {
		if g.Kind == diagram.KindPower {
			headers = []string{"Circuit", "Devices", "Conductor", "Length (m)", "Current (A)", "Drop (%)"}
			rows[i] = []string{
				ct.Name,
				fmt.Sprint(len(ct.Devices)),
				ct.Conductor,
				fmt.Sprintf("%.1f", ct.Length),
				fmt.Sprintf("%.2f", ct.Current),
				fmt.Sprintf("%.2f", ct.MaxPct),
			}
		} else {
			headers = []string{"Circuit", "Devices", "Length (m)", "Cores"}
			rows[i] = []string{
				ct.Name,
				fmt.Sprint(len(ct.Devices)),
				fmt.Sprintf("%.1f", ct.Length),
				fmt.Sprint(ct.Cores),
			}
		}
	}
	if len(rows) == 0 {
		printInfo("No circuits")
		return
	}
	printTable(headers, rows, func(row int) bool { return g.Circuits[row].Violation })
	for _, w := range g.Warnings {
		printWarning("%s: %s", w.Subject, w.Message)
	}
}

// writeOutput writes data to path, creating its directory.
func writeOutput(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}
