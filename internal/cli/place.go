package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/highwaype/highwaype/pkg/config"
	"github.com/highwaype/highwaype/pkg/errors"
	"github.com/highwaype/highwaype/pkg/ingest"
	"github.com/highwaype/highwaype/pkg/observability"
	"github.com/highwaype/highwaype/pkg/pipeline"
)

// runFlags holds the flags shared by place and survey.
type runFlags struct {
	config      string
	output      string
	formats     string
	diagrams    string
	sheets      bool
	noCache     bool
	refresh     bool
	pick        int
	interactive bool
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.config, "config", "c", "", "project file (.toml, .yaml)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output base path (default: input without extension)")
	cmd.Flags().StringVar(&f.formats, "format", strings.Join(pipeline.DefaultFormats, ","), "export formats: dxf, xlsx, csv, geojson, db")
	cmd.Flags().StringVar(&f.diagrams, "diagram", strings.Join(pipeline.DefaultDiagrams, ","), "diagram formats: svg, dot, dxf")
	cmd.Flags().BoolVar(&f.sheets, "sheets", false, "plan and draw plot frames")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "recompute cached placements and diagrams")
	cmd.Flags().IntVar(&f.pick, "pick", -1, "centerline candidate to use when the layer holds several (1-based, 0 chains all)")
	cmd.Flags().BoolVarP(&f.interactive, "interactive", "i", false, "choose the centerline candidate interactively")
	_ = cmd.MarkFlagRequired("config")
}

// options builds pipeline options for input from the flags.
func (f *runFlags) options(cmd *cobra.Command, input string, survey bool, c *CLI) (pipeline.Options, error) {
	cfg, err := config.Load(f.config)
	if err != nil {
		return pipeline.Options{}, err
	}
	opts := pipeline.Options{
		Input:    input,
		Output:   f.output,
		Config:   cfg,
		Survey:   survey,
		Formats:  pipeline.ParseList(f.formats),
		Diagrams: pipeline.ParseList(f.diagrams),
		Sheets:   f.sheets || cfg.Sheets != nil,
		Refresh:  f.refresh,
		Logger:   c.Logger,
	}
	switch {
	case f.interactive && cmd.Flags().Changed("pick"):
		return opts, errors.New(errors.ErrCodeInvalidInput, "--pick and --interactive are mutually exclusive")
	case f.interactive:
		opts.Pick = pickCandidate
	case cmd.Flags().Changed("pick"):
		opts.Pick = fixedPicker(f.pick)
	}
	return opts, opts.ValidateAndSetDefaults()
}

// placeCommand creates the place command.
func (c *CLI) placeCommand() *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "place <drawing>",
		Short: "Lay out devices along the route by rule",
		Long: `Lay out devices along the route centerline by the project rules.

The drawing is a DXF with the centerline on the configured layer, or a
GeoJSON LineString. Outputs share the output base path:

  <base>.devices.dxf        drawing with device blocks and labels
  <base>.locations.xlsx     location table
  <base>.locations.csv      location table as CSV
  <base>.bom.xlsx           bill of materials
  <base>.power.svg          power diagram (with [power])
  <base>.network.svg        fiber diagram (with [network])

Placements and diagrams are cached. Use --refresh to recompute them.`,
		Example: `  highwaype place route.dxf -c project.toml
  highwaype place route.dxf -c project.toml --format dxf,xlsx,db --sheets
  highwaype place route.geojson -c project.yaml -o out/route --diagram svg,dot`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options(cmd, args[0], false, c)
			if err != nil {
				return err
			}
			return c.runPipeline(cmd.Context(), opts, flags.noCache, !flags.interactive)
		},
	}
	flags.register(cmd)
	return cmd
}

// runPipeline executes a run and prints its summary.
func (c *CLI) runPipeline(ctx context.Context, opts pipeline.Options, noCache, spin bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	// Debug logs and the picker share the terminal with the spinner.
	var spinner *Spinner
	if spin && c.Logger.GetLevel() > LogDebug {
		spinner = newSpinner(ctx, "Placing devices...")
		prev := observability.Pipeline()
		observability.SetPipelineHooks(spinner)
		defer observability.SetPipelineHooks(prev)
		spinner.Start()
	}
	res, err := runner.Execute(ctx, opts)
	if spinner != nil {
		spinner.Stop()
	}
	if err != nil {
		return err
	}

	printSummary(res)
	printNewline()
	for _, f := range res.Files {
		printFile(f)
	}
	printNewline()
	if len(res.Files) > 0 && !opts.Survey {
		printNextStep("Rebuild diagrams after editing the table",
			fmt.Sprintf("highwaype diagram %s.locations.xlsx -c <project>", opts.Output))
	}
	return nil
}

// printSummary prints the device counts, diagram circuits and warnings of
// a run.
func printSummary(res *pipeline.Result) {
	printSuccess("Placed %d devices along %.3f m", len(res.Placements), res.Alignment.Length())
	printStats(len(res.Placements), len(res.Warnings), res.CacheInfo.LayoutHit)
	printNewline()

	cats := make([]string, 0, len(res.Counts))
	for k := range res.Counts {
		cats = append(cats, k)
	}
	sort.Strings(cats)
	rows := make([][]string, len(cats))
	for i, k := range cats {
		rows[i] = []string{k, fmt.Sprint(res.Counts[k])}
	}
	if len(rows) > 0 {
		printTable([]string{"Category", "Devices"}, rows, nil)
	}

	if len(res.Warnings) > 0 {
		printNewline()
		for _, w := range res.Warnings {
			printWarning("%s: %s", w.Subject, w.Message)
		}
	}
}

// surveyCommand creates the survey command.
func (c *CLI) surveyCommand() *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "survey <drawing.dxf>",
		Short: "Tabulate the devices already drawn along the route",
		Long: `Find the device blocks listed under [survey] in the drawing, project each
onto the centerline and write the same tables and diagrams as place.

Rules are not needed. The drawing is copied unchanged apart from legends
and sheet frames.`,
		Example: `  highwaype survey asbuilt.dxf -c project.toml
  highwaype survey asbuilt.dxf -c project.toml --format xlsx,csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options(cmd, args[0], true, c)
			if err != nil {
				return err
			}
			return c.runPipeline(cmd.Context(), opts, flags.noCache, !flags.interactive)
		},
	}
	flags.register(cmd)
	return cmd
}

var _ ingest.Picker = pickCandidate
