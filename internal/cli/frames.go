package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/highwaype/highwaype/pkg/config"
	"github.com/highwaype/highwaype/pkg/dxf"
	"github.com/highwaype/highwaype/pkg/errors"
	"github.com/highwaype/highwaype/pkg/ingest"
	"github.com/highwaype/highwaype/pkg/pipeline"
	"github.com/highwaype/highwaype/pkg/sheets"
	"github.com/highwaype/highwaype/pkg/station"
)

// framesCommand creates the frames command group.
func (c *CLI) framesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "frames",
		Short: "Plan plot sheets and renumber title blocks",
	}
	cmd.AddCommand(c.framesPlanCommand())
	cmd.AddCommand(c.framesNumberCommand())
	return cmd
}

// framesPlanCommand creates the "frames plan" subcommand.
func (c *CLI) framesPlanCommand() *cobra.Command {
	var (
		configPath string
		output     string
		opts       sheets.Options
		overlap    float64
	)

	cmd := &cobra.Command{
		Use:   "plan <drawing>",
		Short: "Lay sheet frames along the route",
		Long: `Lay plot sheet frames along the route centerline and draw their outlines
on the SHEET_FRAME layer of a copy of the drawing. R2000 and later drawings
also get one plot layout per sheet, with a locked viewport at the sheet scale.

Sheet size, scale and overlap come from the [sheets] section of the
project file when -c is given; flags override them.`,
		Example: `  highwaype frames plan route.dxf
  highwaype frames plan route.dxf --scale 500 --overlap 0.15`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ingestOpts := ingest.Options{}
			startStation := 0.0
			if configPath != "" {
				cfg, err := config.Load(configPath)
				if err != nil {
					return err
				}
				ingestOpts = cfg.Ingest
				startStation = cfg.Layout.StartStation
				if cfg.Sheets != nil {
					mergeSheetFlags(cmd, &opts, *cfg.Sheets)
				}
			}
			if cmd.Flags().Changed("overlap") {
				opts.Overlap = sheets.Fraction(overlap)
			}
			if err := opts.ValidateAndSetDefaults(); err != nil {
				return err
			}
			if output == "" {
				output = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ".frames.dxf"
			}
			if err := errors.ValidateOutputPath(output); err != nil {
				return err
			}

			prog := newProgress(c.Logger)
			in, err := pipeline.Ingest(args[0], ingestOpts)
			if err != nil {
				return err
			}
			frames, err := sheets.Plan(in.Alignment, opts)
			if err != nil {
				return err
			}
			doc := in.Doc
			if doc == nil {
				doc = dxf.New()
			}
			if err := sheets.Draw(doc, frames, 0); err != nil {
				return err
			}
			if err := doc.Save(output); err != nil {
				return err
			}
			prog.done(fmt.Sprintf("Planned %d sheets", len(frames)))

			rows := make([][]string, len(frames))
			for i, f := range frames {
				rows[i] = []string{
					f.Name,
					station.Format(startStation+f.Distance, 3),
					fmt.Sprintf("%.3f", f.Center[0]),
					fmt.Sprintf("%.3f", f.Center[1]),
					fmt.Sprintf("%.2f", normDegrees(f.Rotation)),
				}
			}
			if len(rows) > 0 {
				printTable([]string{"Sheet", "Chainage", "X", "Y", "Rotation (deg)"}, rows, nil)
				if !doc.SupportsLayouts() {
					printWarning("%s drawings have no named layouts, only outlines were drawn", doc.Version())
				}
			} else {
				printWarning("Route is shorter than half a sheet, no frames planned")
			}
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "project file (optional)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output drawing (default: <drawing>.frames.dxf)")
	cmd.Flags().Float64Var(&opts.PaperWidth, "paper-width", sheets.DefaultPaperWidth, "paper width in mm")
	cmd.Flags().Float64Var(&opts.PaperHeight, "paper-height", sheets.DefaultPaperHeight, "paper height in mm")
	cmd.Flags().Float64Var(&opts.Scale, "scale", sheets.DefaultScale, "drawing scale denominator")
	cmd.Flags().Float64Var(&overlap, "overlap", sheets.DefaultOverlap, "fraction of the sheet width shared by neighbours")
	cmd.Flags().StringVar(&opts.Prefix, "prefix", sheets.DefaultPrefix, "sheet name prefix")
	return cmd
}

// mergeSheetFlags fills the options not set on the command line from the
// project file.
func mergeSheetFlags(cmd *cobra.Command, opts *sheets.Options, cfg sheets.Options) {
	if !cmd.Flags().Changed("paper-width") {
		opts.PaperWidth = cfg.PaperWidth
	}
	if !cmd.Flags().Changed("paper-height") {
		opts.PaperHeight = cfg.PaperHeight
	}
	if !cmd.Flags().Changed("scale") {
		opts.Scale = cfg.Scale
	}
	if !cmd.Flags().Changed("overlap") {
		opts.Overlap = cfg.Overlap
	}
	if !cmd.Flags().Changed("prefix") {
		opts.Prefix = cfg.Prefix
	}
}

// framesNumberCommand creates the "frames number" subcommand.
func (c *CLI) framesNumberCommand() *cobra.Command {
	var (
		output string
		xMin   float64
		opts   sheets.NumberOptions
	)

	cmd := &cobra.Command{
		Use:   "number <drawing.dxf>",
		Short: "Renumber title-block frames top to bottom, left to right",
		Long: `Rewrite the sheet number attribute of every title block in the drawing.
Frames are grouped into rows by insertion height, rows are numbered from
the top and frames within a row from the left.`,
		Example: `  highwaype frames number plots.dxf
  highwaype frames number plots.dxf --tag SHEET_NO --start 101 --x-min 0 -o plots-numbered.dxf`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("x-min") {
				opts.XRestrict = &xMin
			}
			if output == "" {
				output = args[0]
			}
			if err := errors.ValidateOutputPath(output); err != nil {
				return err
			}

			prog := newProgress(c.Logger)
			var numbered []sheets.Numbered
			err := dxf.Edit(args[0], output, func(doc *dxf.Document) error {
				var err error
				numbered, err = sheets.Renumber(doc, opts)
				return err
			})
			if err != nil {
				return err
			}
			prog.done(fmt.Sprintf("Renumbered %d frames", len(numbered)))

			if len(numbered) == 0 {
				printWarning("No title blocks with attribute %s", opts.Tag)
				return nil
			}
			rows := make([][]string, len(numbered))
			for i, n := range numbered {
				rows[i] = []string{n.Handle, fmt.Sprintf("%.3f", n.X), fmt.Sprintf("%.3f", n.Y), n.Old, n.New}
			}
			printTable([]string{"Handle", "X", "Y", "Old", "New"}, rows, func(row int) bool {
				return numbered[row].Old != numbered[row].New
			})
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output drawing (default: overwrite the input)")
	cmd.Flags().StringVar(&opts.Tag, "tag", sheets.DefaultTag, "attribute tag holding the sheet number")
	cmd.Flags().Float64Var(&opts.YTolerance, "y-tolerance", 1, "height difference within which frames share a row")
	cmd.Flags().Float64Var(&xMin, "x-min", 0, "only number frames right of this x")
	cmd.Flags().IntVar(&opts.Start, "start", 1, "first sheet number")
	return cmd
}
