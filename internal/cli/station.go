package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/spf13/cobra"

	"github.com/highwaype/highwaype/pkg/config"
	"github.com/highwaype/highwaype/pkg/errors"
	"github.com/highwaype/highwaype/pkg/ingest"
	"github.com/highwaype/highwaype/pkg/pipeline"
	"github.com/highwaype/highwaype/pkg/station"
)

// stationCommand creates the station command.
func (c *CLI) stationCommand() *cobra.Command {
	var (
		configPath string
		layer      string
		start      string
		decimals   int
		at         []string
		pick       int
	)

	cmd := &cobra.Command{
		Use:   "station <drawing> [chainage...]",
		Short: "Convert between chainages and coordinates",
		Long: `Look up the centerline point and direction at each chainage, or with --at
find the chainage, offset and side of a point.

The centerline layer and start station come from the project file when -c
is given, otherwise from --layer and --start.`,
		Example: `  highwaype station route.dxf K12+500 K13+000 --start K12+000
  highwaype station route.dxf -c project.toml --at 1500.2,880.4`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := ingest.Options{Layer: layer}
			startStation := 0.0
			if configPath != "" {
				cfg, err := config.Load(configPath)
				if err != nil {
					return err
				}
				opts = cfg.Ingest
				startStation = cfg.Layout.StartStation
				if !cmd.Flags().Changed("decimals") {
					decimals = cfg.Layout.Decimals
				}
			}
			if cmd.Flags().Changed("layer") {
				opts.Layer = layer
			}
			if start != "" {
				v, err := station.Parse(start)
				if err != nil {
					return err
				}
				startStation = v
			}
			if cmd.Flags().Changed("pick") {
				opts.Pick = fixedPicker(pick)
			}
			if len(args) == 1 && len(at) == 0 {
				return errors.New(errors.ErrCodeInvalidInput, "give at least one chainage or --at point")
			}

			in, err := pipeline.Ingest(args[0], opts)
			if err != nil {
				return err
			}
			al := in.Alignment
			fmt.Printf("%s %s\n", StyleDim.Render("Route"), StyleValue.Render(fmt.Sprintf("%s to %s, %.3f m",
				station.Format(startStation, decimals),
				station.Format(startStation+al.Length(), decimals),
				al.Length())))

			if len(args) > 1 {
				rows := make([][]string, 0, len(args)-1)
				for _, s := range args[1:] {
					v, err := station.Parse(s)
					if err != nil {
						return err
					}
					f, err := al.At(v - startStation)
					if err != nil {
						return err
					}
					rows = append(rows, []string{
						station.Format(v, decimals),
						fmt.Sprintf("%.3f", f.Point[0]),
						fmt.Sprintf("%.3f", f.Point[1]),
						fmt.Sprintf("%.2f", bearing(f.Tangent)),
					})
				}
				printTable([]string{"Chainage", "X", "Y", "Direction (deg)"}, rows, nil)
			}

			if len(at) > 0 {
				rows := make([][]string, 0, len(at))
				for _, s := range at {
					p, err := parsePoint(s)
					if err != nil {
						return err
					}
					pr := al.Project(p)
					rows = append(rows, []string{
						s,
						station.Format(startStation+pr.Distance, decimals),
						fmt.Sprintf("%.3f", pr.Offset),
						pr.Side.String(),
					})
				}
				printTable([]string{"Point", "Chainage", "Offset (m)", "Side"}, rows, nil)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "project file (optional)")
	cmd.Flags().StringVar(&layer, "layer", ingest.DefaultLayer, "centerline layer")
	cmd.Flags().StringVar(&start, "start", "", "chainage of the route start, e.g. K12+000")
	cmd.Flags().IntVar(&decimals, "decimals", 3, "decimal places of printed chainages")
	cmd.Flags().StringArrayVar(&at, "at", nil, "point x,y to project onto the route (repeatable)")
	cmd.Flags().IntVar(&pick, "pick", 0, "centerline candidate (1-based, 0 chains all)")
	return cmd
}

// parsePoint parses "x,y".
func parsePoint(s string) (orb.Point, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return orb.Point{}, errors.New(errors.ErrCodeInvalidInput, "point %q must be x,y", s)
	}
	var p orb.Point
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return orb.Point{}, errors.New(errors.ErrCodeInvalidInput, "point %q must be x,y", s)
		}
		p[i] = v
	}
	return p, nil
}

// bearing converts a tangent in radians to degrees in [0, 360).
func bearing(rad float64) float64 { return normDegrees(rad * 180 / math.Pi) }

func normDegrees(d float64) float64 {
	d = math.Mod(d, 360)
	if d < 0 {
		d += 360
	}
	return d
}
