package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/highwaype/highwaype/pkg/dxf"
	"github.com/highwaype/highwaype/pkg/ingest"
)

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	var layer string

	cmd := &cobra.Command{
		Use:   "inspect <drawing.dxf>",
		Short: "List centerline candidates, layers and blocks of a drawing",
		Long: `Show what a drawing holds before placing devices: the centerline
candidates on the layer, the entity count per layer and the block
definitions with their insert counts.

Use the candidate numbers with place --pick.`,
		Example: `  highwaype inspect route.dxf
  highwaype inspect route.dxf --layer ALIGNMENT`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := dxf.Open(args[0])
			if err != nil {
				return err
			}
			printKeyValue("Drawing", args[0])
			printKeyValue("Version", doc.Version())
			printNewline()

			cands := ingest.Candidates(doc, layer)
			fmt.Println(StyleTitle.Render("Centerline candidates on " + layer))
			if len(cands) == 0 {
				printWarning("No LINE, ARC or polyline entities on layer %s", layer)
			} else {
				rows := make([][]string, len(cands))
				for i, cd := range cands {
					closed := ""
					if cd.Closed {
						closed = "yes"
					}
					rows[i] = []string{
						fmt.Sprint(cd.Index + 1),
						cd.Type,
						cd.Handle,
						fmt.Sprintf("%.3f", cd.Length),
						fmt.Sprint(len(cd.Vertices)),
						closed,
					}
				}
				printTable([]string{"#", "Type", "Handle", "Length (m)", "Vertices", "Closed"}, rows, nil)
			}
			printNewline()

			layers, inserts := tally(doc.Entities())
			fmt.Println(StyleTitle.Render("Layers"))
			printTable([]string{"Layer", "Entities"}, countRows(layers), nil)
			printNewline()

			blocks := doc.Blocks()
			fmt.Println(StyleTitle.Render("Blocks"))
			if len(blocks) == 0 {
				printInfo("No block definitions")
				return nil
			}
			rows := make([][]string, len(blocks))
			for i, b := range blocks {
				rows[i] = []string{b, fmt.Sprint(inserts[b])}
			}
			printTable([]string{"Block", "Inserts"}, rows, nil)
			return nil
		},
	}

	cmd.Flags().StringVar(&layer, "layer", ingest.DefaultLayer, "centerline layer")
	return cmd
}

// tally counts entities per layer and inserts per upper-case block name.
func tally(ents []dxf.Entity) (layers, inserts map[string]int) {
	layers = make(map[string]int)
	inserts = make(map[string]int)
	for _, e := range ents {
		name := e.EntityLayer()
		if name == "" {
			name = "0"
		}
		layers[name]++
		if ins, ok := e.(dxf.Insert); ok {
			inserts[strings.ToUpper(ins.Block)]++
		}
	}
	return layers, inserts
}

// countRows returns name/count rows sorted by name.
func countRows(m map[string]int) [][]string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	rows := make([][]string, len(names))
	for i, n := range names {
		rows[i] = []string{n, fmt.Sprint(m[n])}
	}
	return rows
}
