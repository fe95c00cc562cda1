package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/splitkit/splitkit/pkg/graph"
	"github.com/splitkit/splitkit/pkg/pipeline"
	"github.com/splitkit/splitkit/pkg/render/chunklink"
)

// graphCommand creates the graph command with its subcommands.
func (c *CLI) graphCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Validate and render value graphs",
	}

	cmd.AddCommand(c.graphValidateCommand())
	cmd.AddCommand(c.graphRenderCommand())

	return cmd
}

// graphValidateCommand creates the "graph validate" subcommand.
func (c *CLI) graphValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [graph.json]",
		Short: "Check that a value graph file is well-formed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := graph.ReadGraphFile(args[0])
			if err != nil {
				return fmt.Errorf("load graph %s: %w", args[0], err)
			}
			reg, err := graph.ToRegistry(g)
			if err != nil {
				printError("Invalid graph: %v", err)
				return err
			}

			printSuccess("Graph is valid")
			printDetail("Nodes: %d", reg.Len())
			printDetail("Entries: %d", len(reg.Entries()))
			printDetail("Splits: %d", len(reg.Splits()))
			return nil
		},
	}
}

// graphRenderCommand creates the "graph render" subcommand.
func (c *CLI) graphRenderCommand() *cobra.Command {
	var (
		output   string
		detailed bool
	)

	cmd := &cobra.Command{
		Use:   "render [graph.json]",
		Short: "Render the chunk graph of a split as a diagram",
		Long: `Render the chunk graph of a split as a diagram.

The graph is split with default options and the resulting chunk graph is
rendered as Graphviz DOT or SVG, depending on the output extension
(.dot or .svg).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGraphRender(cmd, args[0], output, detailed)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (.dot or .svg; default: input name with .svg)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include node and export counts in labels")

	return cmd
}

func (c *CLI) runGraphRender(cmd *cobra.Command, input, output string, detailed bool) error {
	g, err := graph.ReadGraphFile(input)
	if err != nil {
		return fmt.Errorf("load graph %s: %w", input, err)
	}

	runner, err := c.newRunner(cmd, true)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	res, err := runner.Split(g, pipeline.Options{Logger: c.Logger})
	if err != nil {
		return err
	}

	if output == "" {
		base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
		output = base + ".svg"
	}

	dot := chunklink.ToDOT(res, chunklink.Options{Detailed: detailed})

	var data []byte
	switch ext := filepath.Ext(output); ext {
	case ".dot":
		data = []byte(dot)
	case ".svg":
		data, err = chunklink.RenderSVG(dot)
		if err != nil {
			return fmt.Errorf("render SVG: %w", err)
		}
	default:
		return fmt.Errorf("unsupported output format %q (use .dot or .svg)", ext)
	}

	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}

	printSuccess("Rendered %d chunks", len(res.Chunks))
	printFile(output)
	return nil
}
