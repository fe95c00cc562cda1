package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/splitkit/splitkit/pkg/graph"
	"github.com/splitkit/splitkit/pkg/pipeline"
)

// splitCommand creates the split command.
func (c *CLI) splitCommand() *cobra.Command {
	var (
		output  string
		noCache bool
		dryRun  bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "split [graph.json]",
		Short: "Split a value graph into output files",
		Long: `Split a value graph into output files.

The split command reads a value graph (entries, nodes, optional split
points), partitions it into the minimal set of chunks that preserves value
identity, and writes one file per chunk to the output directory.

Results are cached locally: re-running on the same graph with the same
options returns the archived manifest. Use --refresh to force a recompute.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSplit(cmd.Context(), cmd, args[0], opts, output, noCache, dryRun)
		},
	}

	cmd.Flags().StringVarP(&output, "out", "o", "", "output directory (default: config output.dir, else \"dist\")")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the manifest without writing files")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "bypass the cache and recompute")
	cmd.Flags().StringVar(&opts.EntryPattern, "entry-pattern", "", `entry filename pattern (default "[name].js")`)
	cmd.Flags().StringVar(&opts.SplitPattern, "split-pattern", "", `split filename pattern (default "[name].[hash].js")`)
	cmd.Flags().StringVar(&opts.CommonPattern, "common-pattern", "", `common filename pattern (default "[name].[hash].js")`)
	cmd.Flags().StringVar(&opts.SourceMap, "source-map", "", "source map mode: off (default), inline, external")

	return cmd
}

// runSplit executes the full pipeline and writes the manifest to disk.
func (c *CLI) runSplit(ctx context.Context, cmd *cobra.Command, input string, opts pipeline.Options, output string, noCache, dryRun bool) error {
	g, err := graph.ReadGraphFile(input)
	if err != nil {
		return fmt.Errorf("load graph %s: %w", input, err)
	}

	cfg, err := c.config()
	if err != nil {
		return err
	}
	applyOutputDefaults(&opts, cfg.Output)
	if output == "" {
		output = cfg.Output.Dir
	}
	if output == "" {
		output = "dist"
	}

	runner, err := c.newRunner(cmd, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()
	opts.Logger = c.Logger

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Splitting %s...", input))
	spinner.Start()

	result, err := runner.Execute(ctx, g, opts)
	if err != nil {
		spinner.StopWithError("Split failed")
		return err
	}
	spinner.Stop()

	if dryRun {
		printInfo("Dry run: %d files would be written to %s", len(result.Manifest.Files), output)
		for _, f := range result.Manifest.Files {
			printFile(fmt.Sprintf("%s/%s (%s, %d bytes)", output, f.Filename, f.Kind, len(f.Content)))
		}
		printStats(result.Stats.NodeCount, len(result.Manifest.Files), result.CacheInfo.ManifestHit)
		return nil
	}

	if err := result.Manifest.WriteDir(output); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	printSuccess("Split %s into %d files", input, len(result.Manifest.Files))
	for _, f := range result.Manifest.Files {
		printFile(fmt.Sprintf("%s/%s", output, f.Filename))
	}
	printStats(result.Stats.NodeCount, len(result.Manifest.Files), result.CacheInfo.ManifestHit)
	if len(result.Manifest.Pruned) > 0 {
		printDetail("Pruned unreached splits: %v", result.Manifest.Pruned)
	}
	printNextStep("Inspect the chunk graph", fmt.Sprintf("%s inspect %s", appName, input))
	return nil
}

// applyOutputDefaults fills unset options from the config file's output
// section. Flags win over config; config wins over built-ins.
func applyOutputDefaults(opts *pipeline.Options, out OutputConfig) {
	if opts.EntryPattern == "" {
		opts.EntryPattern = out.EntryPattern
	}
	if opts.SplitPattern == "" {
		opts.SplitPattern = out.SplitPattern
	}
	if opts.CommonPattern == "" {
		opts.CommonPattern = out.CommonPattern
	}
	if opts.SourceMap == "" {
		opts.SourceMap = out.SourceMap
	}
}
