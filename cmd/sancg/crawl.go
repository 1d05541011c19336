package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"sancg/pkg/config"
	"sancg/pkg/crawler"
	"sancg/pkg/logger"
	"sancg/pkg/ui"
)

var (
	// Crawl command flags
	outputDir       string
	naming          string
	onlyVersions    []string
	continueOnError bool
	rateLimit       int
)

// crawlCmd represents the crawl command
var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Download portraits for every configured version",
	Long: `Download the portraits of every configured version.

Each version's listing page is read, every linked sub-page is visited and
each portrait card is stored as:

  {output}/{version}_s/{name}.jpg     with --naming display (default)
  {output}/{version}/{md5}.jpg        with --naming identifier

A listing that cannot be fetched fails only its own version.`,
	Example: `  # Crawl every version into the current directory
  sancg crawl

  # Crawl two versions into ./portraits
  sancg crawl --only 311,312 --output ./portraits

  # Store files under their MD5 identifier
  sancg crawl --naming identifier`,
	Args: cobra.NoArgs,
	RunE: runCrawl,
}

func init() {
	rootCmd.AddCommand(crawlCmd)

	crawlCmd.Flags().StringVarP(&outputDir, "output", "o", "", "base output directory (default: current directory)")
	crawlCmd.Flags().StringVar(&naming, "naming", "", "file naming: display or identifier")
	crawlCmd.Flags().StringSliceVar(&onlyVersions, "only", nil, "crawl only these versions")
	crawlCmd.Flags().BoolVar(&continueOnError, "continue-on-error", true, "keep going after a failed download")
	crawlCmd.Flags().IntVar(&rateLimit, "rate-limit", 0, "requests per minute (0 disables pacing)")
}

func runCrawl(cmd *cobra.Command, args []string) error {
	flags := baseFlags()
	if outputDir != "" {
		flags["output"] = outputDir
	}
	if naming != "" {
		flags["naming"] = naming
	}
	if len(onlyVersions) > 0 {
		flags["only"] = onlyVersions
	}
	if cmd.Flags().Changed("continue-on-error") {
		flags["continue-on-error"] = continueOnError
	}
	if cmd.Flags().Changed("rate-limit") {
		flags["rate-limit"] = rateLimit
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		return err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		ui.PrintError("Failed to initialize logger", err.Error())
		return err
	}

	c, err := crawler.NewFromConfig(cfg, logger.GetLogger())
	if err != nil {
		ui.PrintError("Failed to initialize crawler", err.Error())
		return err
	}
	c.SetProgress(ui.NewStatusTracker(nil))

	ui.PrintInfo("Output", cfg.Output.BaseDirectory)
	ui.PrintInfo("Naming", cfg.Output.Naming)
	ui.PrintHighlight("[INITIATING COLLECTION SEQUENCE]")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary := c.RunWith(ctx, cfg.Batches, cfg.Output.Naming)
	ui.PrintSummary(nil, summary)

	if ctx.Err() != nil {
		ui.PrintWarning("Crawl interrupted")
		return ctx.Err()
	}
	if err := summary.Err(); err != nil {
		ui.PrintError("Some versions failed", err.Error())
		return fmt.Errorf("%d of %d versions failed", countFailed(summary), len(summary.Batches))
	}

	ui.PrintSuccess("[COLLECTION COMPLETED SUCCESSFULLY]")
	return nil
}

func countFailed(summary crawler.Summary) int {
	n := 0
	for _, b := range summary.Batches {
		if b.Err != nil {
			n++
		}
	}
	return n
}
