package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bunkasai/festival/internal/progress"
	"github.com/bunkasai/festival/internal/site"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build a static export of the festival site",
	Long: `Renders every page in its default state, converts markdown content into
the layout page and copies the remaining assets into the output directory.`,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().String("output", "", "override site.output_dir")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if out, _ := cmd.Flags().GetString("output"); out != "" {
		cfg.Site.OutputDir = out
	}

	responder, err := newResponder(cfg)
	if err != nil {
		return err
	}

	generator := site.NewGenerator(cfg, listingSource(newListing(cfg)), responder, progress.NewReporter())
	pageCount, err := generator.Generate(cmd.Context())
	if err != nil {
		return fmt.Errorf("building site: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Static site built: %s (%d pages)\n", cfg.Site.OutputDir, pageCount)
	return nil
}
