package cmd

import (
	"github.com/spf13/cobra"

	"github.com/bunkasai/festival/internal/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "festival",
	Short: "Serve and build the school festival website",
	Long: `festival runs the school festival website. It serves live pages whose
language, theme, countdown, assistant and photo gallery are driven from
the server, and it can bake the same pages into a static directory.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
