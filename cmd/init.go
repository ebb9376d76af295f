package cmd

import (
	"github.com/spf13/cobra"

	"github.com/bunkasai/festival/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a festival configuration with an interactive wizard",
	Long:  `Runs an interactive wizard that asks for the site directory, language, gallery listing and storage, and writes festival.yml.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
