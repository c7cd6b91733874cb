package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/specsprite/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize specsprite configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to choose the fallback language model and writes the config file (default .specsprite.yml).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
