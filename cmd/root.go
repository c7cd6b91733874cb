package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/specsprite/internal/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "specsprite",
	Short: "Turn a project idea into a product requirements document through conversation",
	Long: `SpecSprite interviews you about a software project, one turn at a time,
and writes a structured product requirements document once it knows enough.
It runs as an MCP server for AI agents, as an HTTP service, or as an
interactive chat in the terminal.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
