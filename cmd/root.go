package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cppla/treebbs/config"
)

var configPath string

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "treebbs [command] [flags]",
	Short: "treebbs: a forum of posts and threaded comments",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if configPath != "" {
			config.DefaultPath = configPath
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd, args)
	},
	SilenceUsage: true,
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the JSON config file (default config/config.json)")
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
