package cmd

import (
	"github.com/spf13/cobra"

	"github.com/hanweng/lingtutor/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize lingtutor configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to pick a provider and quality tier, and generates a .lingtutor.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard()
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
