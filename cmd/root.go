package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "lingtutor",
	Short: "AI-powered Mandarin correction tutor",
	Long: `Lingtutor helps advanced Mandarin learners say exactly what they mean.
Describe a situation and what you want to express, confirm the tutor's
understanding of your intent, and get a corrected rendering with pinyin,
teaching notes, and alternative phrasings.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".lingtutor.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
