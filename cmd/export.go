package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hanweng/lingtutor/internal/config"
	"github.com/hanweng/lingtutor/internal/db"
	"github.com/hanweng/lingtutor/internal/history"
	"github.com/hanweng/lingtutor/internal/studysheet"
)

var (
	exportUser      string
	exportOut       string
	exportMinRating int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export saved lessons as a study sheet",
	Long:  `Builds a markdown and HTML study sheet from your saved lessons, newest first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		database, err := db.Open(filepath.Join(cfg.DataDir, "lingtutor.db"))
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		lessons, err := history.NewStore(database).List(cmd.Context(), history.QueryFilter{
			UserID:    exportUser,
			MinRating: exportMinRating,
		})
		if err != nil {
			return fmt.Errorf("loading lessons: %w", err)
		}

		outDir := exportOut
		if outDir == "" {
			outDir = filepath.Join(cfg.DataDir, "studysheet")
		}

		n, err := studysheet.NewGenerator(outDir, "").Generate(lessons)
		if err != nil {
			return err
		}

		fmt.Printf("Exported %d lessons to %s\n", n, outDir)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportUser, "user", "anonymous", "learner identifier")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output directory (default <data_dir>/studysheet)")
	exportCmd.Flags().IntVar(&exportMinRating, "min-rating", 0, "only include lessons rated at least this")
	rootCmd.AddCommand(exportCmd)
}
