package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/climalyze/internal/pipeline"
	"github.com/KaramelBytes/climalyze/internal/utils"
)

var (
	runDataDir string
	runOutDir  string
	runTopN    int
	runMaxRows int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Load, clean and analyze every configured dataset and render the charts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		// Flags override config only when set.
		run := *c
		f := cmd.Flags()
		if f.Changed("data-dir") {
			run.DataDir = runDataDir
		}
		if f.Changed("out") {
			run.VisualsDir = runOutDir
		}
		if f.Changed("top-n") {
			run.TopN = runTopN
		}
		if f.Changed("max-rows") {
			run.MaxRows = runMaxRows
		}
		run.DataDir = utils.ExpandHome(run.DataDir)
		run.VisualsDir = utils.ExpandHome(run.VisualsDir)
		if err := run.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		res, err := pipeline.Run(&run, printer(cmd))
		if errors.Is(err, pipeline.ErrNoInputs) {
			return fmt.Errorf("%w under %s (see %s)", err, run.DataDir, res.Manifest.RootDir())
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runDataDir, "data-dir", "", "directory holding the input datasets (overrides config)")
	runCmd.Flags().StringVarP(&runOutDir, "out", "o", "", "output directory for charts and summaries (overrides config)")
	runCmd.Flags().IntVar(&runTopN, "top-n", 0, "number of entries in ranked charts (overrides config)")
	runCmd.Flags().IntVar(&runMaxRows, "max-rows", 0, "maximum rows read per dataset, 0 = unlimited (overrides config)")
}
