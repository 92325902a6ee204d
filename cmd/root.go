package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/climalyze/internal/config"
	"github.com/KaramelBytes/climalyze/internal/status"
)

var (
	// Global flags
	cfgFile string
	debug   bool
	quiet   bool

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "climalyze",
	Short: "Climalyze: air quality and temperature analytics with a chart gallery",
	Long: `Climalyze loads air-quality and land-temperature datasets, cleans them,
computes summaries and correlations, renders charts to PNG and serves them in a
small captioned gallery.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.climalyze/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only print errors")
}

func loadConfig() {
	// .env in the working directory feeds CLIMALYZE_* variables; it is optional.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to read .env: %v\n", err)
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: commands fall back to defaults via currentConfig.
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		cfg = nil
		return
	}
	cfg = c
	if debug {
		fmt.Fprintf(os.Stderr, "• config: data_dir=%s visuals_dir=%s datasets=%d\n", cfg.DataDir, cfg.VisualsDir, len(cfg.Datasets))
	}
}

// currentConfig returns the loaded configuration, reloading when the initial load failed.
func currentConfig() (*cfgpkg.Global, error) {
	if cfg != nil {
		return cfg, nil
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	cfg = c
	return cfg, nil
}

func printer(cmd *cobra.Command) *status.Printer {
	p := status.NewPrinter(quiet)
	p.Out = cmd.OutOrStdout()
	p.Err = cmd.ErrOrStderr()
	return p
}
