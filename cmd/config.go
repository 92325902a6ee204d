package cmd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/climalyze/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set Climalyze configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "data_dir: %s\n", c.DataDir)
		fmt.Fprintf(w, "visuals_dir: %s\n", c.VisualsDir)
		fmt.Fprintf(w, "addr: %s\n", c.Addr)
		fmt.Fprintf(w, "top_n: %d\n", c.TopN)
		fmt.Fprintf(w, "chart_width_in: %.1f\n", c.ChartWidthIn)
		fmt.Fprintf(w, "chart_height_in: %.1f\n", c.ChartHeightIn)
		if c.MaxRows > 0 {
			fmt.Fprintf(w, "max_rows: %d\n", c.MaxRows)
		}
		fmt.Fprintf(w, "air_dataset: %s\n", c.AirDataset)
		fmt.Fprintf(w, "global_dataset: %s\n", c.GlobalDataset)
		fmt.Fprintf(w, "country_dataset: %s\n", c.CountryDataset)
		fmt.Fprintf(w, "trend_datasets: %s\n", strings.Join(c.TrendDatasets, ", "))
		fmt.Fprintln(w, "datasets:")
		for _, d := range c.Datasets {
			fmt.Fprintf(w, "  - %s: %s (%s)\n", d.Name, d.File, d.Kind)
		}
		if len(c.Captions) > 0 {
			keys := make([]string, 0, len(c.Captions))
			for k := range c.Captions {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintln(w, "captions:")
			for _, k := range keys {
				fmt.Fprintf(w, "  - %s: %s\n", k, c.Captions[k].Caption)
			}
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		c, err := currentConfig()
		if err != nil {
			return err
		}
		switch key {
		case "data_dir":
			c.DataDir = val
		case "visuals_dir":
			c.VisualsDir = val
		case "addr":
			c.Addr = val
		case "top_n":
			i, err := strconv.Atoi(val)
			if err != nil || i <= 0 {
				return fmt.Errorf("invalid positive int for top_n: %v", val)
			}
			c.TopN = i
		case "max_rows":
			i, err := strconv.Atoi(val)
			if err != nil || i < 0 {
				return fmt.Errorf("invalid int for max_rows: %v", val)
			}
			c.MaxRows = i
		case "chart_width_in", "chart_height_in":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil || f <= 0 {
				return fmt.Errorf("invalid positive float for %s: %v", key, val)
			}
			if key == "chart_width_in" {
				c.ChartWidthIn = f
			} else {
				c.ChartHeightIn = f
			}
		case "air_dataset":
			c.AirDataset = val
		case "global_dataset":
			c.GlobalDataset = val
		case "country_dataset":
			c.CountryDataset = val
		case "trend_datasets":
			c.TrendDatasets = splitList(val)
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
