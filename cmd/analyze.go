package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/climalyze/internal/analysis"
	cfgpkg "github.com/KaramelBytes/climalyze/internal/config"
	"github.com/KaramelBytes/climalyze/internal/pipeline"
	"github.com/KaramelBytes/climalyze/internal/roles"
	"github.com/KaramelBytes/climalyze/internal/utils"
)

var (
	anaKind        string
	anaOutputPath  string
	anaSummaryPath string
	anaMaxRows     int
	anaCorr        bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file|dataset>",
	Short: "Load and clean one dataset, then print its column roles and summary statistics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, configured := resolveInput(args[0])
		kind := strings.ToLower(strings.TrimSpace(anaKind))
		switch kind {
		case "":
			kind = configured
			if kind == "" {
				kind = guessKind(path)
			}
		case "air", "aq", "openaq":
			kind = cfgpkg.KindAirQuality
		case cfgpkg.KindTemperature, cfgpkg.KindAirQuality:
		default:
			return fmt.Errorf("unsupported --kind: %s (use %s or %s)", anaKind, cfgpkg.KindTemperature, cfgpkg.KindAirQuality)
		}

		abs, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("resolve path: %w", err)
		}
		name := utils.Stem(path)
		d := pipeline.Load(cfgpkg.Dataset{Name: name, File: abs, Kind: kind}, "", anaMaxRows)
		if !d.Load.OK() {
			return fmt.Errorf("%s", d.Load.Message())
		}

		p := printer(cmd)
		p.Success("%s", d.Load.Message())
		p.Info("cleaned %s", d.Cleaned.Message())

		rules := roles.TemperatureRules()
		if kind == cfgpkg.KindAirQuality {
			rules = roles.AirQualityRules()
		}
		for _, r := range d.Roles.Missing(rules) {
			p.Warn("no %s column found", r)
		}
		summary := analysis.Describe(name, d.Table)

		rep := &analysis.Report{Datasets: []analysis.DatasetEntry{{
			Name: name, File: filepath.Base(path), Status: d.Load.Status.String(),
			Rows: d.Load.Table.Len(), Cols: d.Load.Table.Width(),
			Cleaned: d.Cleaned.Message(), Summary: &summary,
		}}}
		if len(d.Roles) > 0 {
			rep.Datasets[0].Roles = map[string]string{}
			for role, m := range d.Roles {
				rep.Datasets[0].Roles[string(role)] = m.Column
				if m.Ambiguous() {
					msg := fmt.Sprintf("%s role matched %s; using %s", role, strings.Join(m.Candidates, ", "), m.Column)
					p.Warn("%s", msg)
					rep.Warnings = append(rep.Warnings, msg)
				}
			}
		}
		if anaCorr {
			m, err := analysis.Correlations(d.Table)
			if err != nil {
				p.Warn("correlations: %v", err)
			} else {
				rep.Matrix = m
			}
		}

		out := cmd.OutOrStdout()
		if !quiet {
			writeRoles(out, rules, d.Roles)
			writeDescribe(out, summary)
			if rep.Matrix != nil {
				writePairs(out, rep.Matrix)
			}
		}

		if anaSummaryPath != "" {
			if err := summary.WriteCSV(anaSummaryPath); err != nil {
				return fmt.Errorf("write summary: %w", err)
			}
			p.Success("Wrote summary to %s", anaSummaryPath)
		}
		if anaOutputPath != "" {
			if err := os.WriteFile(anaOutputPath, []byte(rep.Markdown()), 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			p.Success("Wrote analysis to %s", anaOutputPath)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVar(&anaKind, "kind", "", "dataset kind: temperature | air_quality (guessed from the file name if omitted)")
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "optional path to write the analysis (Markdown)")
	analyzeCmd.Flags().StringVar(&anaSummaryPath, "summary", "", "optional path to write the describe table (CSV)")
	analyzeCmd.Flags().IntVar(&anaMaxRows, "max-rows", 0, "maximum rows to read (0 = unlimited)")
	analyzeCmd.Flags().BoolVar(&anaCorr, "correlations", false, "compute Pearson correlations among numeric columns")
}

// resolveInput maps a configured dataset name to its file under data_dir and
// returns the dataset kind. Existing paths are used as given.
func resolveInput(arg string) (path, kind string) {
	path = utils.ExpandHome(arg)
	if _, err := os.Stat(path); err == nil {
		return path, ""
	}
	c, err := currentConfig()
	if err != nil {
		return path, ""
	}
	d, ok := c.Dataset(arg)
	if !ok {
		return path, ""
	}
	if filepath.IsAbs(d.File) {
		return d.File, d.Kind
	}
	return filepath.Join(utils.ExpandHome(c.DataDir), d.File), d.Kind
}

// guessKind treats OpenAQ style exports as air quality and everything else as temperature.
func guessKind(path string) string {
	stem := strings.ToLower(utils.Stem(path))
	for _, hint := range []string{"openaq", "air", "aqi", "pollut"} {
		if strings.Contains(stem, hint) {
			return cfgpkg.KindAirQuality
		}
	}
	return cfgpkg.KindTemperature
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.Style().Format = table.FormatOptions{
		Footer: text.FormatDefault,
		Header: text.FormatDefault,
		Row:    text.FormatDefault,
	}
	t.Style().Options.DrawBorder = false
	t.SuppressTrailingSpaces()
	return t
}

func writeRoles(w io.Writer, rules []roles.Rule, a roles.Assignment) {
	t := newTable()
	t.AppendHeader(table.Row{"role", "column", "keyword", "candidates"})
	for _, r := range rules {
		m, ok := a[r.Role]
		if !ok {
			t.AppendRow(table.Row{r.Role, "-", "", ""})
			continue
		}
		t.AppendRow(table.Row{r.Role, m.Column, m.Keyword, strings.Join(m.Candidates, ", ")})
	}
	fmt.Fprintln(w, t.Render())
	fmt.Fprintln(w)
}

func writeDescribe(w io.Writer, s analysis.Summary) {
	grid := s.Grid()
	t := newTable()
	header := make(table.Row, len(grid[0]))
	for i, v := range grid[0] {
		header[i] = v
	}
	t.AppendHeader(header)
	for _, line := range grid[1:] {
		row := make(table.Row, len(line))
		for i, v := range line {
			row[i] = v
		}
		t.AppendRow(row)
	}
	fmt.Fprintln(w, t.Render())
}

func writePairs(w io.Writer, m *analysis.CorrMatrix) {
	pairs := m.TopPairs(10)
	if len(pairs) == 0 {
		return
	}
	t := newTable()
	t.AppendHeader(table.Row{"a", "b", "r", "n"})
	for _, p := range pairs {
		t.AppendRow(table.Row{p.A, p.B, fmt.Sprintf("%.3f", p.R), p.N})
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, t.Render())
}
