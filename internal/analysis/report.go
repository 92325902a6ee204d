package analysis

import (
	"fmt"
	"sort"
	"strings"
)

// DatasetEntry describes one input dataset in the run report.
type DatasetEntry struct {
	Name    string
	File    string
	Status  string
	Rows    int
	Cols    int
	Cleaned string
	// Roles maps a role label to the column it resolved to.
	Roles   map[string]string
	Summary *Summary
}

// StepEntry is the outcome of one pipeline step.
type StepEntry struct {
	Name   string
	State  string
	Detail string
}

// Report is a markdown-friendly account of one pipeline run.
type Report struct {
	RunID       string
	Datasets    []DatasetEntry
	Correlation *Correlation
	CorrLabel   string
	Matrix      *CorrMatrix
	Steps       []StepEntry
	Warnings    []string
}

// Markdown renders a compact report suitable for standalone docs.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[RUN SUMMARY]\n")
	if r.RunID != "" {
		b.WriteString(fmt.Sprintf("Run: %s\n", r.RunID))
	}
	b.WriteString(fmt.Sprintf("Datasets: %d\n", len(r.Datasets)))
	b.WriteString(fmt.Sprintf("Steps: %d\n\n", len(r.Steps)))

	b.WriteString("[DATASETS]\n")
	for _, d := range r.Datasets {
		b.WriteString(fmt.Sprintf("- %s (%s): %s", safeName(d.Name), d.File, d.Status))
		if d.Cols > 0 {
			b.WriteString(fmt.Sprintf(" — shape (%d, %d)", d.Rows, d.Cols))
		}
		if d.Cleaned != "" {
			b.WriteString("; cleaned " + d.Cleaned)
		}
		b.WriteString("\n")
		if len(d.Roles) > 0 {
			keys := make([]string, 0, len(d.Roles))
			for k := range d.Roles {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			parts := make([]string, len(keys))
			for i, k := range keys {
				parts[i] = fmt.Sprintf("%s=%s", k, d.Roles[k])
			}
			b.WriteString("  • roles: " + strings.Join(parts, ", ") + "\n")
		}
	}

	for _, d := range r.Datasets {
		if d.Summary == nil || len(d.Summary.Columns) == 0 {
			continue
		}
		b.WriteString(fmt.Sprintf("\n[SCHEMA: %s]\n", safeName(d.Name)))
		for _, c := range d.Summary.Columns {
			total := c.Count + c.Missing
			missPct := 0.0
			if total > 0 {
				missPct = float64(c.Missing) * 100.0 / float64(total)
			}
			b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%)", safeName(c.Name), c.Kind, c.Count, missPct))
			switch {
			case c.HasMoments && c.Cell("std") != "":
				b.WriteString(fmt.Sprintf(" — min %.4g, max %.4g, mean %.4g, std %.4g", c.Min, c.Max, c.Mean, c.Std))
			case c.HasMoments:
				b.WriteString(fmt.Sprintf(" — from %s to %s", c.Cell("min"), c.Cell("max")))
			case c.Unique > 0:
				b.WriteString(fmt.Sprintf(" — top: %s(%d); unique=%d", safeVal(c.Top), c.Freq, c.Unique))
			}
			b.WriteString("\n")
		}
	}

	if r.Correlation != nil {
		b.WriteString("\n[CORRELATION]\n")
		label := r.CorrLabel
		if label == "" {
			label = "x ~ y"
		}
		b.WriteString(fmt.Sprintf("- %s: r=%.3f over %d aligned keys\n", label, r.Correlation.R, r.Correlation.N()))
		b.WriteString(fmt.Sprintf("- fit: y = %.4g + %.4g·x\n", r.Correlation.Intercept, r.Correlation.Slope))
	}
	if r.Matrix != nil && len(r.Matrix.Columns) >= 2 {
		b.WriteString("\n[CORRELATIONS]\n")
		for _, p := range r.Matrix.TopPairs(10) {
			b.WriteString(fmt.Sprintf("- %s ~ %s: r=%.3f (n=%d)\n", p.A, p.B, p.R, p.N))
		}
	}

	if len(r.Steps) > 0 {
		b.WriteString("\n[STEPS]\n")
		b.WriteString("| step | outcome | detail |\n")
		b.WriteString("| --- | --- | --- |\n")
		for _, s := range r.Steps {
			b.WriteString(fmt.Sprintf("| %s | %s | %s |\n", safeVal(s.Name), s.State, safeVal(s.Detail)))
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
