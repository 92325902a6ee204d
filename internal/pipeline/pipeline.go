// Package pipeline runs the load, clean, aggregate and render stages over the
// configured datasets and the fixed chart plan.
//
// Every step ends in a status.Outcome. A missing dataset, an unresolved column
// role or a chart that cannot be drawn is recorded and the run moves on; Run
// only returns an error when no input could be loaded at all.
package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/climalyze/internal/analysis"
	"github.com/KaramelBytes/climalyze/internal/clean"
	"github.com/KaramelBytes/climalyze/internal/config"
	"github.com/KaramelBytes/climalyze/internal/manifest"
	"github.com/KaramelBytes/climalyze/internal/render"
	"github.com/KaramelBytes/climalyze/internal/roles"
	"github.com/KaramelBytes/climalyze/internal/status"
	"github.com/KaramelBytes/climalyze/internal/table"
	"github.com/KaramelBytes/climalyze/internal/utils"
)

// ErrNoInputs is returned when every configured dataset failed to load.
var ErrNoInputs = errors.New("no dataset could be loaded")

// Output file names.
const (
	ReportFile   = "report.md"
	WorkbookFile = "summaries.xlsx"
)

// Result is what a run produced.
type Result struct {
	Manifest *manifest.Manifest
	Report   *analysis.Report
}

// Dataset is a loaded, cleaned input with its resolved column roles.
type Dataset struct {
	Spec    config.Dataset
	Load    table.LoadResult
	Table   *table.Table
	Cleaned clean.Report
	Roles   roles.Assignment
}

// Usable reports whether the dataset has rows to work with.
func (d *Dataset) Usable() bool { return d != nil && d.Load.OK() && !d.Table.IsEmpty() }

// skip marks an expected, non-fatal reason for not producing an artifact.
type skip string

func (s skip) Error() string { return string(s) }

func skipf(format string, args ...any) error { return skip(fmt.Sprintf(format, args...)) }

type runner struct {
	cfg      *config.Global
	out      *status.Printer
	man      *manifest.Manifest
	rep      *analysis.Report
	datasets map[string]*Dataset
}

// Run executes the whole pipeline with cfg and prints progress to out.
func Run(cfg *config.Global, out *status.Printer) (*Result, error) {
	if err := utils.EnsureDir(cfg.VisualsDir); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	r := &runner{
		cfg:      cfg,
		out:      out,
		man:      manifest.New(cfg.VisualsDir, cfg.DataDir),
		datasets: map[string]*Dataset{},
	}
	r.rep = &analysis.Report{RunID: r.man.RunID}
	out.Heading("climalyze run %s", r.man.RunID)

	loaded := 0
	for _, spec := range cfg.Datasets {
		d := r.load(spec)
		r.datasets[spec.Name] = d
		if d.Load.OK() {
			loaded++
		}
	}

	if loaded > 0 {
		r.summaries()
		r.charts()
	}

	if err := r.finish(); err != nil {
		return nil, err
	}
	res := &Result{Manifest: r.man, Report: r.rep}
	if loaded == 0 {
		return res, ErrNoInputs
	}
	return res, nil
}

// Load reads and cleans one dataset. It never fails; problems are carried in the result.
func Load(spec config.Dataset, dataDir string, maxRows int) *Dataset {
	path := spec.File
	if !filepath.IsAbs(path) {
		path = filepath.Join(dataDir, path)
	}
	d := &Dataset{Spec: spec, Load: table.Load(path, table.LoadOptions{MaxRows: maxRows})}
	d.Table = d.Load.Table
	if !d.Load.OK() {
		return d
	}
	opt, rules := clean.TemperatureOptions(), roles.TemperatureRules()
	if spec.Kind == config.KindAirQuality {
		opt, rules = clean.AirQualityOptions(), roles.AirQualityRules()
	}
	d.Table, d.Cleaned = clean.Clean(d.Load.Table, opt)
	d.Roles = roles.ResolveAll(d.Table.Names(), rules)
	return d
}

func (r *runner) load(spec config.Dataset) *Dataset {
	d := Load(spec, r.cfg.DataDir, r.cfg.MaxRows)
	step := "load " + spec.Name
	switch d.Load.Status {
	case table.StatusLoaded, table.StatusDegraded:
		r.out.Success("%s", d.Load.Message())
		r.out.Info("%s: cleaned %s", spec.Name, d.Cleaned.Message())
		r.record(status.Done(step, ""))
		r.warnRoles(d)
	case table.StatusEmpty:
		r.record(status.Nothing(step, "%s", d.Load.Message()))
	default:
		r.record(status.Fail(step, d.Load.Err))
	}

	entry := &manifest.Dataset{
		Name: spec.Name, File: spec.File, Kind: spec.Kind,
		Status: d.Load.Status.String(), Message: d.Load.Message(),
		Rows: d.Load.Table.Len(), Cols: d.Load.Table.Width(), Skipped: d.Load.Skipped,
		CleanRows: d.Table.Len(), Roles: roleNames(d.Roles),
	}
	r.man.AddDataset(entry)
	de := analysis.DatasetEntry{
		Name: spec.Name, File: spec.File, Status: d.Load.Status.String(),
		Rows: entry.Rows, Cols: entry.Cols, Roles: entry.Roles,
	}
	if d.Load.OK() {
		de.Cleaned = d.Cleaned.Message()
	}
	r.rep.Datasets = append(r.rep.Datasets, de)
	return d
}

func (r *runner) warnRoles(d *Dataset) {
	for role, m := range d.Roles {
		if m.Ambiguous() {
			msg := fmt.Sprintf("%s: %s role matched %s; using %s", d.Spec.Name, role, strings.Join(m.Candidates, ", "), m.Column)
			r.out.Warn("%s", msg)
			r.rep.Warnings = append(r.rep.Warnings, msg)
		}
	}
}

func roleNames(a roles.Assignment) map[string]string {
	if len(a) == 0 {
		return nil
	}
	out := make(map[string]string, len(a))
	for role, m := range a {
		out[string(role)] = m.Column
	}
	return out
}

func (r *runner) record(o status.Outcome) {
	r.out.Report(o)
	r.man.Record(o)
	r.rep.Steps = append(r.rep.Steps, analysis.StepEntry{Name: o.Step, State: string(o.State), Detail: detail(o)})
}

func detail(o status.Outcome) string {
	if o.Reason != "" {
		return o.Reason
	}
	return filepath.Base(o.Artifact)
}

// outcome classifies err for step.
func outcome(step, artifact string, err error) status.Outcome {
	var s skip
	switch {
	case err == nil:
		return status.Done(step, artifact)
	case errors.As(err, &s):
		return status.Skip(step, "%s", string(s))
	case errors.Is(err, render.ErrEmptySeries):
		return status.Nothing(step, "%v", err)
	case errors.Is(err, render.ErrDegenerate),
		errors.Is(err, analysis.ErrInsufficientData),
		errors.Is(err, analysis.ErrUndefined),
		errors.Is(err, analysis.ErrNoColumn),
		errors.Is(err, analysis.ErrColumnKind):
		return status.Skip(step, "%v", err)
	default:
		return status.Fail(step, err)
	}
}

// usable returns the named dataset when it was loaded with rows.
func (r *runner) usable(name string) (*Dataset, error) {
	d, ok := r.datasets[name]
	if !ok {
		return nil, skipf("dataset %q is not configured", name)
	}
	if !d.Usable() {
		return nil, skipf("dataset %s is unavailable (%s)", name, d.Load.Status)
	}
	return d, nil
}

// columns resolves every role or reports the first missing one.
func columns(d *Dataset, want ...roles.Role) ([]string, error) {
	out := make([]string, len(want))
	for i, role := range want {
		c, ok := d.Roles.Column(role)
		if !ok {
			return nil, skipf("no %s column in %s", role, d.Spec.Name)
		}
		out[i] = c
	}
	return out, nil
}

func (r *runner) summaries() {
	var all []analysis.Summary
	for i, spec := range r.cfg.Datasets {
		d := r.datasets[spec.Name]
		step := spec.Name + "_summary"
		if !d.Usable() {
			r.record(status.Skip(step, "empty dataset"))
			continue
		}
		s := analysis.Describe(spec.Name, d.Table)
		r.rep.Datasets[i].Summary = &s
		all = append(all, s)
		path := filepath.Join(r.cfg.VisualsDir, step+".csv")
		if err := s.WriteCSV(path); err != nil {
			r.record(status.Fail(step, err))
			continue
		}
		r.record(status.Done(step, path))
	}
	if len(all) == 0 {
		return
	}
	path := filepath.Join(r.cfg.VisualsDir, WorkbookFile)
	r.record(outcome("summaries_workbook", path, analysis.WriteWorkbook(path, all)))
}

func (r *runner) finish() error {
	path := filepath.Join(r.cfg.VisualsDir, ReportFile)
	if err := os.WriteFile(path, []byte(r.rep.Markdown()), 0o644); err != nil {
		r.out.Error("write report: %v", err)
	} else {
		r.man.Artifacts = append(r.man.Artifacts, ReportFile)
		r.out.Success("Wrote %s", path)
	}
	if err := r.man.Save(); err != nil {
		return fmt.Errorf("save manifest: %w", err)
	}
	c := r.man.Counts()
	r.out.Success("Run %s finished: %d ok, %d skipped, %d empty, %d failed",
		r.man.RunID, c[status.OK], c[status.Skipped], c[status.Empty], c[status.Failed])
	return nil
}
