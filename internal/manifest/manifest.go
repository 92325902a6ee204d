// Package manifest records what a pipeline run loaded, produced and skipped.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/climalyze/internal/status"
	"github.com/KaramelBytes/climalyze/internal/utils"
)

// FileName is the manifest's name inside the output directory.
const FileName = "manifest.json"

// Manifest describes one run persisted on disk.
type Manifest struct {
	RunID      string              `json:"run_id"`
	StartedAt  time.Time           `json:"started_at"`
	FinishedAt time.Time           `json:"finished_at"`
	DataDir    string              `json:"data_dir"`
	Datasets   map[string]*Dataset `json:"datasets"`
	Steps      []status.Outcome    `json:"steps"`
	Artifacts  []string            `json:"artifacts"`
	// Correlation is the temperature/air-quality coefficient when it was defined.
	Correlation *float64 `json:"correlation,omitempty"`

	// Not serialized: directory holding manifest.json.
	rootDir string `json:"-"`
}

// Dataset is the load and clean record of one input.
type Dataset struct {
	Name      string            `json:"name"`
	File      string            `json:"file"`
	Kind      string            `json:"kind"`
	Status    string            `json:"status"`
	Message   string            `json:"message"`
	Rows      int               `json:"rows"`
	Cols      int               `json:"cols"`
	Skipped   int               `json:"skipped_lines,omitempty"`
	CleanRows int               `json:"clean_rows"`
	Roles     map[string]string `json:"roles,omitempty"`
}

// New constructs an in-memory manifest for a run writing to outDir. Call Save() to persist.
func New(outDir, dataDir string) *Manifest {
	return &Manifest{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		DataDir:   dataDir,
		Datasets:  make(map[string]*Dataset),
		rootDir:   outDir,
	}
}

// Load reads manifest.json from dir.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("manifest not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	m.rootDir = dir
	return &m, nil
}

// RootDir returns the directory the manifest is saved to.
func (m *Manifest) RootDir() string { return m.rootDir }

// AddDataset records (or replaces) a dataset entry.
func (m *Manifest) AddDataset(d *Dataset) {
	if m.Datasets == nil {
		m.Datasets = make(map[string]*Dataset)
	}
	m.Datasets[d.Name] = d
}

// Record appends a step outcome and remembers its artifact.
func (m *Manifest) Record(o status.Outcome) {
	m.Steps = append(m.Steps, o)
	if o.State == status.OK && o.Artifact != "" {
		m.Artifacts = append(m.Artifacts, filepath.Base(o.Artifact))
	}
}

// Counts tallies step outcomes by state.
func (m *Manifest) Counts() map[status.State]int {
	out := map[status.State]int{}
	for _, s := range m.Steps {
		out[s.State]++
	}
	return out
}

// DatasetNames returns dataset names in sorted order.
func (m *Manifest) DatasetNames() []string {
	names := make([]string, 0, len(m.Datasets))
	for n := range m.Datasets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Save stamps the finish time and writes manifest.json atomically.
func (m *Manifest) Save() error {
	if m.rootDir == "" {
		return errors.New("manifest directory not set")
	}
	if err := utils.EnsureDir(m.rootDir); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	m.FinishedAt = time.Now().UTC()
	sort.Strings(m.Artifacts)
	data, err := utils.PrettyJSON(m)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(filepath.Join(m.rootDir, FileName), data)
}
