package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Dataset kinds.
const (
	KindTemperature = "temperature"
	KindAirQuality  = "air_quality"
)

// Dataset names one input file under the data directory.
type Dataset struct {
	Name string `mapstructure:"name" yaml:"name"`
	File string `mapstructure:"file" yaml:"file"`
	Kind string `mapstructure:"kind" yaml:"kind"`
}

// Caption is the gallery text shown for one chart.
type Caption struct {
	Caption     string `mapstructure:"caption" yaml:"caption"`
	Description string `mapstructure:"description" yaml:"description"`
}

// Global configuration structure.
type Global struct {
	DataDir    string `mapstructure:"data_dir" yaml:"data_dir"`
	VisualsDir string `mapstructure:"visuals_dir" yaml:"visuals_dir"`
	Addr       string `mapstructure:"addr" yaml:"addr"`

	TopN          int     `mapstructure:"top_n" yaml:"top_n"`
	ChartWidthIn  float64 `mapstructure:"chart_width_in" yaml:"chart_width_in"`
	ChartHeightIn float64 `mapstructure:"chart_height_in" yaml:"chart_height_in"`
	// MaxRows caps rows read per dataset; 0 means unlimited.
	MaxRows int `mapstructure:"max_rows" yaml:"max_rows"`

	Datasets       []Dataset `mapstructure:"datasets" yaml:"datasets"`
	AirDataset     string    `mapstructure:"air_dataset" yaml:"air_dataset"`
	GlobalDataset  string    `mapstructure:"global_dataset" yaml:"global_dataset"`
	CountryDataset string    `mapstructure:"country_dataset" yaml:"country_dataset"`
	TrendDatasets  []string  `mapstructure:"trend_datasets" yaml:"trend_datasets"`

	// Captions override or extend the gallery captions by chart name.
	Captions map[string]Caption `mapstructure:"captions" yaml:"captions,omitempty"`
}

// DefaultDatasets lists the Berkeley Earth temperature files and the OpenAQ export.
func DefaultDatasets() []Dataset {
	return []Dataset{
		{Name: "city_temp", File: "GlobalLandTemperaturesByCity.csv", Kind: KindTemperature},
		{Name: "country_temp", File: "GlobalLandTemperaturesByCountry.csv", Kind: KindTemperature},
		{Name: "major_city_temp", File: "GlobalLandTemperaturesByMajorCity.csv", Kind: KindTemperature},
		{Name: "state_temp", File: "GlobalLandTemperaturesByState.csv", Kind: KindTemperature},
		{Name: "global_temp", File: "GlobalTemperatures.csv", Kind: KindTemperature},
		{Name: "air_quality", File: "openaq.csv", Kind: KindAirQuality},
	}
}

// Dataset returns the configured dataset with the given name.
func (c *Global) Dataset(name string) (Dataset, bool) {
	for _, d := range c.Datasets {
		if d.Name == name {
			return d, true
		}
	}
	return Dataset{}, false
}

// Validate reports configuration that cannot produce a run.
func (c *Global) Validate() error {
	seen := map[string]bool{}
	for _, d := range c.Datasets {
		if d.Name == "" || d.File == "" {
			return fmt.Errorf("dataset entries need a name and a file: %+v", d)
		}
		if d.Kind != KindTemperature && d.Kind != KindAirQuality {
			return fmt.Errorf("dataset %s: unknown kind %q (want %s or %s)", d.Name, d.Kind, KindTemperature, KindAirQuality)
		}
		if seen[d.Name] {
			return fmt.Errorf("dataset %s is listed twice", d.Name)
		}
		seen[d.Name] = true
	}
	if c.TopN <= 0 {
		return fmt.Errorf("top_n must be positive, got %d", c.TopN)
	}
	return nil
}

// DefaultPath returns ~/.climalyze/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".climalyze", "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.climalyze/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("CLIMALYZE")
	v.AutomaticEnv()

	v.SetDefault("data_dir", "data")
	v.SetDefault("visuals_dir", "visuals")
	v.SetDefault("addr", ":5000")
	v.SetDefault("top_n", 10)
	v.SetDefault("chart_width_in", 10.0)
	v.SetDefault("chart_height_in", 6.0)
	v.SetDefault("max_rows", 0)
	v.SetDefault("air_dataset", "air_quality")
	v.SetDefault("global_dataset", "global_temp")
	v.SetDefault("country_dataset", "country_temp")
	v.SetDefault("trend_datasets", []string{"global_temp", "country_temp", "city_temp"})

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		v.AddConfigPath(filepath.Join(home, ".climalyze"))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read; a broken file is an error, a missing one is not
	if err := v.ReadInConfig(); err != nil && !missingConfig(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if len(c.Datasets) == 0 {
		c.Datasets = DefaultDatasets()
	}
	return &c, nil
}

func missingConfig(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
}
