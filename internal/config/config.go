// Package config reads and writes the experiment configuration file.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/wildfire/pkg/errors"
	"github.com/YuminosukeSato/wildfire/pkg/log"
)

const (
	configFileName = "wildfire.yaml"
	dirMode        = 0o700
	fileMode       = 0o600
)

// Config is the experiment configuration.
type Config struct {
	// DataPath points at the forest-fires CSV file.
	DataPath string `yaml:"data_path"`

	// LogTarget trains on log1p(area) and reports predictions through expm1.
	LogTarget bool `yaml:"log_target"`

	// Standardize scales features to zero mean and unit variance before
	// fitting. The tree models ignore scaling but SGD and SVR need it.
	Standardize bool `yaml:"standardize"`

	Seed    int64 `yaml:"seed"`
	CVFolds int   `yaml:"cv_folds"`

	// ModelDir is where trained models are saved.
	ModelDir string `yaml:"model_dir"`

	// DBPath is the SQLite file recording past runs.
	DBPath string `yaml:"db_path"`

	// ReportDir is where comparison plots are written.
	ReportDir string `yaml:"report_dir"`

	Models ModelParams `yaml:"models"`
}

// ModelParams carries the per-model hyperparameters the CLI exposes.
type ModelParams struct {
	ForestTrees  int     `yaml:"forest_trees"`
	TreeMaxDepth int     `yaml:"tree_max_depth"`
	SGDAlpha     float64 `yaml:"sgd_alpha"`
	SGDMaxIter   int     `yaml:"sgd_max_iter"`
	SVREpsilon   float64 `yaml:"svr_epsilon"`
	SVREpochs    int     `yaml:"svr_epochs"`
	RANSACTrials int     `yaml:"ransac_trials"`
}

// Default returns the configuration used when no file exists yet.
func Default() *Config {
	return &Config{
		DataPath:    "forestfires.csv",
		LogTarget:   true,
		Standardize: true,
		Seed:        42,
		CVFolds:     5,
		ModelDir:    "models",
		DBPath:      "wildfire.db",
		ReportDir:   "reports",
		Models: ModelParams{
			ForestTrees:  100,
			TreeMaxDepth: -1,
			SGDAlpha:     1e-4,
			SGDMaxIter:   1000,
			SVREpsilon:   0.1,
			SVREpochs:    50,
			RANSACTrials: 100,
		},
	}
}

// Save writes c to dirPath/wildfire.yaml.
func Save(dirPath string, c *Config) error {
	if dirPath == "" {
		return errors.New("config directory required")
	}
	if c == nil {
		return errors.New("config required")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal config")
	}
	path := filepath.Join(dirPath, configFileName)
	if err := os.WriteFile(path, b, fileMode); err != nil {
		return errors.Wrapf(err, "write config file %s", path)
	}
	return nil
}

// ReadOrCreate loads the config from dirPath, writing the defaults first when
// no file exists yet.
func ReadOrCreate(dirPath string) (*Config, error) {
	if dirPath == "" {
		return nil, errors.New("config directory required")
	}

	if _, err := os.Stat(dirPath); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(dirPath, dirMode); err != nil {
			return nil, errors.Wrapf(err, "create config dir %s", dirPath)
		}
	}

	path := filepath.Join(dirPath, configFileName)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		log.Debug().Str("path", path).Msg("writing default config")
		if err := Save(dirPath, Default()); err != nil {
			return nil, errors.Wrap(err, "create default config")
		}
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config file %s", path)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, errors.Wrapf(err, "unmarshal config file %s", path)
	}
	return &c, nil
}
