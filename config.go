package erblock

import (
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	errorutil "github.com/projectdiscovery/utils/errors"
)

var DefaultSettingsFilePath = filepath.Join(getUserHomeDir(), ".config/erblock/settings.yaml")

// Settings is the caller-supplied configuration for a resolution run.
// It corresponds to spec.md §6 EXTERNAL INTERFACES.
type Settings struct {
	Dedupe        bool     `yaml:"dedupe"`
	N             int      `yaml:"n"`
	K             int      `yaml:"k"`
	MaxCompare    int      `yaml:"max_compare"`
	CPUs          int      `yaml:"cpus"`
	Attributes    []string `yaml:"attributes"`
	PathDatabase  string   `yaml:"path_database"`
	DBSchema      string   `yaml:"db_schema"`
	MinRR         float64  `yaml:"min_rr"`
	Threshold     float64  `yaml:"threshold"`
	DistanceChunk int      `yaml:"distance_chunk"`
}

// Validate fills in defaults (zero-value substitution, mirroring alterx's
// mutator.Options.Validate) and rejects configuration that the spec treats
// as a fatal ConfigError.
func (s *Settings) Validate() error {
	if len(s.Attributes) == 0 {
		return errorutil.New("erblock: at least one attribute must be configured")
	}
	for _, a := range s.Attributes {
		if a == "_index" {
			return errorutil.New("erblock: '_index' is a reserved column and cannot be used as an attribute")
		}
	}
	if s.N <= 0 {
		s.N = 1000
	}
	if s.K <= 0 {
		return errorutil.New("erblock: k (max conjunction length) must be >= 1")
	}
	if s.MaxCompare <= 0 {
		s.MaxCompare = 1_000_000
	}
	if s.CPUs <= 0 {
		s.CPUs = runtime.NumCPU()
	}
	if s.MinRR <= 0 {
		s.MinRR = 0.99
	}
	if s.Threshold <= 0 {
		s.Threshold = 0.85
	}
	if s.DistanceChunk <= 0 {
		s.DistanceChunk = 1000
	}
	if s.DBSchema == "" {
		s.DBSchema = "public"
	}
	return nil
}

// LoadSettings reads Settings from a YAML file, mirroring alterx's
// config.go NewConfig.
func LoadSettings(filePath string) (*Settings, error) {
	bin, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	var s Settings
	if err := yaml.Unmarshal(bin, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// SaveSettings writes Settings to a YAML file, mirroring alterx's
// config.go GenerateSample.
func SaveSettings(s *Settings, filePath string) error {
	bin, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, bin, 0644)
}

func getUserHomeDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		panic(err)
	}
	return homeDir
}
