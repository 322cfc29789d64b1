package consolidate

import (
	"github.com/BurntSushi/toml"

	"github.com/hhcho/genoprep/kinship"
	"github.com/hhcho/genoprep/par"
)

// Config carries the consolidation settings read from a TOML file.
type Config struct {
	Strategy   string `toml:"missing_genotype_strategy"`
	ImputeSeed string `toml:"impute_seed"`

	ParBuild string `toml:"par_build"`

	KinshipAutoFile      string `toml:"kinship_auto_file"`
	KinshipAutoEigenFile string `toml:"kinship_auto_eigen_file"`
	KinshipXFile         string `toml:"kinship_x_file"`
	KinshipXEigenFile    string `toml:"kinship_x_eigen_file"`
}

// LoadConfig decodes a TOML configuration file.
func LoadConfig(path string) (*Config, error) {
	config := new(Config)
	if _, err := toml.DecodeFile(path, config); err != nil {
		return nil, err
	}
	return config, nil
}

// ApplyTo wires the configuration into a consolidator. Empty fields leave
// the corresponding setting untouched.
func (c *Config) ApplyTo(dc *DataConsolidator) error {
	if c.Strategy != "" {
		s, err := ParseStrategy(c.Strategy)
		if err != nil {
			return err
		}
		dc.SetStrategy(s)
	}
	if c.ImputeSeed != "" {
		dc.Reseed([]byte(c.ImputeSeed))
	}
	if c.ParBuild != "" {
		region, err := par.New(c.ParBuild)
		if err != nil {
			return err
		}
		dc.SetParRegion(region)
	}
	if c.KinshipAutoFile != "" {
		if err := dc.SetKinshipFile(kinship.Auto, c.KinshipAutoFile); err != nil {
			return err
		}
	}
	if c.KinshipAutoEigenFile != "" {
		if err := dc.SetKinshipEigenFile(kinship.Auto, c.KinshipAutoEigenFile); err != nil {
			return err
		}
	}
	if c.KinshipXFile != "" {
		if err := dc.SetKinshipFile(kinship.X, c.KinshipXFile); err != nil {
			return err
		}
	}
	if c.KinshipXEigenFile != "" {
		if err := dc.SetKinshipEigenFile(kinship.X, c.KinshipXEigenFile); err != nil {
			return err
		}
	}
	return nil
}
