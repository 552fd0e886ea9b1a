package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileConfig is the tdbm.yaml layout. Command-line flags override any
// value set in the file.
type fileConfig struct {
	Driver   string `yaml:"driver"`
	DSN      string `yaml:"dsn"`
	Target   string `yaml:"target"`
	Package  string `yaml:"package"`
	Schema   string `yaml:"schema"`
	CacheDir string `yaml:"cache_dir"`
}

const defaultConfigPath = "tdbm.yaml"

// loadConfig reads the configuration file. An explicitly given path
// must exist; the default path is optional.
func loadConfig(path string) (*fileConfig, error) {
	explicit := path != ""
	if !explicit {
		path = defaultConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			return &fileConfig{}, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *fileConfig) override(driver, dsn, target, pkg, schema, cacheDir string) {
	if driver != "" {
		c.Driver = driver
	}
	if dsn != "" {
		c.DSN = dsn
	}
	if target != "" {
		c.Target = target
	}
	if pkg != "" {
		c.Package = pkg
	}
	if schema != "" {
		c.Schema = schema
	}
	if cacheDir != "" {
		c.CacheDir = cacheDir
	}
}

func (c *fileConfig) validate() error {
	if c.Driver == "" {
		return fmt.Errorf("no driver configured; set --driver or the driver key in %s", defaultConfigPath)
	}
	if c.DSN == "" {
		return fmt.Errorf("no connection string configured; set --dsn or the dsn key in %s", defaultConfigPath)
	}
	if c.Target == "" {
		return fmt.Errorf("no target directory configured; set --target or the target key in %s", defaultConfigPath)
	}
	if c.Package == "" {
		return fmt.Errorf("no package path configured; set --package or the package key in %s", defaultConfigPath)
	}
	return nil
}
