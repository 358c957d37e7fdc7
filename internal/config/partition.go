package config

import (
	"fmt"

	"github.com/spf13/pflag"
)

// PartitionConfig holds configuration for the partition command.
type PartitionConfig struct {
	In       string
	OutDir   string
	LogLevel string
}

// LoadPartition merges config file, environment variables, and flags into PartitionConfig.
func LoadPartition(cfgFile string, flags *pflag.FlagSet) (PartitionConfig, error) {
	v := newViper()
	v.SetDefault("out-dir", "./data")
	v.SetDefault("log-level", "info")

	if err := read(v, cfgFile, flags); err != nil {
		return PartitionConfig{}, err
	}

	cfg := PartitionConfig{
		In:       v.GetString("in"),
		OutDir:   v.GetString("out-dir"),
		LogLevel: v.GetString("log-level"),
	}
	if cfg.In == "" {
		return PartitionConfig{}, fmt.Errorf("input snapshot is required")
	}

	return cfg, nil
}
