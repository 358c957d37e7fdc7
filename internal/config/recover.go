package config

import (
	"fmt"

	"github.com/spf13/pflag"
)

// RecoverConfig holds configuration for the recover-keys command.
type RecoverConfig struct {
	RPCURL      string
	In          string
	Out         string
	Concurrency int
	LogLevel    string
}

// LoadRecover merges config file, environment variables, and flags into RecoverConfig.
func LoadRecover(cfgFile string, flags *pflag.FlagSet) (RecoverConfig, error) {
	v := newViper()
	v.SetDefault("out", "./data/public_keys.csv")
	v.SetDefault("concurrency", 8)
	v.SetDefault("log-level", "info")

	if err := read(v, cfgFile, flags); err != nil {
		return RecoverConfig{}, err
	}

	cfg := RecoverConfig{
		RPCURL:      v.GetString("rpc"),
		In:          v.GetString("in"),
		Out:         v.GetString("out"),
		Concurrency: v.GetInt("concurrency"),
		LogLevel:    v.GetString("log-level"),
	}
	if cfg.RPCURL == "" {
		return RecoverConfig{}, fmt.Errorf("rpc url is required")
	}
	if cfg.In == "" {
		return RecoverConfig{}, fmt.Errorf("input rows are required")
	}

	return cfg, nil
}
