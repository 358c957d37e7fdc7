package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"ledgerReplay/internal/replay"
)

const envPrefix = "REPLAY"

// Config holds configuration values for the run command.
type Config struct {
	RPCURL             string
	Contract           string
	ABIPath            string
	Event              string
	FromBlock          uint64
	ToBlock            uint64
	TrackHead          bool
	WindowSize         uint64
	EnrichTxHashes     bool
	EnrichConcurrency  int
	EnrichCacheSize    int
	AwaitEnrichment    bool
	DumpEvents         bool
	EventsDir          string
	ExcludeTx          []string
	ProcessRemoved     bool
	OutDir             string
	Checkpoint         string
	CheckpointEnabled  bool
	CheckpointInterval int
	Snapshot           string
	MaxRetries         int
	RetryBackoff       time.Duration
	MaxBackoff         time.Duration
	MetricsAddr        string
	LogLevel           string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := newViper()

	v.SetDefault("event", "Transfer")
	v.SetDefault("window-size", uint64(5000))
	v.SetDefault("enrich-tx-hashes", false)
	v.SetDefault("enrich-concurrency", 8)
	v.SetDefault("enrich-cache-size", 10000)
	v.SetDefault("events-dir", "./data/events")
	v.SetDefault("exclude-tx", []string{replay.DefaultExcludedTx})
	v.SetDefault("out-dir", "./data")
	v.SetDefault("checkpoint", "./data/checkpoint.json")
	v.SetDefault("checkpoint-enabled", false)
	v.SetDefault("checkpoint-interval", 10)
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("max-backoff", 30*time.Second)
	v.SetDefault("log-level", "info")

	if err := read(v, cfgFile, flags); err != nil {
		return Config{}, err
	}

	cfg := Config{
		RPCURL:             v.GetString("rpc"),
		Contract:           strings.TrimSpace(v.GetString("contract")),
		ABIPath:            v.GetString("abi"),
		Event:              v.GetString("event"),
		FromBlock:          v.GetUint64("from"),
		ToBlock:            v.GetUint64("to"),
		TrackHead:          v.GetBool("track-head"),
		WindowSize:         v.GetUint64("window-size"),
		EnrichTxHashes:     v.GetBool("enrich-tx-hashes"),
		EnrichConcurrency:  v.GetInt("enrich-concurrency"),
		EnrichCacheSize:    v.GetInt("enrich-cache-size"),
		AwaitEnrichment:    v.GetBool("await-enrichment"),
		DumpEvents:         v.GetBool("dump-events"),
		EventsDir:          v.GetString("events-dir"),
		ExcludeTx:          getStringSlice(v, "exclude-tx"),
		ProcessRemoved:     v.GetBool("process-removed"),
		OutDir:             v.GetString("out-dir"),
		Checkpoint:         v.GetString("checkpoint"),
		CheckpointEnabled:  v.GetBool("checkpoint-enabled"),
		CheckpointInterval: v.GetInt("checkpoint-interval"),
		Snapshot:           v.GetString("snapshot"),
		MaxRetries:         v.GetInt("max-retries"),
		RetryBackoff:       v.GetDuration("retry-backoff"),
		MaxBackoff:         v.GetDuration("max-backoff"),
		MetricsAddr:        v.GetString("metrics-addr"),
		LogLevel:           v.GetString("log-level"),
	}

	return cfg, nil
}

// Validate checks the settings the run command cannot default.
func (c Config) Validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	if c.Contract == "" {
		return fmt.Errorf("contract address is required")
	}
	if c.WindowSize == 0 {
		return fmt.Errorf("window size must be greater than zero")
	}
	if c.ToBlock != 0 && c.ToBlock < c.FromBlock {
		return fmt.Errorf("to block must be >= from block")
	}
	if c.CheckpointInterval < 0 {
		return fmt.Errorf("checkpoint interval must not be negative")
	}
	return nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// read binds flags and loads cfgFile, or ./config.* when cfgFile is empty.
func read(v *viper.Viper, cfgFile string, flags *pflag.FlagSet) error {
	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
		return nil
	}

	v.SetConfigName("config")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	return cleanStrings(strings.Split(input, ","))
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
