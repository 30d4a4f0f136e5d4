package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/nao1215/sheetdb"
)

const (
	configFileName = "sheetdb"
	configFileType = "yaml"
	envPrefix      = "SHEETDB"

	cfgKeyDir         = "dir"
	cfgKeyCompression = "compression"
	cfgKeySettleDelay = "settle_delay"
	cfgKeyMaxPolls    = "max_polls"
	cfgKeyAutoSave    = "auto_save"
	cfgKeyLogLevel    = "log_level"
	cfgKeyLogFormat   = "log_format"
)

// Config is the CLI configuration. Values come from flags, SHEETDB_* environment
// variables, sheetdb.yaml and the defaults, in that order of precedence.
type Config struct {
	Dir         string
	Compression string
	SettleDelay time.Duration
	MaxPolls    int
	AutoSave    string // "" | "close" | "write"
	LogLevel    string
	LogFormat   string
}

func defaultConfig() *Config {
	return &Config{
		Dir:         sheetdb.DefaultDir,
		Compression: "none",
		SettleDelay: sheetdb.DefaultSettleDelay,
		MaxPolls:    sheetdb.DefaultMaxPolls,
		LogLevel:    "warn",
		LogFormat:   "text",
	}
}

// loadConfig reads the config file. An empty path searches sheetdb.yaml in the
// working directory; a missing file there is not an error.
func loadConfig(path string) (*Config, error) {
	def := defaultConfig()

	v := viper.New()
	v.SetDefault(cfgKeyDir, def.Dir)
	v.SetDefault(cfgKeyCompression, def.Compression)
	v.SetDefault(cfgKeySettleDelay, def.SettleDelay)
	v.SetDefault(cfgKeyMaxPolls, def.MaxPolls)
	v.SetDefault(cfgKeyAutoSave, def.AutoSave)
	v.SetDefault(cfgKeyLogLevel, def.LogLevel)
	v.SetDefault(cfgKeyLogFormat, def.LogFormat)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configFileName)
		v.SetConfigType(configFileType)
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{
		Dir:         v.GetString(cfgKeyDir),
		Compression: v.GetString(cfgKeyCompression),
		SettleDelay: v.GetDuration(cfgKeySettleDelay),
		MaxPolls:    v.GetInt(cfgKeyMaxPolls),
		AutoSave:    strings.ToLower(v.GetString(cfgKeyAutoSave)),
		LogLevel:    v.GetString(cfgKeyLogLevel),
		LogFormat:   v.GetString(cfgKeyLogFormat),
	}
	if cfg.MaxPolls < 1 {
		return nil, fmt.Errorf("%s must be at least 1, got %d", cfgKeyMaxPolls, cfg.MaxPolls)
	}
	return cfg, nil
}
