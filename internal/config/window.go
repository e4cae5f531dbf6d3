package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// WindowConfig holds configuration for the twap and twal commands.
type WindowConfig struct {
	RPCURL     string
	Pool       string
	SecondsAgo uint32
	LogLevel   string
}

// LoadWindow merges config file, environment variables, and flags into WindowConfig.
func LoadWindow(cfgFile string, flags *pflag.FlagSet) (WindowConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("POOLSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("seconds-ago", uint32(300))
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return WindowConfig{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if err := readConfigFile(v, cfgFile); err != nil {
		return WindowConfig{}, err
	}

	cfg := WindowConfig{
		RPCURL:     v.GetString("rpc"),
		Pool:       v.GetString("pool"),
		SecondsAgo: uint32(v.GetUint64("seconds-ago")),
		LogLevel:   v.GetString("log-level"),
	}

	return cfg, nil
}
