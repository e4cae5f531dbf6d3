package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// AnalyzeConfig holds configuration for the distribution command.
type AnalyzeConfig struct {
	RPCURL               string
	Pool                 string
	WordRange            int
	CliffThreshold       float64
	DefaultTokenPriceUSD float64
	TokenPricesUSD       map[string]float64
	Out                  string
	PGDSN                string
	MaxRetries           int
	RetryBackoff         time.Duration
	LogLevel             string
}

// LoadAnalyze merges config file, environment variables, and flags into AnalyzeConfig.
func LoadAnalyze(cfgFile string, flags *pflag.FlagSet) (AnalyzeConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("POOLSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("word-range", 5)
	v.SetDefault("cliff-threshold", 0.2)
	v.SetDefault("default-token-price-usd", 1.0)
	v.SetDefault("out", "./data/distribution.jsonl")
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return AnalyzeConfig{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if err := readConfigFile(v, cfgFile); err != nil {
		return AnalyzeConfig{}, err
	}

	prices, err := getFloatMap(v, "token-prices-usd")
	if err != nil {
		return AnalyzeConfig{}, fmt.Errorf("parse token-prices-usd: %w", err)
	}

	cfg := AnalyzeConfig{
		RPCURL:               v.GetString("rpc"),
		Pool:                 v.GetString("pool"),
		WordRange:            v.GetInt("word-range"),
		CliffThreshold:       v.GetFloat64("cliff-threshold"),
		DefaultTokenPriceUSD: v.GetFloat64("default-token-price-usd"),
		TokenPricesUSD:       prices,
		Out:                  v.GetString("out"),
		PGDSN:                v.GetString("pg-dsn"),
		MaxRetries:           v.GetInt("max-retries"),
		RetryBackoff:         v.GetDuration("retry-backoff"),
		LogLevel:             v.GetString("log-level"),
	}

	return cfg, nil
}

func readConfigFile(v *viper.Viper, cfgFile string) error {
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

func getFloatMap(v *viper.Viper, key string) (map[string]float64, error) {
	raw := getStringMap(v, key)
	out := make(map[string]float64, len(raw))
	for k, val := range raw {
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return nil, fmt.Errorf("value for %q: %w", k, err)
		}
		out[k] = parsed
	}
	return out, nil
}

func getStringMap(v *viper.Viper, key string) map[string]string {
	if !v.IsSet(key) {
		return map[string]string{}
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case map[string]string:
		return typed
	case map[string]interface{}:
		out := make(map[string]string, len(typed))
		for k, v := range typed {
			out[k] = fmt.Sprintf("%v", v)
		}
		return out
	case string:
		return parseStringMap(typed)
	default:
		return map[string]string{}
	}
}

func parseStringMap(input string) map[string]string {
	out := make(map[string]string)
	if strings.TrimSpace(input) == "" {
		return out
	}
	pairs := strings.Split(input, ",")
	for _, pair := range pairs {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}
	return out
}
