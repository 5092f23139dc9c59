// Package config loads the handful of knobs spec.md exposes as fixed
// constants (max_loop_depth, default quota, default step) through
// viper, so they are overridable via an ARCANA_ environment prefix or
// an optional .arcana.yaml without touching compiler code — grounded
// on dburkart-fossil's cobra+viper pairing, the only pack repo that
// combines the two.
package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Defaults mirror the constants semantic.go carries in code; viper only
// needs to know them so a config file or env var can override one
// without having to specify all three.
const (
	DefaultMaxLoopDepth = 3
	DefaultQuota        = 100
	DefaultStep         = 1
)

// Options is the subset of compile-time knobs a user can override.
type Options struct {
	MaxLoopDepth int
	DefaultQuota int64
	DefaultStep  int64
}

// Load reads .arcana.yaml from the current directory (if present) and
// ARCANA_* environment variables, falling back to the spec's defaults
// for anything unset. It never fails on a missing config file — only a
// malformed one.
func Load() (Options, error) {
	v := viper.New()
	v.SetDefault("max_loop_depth", DefaultMaxLoopDepth)
	v.SetDefault("default_quota", DefaultQuota)
	v.SetDefault("default_step", DefaultStep)

	v.SetConfigName(".arcana")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("ARCANA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Options{}, err
		}
	}

	return Options{
		MaxLoopDepth: v.GetInt("max_loop_depth"),
		DefaultQuota: v.GetInt64("default_quota"),
		DefaultStep:  v.GetInt64("default_step"),
	}, nil
}
