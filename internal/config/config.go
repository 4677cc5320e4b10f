// Package config wires Viper configuration for the CLI.
package config

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/iamtgiri/YT-Playlist-Downloader/internal/dirs"
)

// Keys read from config files, environment, or flags.
const (
	KeyOutDir     = "out_dir"
	KeyVerbose    = "verbose"
	KeyDLBinary   = "dl_binary"
	KeyJobs       = "jobs"
	KeyAPIKey     = "api_key"   // YTPL_API_KEY
	KeyTagModel   = "tag_model" // chat model used for tag generation
	KeyMistralKey = "mistral_api_key"
)

// Init wires Viper with config paths, env, defaults, and flag bindings.
// It is non-fatal: any errors are returned for optional handling by caller.
func Init(root *cobra.Command) error {
	_ = dirs.EnsureAll()

	if cfgDir, err := dirs.ConfigDir(); err == nil {
		_ = dirs.Ensure(cfgDir)
		viper.AddConfigPath(cfgDir)
	}
	viper.SetConfigName("config") // supports config.{yaml|yml|json|toml}

	// Environment variables: YTPL_*
	viper.SetEnvPrefix("YTPL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// Bind root persistent flags to Viper keys
	_ = viper.BindPFlag(KeyOutDir, root.PersistentFlags().Lookup("out-dir"))
	_ = viper.BindPFlag(KeyVerbose, root.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag(KeyDLBinary, root.PersistentFlags().Lookup("dl-binary"))
	_ = viper.BindPFlag(KeyJobs, root.PersistentFlags().Lookup("jobs"))

	// Read config file if present (ignore not found)
	_ = viper.ReadInConfig()

	return nil
}

// TagAPIKey returns the API key for the tag generation service, checking the
// generic key first and the provider-specific one second.
func TagAPIKey() string {
	if k := viper.GetString(KeyAPIKey); k != "" {
		return k
	}
	return viper.GetString(KeyMistralKey)
}

// TagModel returns the configured chat model name, or "" for the default.
func TagModel() string {
	return viper.GetString(KeyTagModel)
}
