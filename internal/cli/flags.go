package cli

import (
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"streamlit-packager/internal/app"
	"streamlit-packager/internal/types"
)

// sourceOptions are the flags every command that loads an application
// shares. Set flags override the recipe file.
type sourceOptions struct {
	Recipe               string
	Source               string
	Image                string
	BaseImage            string
	Entry                string
	Manifest             string
	Port                 int
	Repo                 string
	Ref                  string
	AllowMissingLauncher bool
}

func (o *sourceOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Recipe, "recipe", "", "Recipe file (defaults to streamlit-packager.yaml in the source directory)")
	cmd.Flags().StringVar(&o.Source, "source", "", "Application source directory")
	cmd.Flags().StringVar(&o.Image, "image", "", "Image reference to tag")
	cmd.Flags().StringVar(&o.BaseImage, "base-image", "", "Base image")
	cmd.Flags().StringVar(&o.Entry, "entry", "", "Entry script relative to the source directory")
	cmd.Flags().StringVar(&o.Manifest, "manifest", "", "Requirements manifest relative to the source directory")
	cmd.Flags().IntVar(&o.Port, "port", 0, "Port the application listens on")
	cmd.Flags().StringVar(&o.Repo, "repo", "", "Git URL to clone the application from")
	cmd.Flags().StringVar(&o.Ref, "ref", "", "Branch, tag or commit of --repo")
	cmd.Flags().BoolVar(&o.AllowMissingLauncher, "allow-missing-launcher", false, "Accept a manifest without the launcher package")
}

func (o sourceOptions) request(cmd *cobra.Command) app.SourceRequest {
	return app.SourceRequest{
		RecipePath: resolveString(cmd, o.Recipe, "recipe", "recipe"),
		RepoURL:    resolveString(cmd, o.Repo, "repo", "repo"),
		RepoRef:    resolveString(cmd, o.Ref, "ref", "ref"),
		Overrides: types.Recipe{
			Source:               resolveString(cmd, o.Source, "source", "source"),
			Image:                resolveString(cmd, o.Image, "image", "image"),
			BaseImage:            resolveString(cmd, o.BaseImage, "base_image", "base-image"),
			Entry:                resolveString(cmd, o.Entry, "entry", "entry"),
			Manifest:             resolveString(cmd, o.Manifest, "manifest", "manifest"),
			Port:                 resolveInt(cmd, o.Port, "port", "port"),
			AllowMissingLauncher: resolveBool(cmd, o.AllowMissingLauncher, "allow_missing_launcher", "allow-missing-launcher"),
		},
	}
}

// pipIndexOptions configure access to a pip simple index.
type pipIndexOptions struct {
	URL          string
	User         string
	APIKey       string
	Workers      int
	TimeoutSec   int
	Retries      int
	RetryDelayMs int
}

func (o *pipIndexOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.URL, "pip-index-url", "", "PIP simple index URL (defaults to https://pypi.org/simple)")
	cmd.Flags().StringVar(&o.User, "pip-user", "", "PIP index username for basic auth")
	cmd.Flags().StringVar(&o.APIKey, "pip-api-key", "", "PIP index API key or password")
	cmd.Flags().IntVar(&o.Workers, "workers", 4, "Concurrent index lookups")
	cmd.Flags().IntVar(&o.TimeoutSec, "http-timeout", 30, "HTTP timeout in seconds (0 = default)")
	cmd.Flags().IntVar(&o.Retries, "http-retries", 3, "HTTP retries (0 = default)")
	cmd.Flags().IntVar(&o.RetryDelayMs, "http-retry-delay-ms", 200, "HTTP retry base delay in ms (0 = default)")
}

func (o pipIndexOptions) resolved(cmd *cobra.Command) pipIndexOptions {
	return pipIndexOptions{
		URL:          resolveString(cmd, o.URL, "pip_index_url", "pip-index-url"),
		User:         resolveString(cmd, o.User, "pip_user", "pip-user"),
		APIKey:       resolveString(cmd, o.APIKey, "pip_api_key", "pip-api-key"),
		Workers:      resolveInt(cmd, o.Workers, "workers", "workers"),
		TimeoutSec:   resolveInt(cmd, o.TimeoutSec, "http_timeout_sec", "http-timeout"),
		Retries:      resolveInt(cmd, o.Retries, "http_retries", "http-retries"),
		RetryDelayMs: resolveInt(cmd, o.RetryDelayMs, "http_retry_delay_ms", "http-retry-delay-ms"),
	}
}

// The resolve helpers return an explicitly set flag, then a value from
// the config file or environment, then the flag default.

func resolveString(cmd *cobra.Command, value string, key string, flagName string) string {
	if cmd == nil {
		if value != "" {
			return value
		}
		return viper.GetString(key)
	}
	if flagChanged(cmd, flagName) || !viper.IsSet(key) {
		return value
	}
	return viper.GetString(key)
}

func resolveStrings(cmd *cobra.Command, values []string, key string, flagName string) []string {
	if cmd == nil {
		if len(values) > 0 {
			return values
		}
		return viper.GetStringSlice(key)
	}
	if flagChanged(cmd, flagName) || !viper.IsSet(key) {
		return values
	}
	return viper.GetStringSlice(key)
}

func resolveBool(cmd *cobra.Command, value bool, key string, flagName string) bool {
	if cmd == nil {
		return value
	}
	if flagChanged(cmd, flagName) || !viper.IsSet(key) {
		return value
	}
	return viper.GetBool(key)
}

func resolveInt(cmd *cobra.Command, value int, key string, flagName string) int {
	if cmd == nil {
		return value
	}
	if flagChanged(cmd, flagName) || !viper.IsSet(key) {
		return value
	}
	return viper.GetInt(key)
}

func resolveDuration(cmd *cobra.Command, value time.Duration, key string, flagName string) time.Duration {
	if cmd == nil {
		return value
	}
	if flagChanged(cmd, flagName) || !viper.IsSet(key) {
		return value
	}
	return viper.GetDuration(key)
}

func flagChanged(cmd *cobra.Command, name string) bool {
	if cmd == nil || strings.TrimSpace(name) == "" {
		return false
	}
	if flag := cmd.Flags().Lookup(name); flag != nil {
		return flag.Changed
	}
	if flag := cmd.PersistentFlags().Lookup(name); flag != nil {
		return flag.Changed
	}
	return false
}
