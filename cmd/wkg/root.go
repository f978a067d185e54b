package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile     string
	cacheDir    string
	registry    string
	offline     bool
	ociUsername string
	ociPassword string
	ociInsecure bool
	logLevel    string
	quiet       bool
)

// rootCmd is the application entry point.
var rootCmd = &cobra.Command{
	Use:   "wkg",
	Short: "A package client for the wasm-component artifact ecosystem",
	Long: `wkg resolves, fetches, caches, and publishes wasm-component packages
against OCI registries, signed transparency-log registries, and local
filesystem overrides, driven by a TOML configuration file and lock file.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		setupLogging()
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initEnv)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is the per-user wkg/config.toml)")
	rootCmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", "", "local cache directory (default is the per-user wkg cache)")
	rootCmd.PersistentFlags().StringVar(&registry, "registry", "", "default registry authority (host[:port]) to resolve unconfigured packages against")
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "fail rather than reach the network; only locked/cached data is used")
	rootCmd.PersistentFlags().StringVar(&ociUsername, "oci-username", "", "explicit OCI Basic auth username")
	rootCmd.PersistentFlags().StringVar(&ociPassword, "oci-password", "", "explicit OCI Basic auth password")
	rootCmd.PersistentFlags().BoolVar(&ociInsecure, "oci-insecure", false, "talk plain HTTP, not HTTPS, to the default registry's OCI backend")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all log output, errors included")
}

// initEnv wires WKG_-prefixed environment variables over the bound
// flags (spec.md §6): WKG_CONFIG_FILE, WKG_CACHE_DIR, WKG_REGISTRY,
// WKG_OCI_USERNAME, WKG_OCI_PASSWORD, WKG_OCI_INSECURE.
func initEnv() {
	viper.SetEnvPrefix("WKG")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if cfgFile == "" {
		cfgFile = viper.GetString("config-file")
	}
	if cacheDir == "" {
		cacheDir = viper.GetString("cache-dir")
	}
	if registry == "" {
		registry = viper.GetString("registry")
	}
	if ociUsername == "" {
		ociUsername = viper.GetString("oci-username")
	}
	if ociPassword == "" {
		ociPassword = viper.GetString("oci-password")
	}
	if !ociInsecure {
		ociInsecure = viper.GetBool("oci-insecure")
	}
}

func setupLogging() {
	level := parseLogLevel(logLevel)

	if quiet {
		level = slog.LevelError + 1
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
