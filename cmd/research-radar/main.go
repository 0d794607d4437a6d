// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the research-radar CLI. It scans
// paper sources for dataset opportunities in one-shot batch runs or as a
// continuous monitor.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/research-radar/internal/config"
	"github.com/pdiddy/research-radar/internal/logging"
	"github.com/pdiddy/research-radar/internal/secrets"
	"github.com/pdiddy/research-radar/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// configKeyAnnotation marks a flag with the configuration key it overrides.
const configKeyAnnotation = "research-radar/config-key"

// Resolved at startup by PersistentPreRunE.
var (
	cfg    types.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "research-radar",
	Short: "Find commercial dataset opportunities in new research papers",
	Long: `research-radar scans arXiv, Semantic Scholar, OpenAlex, DBLP, and Papers with
Code for recent papers, scores them with keyword heuristics, asks Claude for a
structured commercial assessment, and writes tiered findings as markdown.

Run "batch" for a one-shot look back over recent papers, or "monitor" to poll
for new papers on a schedule.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./research-radar.yaml or ~/.config/research-radar/research-radar.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "log format: console or json")
	bindFlag(rootCmd.PersistentFlags(), "log-level", "log.level")
	bindFlag(rootCmd.PersistentFlags(), "log-format", "log.format")

	config.Defaults(viper.GetViper())
}

// bindFlag records the configuration key a flag overrides. Binding happens
// in setup, for the executing command only.
func bindFlag(flags *pflag.FlagSet, name, key string) {
	if err := flags.SetAnnotation(name, configKeyAnnotation, []string{key}); err != nil {
		panic(err)
	}
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("research-radar")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "research-radar"))
		}
	}
}

// setup loads .env, the config file, and secrets, then builds the logger.
func setup(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("loading .env: %w", err)
	}
	v := viper.GetViper()
	if err := config.BindEnv(v); err != nil {
		return err
	}

	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if keys, ok := f.Annotations[configKeyAnnotation]; ok && bindErr == nil {
			bindErr = v.BindPFlag(keys[0], f)
		}
	})
	if bindErr != nil {
		return fmt.Errorf("binding flags: %w", bindErr)
	}

	usedFile := ""
	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine unless --config named one.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	} else {
		usedFile = v.ConfigFileUsed()
	}

	loaded, err := config.Load(v)
	if err != nil {
		return err
	}

	s, err := secrets.Load(secrets.DefaultDir, nil)
	if err != nil {
		return err
	}
	config.ApplySecrets(&loaded, s)

	l, err := logging.New(loaded.Log)
	if err != nil {
		return err
	}
	cfg, logger = loaded, l

	if usedFile != "" {
		logger.Info("using config file", zap.String("path", usedFile))
	}
	if len(s) > 0 {
		logger.Debug("loaded secrets", zap.Strings("keys", secrets.Names(s)))
	}
	return nil
}

func main() {
	err := rootCmd.Execute()
	_ = logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}
