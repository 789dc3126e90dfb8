package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/spaghettifunk/anima-io/engine"
	"github.com/spaghettifunk/anima-io/engine/config"
	"github.com/spaghettifunk/anima-io/engine/core"
)

// ConfigEnv names the config file when --config is not given.
const ConfigEnv = "ANIMA_IO_CONFIG"

var (
	configPath string
	logLevel   string
	baseDir    string
	baseURL    string
	noNetwork  bool
)

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "anima-io",
		Short:         "Fetch game assets and everything they reference",
		Version:       core.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// If .env is missing, ignore error (env vars can be set by other means)
			_ = godotenv.Load()
			core.SetLogOutput(cmd.ErrOrStderr())
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "TOML config file (default $"+ConfigEnv+")")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn, error or fatal")
	root.PersistentFlags().StringVar(&baseDir, "base-dir", "", "directory relative paths are read from")
	root.PersistentFlags().StringVar(&baseURL, "base-url", "", "fetch relative paths from this URL instead of the disk")
	root.PersistentFlags().BoolVar(&noNetwork, "no-network", false, "refuse to fetch absolute URLs")

	root.AddCommand(fetchCmd(), watchCmd())
	return root
}

// loadConfig layers the flags over the config file over the defaults.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := configPath
	if path == "" {
		path = os.Getenv(ConfigEnv)
	}

	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("base-dir") {
		cfg.Loader.BaseDir = baseDir
	}
	if flags.Changed("base-url") {
		cfg.Loader.BaseURL = baseURL
	}
	if noNetwork {
		cfg.Network.Enabled = false
	}
	return cfg, cfg.Validate()
}

func newEngine(cmd *cobra.Command) (*engine.Engine, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return engine.New(cfg)
}
