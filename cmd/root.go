package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hoodini/yuv-ai-trends/internal/config"
)

const envPrefix = "TRENDS"

var (
	cfgFile string
	appCfg  config.Config
	cfgErr  error
)

// rootCmd is the base command called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "yuv-ai-trends",
	Short: "AI trends aggregator",
	Long: "Collects trending AI repositories, papers and spaces, ranks them and " +
		"publishes RSS, JSON and Markdown digests.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return cfgErr
	},
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return fang.Execute(ctx, rootCmd)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
}

// secrets usually come from the environment; the bare names match what the
// upstream tools document.
var envAliases = map[string][]string{
	"openai.api_key":       {"OPENAI_API_KEY"},
	"sources.github.token": {"GITHUB_TOKEN"},
	"server.admin_token":   {"ADMIN_TOKEN"},
	"redis.addr":           {"REDIS_ADDR"},
	"redis.password":       {"REDIS_PASSWORD"},
	"postgres.dsn":         {"DATABASE_URL"},
	"store.backend":        nil,
	"store.path":           nil,
	"app.log_level":        nil,
	"server.addr":          nil,
}

func initConfig() {
	v := viper.GetViper()
	cfgErr = nil

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/yuv-ai-trends")
		v.AddConfigPath("configs")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, aliases := range envAliases {
		names := append([]string{envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, aliases...)
		_ = v.BindEnv(append([]string{key}, names...)...)
	}

	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) {
			cfgErr = fmt.Errorf("error reading config: %w", err)
			return
		}
	} else {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", v.ConfigFileUsed())
	}

	appCfg = config.Config{}
	if err := v.Unmarshal(&appCfg); err != nil {
		cfgErr = fmt.Errorf("error parsing config: %w", err)
		return
	}

	appCfg.FillDefaults()
	if err := appCfg.Validate(); err != nil {
		cfgErr = fmt.Errorf("invalid config: %w", err)
		return
	}
	setupLogging(appCfg.App.LogLevel)
}

func setupLogging(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}

// GetConfig exposes the loaded configuration to subcommands.
func GetConfig() config.Config {
	return appCfg
}
