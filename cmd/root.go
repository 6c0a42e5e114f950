package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/speckled/internal/config"
	"github.com/xkilldash9x/speckled/internal/observability"
)

// ErrSpecsFailed is returned when a command ran to completion but at least
// one spec did not pass.
var ErrSpecsFailed = errors.New("one or more specs did not pass")

// app carries state shared by the subcommands of one root command.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
}

// NewRootCommand builds a fresh command tree with its own viper instance.
func NewRootCommand() *cobra.Command {
	a := &app{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:           "speckled",
		Short:         "speckled drives a real browser through natural-language UI test specs.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Only the executing command's flags are bound; run and suite
			// share flag names.
			bindFlags(a.v, cmd, flagKeys)
			if err := initializeConfig(a.v, a.cfgFile); err != nil {
				return err
			}
			cfg, err := config.NewConfigFromViper(a.v)
			if err != nil {
				return err
			}
			a.cfg = cfg
			observability.InitializeLogger(cfg.Logger())
			observability.GetLogger().Debug("Configuration loaded.", zap.String("version", Version), zap.String("config_file", a.v.ConfigFileUsed()))
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file (default is ./speckled.yaml, then ~/.speckled/speckled.yaml)")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	rootCmd.AddCommand(newRunCmd(a), newSuiteCmd(a), newVersionCmd())
	return rootCmd
}

// Execute runs the root command with the given (signal-aware) context.
func Execute(ctx context.Context) error {
	err := NewRootCommand().ExecuteContext(ctx)
	defer observability.Sync()

	switch {
	case err == nil, errors.Is(err, ErrSpecsFailed):
	case errors.Is(err, context.Canceled):
		observability.GetLogger().Warn("Interrupted.")
	default:
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}

// initializeConfig reads in a .env file, the config file and ENV variables
// if set.
func initializeConfig(v *viper.Viper, cfgFile string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("error loading .env file: %w", err)
	}

	config.SetDefaults(v)

	if cfgFile != "" {
		path, err := homedir.Expand(cfgFile)
		if err != nil {
			return fmt.Errorf("error expanding config path: %w", err)
		}
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".speckled"))
		}
		v.SetConfigName("speckled")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("SPECKLED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}

// flagKeys maps command flags onto config keys.
var flagKeys = map[string]string{
	"max-steps":        "agent.max_steps",
	"settle-delay-ms":  "agent.settle_delay_ms",
	"observation-mode": "agent.observation_mode",
	"headless":         "browser.headless",
	"provider":         "llm.provider",
	"model":            "llm.model",
	"concurrency":      "suite.concurrency",
	"output":           "suite.output",
}

// bindFlags binds the flags cmd defines so explicit flags win over the
// file and the environment.
func bindFlags(v *viper.Viper, cmd *cobra.Command, keys map[string]string) {
	for flag, key := range keys {
		if f := cmd.Flags().Lookup(flag); f != nil {
			_ = v.BindPFlag(key, f)
		}
	}
}
