// Command titanic trains, evaluates and queries the Titanic survival model.
package main

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/titanic/config"
	"github.com/YuminosukeSato/titanic/pkg/errors"
	"github.com/YuminosukeSato/titanic/pkg/log"
)

var version = "0.1.0"

// globalFlags は全サブコマンド共通のフラグ
type globalFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		log.GetLogger().Error("command failed", err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	var g globalFlags

	root := &cobra.Command{
		Use:   "titanic",
		Short: "Titanic survival prediction",
		Long: `titanic trains a logistic regression on the Titanic passenger list and
predicts the survival probability of a single passenger.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "Path to YAML configuration file (defaults are used when empty)")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides the config")
	root.PersistentFlags().StringVar(&g.logFormat, "log-format", "", "Log format (console, json, cloud); overrides the config")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "titanic v%s\n", version)
			fmt.Fprintf(cmd.OutOrStdout(), "Go version: %s\n", runtime.Version())
		},
	})
	root.AddCommand(newTrainCmd(&g), newEvaluateCmd(&g), newPredictCmd(&g))
	return root
}

// setup は設定を読み込み、フラグで上書きしてからロガーを初期化する
func (g *globalFlags) setup() (*config.Config, error) {
	cfg := config.Default()
	if g.configPath != "" {
		loaded, err := config.Load(g.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if g.logLevel != "" {
		cfg.LogLevel = g.logLevel
	}
	if g.logFormat != "" {
		cfg.LogFormat = g.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := setupLogging(cfg.LogLevel, cfg.LogFormat); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setupLogging はプロバイダを登録する。zerolog の場合は警告も構造化ログに流す
func setupLogging(level, format string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return errors.NewInvalidConfigError("config", "log_level", err.Error(), level)
	}
	switch format {
	case "cloud":
		// Cloud Logging 形式の slog JSON。警告は既定のハンドラのまま
		log.SetProvider(log.SetupLoggerWithWriter(os.Stderr, lvl))
		return nil
	case "json":
		p := log.NewZerologJSONProvider(lvl)
		log.SetProvider(p)
		p.InstallWarnSink()
	default:
		p := log.NewZerologProvider(lvl)
		log.SetProvider(p)
		p.InstallWarnSink()
	}
	return nil
}
