package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/sitenav/internal/cli"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	cfg     cli.Config
	logger  *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "sitenav",
	Short: "sitenav resolves and serves documentation site navigation",
	Long: `sitenav loads a navigation tree from a YAML/TOML/JSON file or a directory of
markdown pages and resolves locations against it, from the terminal, over HTTP or as MCP tools.

Configuration is read from --config (default .sitenav.yaml) and SITENAV_* environment
variables; flags take precedence.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		v, err := cli.NewViper(cfgFile)
		if err != nil {
			return err
		}
		bindFlags(v, cmd.Flags(), map[string]string{
			"source":                 "source",
			"watch":                  "watch",
			"debug":                  "debug",
			"log_format":             "log-format",
			"server.addr":            "addr",
			"server.metrics":         "metrics",
			"history.dir":            "history-dir",
			"history.redis_addr":     "redis",
			"router.scroll_debounce": "scroll-debounce",
			"validate.max_depth":     "max-depth",
		})
		// A positional argument names the source unless --source was given.
		if !cmd.Flags().Changed("source") && len(args) > 0 && cmd.Annotations["source-arg"] == "true" {
			v.Set("source", args[0])
		}

		cfg, err = cli.LoadConfig(v)
		if err != nil {
			return err
		}
		logger = cli.ConfigureLogger(cfg)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bindFlags binds the flags present on the command to their config keys.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		if f := flags.Lookup(name); f != nil {
			_ = v.BindPFlag(key, f)
		}
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .sitenav.yaml)")
	rootCmd.PersistentFlags().StringP("source", "s", ".", "Navigation file (.yaml, .toml, .json) or markdown directory")
	rootCmd.PersistentFlags().BoolP("watch", "w", false, "Reload the navigation when the source changes")
	rootCmd.PersistentFlags().Bool("debug", false, "Log debug output to stderr")
	rootCmd.PersistentFlags().String("log-format", "text", "Debug log format: text or json")
}
