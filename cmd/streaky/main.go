package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var Version = "dev"

const defaultAPIURL = "http://localhost:8080"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:           "streaky",
		Short:         "Streaky - daily task lists with streaks",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadSettings(v)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("api-url", defaultAPIURL, "Base URL of the streaky API")
	flags.String("state-file", "", "Path of the local state file")
	flags.String("config", "", "Optional YAML config file")
	flags.BoolP("verbose", "v", false, "Log sync activity to stderr")
	_ = v.BindPFlag("api_url", flags.Lookup("api-url"))
	_ = v.BindPFlag("state_file", flags.Lookup("state-file"))
	_ = v.BindPFlag("config", flags.Lookup("config"))
	_ = v.BindPFlag("verbose", flags.Lookup("verbose"))

	a := &app{settings: v}
	rootCmd.AddCommand(authCmds(a)...)
	rootCmd.AddCommand(statusCmd(a))
	rootCmd.AddCommand(listCmd(a))
	rootCmd.AddCommand(taskCmd(a))
	rootCmd.AddCommand(watchCmd(a))

	return rootCmd
}

// loadSettings layers STREAKY_* environment variables and an optional config
// file under the command-line flags.
func loadSettings(v *viper.Viper) error {
	v.SetEnvPrefix("streaky")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}
	return nil
}
