// Package cli wires the mapfcore command-line surface: run, evaluate,
// and validate subcommands bound to cobra/viper flags, config file, and
// environment, mirroring ParameterReader.java's seven-parameter surface
// (algorithm, inputPath, outputPath, timeHorizon, runtimeLimit,
// trialLimit, directionChangeFrequency).
package cli

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "mapfcore",
	Short: "Run and evaluate multi-agent pathfinding scenarios",
	Long: `mapfcore runs one of several multi-agent pathfinding and pickup-and-
delivery planners against a YAML scenario file, or evaluates a planner's
plan quality across the scenario's undirected, directed, and dynamic
map renderings.

Example:
  mapfcore run --algorithm CA_STAR --input scenario.yaml --output plan.yaml
  mapfcore evaluate --algorithm TokenPassing --input scenario.yaml --output report.csv
  mapfcore validate --input scenario.yaml --plan plan.yaml`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default $HOME/.config/mapfcore/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))

	rootCmd.AddCommand(runCmd, evaluateCmd, validateCmd)
}

func initConfig() {
	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath("$HOME/.config/mapfcore")
		viper.AddConfigPath(".")
	}

	viper.SetDefault("time-horizon", 200)
	viper.SetDefault("runtime-limit", "30s")
	viper.SetDefault("trial-limit", 50)
	viper.SetDefault("direction-change-frequency", 0)

	viper.AutomaticEnv()
	viper.SetEnvPrefix("MAPFCORE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	_ = viper.ReadInConfig()
}
