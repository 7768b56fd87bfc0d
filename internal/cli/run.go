package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/baumann-freiburg/mapf-core/internal/corelog"
	"github.com/baumann-freiburg/mapf-core/internal/engerr"
	"github.com/baumann-freiburg/mapf-core/internal/engine"
	"github.com/baumann-freiburg/mapf-core/internal/scenario"
	"github.com/baumann-freiburg/mapf-core/internal/scenarioio"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single planner against a scenario and write the resulting plan",
	RunE:  runRun,
}

func init() {
	bindScenarioFlags(runCmd)
	runCmd.Flags().String("output", "", "path to write the resulting plan (YAML, classic dialect)")
	_ = runCmd.MarkFlagRequired("output")
}

// bindScenarioFlags declares the seven flags every scenario-driving
// subcommand shares. Each command's own pflag.FlagSet stays distinct;
// viper is bound to it at RunE time (see viperForCmd) rather than here,
// since binding at init() would let the last-registered command's
// flags shadow every earlier command's identically-named viper keys.
func bindScenarioFlags(cmd *cobra.Command) {
	cmd.Flags().String("algorithm", "", "planner: CA_STAR, TokenPassing, HierarchicalPlanner, EnhancedHierarchicalPlanner, RuntimeReplanner, AlternatingRuntimeReplanner, TrafficSimulator")
	cmd.Flags().String("input", "", "path to the scenario YAML file")
	cmd.Flags().Int("time-horizon", 0, "maximum tick the planner may schedule into")
	cmd.Flags().Duration("runtime-limit", 0, "wall-clock budget before the planner is cancelled")
	cmd.Flags().Int("trial-limit", 0, "maximum number of reshuffled trials for randomized planners")
	cmd.Flags().Int("direction-change-frequency", 0, "ticks between edge-direction flips (0 disables)")
	cmd.Flags().Bool("dynamic", false, "parse the scenario in the dynamic (task-pool) dialect")

	_ = cmd.MarkFlagRequired("algorithm")
	_ = cmd.MarkFlagRequired("input")
}

// viperForCmd returns a viper instance seeded with cmd's own flags
// layered over the process-wide config file and environment, so flags
// from a sibling command never leak in.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.MergeConfigMap(viper.AllSettings())
	_ = v.BindPFlags(cmd.Flags())
	return v
}

func paramsFromViper(v *viper.Viper) (engine.Params, error) {
	algorithm := scenario.Algorithm(v.GetString("algorithm"))
	timeHorizon := v.GetInt("time-horizon")
	runtimeLimit := v.GetDuration("runtime-limit")
	trialLimit := v.GetInt("trial-limit")
	freq := v.GetInt("direction-change-frequency")

	if timeHorizon < 1 {
		return engine.Params{}, fmt.Errorf("time-horizon must be at least 1, got %d", timeHorizon)
	}
	if runtimeLimit < time.Second {
		return engine.Params{}, fmt.Errorf("runtime-limit must be at least 1s, got %s", runtimeLimit)
	}
	if trialLimit < 1 {
		return engine.Params{}, fmt.Errorf("trial-limit must be at least 1, got %d", trialLimit)
	}
	if freq < 0 {
		return engine.Params{}, fmt.Errorf("direction-change-frequency must be non-negative, got %d", freq)
	}

	return engine.Params{
		Algorithm:                algorithm,
		TimeHorizon:              timeHorizon,
		RuntimeLimit:             runtimeLimit,
		TrialLimit:               trialLimit,
		DirectionChangeFrequency: freq,
	}, nil
}

func loadScenario(v *viper.Viper) (*scenario.Scenario, error) {
	input := v.GetString("input")
	if v.GetBool("dynamic") {
		return scenarioio.LoadDynamic(input)
	}
	return scenarioio.LoadClassic(input)
}

func runRun(cmd *cobra.Command, args []string) error {
	v := viperForCmd(cmd)

	s, err := loadScenario(v)
	if err != nil {
		return err
	}
	p, err := paramsFromViper(v)
	if err != nil {
		return err
	}

	log := corelog.Default(string(p.Algorithm))
	log.Info("starting run", "agents", len(s.Agents), "dynamic", s.Dynamic)

	deadline := time.Now().Add(p.RuntimeLimit)
	cp, _, planningTime, err := engine.RunWithDeadline(s, p, deadline)
	if err != nil {
		log.Error("run failed", "error", err)
		if err == engerr.ErrTimeout {
			return fmt.Errorf("run: deadline exceeded after %s", planningTime)
		}
		return fmt.Errorf("run: %w", err)
	}

	log.Info("run completed", "makespan", cp.Makespan(), "flowtime", cp.SumOfCosts(), "planning_time", planningTime)

	return scenarioio.SavePlan(v.GetString("output"), cp)
}
