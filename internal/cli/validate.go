package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/baumann-freiburg/mapf-core/internal/scenarioio"
	"github.com/baumann-freiburg/mapf-core/internal/validator"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a previously computed plan against its scenario",
	RunE:  runValidate,
}

func init() {
	validateCmd.Flags().String("input", "", "path to the scenario YAML file")
	validateCmd.Flags().String("plan", "", "path to the plan YAML file produced by 'run'")
	validateCmd.Flags().Bool("dynamic", false, "parse the scenario in the dynamic (task-pool) dialect")
	_ = validateCmd.MarkFlagRequired("input")
	_ = validateCmd.MarkFlagRequired("plan")
}

func runValidate(cmd *cobra.Command, args []string) error {
	v := viperForCmd(cmd)

	s, err := loadScenario(v)
	if err != nil {
		return err
	}
	cp, err := scenarioio.LoadPlan(v.GetString("plan"))
	if err != nil {
		return err
	}

	agents := make([]validator.Agent, len(s.Agents))
	for i, a := range s.Agents {
		agents[i] = validator.Agent{ID: a.ID, Start: a.Start, Targets: a.Targets}
	}

	mode := validator.Classic
	if s.Dynamic {
		mode = validator.Dynamic
	}

	if err := validator.Check(s.MapManager, agents, cp, mode); err != nil {
		return fmt.Errorf("plan is invalid: %w", err)
	}
	fmt.Println("plan is valid")
	return nil
}
