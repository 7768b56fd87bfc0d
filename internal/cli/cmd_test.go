package cli

import "testing"

func TestRootCommandHasExpectedSubcommands(t *testing.T) {
	if rootCmd == nil {
		t.Fatal("rootCmd is nil")
	}
	if rootCmd.Use != "mapfcore" {
		t.Errorf("rootCmd.Use = %q, want %q", rootCmd.Use, "mapfcore")
	}

	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"run", "evaluate", "validate"} {
		if !names[want] {
			t.Errorf("expected subcommand %q not registered", want)
		}
	}
}

func TestParamsFromViperRejectsInvalidTimeHorizon(t *testing.T) {
	v := viperForCmd(runCmd)
	v.Set("algorithm", "CA_STAR")
	v.Set("time-horizon", 0)
	v.Set("runtime-limit", "5s")
	v.Set("trial-limit", 10)
	v.Set("direction-change-frequency", 0)

	if _, err := paramsFromViper(v); err == nil {
		t.Fatal("expected an error for a zero time horizon")
	}
}

func TestParamsFromViperAcceptsValidParams(t *testing.T) {
	v := viperForCmd(runCmd)
	v.Set("algorithm", "CA_STAR")
	v.Set("time-horizon", 50)
	v.Set("runtime-limit", "5s")
	v.Set("trial-limit", 10)
	v.Set("direction-change-frequency", 0)

	p, err := paramsFromViper(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.TimeHorizon != 50 || p.TrialLimit != 10 {
		t.Fatalf("unexpected params: %+v", p)
	}
}
