package registry_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/runforge/arc/internal/registry"
)

func TestLoad_DefaultSequenceEndsWithGovernance(t *testing.T) {
	reg, err := registry.Load()
	require.NoError(t, err)
	names := reg.Names()
	require.Equal(t, registry.GovernanceStep, names[len(names)-1])

	_, ok := reg.Get(registry.FinalReportStep)
	require.True(t, ok)
}

func TestLoadFrom_InjectsMissingFinalReportStep(t *testing.T) {
	reg, err := registry.LoadFrom([]registry.StepDefinition{
		{Name: "ingestion", Critical: true},
		{Name: registry.GovernanceStep, Critical: false, Kind: registry.KindGovernance},
	})
	require.NoError(t, err)

	_, ok := reg.Get(registry.FinalReportStep)
	require.True(t, ok, "final report step should be injected when absent")
}

func TestLoadFrom_RejectsFinalReportStepNotLastWithoutGovernance(t *testing.T) {
	_, err := registry.LoadFrom([]registry.StepDefinition{
		{Name: registry.FinalReportStep},
		{Name: "anomalies"},
	})
	require.Error(t, err)
}

func TestLoadFrom_RejectsGovernanceStepNotLast(t *testing.T) {
	_, err := registry.LoadFrom([]registry.StepDefinition{
		{Name: "ingestion"},
		{Name: registry.GovernanceStep},
		{Name: registry.FinalReportStep},
	})
	require.Error(t, err)
}
