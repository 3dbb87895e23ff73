package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCost_KnownModels(t *testing.T) {
	table := DefaultTable()

	tests := []struct {
		model string
		in    int
		out   int
		want  float64
	}{
		{"claude-3-7-sonnet-20250219", 1000, 500, 1000*0.000003 + 500*0.000015},
		{"gpt-4o-mini", 2000, 1000, 2000*0.00000015 + 1000*0.0000006},
		{"deepseek-chat", 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			cost, err := table.Cost(tt.model, tt.in, tt.out)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, cost, 1e-12)
		})
	}
}

func TestCost_SonnetExample(t *testing.T) {
	// 1000 input at 0.000003 + 500 output at 0.000015 = 0.0105
	table := DefaultTable()
	cost, err := table.Cost("claude-3-7-sonnet-20250219", 1000, 500)
	require.NoError(t, err)
	assert.InDelta(t, 0.0105, cost, 1e-12)
}

func TestCost_UnknownModel(t *testing.T) {
	table := DefaultTable()
	_, err := table.Cost("some-unknown-model-xyz", 100, 100)
	assert.Error(t, err)
}

func TestCost_SearchSurcharge(t *testing.T) {
	table := Table{"sonar-pro": {InputCost: 0.000003, OutputCost: 0.000015, SearchCost: 0.005}}
	cost, err := table.Cost("sonar-pro", 1000, 500)
	require.NoError(t, err)
	assert.InDelta(t, 0.0105+0.005, cost, 1e-12)
}

func TestMerge_OverridesAndExtends(t *testing.T) {
	table := DefaultTable()
	table.Merge(Table{
		"gpt-4o":    {InputCost: 0.000005, OutputCost: 0.00002},
		"new-model": {InputCost: 0.000001, OutputCost: 0.000002},
	})

	p, ok := table.Lookup("gpt-4o")
	require.True(t, ok)
	assert.Equal(t, 0.000005, p.InputCost)

	_, ok = table.Lookup("new-model")
	assert.True(t, ok)

	// Untouched entries survive the merge
	_, ok = table.Lookup("deepseek-reasoner")
	assert.True(t, ok)
}

func TestValidate_RejectsNegative(t *testing.T) {
	table := Table{"bad": {InputCost: -1}}
	assert.Error(t, table.Validate())
	assert.NoError(t, DefaultTable().Validate())
}
