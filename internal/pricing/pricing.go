// Package pricing maps model identifiers to per-token unit costs and derives
// the monetary cost of a query from its token counts.
//
// DESIGN: The table is static at runtime. It ships with defaults for the
// models the bot offers and can be overridden per model from the YAML config.
// An unknown model id is an explicit error, never a silent zero cost: the bot
// refuses to dispatch a model that has no price entry.
package pricing

import "fmt"

// Price holds the unit costs for one model.
type Price struct {
	InputCost  float64 `yaml:"input_cost"`  // USD per input token
	OutputCost float64 `yaml:"output_cost"` // USD per output token
	SearchCost float64 `yaml:"search_cost"` // optional flat per-call surcharge
}

// Table maps model identifiers to their prices.
type Table map[string]Price

// DefaultTable returns prices for the models the bot ships with.
func DefaultTable() Table {
	return Table{
		// Anthropic
		"claude-3-7-sonnet-20250219": {InputCost: 0.000003, OutputCost: 0.000015},
		"claude-3-5-haiku-20241022":  {InputCost: 0.0000008, OutputCost: 0.000004},

		// Deepseek
		"deepseek-reasoner": {InputCost: 0.00000055, OutputCost: 0.00000219},
		"deepseek-chat":     {InputCost: 0.00000027, OutputCost: 0.0000011},

		// OpenAI
		"gpt-4o":      {InputCost: 0.0000025, OutputCost: 0.00001},
		"gpt-4o-mini": {InputCost: 0.00000015, OutputCost: 0.0000006},
	}
}

// Merge overlays per-model overrides onto the table.
func (t Table) Merge(overrides Table) {
	for model, p := range overrides {
		t[model] = p
	}
}

// Lookup returns the price entry for a model.
func (t Table) Lookup(model string) (Price, bool) {
	p, ok := t[model]
	return p, ok
}

// Cost computes the cost in USD of one query.
// Returns an error for a model with no price entry.
func (t Table) Cost(model string, inputTokens, outputTokens int) (float64, error) {
	p, ok := t[model]
	if !ok {
		return 0, fmt.Errorf("no price entry for model %q", model)
	}
	cost := float64(inputTokens)*p.InputCost + float64(outputTokens)*p.OutputCost
	return cost + p.SearchCost, nil
}

// Validate checks that every price entry is sane.
func (t Table) Validate() error {
	for model, p := range t {
		if p.InputCost < 0 || p.OutputCost < 0 || p.SearchCost < 0 {
			return fmt.Errorf("pricing for %q must not be negative", model)
		}
	}
	return nil
}
