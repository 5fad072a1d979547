package conditions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig_Defaults(t *testing.T) {
	cfg, err := ParseConfig(map[string]any{
		"groups": []any{
			map[string]any{
				"conditions": []any{
					map[string]any{"field": "order_total", "operator": "greater_than", "value": 50},
				},
			},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, LogicAnd, cfg.Logic)
	require.Len(t, cfg.Groups, 1)
	assert.Equal(t, LogicAnd, cfg.Groups[0].Logic)
}

func TestParseConfig_Errors(t *testing.T) {
	tests := []struct {
		name   string
		config map[string]any
	}{
		{name: "no groups", config: map[string]any{}},
		{name: "empty groups", config: map[string]any{"groups": []any{}}},
		{
			name: "group without conditions",
			config: map[string]any{
				"groups": []any{map[string]any{"logic": "and"}},
			},
		},
		{
			name: "condition without field",
			config: map[string]any{
				"groups": []any{
					map[string]any{
						"conditions": []any{map[string]any{"operator": "equals", "value": 1}},
					},
				},
			},
		},
		{
			name: "unknown operator",
			config: map[string]any{
				"groups": []any{
					map[string]any{
						"conditions": []any{map[string]any{"field": "a", "operator": "matches", "value": 1}},
					},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig(tt.config)
			assert.Error(t, err)
		})
	}
}

func singleCondition(field string, op Operator, value any) *Config {
	return &Config{
		Logic: LogicAnd,
		Groups: []Group{{
			Logic:      LogicAnd,
			Conditions: []Condition{{Field: field, Operator: op, Value: value}},
		}},
	}
}

func TestEvaluate_Operators(t *testing.T) {
	context := map[string]any{
		"order_total":    75.0,
		"customer_email": "ada@example.com",
		"count_str":      "12",
		"tags":           "vip,newsletter",
		"nested":         map[string]any{"city": "Lisbon"},
	}

	tests := []struct {
		name     string
		field    string
		operator Operator
		value    any
		want     bool
	}{
		{"equals number", "order_total", OpEquals, 75, true},
		{"equals numeric string", "count_str", OpEquals, 12, true},
		{"equals string", "customer_email", OpEquals, "ada@example.com", true},
		{"not equals", "order_total", OpNotEquals, 80, true},
		{"contains", "tags", OpContains, "vip", true},
		{"contains miss", "tags", OpContains, "wholesale", false},
		{"greater than", "order_total", OpGreaterThan, 50, true},
		{"greater than equal boundary", "order_total", OpGreaterThan, 75, false},
		{"greater or equal boundary", "order_total", OpGreaterOrEqual, 75, true},
		{"less than", "order_total", OpLessThan, 100, true},
		{"less or equal", "order_total", OpLessOrEqual, 75, true},
		{"dotted path", "nested.city", OpEquals, "Lisbon", true},
		{"missing field equals nil", "missing", OpEquals, nil, true},
		{"missing field equals value", "missing", OpEquals, "x", false},
		{"missing field not equals value", "missing", OpNotEquals, "x", true},
		// Non-numeric operands become NaN; every NaN comparison is false.
		{"numeric vs non-numeric", "customer_email", OpGreaterThan, 10, false},
		{"numeric vs non-numeric lte", "customer_email", OpLessOrEqual, 10, false},
		{"missing numeric comparison", "missing", OpGreaterThan, 0, false},
		{"missing numeric lte", "missing", OpLessOrEqual, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, groupResults := Evaluate(singleCondition(tt.field, tt.operator, tt.value), context)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, []bool{tt.want}, groupResults)
		})
	}
}

func TestEvaluate_GroupLogic(t *testing.T) {
	context := map[string]any{"order_total": 75.0, "country": "PT"}

	lowTotal := Condition{Field: "order_total", Operator: OpLessThan, Value: 50}
	highTotal := Condition{Field: "order_total", Operator: OpGreaterThan, Value: 50}
	isPT := Condition{Field: "country", Operator: OpEquals, Value: "PT"}

	tests := []struct {
		name string
		cfg  *Config
		want bool
	}{
		{
			name: "and group all true",
			cfg: &Config{Logic: LogicAnd, Groups: []Group{
				{Logic: LogicAnd, Conditions: []Condition{highTotal, isPT}},
			}},
			want: true,
		},
		{
			name: "and group one false",
			cfg: &Config{Logic: LogicAnd, Groups: []Group{
				{Logic: LogicAnd, Conditions: []Condition{lowTotal, isPT}},
			}},
			want: false,
		},
		{
			name: "or group one true",
			cfg: &Config{Logic: LogicAnd, Groups: []Group{
				{Logic: LogicOr, Conditions: []Condition{lowTotal, isPT}},
			}},
			want: true,
		},
		{
			name: "or across groups",
			cfg: &Config{Logic: LogicOr, Groups: []Group{
				{Logic: LogicAnd, Conditions: []Condition{lowTotal}},
				{Logic: LogicAnd, Conditions: []Condition{isPT}},
			}},
			want: true,
		},
		{
			name: "and across groups",
			cfg: &Config{Logic: LogicAnd, Groups: []Group{
				{Logic: LogicAnd, Conditions: []Condition{highTotal}},
				{Logic: LogicAnd, Conditions: []Condition{lowTotal}},
			}},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := Evaluate(tt.cfg, context)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveField(t *testing.T) {
	context := map[string]any{
		"a": map[string]any{"b": map[string]any{"c": 1}},
		"x": "leaf",
	}

	value, found := ResolveField(context, "a.b.c")
	assert.True(t, found)
	assert.Equal(t, 1, value)

	_, found = ResolveField(context, "a.b.missing")
	assert.False(t, found)

	// Descending through a non-map segment fails rather than panicking.
	_, found = ResolveField(context, "x.y")
	assert.False(t, found)
}
