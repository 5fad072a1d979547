// Package conditions evaluates nested AND/OR condition groups against a
// context map. Evaluation is pure: no state, no side effects.
package conditions

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Operator compares a resolved field against a configured value.
type Operator string

const (
	OpEquals         Operator = "equals"
	OpNotEquals      Operator = "not_equals"
	OpContains       Operator = "contains"
	OpGreaterThan    Operator = "greater_than"
	OpLessThan       Operator = "less_than"
	OpGreaterOrEqual Operator = "greater_or_equal"
	OpLessOrEqual    Operator = "less_or_equal"
)

// Logic combines condition results within a group, or group results at the
// top level.
type Logic string

const (
	LogicAnd Logic = "and"
	LogicOr  Logic = "or"
)

// Condition is a single field comparison.
type Condition struct {
	Field    string   `json:"field"    validate:"required"`
	Operator Operator `json:"operator" validate:"required"`
	Value    any      `json:"value"`
}

// Group holds conditions combined with the group's logic operator.
type Group struct {
	Logic      Logic       `json:"logic"`
	Conditions []Condition `json:"conditions"`
}

// Config is the full condition configuration of a conditional split node:
// groups combined with an outer logic operator.
type Config struct {
	Logic  Logic   `json:"logic"`
	Groups []Group `json:"groups"`
}

var ErrNoGroups = errors.New("condition config has no groups")

var validOperators = map[Operator]bool{
	OpEquals:         true,
	OpNotEquals:      true,
	OpContains:       true,
	OpGreaterThan:    true,
	OpLessThan:       true,
	OpGreaterOrEqual: true,
	OpLessOrEqual:    true,
}

// ParseConfig decodes a node config map into a condition Config. Missing
// logic operators default to "and".
func ParseConfig(raw map[string]any) (*Config, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to encode condition config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode condition config: %w", err)
	}

	if len(cfg.Groups) == 0 {
		return nil, ErrNoGroups
	}

	if cfg.Logic == "" {
		cfg.Logic = LogicAnd
	}

	for i := range cfg.Groups {
		group := &cfg.Groups[i]
		if group.Logic == "" {
			group.Logic = LogicAnd
		}

		if len(group.Conditions) == 0 {
			return nil, fmt.Errorf("condition group %d has no conditions", i)
		}

		for _, cond := range group.Conditions {
			if cond.Field == "" {
				return nil, fmt.Errorf("condition group %d has a condition without a field", i)
			}

			if !validOperators[cond.Operator] {
				return nil, fmt.Errorf("unknown condition operator %q", cond.Operator)
			}
		}
	}

	return &cfg, nil
}

// Evaluate runs the full configuration against the context map. It returns
// the final boolean and the per-group results.
func Evaluate(cfg *Config, context map[string]any) (bool, []bool) {
	groupResults := make([]bool, len(cfg.Groups))
	for i, group := range cfg.Groups {
		groupResults[i] = evaluateGroup(group, context)
	}

	return combine(cfg.Logic, groupResults), groupResults
}

func evaluateGroup(group Group, context map[string]any) bool {
	results := make([]bool, len(group.Conditions))
	for i, cond := range group.Conditions {
		results[i] = evaluateCondition(cond, context)
	}

	return combine(group.Logic, results)
}

func combine(logic Logic, results []bool) bool {
	if logic == LogicOr {
		for _, r := range results {
			if r {
				return true
			}
		}

		return false
	}

	// AND: vacuously true only with no results, which ParseConfig rejects.
	for _, r := range results {
		if !r {
			return false
		}
	}

	return true
}

func evaluateCondition(cond Condition, context map[string]any) bool {
	actual, found := ResolveField(context, cond.Field)

	switch cond.Operator {
	case OpEquals:
		return looseEquals(actual, cond.Value, found)
	case OpNotEquals:
		return !looseEquals(actual, cond.Value, found)
	case OpContains:
		return contains(stringify(actual), stringify(cond.Value))
	case OpGreaterThan, OpLessThan, OpGreaterOrEqual, OpLessOrEqual:
		return compareNumeric(cond.Operator, actual, cond.Value)
	default:
		return false
	}
}
