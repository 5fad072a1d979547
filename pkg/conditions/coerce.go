package conditions

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ResolveField looks up a dotted path in the context map. A missing segment
// resolves to (nil, false); the operators then coerce that the same way a
// loosely typed runtime would (missing numeric operands become NaN).
func ResolveField(context map[string]any, path string) (any, bool) {
	current := any(context)

	for _, segment := range strings.Split(path, ".") {
		asMap, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}

		current, ok = asMap[segment]
		if !ok {
			return nil, false
		}
	}

	return current, true
}

// looseEquals mirrors loose equality: numeric comparison when both sides
// coerce to numbers, string-cast comparison otherwise. A missing field only
// equals an explicit nil value.
func looseEquals(actual, expected any, found bool) bool {
	if !found {
		return expected == nil
	}

	aNum, aOK := toNumber(actual)
	eNum, eOK := toNumber(expected)

	if aOK && eOK {
		return aNum == eNum
	}

	return stringify(actual) == stringify(expected)
}

func contains(haystack, needle string) bool {
	return strings.Contains(haystack, needle)
}

// compareNumeric coerces both operands to float64. Any operand that cannot be
// coerced becomes NaN, and every comparison against NaN is false.
func compareNumeric(op Operator, actual, expected any) bool {
	a := toNumberOrNaN(actual)
	e := toNumberOrNaN(expected)

	if math.IsNaN(a) || math.IsNaN(e) {
		return false
	}

	switch op {
	case OpGreaterThan:
		return a > e
	case OpLessThan:
		return a < e
	case OpGreaterOrEqual:
		return a >= e
	case OpLessOrEqual:
		return a <= e
	default:
		return false
	}
}

func toNumberOrNaN(value any) float64 {
	num, ok := toNumber(value)
	if !ok {
		return math.NaN()
	}

	return num
}

func toNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	case bool:
		if v {
			return 1, true
		}

		return 0, true
	case string:
		num, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}

		return num, true
	default:
		return 0, false
	}
}

func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
