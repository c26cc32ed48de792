package testkit

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Matchers accepted as expected string values, for fields the server
// generates:
//
//	"@any"      present, any value (null included)
//	"@uuid"     a uuid string
//	"@decimal"  a money value, as string or number, with at most 2 places
//	"@time"     an RFC 3339 timestamp
var matchers = map[string]func(actual interface{}) bool{
	"@any": func(interface{}) bool { return true },
	"@uuid": func(v interface{}) bool {
		s, ok := v.(string)
		return ok && uuid.Validate(s) == nil
	},
	"@decimal": func(v interface{}) bool {
		s := fmt.Sprint(v)
		if !moneyPattern.MatchString(s) {
			return false
		}
		_, err := decimal.NewFromString(s)
		return err == nil
	},
	"@time": func(v interface{}) bool {
		s, ok := v.(string)
		if !ok {
			return false
		}
		_, err := time.Parse(time.RFC3339Nano, s)
		return err == nil
	},
}

var moneyPattern = regexp.MustCompile(`^-?\d+(\.\d{1,2})?$`)

// AssertStatusCode checks the response code, printing the body on mismatch.
func AssertStatusCode(t *testing.T, s *Scenario, got int, body []byte) {
	t.Helper()
	assert.Equal(t, s.ExpectedCode, got, "[%s] HTTP status code mismatch\nbody: %s", s.Name, body)
}

// AssertJSONSubset fails when expected is not contained in actual. Both are
// decoded first, so key order and whitespace never matter.
func AssertJSONSubset(t *testing.T, s *Scenario, expected, actual []byte) {
	t.Helper()

	var expVal, actVal interface{}
	require.NoError(t, json.Unmarshal(expected, &expVal), "[%s] expected body is not valid JSON", s.Name)
	if !assert.NoError(t, json.Unmarshal(actual, &actVal), "[%s] response is not valid JSON\nbody: %s", s.Name, actual) {
		return
	}

	if diffs := DiffJSON("", expVal, actVal); len(diffs) > 0 {
		t.Errorf("[%s] response body mismatch:\n%s\nbody: %s", s.Name, strings.Join(diffs, "\n"), actual)
	}
}

// DiffJSON lists where actual departs from expected. Objects are compared
// by the keys of expected only; arrays must have the same length. String
// values naming a matcher check the shape of actual instead of its value.
func DiffJSON(path string, expected, actual interface{}) []string {
	var diffs []string
	switch exp := expected.(type) {
	case map[string]interface{}:
		act, ok := actual.(map[string]interface{})
		if !ok {
			return append(diffs, fmt.Sprintf("  %s: expected object, got %T", keyPath(path), actual))
		}
		for k, ev := range exp {
			p := keyPath(path) + "." + k
			av, exists := act[k]
			if !exists {
				diffs = append(diffs, fmt.Sprintf("  %s: missing in actual", p))
				continue
			}
			diffs = append(diffs, DiffJSON(p, ev, av)...)
		}
	case []interface{}:
		act, ok := actual.([]interface{})
		if !ok {
			return append(diffs, fmt.Sprintf("  %s: expected array, got %T", keyPath(path), actual))
		}
		if len(exp) != len(act) {
			diffs = append(diffs, fmt.Sprintf("  %s: array length expected=%d actual=%d", keyPath(path), len(exp), len(act)))
		}
		for i := 0; i < len(exp) && i < len(act); i++ {
			diffs = append(diffs, DiffJSON(fmt.Sprintf("%s[%d]", keyPath(path), i), exp[i], act[i])...)
		}
	case string:
		if match, ok := matchers[exp]; ok {
			if !match(actual) {
				diffs = append(diffs, fmt.Sprintf("  %s: %v does not match %s", keyPath(path), actual, exp))
			}
			return diffs
		}
		if exp != fmt.Sprintf("%v", actual) {
			diffs = append(diffs, fmt.Sprintf("  %s:\n    - %v\n    + %v", keyPath(path), expected, actual))
		}
	default:
		if fmt.Sprintf("%v", expected) != fmt.Sprintf("%v", actual) {
			diffs = append(diffs, fmt.Sprintf("  %s:\n    - %v\n    + %v", keyPath(path), expected, actual))
		}
	}
	return diffs
}

func keyPath(path string) string {
	if path == "" {
		return "root"
	}
	return strings.TrimPrefix(path, ".")
}
