package testkit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Vars holds the placeholder values of a run. Captures are written back.
type Vars map[string]string

func (v Vars) expand(s string) string {
	for k, val := range v {
		s = strings.ReplaceAll(s, "{{"+k+"}}", val)
	}
	return s
}

// Run executes the scenario file at path against handler.
func Run(t *testing.T, handler http.Handler, path string, vars Vars) {
	t.Helper()
	s, err := LoadScenario(path)
	if err != nil {
		t.Fatalf("testkit: load scenario %q: %v", path, err)
	}
	t.Run(s.Name, func(t *testing.T) {
		runScenario(t, handler, s, vars)
	})
}

// RunDir runs every *.json scenario in dir as an independent subtest.
func RunDir(t *testing.T, handler http.Handler, dir string, vars Vars) {
	t.Helper()
	entries, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil || len(entries) == 0 {
		t.Fatalf("testkit: no scenario files found in %q", dir)
	}
	for _, path := range entries {
		s, err := LoadScenario(path)
		if err != nil {
			t.Errorf("testkit: load %q: %v", path, err)
			continue
		}
		t.Run(s.Name, func(t *testing.T) {
			runScenario(t, handler, s, vars)
		})
	}
}

// RunFlow runs the steps of a flow file in order, sharing vars. It stops at
// the first failing step since later steps depend on its captures.
func RunFlow(t *testing.T, handler http.Handler, path string, vars Vars) {
	t.Helper()
	steps, err := LoadFlow(path)
	if err != nil {
		t.Fatalf("testkit: %v", err)
	}
	if vars == nil {
		vars = Vars{}
	}
	for _, s := range steps {
		if !t.Run(s.Name, func(t *testing.T) { runScenario(t, handler, s, vars) }) {
			return
		}
	}
}

func runScenario(t *testing.T, handler http.Handler, s *Scenario, vars Vars) {
	t.Helper()

	raw, err := s.requestBody()
	if err != nil {
		t.Fatalf("[%s] read request body: %v", s.Name, err)
	}
	var body io.Reader
	if len(raw) > 0 {
		body = strings.NewReader(vars.expand(string(raw)))
	}

	req := httptest.NewRequest(strings.ToUpper(s.RequestMethod), vars.expand(s.RequestURL), body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range s.Headers {
		req.Header.Set(k, vars.expand(v))
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	AssertStatusCode(t, s, rec.Code, rec.Body.Bytes())

	expected, err := s.expectedBody()
	if err != nil {
		t.Errorf("[%s] read expected body: %v", s.Name, err)
	} else if len(expected) > 0 {
		AssertJSONSubset(t, s, []byte(vars.expand(string(expected))), rec.Body.Bytes())
	}

	if len(s.Capture) > 0 {
		capture(t, s, rec.Body.Bytes(), vars)
	}
	for k, want := range s.ExpectedHeaders {
		assert.Equal(t, vars.expand(want), rec.Header().Get(k), "[%s] header %s", s.Name, k)
	}
}

func capture(t *testing.T, s *Scenario, body []byte, vars Vars) {
	t.Helper()
	var doc interface{}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		t.Fatalf("[%s] capture: response is not JSON: %v", s.Name, err)
	}
	for name, path := range s.Capture {
		v, ok := lookup(doc, path)
		if !ok {
			t.Fatalf("[%s] capture %q: path %q not found in %s", s.Name, name, path, body)
		}
		vars[name] = fmt.Sprint(v)
	}
}

// lookup walks a dot path through objects and arrays ("itens.0.id").
func lookup(doc interface{}, path string) (interface{}, bool) {
	cur := doc
	for _, part := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]interface{}:
			next, ok := node[part]
			if !ok {
				return nil, false
			}
			cur = next
		case []interface{}:
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			cur = node[i]
		default:
			return nil, false
		}
	}
	return cur, true
}
