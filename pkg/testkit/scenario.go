// Package testkit drives REST API tests from JSON scenario files.
//
// A scenario describes one request and what must come back:
//
//	{
//	  "name": "login ok",
//	  "requestMethod": "POST",
//	  "requestUrl": "/api/auth/login",
//	  "requestBody": {"email": "admin@painel.local", "password": "{{password}}"},
//	  "expectedCode": 200,
//	  "responseBody": {"user": {"role": "admin"}},
//	  "capture": {"token": "token"}
//	}
//
// responseBody (or responseFileName) is matched as a subset: every key it
// lists must be present with the same value, extra keys are ignored.
// "{{name}}" placeholders in the URL, headers and bodies are replaced from
// Vars, and capture stores response values (dot paths) into Vars for the
// following steps of a flow file:
//
//	vars := testkit.Vars{"password": "segredo"}
//	testkit.RunFlow(t, handler, "testdata/pedidos_flow.json", vars)
package testkit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Scenario is a single request/response expectation.
type Scenario struct {
	Name        string `json:"name"`
	Description string `json:"description"`

	RequestMethod   string            `json:"requestMethod"`
	RequestURL      string            `json:"requestUrl"`
	RequestFileName string            `json:"requestFileName"`
	RequestBody     json.RawMessage   `json:"requestBody"`
	Headers         map[string]string `json:"headers"`

	ExpectedCode     int             `json:"expectedCode"`
	ResponseFileName string          `json:"responseFileName"`
	ResponseBody     json.RawMessage `json:"responseBody"`
	// ExpectedHeaders are compared after captures, so they may use
	// variables captured from the same response.
	ExpectedHeaders map[string]string `json:"expectedHeaders"`

	// Capture maps a variable name to a dot path in the JSON response,
	// e.g. {"pedido_id": "id"} or {"first": "0.numero_pedido"}.
	Capture map[string]string `json:"capture"`

	dir string
}

// LoadScenario reads and validates a scenario from a JSON file.
func LoadScenario(path string) (*Scenario, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("testkit: resolve path %q: %w", path, err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("testkit: read %q: %w", abs, err)
	}

	var s Scenario
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("testkit: parse %q: %w", abs, err)
	}
	s.dir = filepath.Dir(abs)
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("testkit: invalid scenario %q: %w", abs, err)
	}
	return &s, nil
}

// LoadFlow reads an ordered array of scenarios from one file.
func LoadFlow(path string) ([]*Scenario, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("testkit: resolve flow path %q: %w", path, err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("testkit: read flow %q: %w", abs, err)
	}

	var steps []*Scenario
	if err := json.Unmarshal(data, &steps); err != nil {
		return nil, fmt.Errorf("testkit: parse flow %q: %w", abs, err)
	}
	for i, s := range steps {
		s.dir = filepath.Dir(abs)
		if err := s.validate(); err != nil {
			return nil, fmt.Errorf("testkit: flow %q step %d: %w", abs, i, err)
		}
	}
	return steps, nil
}

func (s *Scenario) validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.RequestURL == "" {
		return fmt.Errorf("requestUrl is required")
	}
	if s.ExpectedCode == 0 {
		return fmt.Errorf("expectedCode is required")
	}
	if s.RequestMethod == "" {
		s.RequestMethod = "GET"
	}
	return nil
}

// requestBody returns the inline body, or the contents of requestFileName
// resolved against the scenario's directory.
func (s *Scenario) requestBody() ([]byte, error) {
	if len(s.RequestBody) > 0 {
		return s.RequestBody, nil
	}
	if s.RequestFileName == "" {
		return nil, nil
	}
	return os.ReadFile(s.resolve(s.RequestFileName))
}

func (s *Scenario) expectedBody() ([]byte, error) {
	if len(s.ResponseBody) > 0 {
		return s.ResponseBody, nil
	}
	if s.ResponseFileName == "" {
		return nil, nil
	}
	return os.ReadFile(s.resolve(s.ResponseFileName))
}

func (s *Scenario) resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.dir, name)
}
