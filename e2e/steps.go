// Package e2e drives a running tramite server through Gherkin scenarios.
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cucumber/godog"

	"tramite/e2e/steps/common"
	"tramite/e2e/steps/procedure"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	procedure.RegisterSteps(ctx, tc)
}

// TestContext carries the HTTP client and per-scenario state.
type TestContext struct {
	baseURL    string
	adminToken string
	client     *http.Client

	area       string
	lastStatus int
	lastBody   []byte
	vars       map[string]any
}

func NewTestContext(baseURL, adminToken string) *TestContext {
	return &TestContext{
		baseURL:    strings.TrimRight(baseURL, "/"),
		adminToken: adminToken,
		client:     &http.Client{Timeout: 10 * time.Second},
		vars:       make(map[string]any),
	}
}

// Reset clears scenario state.
func (tc *TestContext) Reset() {
	tc.area = ""
	tc.lastStatus = 0
	tc.lastBody = nil
	tc.vars = make(map[string]any)
}

// ActAs makes later requests carry the given area as the caller's active area.
func (tc *TestContext) ActAs(areaID string) {
	tc.area = areaID
}

func (tc *TestContext) POST(path string, body any) error {
	return tc.do(http.MethodPost, path, body, nil)
}

func (tc *TestContext) PUT(path string, body any) error {
	return tc.do(http.MethodPut, path, body, nil)
}

func (tc *TestContext) GET(path string) error {
	return tc.do(http.MethodGet, path, nil, nil)
}

// Admin sends a request with the admin token.
func (tc *TestContext) Admin(method, path string, body any) error {
	return tc.do(method, path, body, map[string]string{"X-Admin-Token": tc.adminToken})
}

func (tc *TestContext) do(method, path string, body any, headers map[string]string) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, tc.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if tc.area != "" {
		req.Header.Set("X-Area-Id", tc.area)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := tc.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	tc.lastStatus = resp.StatusCode
	tc.lastBody, err = io.ReadAll(resp.Body)
	return err
}

func (tc *TestContext) LastStatus() int {
	return tc.lastStatus
}

func (tc *TestContext) LastBody() []byte {
	return tc.lastBody
}

// GetResponseField resolves a dotted path such as "procedures.0.code" in the
// last JSON response.
func (tc *TestContext) GetResponseField(path string) (any, error) {
	var doc any
	if err := json.Unmarshal(tc.lastBody, &doc); err != nil {
		return nil, fmt.Errorf("response is not json: %w", err)
	}
	cur := doc
	for _, part := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[part]
			if !ok {
				return nil, fmt.Errorf("field %q not found", path)
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 || i >= len(node) {
				return nil, fmt.Errorf("index %q out of range in %q", part, path)
			}
			cur = node[i]
		default:
			return nil, fmt.Errorf("cannot descend into %q", path)
		}
	}
	return cur, nil
}

func (tc *TestContext) Save(name string, v any) {
	tc.vars[name] = v
}

func (tc *TestContext) Load(name string) (any, bool) {
	v, ok := tc.vars[name]
	return v, ok
}
