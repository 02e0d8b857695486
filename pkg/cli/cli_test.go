package cli

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/quokka-io/mobile-harness/pkg/executor"
)

// fakeAppium is a minimal W3C endpoint: one session, a fixed set of
// elements keyed by locator value.
type fakeAppium struct {
	mu       sync.Mutex
	requests []string
	elements map[string]string
}

func newFakeAppium(t *testing.T, elements map[string]string) (*fakeAppium, *httptest.Server) {
	t.Helper()
	f := &fakeAppium{elements: elements}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeAppium) record(r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
}

func (f *fakeAppium) saw(req string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.requests {
		if r == req {
			return true
		}
	}
	return false
}

func (f *fakeAppium) serve(w http.ResponseWriter, r *http.Request) {
	f.record(r)
	reply := func(v interface{}) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"value": v})
	}

	path := r.URL.Path
	switch {
	case r.Method == http.MethodPost && path == "/session":
		reply(map[string]interface{}{
			"sessionId":    "s1",
			"capabilities": map[string]interface{}{"platformName": "Android"},
		})
	case r.Method == http.MethodDelete && path == "/session/s1":
		reply(nil)
	case path == "/session/s1/element":
		var body struct {
			Using string `json:"using"`
			Value string `json:"value"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		id, ok := f.elements[body.Value]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			reply(map[string]interface{}{"error": "no such element", "message": body.Value})
			return
		}
		reply(map[string]interface{}{"element-6066-11e4-a52e-4f735466cecf": id})
	case strings.HasSuffix(path, "/rect") && strings.HasPrefix(path, "/session/s1/element/"):
		reply(map[string]interface{}{"x": 100, "y": 400, "width": 200, "height": 100})
	case path == "/session/s1/window/rect":
		reply(map[string]interface{}{"x": 0, "y": 0, "width": 1080, "height": 2340})
	case path == "/session/s1/screenshot":
		reply(base64.StdEncoding.EncodeToString([]byte("png")))
	default:
		reply(nil)
	}
}

func writeConfig(t *testing.T, serverURL string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "harness.yaml")
	content := `server:
  url: ` + serverURL + `
capabilities:
  platformName: Android
  automationName: UiAutomator2
  appPackage: com.example.app
waits:
  short: 100ms
  default: 200ms
  long: 200ms
  interval: 20ms
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeFlow(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "flow.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := NewApp()
	app.Writer = &out
	app.ErrWriter = &out
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	err := app.RunContext(ctx, append([]string{"mobile-harness", "--log-file", filepath.Join(t.TempDir(), "harness.log")}, args...))
	return out.String(), err
}

func TestRun_PassingFlow(t *testing.T) {
	fake, srv := newFakeAppium(t, map[string]string{"login": "el-login", "username": "el-user"})
	cfg := writeConfig(t, srv.URL)
	artifacts := t.TempDir()
	flowPath := writeFlow(t, `name: Smoke
---
- launchApp
- tapOn:
    id: login
- inputText:
    id: username
    text: ${USER}
`)

	out, err := runApp(t, "--config", cfg, "--artifacts-dir", artifacts,
		"run", "-e", "USER=smercer", flowPath)
	if err != nil {
		t.Fatalf("run failed: %v\n%s", err, out)
	}

	for _, req := range []string{
		"POST /session",
		"POST /session/s1/timeouts",
		"POST /session/s1/appium/device/activate_app",
		"POST /session/s1/element/el-login/click",
		"POST /session/s1/element/el-user/value",
		"POST /session/s1/appium/device/terminate_app",
		"DELETE /session/s1",
	} {
		if !fake.saw(req) {
			t.Errorf("expected request %q", req)
		}
	}
	if !strings.Contains(out, "Smoke") || !strings.Contains(out, "1/1") {
		t.Errorf("summary missing from output:\n%s", out)
	}

	reports, _ := filepath.Glob(filepath.Join(artifacts, "*", "report.json"))
	if len(reports) != 1 {
		t.Fatalf("expected one report, got %v", reports)
	}
	data, err := os.ReadFile(reports[0])
	if err != nil {
		t.Fatal(err)
	}
	var report struct {
		TotalFlows  int `json:"totalFlows"`
		PassedFlows int `json:"passedFlows"`
		Flows       []struct {
			Status string `json:"status"`
		} `json:"flows"`
	}
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("report is not JSON: %v", err)
	}
	if report.TotalFlows != 1 || report.PassedFlows != 1 {
		t.Errorf("report counts = %d/%d, want 1/1", report.PassedFlows, report.TotalFlows)
	}
	if len(report.Flows) != 1 || report.Flows[0].Status != "passed" {
		t.Errorf("report flows = %+v", report.Flows)
	}
}

func TestRun_FailingFlowCapturesScreenshot(t *testing.T) {
	fake, srv := newFakeAppium(t, map[string]string{})
	cfg := writeConfig(t, srv.URL)
	artifacts := t.TempDir()
	flowPath := writeFlow(t, `- launchApp
- tapOn:
    id: missing
- back
`)

	out, err := runApp(t, "--config", cfg, "--artifacts-dir", artifacts, "run", "--no-report", flowPath)
	if err == nil {
		t.Fatalf("expected run to fail\n%s", out)
	}
	if !strings.Contains(err.Error(), "1 of 1") {
		t.Errorf("error = %v", err)
	}
	if fake.saw("POST /session/s1/back") {
		t.Error("steps after a required failure must not run")
	}
	if !fake.saw("DELETE /session/s1") {
		t.Error("session was not deleted after the failure")
	}

	shots, _ := filepath.Glob(filepath.Join(artifacts, "*", "*.png"))
	if len(shots) != 1 {
		t.Errorf("expected one failure screenshot, got %v", shots)
	}
	reports, _ := filepath.Glob(filepath.Join(artifacts, "*", "report.json"))
	if len(reports) != 0 {
		t.Errorf("--no-report still wrote %v", reports)
	}
}

func TestRun_ValidationErrors(t *testing.T) {
	_, srv := newFakeAppium(t, nil)
	cfg := writeConfig(t, srv.URL)
	flowPath := writeFlow(t, "- launchApp\n- bogusStep\n")

	out, err := runApp(t, "--config", cfg, "run", flowPath)
	if err == nil || !strings.Contains(err.Error(), "validation failed") {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(out, "Validation errors") {
		t.Errorf("output = %q", out)
	}
}

func TestRun_RequiresFlowArgument(t *testing.T) {
	_, err := runApp(t, "run")
	if err == nil {
		t.Fatal("expected an error without flow paths")
	}
}

func TestWindowCommand(t *testing.T) {
	fake, srv := newFakeAppium(t, nil)
	cfg := writeConfig(t, srv.URL)

	out, err := runApp(t, "--config", cfg, "window")
	if err != nil {
		t.Fatalf("window failed: %v", err)
	}
	if !strings.Contains(out, "1080x2340") {
		t.Errorf("output = %q", out)
	}
	if !fake.saw("DELETE /session/s1") {
		t.Error("session was not closed")
	}
}

func TestTapCommand(t *testing.T) {
	fake, srv := newFakeAppium(t, map[string]string{"Inloggen": "el-login"})
	cfg := writeConfig(t, srv.URL)

	if _, err := runApp(t, "--config", cfg, "tap", "540", "1200"); err != nil {
		t.Fatalf("tap by coordinates failed: %v", err)
	}
	if !fake.saw("POST /session/s1/actions") {
		t.Error("expected a pointer action")
	}

	if _, err := runApp(t, "--config", cfg, "tap", "--accessibility-id", "Inloggen", "--at", "10%, 50%"); err != nil {
		t.Fatalf("tap on element failed: %v", err)
	}
	if !fake.saw("GET /session/s1/element/el-login/rect") {
		t.Error("element tap did not read the element rect")
	}

	if _, err := runApp(t, "--config", cfg, "tap", "540"); err == nil {
		t.Error("expected an error for a single coordinate")
	}
}

func TestScrollToCommand(t *testing.T) {
	_, srv := newFakeAppium(t, map[string]string{"save": "el-save"})
	cfg := writeConfig(t, srv.URL)

	out, err := runApp(t, "--config", cfg, "scroll-to", "--id", "save")
	if err != nil {
		t.Fatalf("scroll-to failed: %v", err)
	}
	if !strings.Contains(out, "el-save") {
		t.Errorf("output = %q", out)
	}

	if _, err := runApp(t, "--config", cfg, "scroll-to"); err == nil {
		t.Error("expected an error without a selector")
	}
}

func TestScrollCommandRejectsBadDirection(t *testing.T) {
	if _, err := runApp(t, "scroll", "sideways"); err == nil {
		t.Error("expected an error for an unknown direction")
	}
}

func TestParseEnvVars(t *testing.T) {
	vars, err := parseEnvVars([]string{"USER=smercer", "URL=http://x?a=b", "EMPTY="})
	if err != nil {
		t.Fatal(err)
	}
	if vars["USER"] != "smercer" || vars["URL"] != "http://x?a=b" || vars["EMPTY"] != "" {
		t.Errorf("vars = %v", vars)
	}

	for _, bad := range []string{"NOVALUE", "=value"} {
		if _, err := parseEnvVars([]string{bad}); err == nil {
			t.Errorf("parseEnvVars(%q) should fail", bad)
		}
	}
}

func TestParseArtifactMode(t *testing.T) {
	tests := []struct {
		in   string
		want executor.ArtifactMode
	}{
		{"", executor.ArtifactOnFailure},
		{"on-failure", executor.ArtifactOnFailure},
		{"ALWAYS", executor.ArtifactAlways},
		{"never", executor.ArtifactNever},
	}
	for _, tt := range tests {
		got, err := parseArtifactMode(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("parseArtifactMode(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
	if _, err := parseArtifactMode("sometimes"); err == nil {
		t.Error("expected an error for an unknown mode")
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{250 * time.Millisecond, "250ms"},
		{1500 * time.Millisecond, "1.5s"},
		{59 * time.Second, "59.0s"},
		{125 * time.Second, "2m 5s"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestParseFloats(t *testing.T) {
	v, err := parseFloats([]string{"1", "2.5", "3", "4"}, 4)
	if err != nil || v[1] != 2.5 {
		t.Errorf("parseFloats = %v, %v", v, err)
	}
	if _, err := parseFloats([]string{"1", "x"}, 2); err == nil {
		t.Error("expected an error for a non-numeric coordinate")
	}
}

func TestNewApp_HelpAndVersion(t *testing.T) {
	for _, args := range [][]string{
		{"--help"},
		{"-h"},
		{"--version"},
		{"-v"},
		{"run", "--help"},
		{"tap", "--help"},
		{"scroll-to", "--help"},
	} {
		out, err := runApp(t, args...)
		if err != nil {
			t.Errorf("%v: %v", args, err)
		}
		if out == "" {
			t.Errorf("%v printed nothing", args)
		}
	}
}

func TestWindowCommand_Verbose(t *testing.T) {
	_, srv := newFakeAppium(t, nil)
	cfg := writeConfig(t, srv.URL)

	out, err := runApp(t, "--config", cfg, "--verbose", "window")
	if err != nil {
		t.Fatalf("window failed: %v", err)
	}
	if !strings.Contains(out, "1080x2340") {
		t.Errorf("output = %q", out)
	}
}

func TestNewApp_Commands(t *testing.T) {
	app := NewApp()
	want := []string{"run", "window", "tap", "swipe", "scroll", "scroll-to"}
	for _, name := range want {
		if app.Command(name) == nil {
			t.Errorf("missing command %q", name)
		}
	}
}
