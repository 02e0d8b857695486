package appium

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/quokka-io/mobile-harness/pkg/core"
)

// capturedSource is the single pointer source sent to /actions.
type capturedSource struct {
	Type       string                   `json:"type"`
	ID         string                   `json:"id"`
	Parameters map[string]string        `json:"parameters"`
	Actions    []map[string]interface{} `json:"actions"`
}

func captureActions(t *testing.T, g core.Gesture) []capturedSource {
	t.Helper()
	var sources []capturedSource
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/session/test-session/actions" || r.Method != "POST" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		var body struct {
			Actions []capturedSource `json:"actions"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode actions: %v", err)
		}
		sources = body.Actions
		writeJSON(w, map[string]interface{}{"value": nil})
	}))
	defer server.Close()

	if err := newSessionClient(server.URL).PerformGesture(context.Background(), g); err != nil {
		t.Fatalf("PerformGesture failed: %v", err)
	}
	return sources
}

func TestPerformGesture_Tap(t *testing.T) {
	sources := captureActions(t, core.Gesture{
		Start:    core.Point{X: 540, Y: 1200},
		End:      core.Point{X: 540, Y: 1200},
		Duration: 200 * time.Millisecond,
	})

	if len(sources) != 1 {
		t.Fatalf("Expected one pointer source, got %d", len(sources))
	}
	src := sources[0]
	if src.Type != "pointer" || src.ID != "finger1" || src.Parameters["pointerType"] != "touch" {
		t.Errorf("unexpected source header: %+v", src)
	}

	want := []map[string]interface{}{
		{"type": "pointerMove", "duration": 0.0, "x": 540.0, "y": 1200.0, "origin": "viewport"},
		{"type": "pointerDown", "button": 0.0},
		{"type": "pause", "duration": 200.0},
		{"type": "pointerUp", "button": 0.0},
	}
	if !reflect.DeepEqual(src.Actions, want) {
		t.Errorf("Expected actions %v, got %v", want, src.Actions)
	}
}

func TestPerformGesture_Swipe(t *testing.T) {
	sources := captureActions(t, core.Gesture{
		Start:    core.Point{X: 200, Y: 1000},
		End:      core.Point{X: 800, Y: 1000},
		Duration: 300 * time.Millisecond,
	})

	want := []map[string]interface{}{
		{"type": "pointerMove", "duration": 0.0, "x": 200.0, "y": 1000.0, "origin": "viewport"},
		{"type": "pointerDown", "button": 0.0},
		{"type": "pointerMove", "duration": 300.0, "x": 800.0, "y": 1000.0, "origin": "viewport"},
		{"type": "pointerUp", "button": 0.0},
	}
	if !reflect.DeepEqual(sources[0].Actions, want) {
		t.Errorf("Expected actions %v, got %v", want, sources[0].Actions)
	}
}

func TestPerformGesture_OutOfBoundsFromServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeW3CError(w, http.StatusBadRequest, "move target out of bounds", "(5000, 10) is outside the viewport")
	}))
	defer server.Close()

	err := newSessionClient(server.URL).PerformGesture(context.Background(), core.Gesture{
		Start: core.Point{X: 5000, Y: 10}, End: core.Point{X: 5000, Y: 10}, Duration: time.Millisecond,
	})
	if core.CategoryOf(err) != core.ErrCategoryInvalidArgument {
		t.Fatalf("Expected invalid argument, got %v", err)
	}
}
