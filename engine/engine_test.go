package engine

import (
	"testing"

	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/rdg"
)

func TestGraphDebugConfigAppliesAtFrameBoundary(t *testing.T) {
	config := DefaultApplicationConfig()
	config.Headless = true
	e, err := New(&Game{ApplicationConfig: config})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	e.graphConfig = &rdg.Config{Validation: true, HeapAlignment: 64 * 1024}

	e.onConfigChanged(core.EventContext{
		Type: core.EVENT_CODE_DEBUG_CONFIG_CHANGED,
		Data: &GraphDebugConfig{Validation: false, HeapAlignmentKB: 8192},
	})
	// the event handler must only queue; the shared config is read while
	// frames record and may not change under them
	if !e.graphConfig.Validation {
		t.Fatal("config was mutated before the frame boundary")
	}

	debug := e.pendingDebug.Swap(nil)
	if debug == nil {
		t.Fatal("no debug config was queued")
	}
	e.applyGraphDebug(debug)
	if e.graphConfig.Validation {
		t.Error("validation was not switched off")
	}
	if e.graphConfig.HeapAlignment != 1024*1024 {
		t.Errorf("alignment = %d, want clamped to 1 MiB", e.graphConfig.HeapAlignment)
	}

	// wrong payload type is ignored, not queued
	e.onConfigChanged(core.EventContext{
		Type: core.EVENT_CODE_DEBUG_CONFIG_CHANGED,
		Data: "not a config",
	})
	if e.pendingDebug.Load() != nil {
		t.Error("malformed event payload was queued")
	}
}
