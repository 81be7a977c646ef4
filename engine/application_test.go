package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spaghettifunk/prism/engine/core"
)

func TestDefaultApplicationConfig(t *testing.T) {
	config := DefaultApplicationConfig()
	if config.FramesInFlight != 3 {
		t.Errorf("FramesInFlight = %d, want 3", config.FramesInFlight)
	}
	if !config.Graph.Validation {
		t.Error("validation must default to on")
	}
	if config.Headless {
		t.Error("headless must default to off")
	}
}

func TestLoadApplicationConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prism.toml")
	content := `
name = "Config Test"
start_width = 1920
start_height = 1080
log_level = 0
headless = true
frames_in_flight = 2

[graph]
validation = false
heap_alignment_kb = 128
dump_first_frame = true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	config, err := LoadApplicationConfig(path)
	if err != nil {
		t.Fatalf("LoadApplicationConfig: %v", err)
	}
	if config.Name != "Config Test" {
		t.Errorf("Name = %q", config.Name)
	}
	if config.StartWidth != 1920 || config.StartHeight != 1080 {
		t.Errorf("size = %dx%d, want 1920x1080", config.StartWidth, config.StartHeight)
	}
	if config.LogLevel != core.DebugLevel {
		t.Errorf("LogLevel = %d, want DebugLevel", config.LogLevel)
	}
	if !config.Headless || config.FramesInFlight != 2 {
		t.Errorf("headless=%t framesInFlight=%d", config.Headless, config.FramesInFlight)
	}
	if config.Graph.Validation {
		t.Error("validation was not overridden to false")
	}
	if config.Graph.HeapAlignmentKB != 128 || !config.Graph.DumpFirstFrame {
		t.Errorf("graph section = %+v", config.Graph)
	}
	// unset keys keep their defaults
	if config.StartPosX != 100 {
		t.Errorf("StartPosX = %d, want default 100", config.StartPosX)
	}
}

func TestLoadApplicationConfigMissingFile(t *testing.T) {
	if _, err := LoadApplicationConfig(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Error("loading a missing config succeeded")
	}
}
