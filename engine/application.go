package engine

import (
	"fmt"
	"os"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/prism/engine/core"
)

// GraphDebugConfig carries the frame-graph knobs the config watcher is
// allowed to flip while the engine runs.
type GraphDebugConfig struct {
	// Validation turns pass-builder misuse into errors instead of logged no-ops.
	Validation bool `toml:"validation"`
	// HeapAlignmentKB is the transient-heap placement alignment in KiB.
	HeapAlignmentKB uint32 `toml:"heap_alignment_kb"`
	// DumpFirstFrame writes the compiled graph of frame zero to stdout.
	DumpFirstFrame bool `toml:"dump_first_frame"`
}

type ApplicationConfig struct {
	// Window starting position x axis, if applicable.
	StartPosX uint32 `toml:"start_pos_x"`
	// Window starting position y axis, if applicable.
	StartPosY uint32 `toml:"start_pos_y"`
	// Window starting width, if applicable.
	StartWidth uint32 `toml:"start_width"`
	// Window starting height, if applicable.
	StartHeight uint32 `toml:"start_height"`
	// The application name used in windowing, if applicable.
	Name     string        `toml:"name"`
	LogLevel core.LogLevel `toml:"log_level"`
	// Headless runs without a window or GPU, on the bookkeeping backend.
	Headless bool `toml:"headless"`
	// FramesInFlight is the size of the frame graph ring.
	FramesInFlight int `toml:"frames_in_flight"`

	Graph GraphDebugConfig `toml:"graph"`
}

func DefaultApplicationConfig() *ApplicationConfig {
	return &ApplicationConfig{
		StartPosX:      100,
		StartPosY:      100,
		StartWidth:     1280,
		StartHeight:    720,
		Name:           "Prism",
		LogLevel:       core.InfoLevel,
		FramesInFlight: 3,
		Graph: GraphDebugConfig{
			Validation: true,
		},
	}
}

// LoadApplicationConfig reads a TOML config file over the defaults.
func LoadApplicationConfig(path string) (*ApplicationConfig, error) {
	config := DefaultApplicationConfig()
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(raw, config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return config, nil
}
