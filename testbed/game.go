package testbed

import (
	"os"

	"github.com/spaghettifunk/prism/engine"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer"
	"github.com/spaghettifunk/prism/engine/renderer/passes"
	"github.com/spaghettifunk/prism/engine/renderer/rdg"
)

type TestGame struct {
	*engine.Game
}

type gameState struct {
	width  uint32
	height uint32

	// draw the shadow pass every other frame to show re-recording
	shadowEnabled bool
	framesDrawn   uint64
	dumped        bool
}

func NewTestGame() (*TestGame, error) {
	config := engine.DefaultApplicationConfig()
	config.Name = "Prism Testbed"
	config.LogLevel = core.DebugLevel
	if path := os.Getenv("PRISM_CONFIG"); path != "" {
		loaded, err := engine.LoadApplicationConfig(path)
		if err != nil {
			return nil, err
		}
		config = loaded
	}

	tg := &TestGame{
		Game: &engine.Game{
			ApplicationConfig: config,
			State: &gameState{
				shadowEnabled: true,
			},
		},
	}

	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnRender = tg.Render
	tg.FnOnResize = tg.OnResize

	return tg, nil
}

func (g *TestGame) Initialize() error {
	core.LogDebug("TestGame Initialize fn....")
	return nil
}

func (g *TestGame) Update(deltaTime float64) error {
	state := g.State.(*gameState)
	// Toggle the shadow pass periodically; the graph is re-recorded from
	// scratch every frame so the pass set is free to change.
	state.shadowEnabled = (state.framesDrawn/240)%2 == 0
	return nil
}

// Render declares the deferred pipeline for this frame: shadow and geometry
// buffer passes feeding a lighting resolve, tone-mapped into the back buffer.
func (g *TestGame) Render(r *renderer.RendererSystem, deltaTime float64) error {
	state := g.State.(*gameState)

	err := r.DrawFrame(func(graph *rdg.Graph, backBuffer rdg.TextureHandle, width, height uint32) error {
		var shadow *passes.ShadowData
		if state.shadowEnabled {
			var err error
			if shadow, err = passes.AddShadowPass(graph); err != nil {
				return err
			}
		}
		gbuffer, err := passes.AddGBufferPass(graph, width, height)
		if err != nil {
			return err
		}
		lighting, err := passes.AddLightingPass(graph, gbuffer, shadow, width, height)
		if err != nil {
			return err
		}
		_, err = passes.AddToneMapPass(graph, lighting, backBuffer)
		return err
	})
	if err != nil {
		return err
	}
	state.framesDrawn++

	if !state.dumped && g.ApplicationConfig.Graph.DumpFirstFrame {
		state.dumped = true
		if err := r.DumpLastFrame(os.Stdout); err != nil {
			core.LogWarn(err.Error())
		}
	}
	return nil
}

func (g *TestGame) OnResize(width uint32, height uint32) error {
	state := g.State.(*gameState)
	state.width = width
	state.height = height
	return nil
}
