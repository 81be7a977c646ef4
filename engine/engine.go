package engine

import (
	"fmt"
	"sync/atomic"

	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/math"
	"github.com/spaghettifunk/prism/engine/platform"
	"github.com/spaghettifunk/prism/engine/renderer"
	"github.com/spaghettifunk/prism/engine/renderer/headless"
	"github.com/spaghettifunk/prism/engine/renderer/rdg"
	"github.com/spaghettifunk/prism/engine/renderer/vulkan"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

type Engine struct {
	currentStage Stage
	gameInstance *Game
	isRunning    bool
	isSuspended  bool

	platform      *platform.Platform
	renderer      *renderer.RendererSystem
	graphConfig   *rdg.Config
	configWatcher *ConfigWatcher

	// reloaded debug settings queued by the event goroutine, applied by the
	// run loop between frames
	pendingDebug atomic.Pointer[GraphDebugConfig]

	width    uint32
	height   uint32
	clock    *core.Clock
	metrics  *core.Metrics
	lastTime float64
}

func New(g *Game) (*Engine, error) {
	config := g.ApplicationConfig
	core.SetLogLevel(config.LogLevel)

	return &Engine{
		currentStage: EngineStageUninitialized,
		gameInstance: g,
		clock:        core.NewClock(),
		metrics:      core.NewMetrics(),
		platform:     platform.New(),
		isRunning:    true,
		isSuspended:  false,
		width:        config.StartWidth,
		height:       config.StartHeight,
		lastTime:     0,
	}, nil
}

func (e *Engine) Initialize() error {
	e.currentStage = EngineStageInitializing
	config := e.gameInstance.ApplicationConfig

	if !core.EventSystemInitialize() {
		return fmt.Errorf("failed to initialize the event system")
	}
	core.EventRegister(core.EVENT_CODE_APPLICATION_QUIT, e.onEvent)
	core.EventRegister(core.EVENT_CODE_RESIZED, e.onResized)
	core.EventRegister(core.EVENT_CODE_DEBUG_CONFIG_CHANGED, e.onConfigChanged)

	e.graphConfig = &rdg.Config{
		Validation:    config.Graph.Validation,
		HeapAlignment: uint64(config.Graph.HeapAlignmentKB) * 1024,
	}

	var backend renderer.Backend
	if config.Headless {
		backend = headless.New()
	} else {
		if err := e.platform.Startup(config.Name,
			config.StartPosX, config.StartPosY,
			config.StartWidth, config.StartHeight); err != nil {
			return err
		}
		e.platform.InstallVulkanLoader()
		vulkanBackend := vulkan.New()
		if err := vulkanBackend.Initialize(config.Name, e.platform.RequiredVulkanExtensions()); err != nil {
			return err
		}
		backend = vulkanBackend
	}

	rendererSystem, err := renderer.NewRendererSystem(backend, e.width, e.height, config.FramesInFlight, e.graphConfig)
	if err != nil {
		return err
	}
	e.renderer = rendererSystem

	if err := e.gameInstance.FnInitialize(); err != nil {
		return err
	}
	if err := e.gameInstance.FnOnResize(e.width, e.height); err != nil {
		return err
	}

	e.currentStage = EngineStageInitialized
	return nil
}

// WatchConfig starts live-reloading the debug settings from the given file.
func (e *Engine) WatchConfig(path string) error {
	watcher, err := NewConfigWatcher(path)
	if err != nil {
		return err
	}
	e.configWatcher = watcher
	return nil
}

// Renderer exposes the renderer system, mainly so games can dump frame graphs.
func (e *Engine) Renderer() *renderer.RendererSystem {
	return e.renderer
}

func (e *Engine) Run() error {
	e.currentStage = EngineStageRunning
	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	// process all the events around the engine
	go core.ProcessEvents()

	headlessRun := e.gameInstance.ApplicationConfig.Headless

	for e.isRunning {
		if !headlessRun && !e.platform.PumpMessages() {
			e.isRunning = false
		}

		if e.isSuspended {
			continue
		}

		if debug := e.pendingDebug.Swap(nil); debug != nil {
			e.applyGraphDebug(debug)
		}

		e.clock.Update()
		currentTime := e.clock.Elapsed()
		delta := currentTime - e.lastTime

		if err := e.gameInstance.FnUpdate(delta); err != nil {
			core.LogFatal("Game update failed, shutting down.")
			e.isRunning = false
			break
		}
		if err := e.gameInstance.FnRender(e.renderer, delta); err != nil {
			core.LogFatal("Game render failed, shutting down.")
			e.isRunning = false
			break
		}

		e.metrics.Update(delta)
		e.lastTime = currentTime
	}

	e.currentStage = EngineStageShuttingDown
	return nil
}

func (e *Engine) Shutdown() error {
	if e.configWatcher != nil {
		if err := e.configWatcher.Close(); err != nil {
			core.LogWarn(err.Error())
		}
	}
	if err := core.EventSystemShutdown(); err != nil {
		return err
	}
	e.renderer.Shutdown()
	if err := e.platform.Shutdown(); err != nil {
		return err
	}
	return nil
}

// GetFramebufferSize returns the width and height (in this order)
// of the application framebuffer
func (e *Engine) GetFramebufferSize() (uint32, uint32) {
	return e.width, e.height
}

func (e *Engine) onEvent(context core.EventContext) {
	switch context.Type {
	case core.EVENT_CODE_APPLICATION_QUIT:
		core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down.")
		e.isRunning = false
	}
}

func (e *Engine) onResized(context core.EventContext) {
	se, ok := context.Data.(*core.SystemEvent)
	if !ok {
		core.LogError("wrong event associated with the event type `%d`", context.Type)
		return
	}

	width := se.WindowWidth
	height := se.WindowHeight
	if width == e.width && height == e.height {
		return
	}
	e.width = width
	e.height = height

	// Handle minimization
	if width == 0 || height == 0 {
		core.LogInfo("Window minimized, suspending application.")
		e.isSuspended = true
		return
	}
	if e.isSuspended {
		core.LogInfo("Window restored, resuming application.")
		e.isSuspended = false
	}
	if err := e.gameInstance.FnOnResize(width, height); err != nil {
		core.LogError(err.Error())
	}
	if err := e.renderer.OnResize(width, height); err != nil {
		core.LogError(err.Error())
	}
}

// onConfigChanged runs on the event goroutine; it only queues the reloaded
// settings. The graphs read the shared config while recording, so the run
// loop applies the change between frames.
func (e *Engine) onConfigChanged(context core.EventContext) {
	debug, ok := context.Data.(*GraphDebugConfig)
	if !ok {
		core.LogError("wrong event associated with the event type `%d`", context.Type)
		return
	}
	e.pendingDebug.Store(debug)
}

func (e *Engine) applyGraphDebug(debug *GraphDebugConfig) {
	e.graphConfig.Validation = debug.Validation
	if debug.HeapAlignmentKB > 0 {
		// keep the alignment inside what any backend can reasonably honor
		e.graphConfig.HeapAlignment = math.Clamp(uint64(debug.HeapAlignmentKB)*1024, 4*1024, 1024*1024)
	}
	core.LogInfo("graph debug config applied: validation=%t alignment=%d",
		e.graphConfig.Validation, e.graphConfig.HeapAlignment)
}
