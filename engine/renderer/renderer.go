package renderer

import (
	"fmt"
	"io"

	"github.com/spaghettifunk/prism/engine/containers"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
	"github.com/spaghettifunk/prism/engine/renderer/rdg"
)

// Backend is what the renderer system needs on top of the graph's own
// allocation interface: a fresh command list per frame and lifecycle hooks.
type Backend interface {
	rdg.Backend
	NewCommandList() (rdg.CommandList, error)
	ReleaseResources()
	Shutdown()
}

// FrameRecorder declares one frame's passes on the graph. The back buffer
// handle is already imported; writing it is what keeps the chain alive.
type FrameRecorder func(graph *rdg.Graph, backBuffer rdg.TextureHandle, width, height uint32) error

// RendererSystem owns the backend, the presentable back buffer and a ring of
// frame graphs, one per frame in flight. Each DrawFrame rotates the ring,
// re-records the frame from scratch and runs the compile/execute cycle.
type RendererSystem struct {
	backend Backend

	graphs      *containers.RingQueue[*rdg.Graph]
	graphConfig *rdg.Config
	frameNumber uint64
	lastGraph   *rdg.Graph

	width  uint32
	height uint32

	backBuffer     rdg.Resource
	backBufferDesc metadata.TextureDesc

	// LastStats mirrors the most recent compile, for the metrics overlay.
	LastStats rdg.CompileStats
}

func NewRendererSystem(backend Backend, width, height uint32, framesInFlight int, graphConfig *rdg.Config) (*RendererSystem, error) {
	if framesInFlight < 1 {
		framesInFlight = 1
	}
	r := &RendererSystem{
		backend:     backend,
		graphs:      containers.NewRingQueue[*rdg.Graph](framesInFlight),
		graphConfig: graphConfig,
		width:       width,
		height:      height,
	}
	for i := 0; i < framesInFlight; i++ {
		if err := r.graphs.Enqueue(rdg.New(backend, graphConfig)); err != nil {
			return nil, err
		}
	}
	if err := r.createBackBuffer(); err != nil {
		return nil, err
	}
	core.LogInfo("Renderer system created with %d frames in flight.", framesInFlight)
	return r, nil
}

// createBackBuffer allocates the dedicated presentable target the frame graph
// imports every frame. It stands in for a swap-chain image.
func (r *RendererSystem) createBackBuffer() error {
	r.backBufferDesc = metadata.TextureDesc{
		Width:       r.width,
		Height:      r.height,
		Format:      metadata.TextureFormatBGRA8,
		Usage:       metadata.TextureUsageRenderTarget,
		SampleCount: 1,
		Name:        "BackBuffer",
	}
	backBuffer, err := r.backend.AllocateTexture(&r.backBufferDesc, nil)
	if err != nil {
		return fmt.Errorf("failed to create back buffer: %w", err)
	}
	r.backBuffer = backBuffer
	return nil
}

// OnResize recreates the back buffer at the new size. The transient targets
// follow automatically since every frame re-records them at the current size.
func (r *RendererSystem) OnResize(width, height uint32) error {
	if width == r.width && height == r.height {
		return nil
	}
	core.LogDebug("Renderer resize %dx%d -> %dx%d", r.width, r.height, width, height)
	r.width = width
	r.height = height
	return r.createBackBuffer()
}

// FrameNumber returns the number of frames drawn so far.
func (r *RendererSystem) FrameNumber() uint64 {
	return r.frameNumber
}

// Size returns the current back buffer dimensions.
func (r *RendererSystem) Size() (uint32, uint32) {
	return r.width, r.height
}

// DrawFrame runs one full frame: rotate the graph ring, record through the
// recorder callback, compile and execute.
func (r *RendererSystem) DrawFrame(recorder FrameRecorder) error {
	graph, err := r.graphs.Rotate()
	if err != nil {
		return err
	}
	r.lastGraph = graph

	if err := graph.BeginFrame(uint32(r.frameNumber)); err != nil {
		return err
	}
	backBuffer := graph.ImportTexture("BackBuffer", r.backBuffer, r.backBufferDesc)

	if err := recorder(graph, backBuffer, r.width, r.height); err != nil {
		return fmt.Errorf("recording frame %d: %w", r.frameNumber, err)
	}
	if err := graph.Compile(); err != nil {
		return fmt.Errorf("compiling frame %d: %w", r.frameNumber, err)
	}
	r.LastStats = graph.Compiled().Stats

	cmd, err := r.backend.NewCommandList()
	if err != nil {
		return fmt.Errorf("opening command list for frame %d: %w", r.frameNumber, err)
	}
	if err := graph.Execute(cmd); err != nil {
		return fmt.Errorf("executing frame %d: %w", r.frameNumber, err)
	}
	// the submit has completed, so this frame's transients can be released
	r.backend.ReleaseResources()

	r.frameNumber++
	return nil
}

// DumpLastFrame writes the most recently drawn graph in human-readable form.
func (r *RendererSystem) DumpLastFrame(w io.Writer) error {
	if r.lastGraph == nil {
		return fmt.Errorf("no frame drawn yet")
	}
	r.lastGraph.DumpGraph(w)
	return nil
}

func (r *RendererSystem) Shutdown() {
	r.backend.ReleaseResources()
	r.backend.Shutdown()
	core.LogInfo("Renderer system shut down.")
}
