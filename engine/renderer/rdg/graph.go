package rdg

import (
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

type GraphState int

const (
	// Graph has no frame in flight.
	GraphStateIdle GraphState = iota
	// Between BeginFrame and Compile; passes and resources may be added.
	GraphStateRecording
	// Compile produced a frozen execution plan.
	GraphStateCompiled
	// Execute walked the plan; the next BeginFrame recycles everything.
	GraphStateExecuted
)

func (s GraphState) String() string {
	switch s {
	case GraphStateIdle:
		return "Idle"
	case GraphStateRecording:
		return "Recording"
	case GraphStateCompiled:
		return "Compiled"
	case GraphStateExecuted:
		return "Executed"
	}
	return "Unknown"
}

// Config carries the per-graph knobs. One Config is shared by all graphs in
// the frame ring; the debug toggles may be flipped between frames by the
// config watcher.
type Config struct {
	// Validation turns builder misuse into AddPass errors instead of logged no-ops.
	Validation bool
	// HeapAlignment is the conservative placement alignment for transient
	// resources whose exact backend alignment is unknown at compile time.
	HeapAlignment uint64
}

const defaultHeapAlignment uint64 = 64 * 1024

// Graph owns one frame's recording: the resource registry and the pass list.
// One instance exists per frame-in-flight slot and is threaded explicitly
// through the render loop; it is not safe for concurrent use and does not
// need to be, recording and compilation being single-threaded by design.
type Graph struct {
	ID      uuid.UUID
	backend Backend
	config  *Config

	state    GraphState
	frameID  uint32
	registry registry
	passes   []*PassRecord
	compiled *CompiledGraph

	// physical transient heap, reused frame to frame and grown on demand
	heap     Heap
	heapSize uint64
}

func New(backend Backend, config *Config) *Graph {
	if config == nil {
		config = &Config{Validation: true}
	}
	if config.HeapAlignment == 0 {
		config.HeapAlignment = defaultHeapAlignment
	}
	return &Graph{
		ID:      uuid.New(),
		backend: backend,
		config:  config,
		state:   GraphStateIdle,
	}
}

// BeginFrame resets the registry and pass list and opens a new recording
// session. Every handle from the previous frame is invalid from here on.
func (g *Graph) BeginFrame(frameID uint32) error {
	if g.state != GraphStateIdle && g.state != GraphStateExecuted {
		return fmt.Errorf("BeginFrame in state %s: %w", g.state, core.ErrNotRecording)
	}
	g.state = GraphStateRecording
	g.frameID = frameID
	g.registry.reset(frameID)
	g.passes = g.passes[:0]
	g.compiled = nil
	return nil
}

// FrameID returns the frame counter of the current recording session.
func (g *Graph) FrameID() uint32 {
	return g.frameID
}

// State returns the current point in the Idle/Recording/Compiled/Executed cycle.
func (g *Graph) State() GraphState {
	return g.state
}

// CreateTexture registers a transient texture on the graph directly, outside
// any pass. Returns the invalid handle when no recording session is active.
func (g *Graph) CreateTexture(name string, desc metadata.TextureDesc) TextureHandle {
	if g.state != GraphStateRecording {
		core.LogWarn("CreateTexture(%s) in state %s", name, g.state)
		return InvalidTextureHandle
	}
	return g.registry.createTexture(name, desc, ownerNone)
}

// CreateBuffer registers a transient buffer on the graph directly.
func (g *Graph) CreateBuffer(name string, desc metadata.BufferDesc) BufferHandle {
	if g.state != GraphStateRecording {
		core.LogWarn("CreateBuffer(%s) in state %s", name, g.state)
		return InvalidBufferHandle
	}
	return g.registry.createBuffer(name, desc, ownerNone)
}

// ImportTexture wraps an already-existing physical resource (for example the
// swap-chain back buffer) in a frame-local handle. Imported resources are
// never aliased and never culled; a pass writing one is externally required.
func (g *Graph) ImportTexture(name string, external Resource, desc metadata.TextureDesc) TextureHandle {
	if g.state != GraphStateRecording {
		core.LogWarn("ImportTexture(%s) in state %s", name, g.state)
		return InvalidTextureHandle
	}
	return g.registry.importTexture(name, external, desc)
}

// TextureCount reports how many virtual textures this frame registered.
func (g *Graph) TextureCount() int { return g.registry.textureCount() }

// BufferCount reports how many virtual buffers this frame registered.
func (g *Graph) BufferCount() int { return g.registry.bufferCount() }

// AddPass records one pass. The setup closure runs synchronously before
// AddPass returns, so every resource creation and access declaration for the
// pass happens immediately. The typed pass data is returned so later passes
// can consume the handles it carries; the same pointer is handed to the
// execute closure during Execute.
func AddPass[T any](g *Graph, name string, setup func(data *T, builder *Builder) error, execute func(data *T, ctx *ExecuteContext) error) (*T, error) {
	if g.state != GraphStateRecording {
		return nil, fmt.Errorf("AddPass(%s) in state %s: %w", name, g.state, core.ErrNotRecording)
	}

	data := new(T)
	pass := &PassRecord{
		Name:           name,
		recordingIndex: len(g.passes),
	}
	builder := &Builder{graph: g, pass: pass}
	if err := setup(data, builder); err != nil {
		return nil, fmt.Errorf("pass %s setup failed: %w", name, err)
	}
	if builder.err != nil {
		return nil, fmt.Errorf("pass %s declared an invalid access: %w", name, builder.err)
	}

	pass.data = data
	pass.execute = func(d interface{}, ctx *ExecuteContext) error {
		return execute(d.(*T), ctx)
	}
	g.passes = append(g.passes, pass)
	return data, nil
}

// Compile freezes the recording into an execution plan: culling, ordering,
// lifetime analysis and transient memory assignment. Valid exactly once per
// frame.
func (g *Graph) Compile() error {
	if g.state == GraphStateCompiled {
		return core.ErrAlreadyCompiled
	}
	if g.state != GraphStateRecording {
		return fmt.Errorf("Compile in state %s: %w", g.state, core.ErrNotRecording)
	}

	compiled, err := compile(&g.registry, g.passes, g.config.HeapAlignment)
	if err != nil {
		return err
	}
	g.registry.close()
	g.compiled = compiled
	g.state = GraphStateCompiled

	core.LogDebug("graph %s frame %d compiled: %d/%d passes, %d barriers, transient peak %d bytes",
		g.ID, g.frameID, len(compiled.Passes), compiled.Stats.PassesRecorded,
		compiled.Stats.Barriers, compiled.Stats.HeapPeak)
	return nil
}

// Compiled returns the frozen execution plan, or nil before Compile.
func (g *Graph) Compiled() *CompiledGraph {
	return g.compiled
}

// DumpGraph writes a human-readable dump of the recorded passes, their
// accesses and, once compiled, the final order and resource lifetimes.
// It never mutates graph state.
func (g *Graph) DumpGraph(w io.Writer) {
	fmt.Fprintf(w, "frame graph %s frame=%d state=%s\n", g.ID, g.frameID, g.state)
	fmt.Fprintf(w, "recorded passes (%d):\n", len(g.passes))
	for _, pass := range g.passes {
		fmt.Fprintf(w, "  [%d] %s\n", pass.recordingIndex, pass.Name)
		for _, access := range pass.Accesses {
			entry := &g.registry.entries[access.Resource]
			rw := "read"
			if access.Write {
				rw = "write"
			}
			fmt.Fprintf(w, "      %-5s %s %s\n", rw, access.Kind, entry.name)
		}
	}
	if g.compiled == nil {
		return
	}
	fmt.Fprintf(w, "compiled order (%d passes, %d culled):\n",
		len(g.compiled.Passes), g.compiled.Stats.PassesCulled)
	for i, pass := range g.compiled.Passes {
		fmt.Fprintf(w, "  [%d] %s\n", i, pass.Name)
	}
	fmt.Fprintf(w, "resources:\n")
	for i := range g.registry.entries {
		entry := &g.registry.entries[i]
		lt := g.compiled.Lifetimes[i]
		if !g.compiled.Alive[i] {
			fmt.Fprintf(w, "  [%d] %s %s culled\n", i, entry.kind, entry.name)
			continue
		}
		if entry.imported {
			fmt.Fprintf(w, "  [%d] %s %s imported id=%s lifetime=[%d,%d]\n",
				i, entry.kind, entry.name, entry.importID, lt.First, lt.Last)
			continue
		}
		assign := g.compiled.Assignments[i]
		fmt.Fprintf(w, "  [%d] %s %s lifetime=[%d,%d] heap=[%d,%d]\n",
			i, entry.kind, entry.name, lt.First, lt.Last, assign.Offset, assign.Size)
	}
}
