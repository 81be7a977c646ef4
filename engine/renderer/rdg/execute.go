package rdg

import (
	"errors"
	"fmt"

	"github.com/spaghettifunk/prism/engine/core"
)

// ExecuteContext is handed to every pass execute closure. It resolves the
// frame-local handles the pass declared during setup to the physical
// resources the transient heap assigned.
type ExecuteContext struct {
	// Cmd is the backend command list the frame is recorded on. Passes issue
	// their draws and dispatches through it.
	Cmd CommandList

	graph    *Graph
	physical []Resource
}

// FrameID returns the frame counter the executing graph was recorded for.
func (ctx *ExecuteContext) FrameID() uint32 {
	return ctx.graph.frameID
}

// Texture resolves a declared texture handle to its physical resource.
// Returns nil for handles from another frame or culled resources.
func (ctx *ExecuteContext) Texture(h TextureHandle) Resource {
	if !ctx.graph.registry.validTexture(h) {
		core.LogError("execute: texture handle does not belong to frame %d", ctx.graph.frameID)
		return nil
	}
	return ctx.physical[h.index]
}

// Buffer resolves a declared buffer handle to its physical resource.
func (ctx *ExecuteContext) Buffer(h BufferHandle) Resource {
	if !ctx.graph.registry.validBuffer(h) {
		core.LogError("execute: buffer handle does not belong to frame %d", ctx.graph.frameID)
		return nil
	}
	return ctx.physical[h.index]
}

// Execute walks the compiled plan: per pass it materializes the physical
// resources the pass touches, flushes the batched barriers and invokes the
// execute closure. A failing pass is reported but does not abort the passes
// after it; a failing heap allocation aborts the whole frame.
func (g *Graph) Execute(cmd CommandList) error {
	if g.state != GraphStateCompiled {
		return fmt.Errorf("Execute in state %s: %w", g.state, core.ErrNotCompiled)
	}
	compiled := g.compiled

	// The transient heap is the only state shared across frames; it is only
	// grown here, never shrunk. Reuse of ranges still owned by an in-flight
	// frame is the backend's fence to wait on, not the graph's.
	if compiled.HeapSize > g.heapSize {
		heap, err := g.backend.AllocateHeap(compiled.HeapSize)
		if err != nil {
			g.state = GraphStateExecuted
			return fmt.Errorf("growing transient heap to %d bytes: %w: %v", compiled.HeapSize, core.ErrOutOfMemory, err)
		}
		g.heap = heap
		g.heapSize = compiled.HeapSize
	}

	physical := make([]Resource, len(g.registry.entries))
	for i := range g.registry.entries {
		if g.registry.entries[i].imported {
			physical[i] = g.registry.entries[i].external
		}
	}

	ctx := &ExecuteContext{Cmd: cmd, graph: g, physical: physical}
	batcher := NewBarrierBatcher()
	var passErrs []error

	for index, pass := range compiled.Passes {
		// lazily materialize transient resources on first use this frame
		for _, access := range pass.Accesses {
			if physical[access.Resource] != nil {
				continue
			}
			entry := &g.registry.entries[access.Resource]
			assign := compiled.Assignments[access.Resource]
			placement := &Placement{Heap: g.heap, Offset: assign.Offset, Size: assign.Size}

			var resource Resource
			var err error
			if entry.kind == resourceKindTexture {
				resource, err = g.backend.AllocateTexture(&entry.texture, placement)
			} else {
				resource, err = g.backend.AllocateBuffer(&entry.buffer, placement)
			}
			if err != nil {
				g.state = GraphStateExecuted
				return fmt.Errorf("materializing %s: %w: %v", entry.name, core.ErrOutOfMemory, err)
			}
			physical[access.Resource] = resource
		}

		for _, tr := range compiled.transitions[index] {
			entry := &g.registry.entries[tr.resource]
			batcher.RecordTransition(cmd, physical[tr.resource], entry.name, tr.before, tr.after)
		}
		if err := batcher.Flush(g.backend); err != nil {
			g.state = GraphStateExecuted
			return fmt.Errorf("flushing barriers before pass %s: %w", pass.Name, err)
		}

		if err := pass.execute(pass.data, ctx); err != nil {
			core.LogError("pass %s failed: %s", pass.Name, err.Error())
			passErrs = append(passErrs, fmt.Errorf("pass %s: %w", pass.Name, err))
		}
	}

	if err := g.backend.BindAndExecute(cmd); err != nil {
		g.state = GraphStateExecuted
		return fmt.Errorf("submitting frame %d: %w", g.frameID, err)
	}

	g.state = GraphStateExecuted
	return errors.Join(passErrs...)
}
